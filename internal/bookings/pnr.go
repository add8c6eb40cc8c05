package bookings

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const pnrDigits = 6

// GeneratePNR produces a PNR of the form "PNR" followed by six decimal
// digits. Uniqueness is enforced by the database; callers retry on a
// collision.
func GeneratePNR() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < pnrDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNR: %w", err)
	}
	return fmt.Sprintf("PNR%0*d", pnrDigits, n), nil
}
