package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePNRFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		pnr, err := GeneratePNR()
		require.NoError(t, err)
		require.Len(t, pnr, 9)
		assert.Equal(t, "PNR", pnr[:3])
		for _, c := range pnr[3:] {
			assert.True(t, c >= '0' && c <= '9', "unexpected character %q in %s", c, pnr)
		}
	}
}
