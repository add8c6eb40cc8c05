package waitlist

// Priority score weights. Higher scores are served first; ties fall back to
// sequence order, so FIFO still holds within a priority class.
const (
	baseScore          = 100
	seniorCitizenBonus = 50
	handicappedBonus   = 40
	ladiesBonus        = 30
	tatkalPenalty      = 20
)

// ComputePriorityScore derives the priority score assigned to an entry at
// creation. The score is frozen on the record; sweeps never recompute it.
func ComputePriorityScore(quota QuotaType, ladies, seniorCitizen, handicapped bool) int {
	score := baseScore
	if seniorCitizen {
		score += seniorCitizenBonus
	}
	if ladies {
		score += ladiesBonus
	}
	if handicapped {
		score += handicappedBonus
	}
	if quota == QuotaTatkal || quota == QuotaPremiumTatkal {
		score -= tatkalPenalty
	}
	return score
}

// ConfirmationChance represents the banded confirmation heuristic
type ConfirmationChance struct {
	Percent int    `json:"percent"`
	Band    string `json:"band"`
}

// EstimateConfirmationChance maps a queue position against coach capacity to
// a coarse band. Position counts open entries at or ahead of the subject.
func EstimateConfirmationChance(position, totalSeats int) ConfirmationChance {
	if totalSeats <= 0 {
		return ConfirmationChance{Percent: 10, Band: "very_low"}
	}

	switch {
	case position <= totalSeats:
		return ConfirmationChance{Percent: 90, Band: "high"}
	case float64(position) <= float64(totalSeats)*1.5:
		return ConfirmationChance{Percent: 60, Band: "medium"}
	case position <= totalSeats*2:
		return ConfirmationChance{Percent: 30, Band: "low"}
	default:
		return ConfirmationChance{Percent: 10, Band: "very_low"}
	}
}
