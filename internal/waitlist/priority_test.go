package waitlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePriorityScore(t *testing.T) {
	tests := []struct {
		name        string
		quota       QuotaType
		ladies      bool
		senior      bool
		handicapped bool
		want        int
	}{
		{"base general", QuotaGeneral, false, false, false, 100},
		{"senior citizen", QuotaGeneral, false, true, false, 150},
		{"ladies", QuotaLadies, true, false, false, 130},
		{"handicapped", QuotaHandicapped, false, false, true, 140},
		{"tatkal pays a penalty", QuotaTatkal, false, false, false, 80},
		{"premium tatkal pays the same penalty", QuotaPremiumTatkal, false, false, false, 80},
		{"senior tatkal nets out", QuotaTatkal, false, true, false, 130},
		{"all bonuses stack", QuotaGeneral, true, true, true, 220},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePriorityScore(tt.quota, tt.ladies, tt.senior, tt.handicapped)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateConfirmationChance(t *testing.T) {
	tests := []struct {
		name       string
		position   int
		totalSeats int
		percent    int
		band       string
	}{
		{"within capacity", 10, 72, 90, "high"},
		{"at capacity boundary", 72, 72, 90, "high"},
		{"within 1.5x", 100, 72, 60, "medium"},
		{"at 1.5x boundary", 108, 72, 60, "medium"},
		{"within 2x", 140, 72, 30, "low"},
		{"at 2x boundary", 144, 72, 30, "low"},
		{"beyond 2x", 145, 72, 10, "very_low"},
		{"zero capacity", 1, 0, 10, "very_low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chance := EstimateConfirmationChance(tt.position, tt.totalSeats)
			assert.Equal(t, tt.percent, chance.Percent)
			assert.Equal(t, tt.band, chance.Band)
		})
	}
}
