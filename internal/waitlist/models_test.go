package waitlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeJourneyDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2026, 9, 5, 23, 45, 0, 0, ist)

	got := NormalizeJourneyDate(late)

	// 23:45 IST is still the 5th in UTC
	assert.Equal(t, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	// already-normalized dates are a fixed point
	assert.Equal(t, got, NormalizeJourneyDate(got))
}

func TestWaitlistStatusTransitionsAreOneWay(t *testing.T) {
	assert.True(t, WaitlistStatusPending.CanTransitionTo(WaitlistStatusRac))
	assert.True(t, WaitlistStatusPending.CanTransitionTo(WaitlistStatusConfirmed))
	assert.True(t, WaitlistStatusPending.CanTransitionTo(WaitlistStatusCancelled))
	assert.True(t, WaitlistStatusPending.CanTransitionTo(WaitlistStatusExpired))

	// RAC stays open until its hold resolves
	assert.False(t, WaitlistStatusRac.IsTerminal())
	assert.True(t, WaitlistStatusRac.CanTransitionTo(WaitlistStatusConfirmed))
	assert.True(t, WaitlistStatusRac.CanTransitionTo(WaitlistStatusCancelled))
	assert.True(t, WaitlistStatusRac.CanTransitionTo(WaitlistStatusAutoCancelled))

	// nothing re-enters PENDING, and nothing leaves a closed state
	for _, from := range []WaitlistStatus{WaitlistStatusRac, WaitlistStatusConfirmed,
		WaitlistStatusCancelled, WaitlistStatusExpired, WaitlistStatusAutoCancelled} {
		assert.False(t, from.CanTransitionTo(WaitlistStatusPending), "from %s", from)
	}
	for _, from := range []WaitlistStatus{WaitlistStatusConfirmed,
		WaitlistStatusCancelled, WaitlistStatusExpired, WaitlistStatusAutoCancelled} {
		assert.True(t, from.IsTerminal(), "%s", from)
		assert.False(t, from.CanTransitionTo(WaitlistStatusRac), "from %s", from)
	}
}

func TestRacStatusTransitions(t *testing.T) {
	assert.True(t, RacStatusRac.CanTransitionTo(RacStatusConfirmed))
	assert.True(t, RacStatusRac.CanTransitionTo(RacStatusCancelled))
	assert.False(t, RacStatusConfirmed.CanTransitionTo(RacStatusCancelled))
	assert.False(t, RacStatusCancelled.CanTransitionTo(RacStatusRac))
}

func TestQuotaTypeValidation(t *testing.T) {
	assert.True(t, QuotaGeneral.IsValid())
	assert.True(t, QuotaPremiumTatkal.IsValid())
	assert.False(t, QuotaType("FIRST_CLASS").IsValid())
	assert.False(t, QuotaType("").IsValid())
}
