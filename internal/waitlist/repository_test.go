package waitlist

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPositionInFindsServingOrderIndex(t *testing.T) {
	queue := []WaitlistEntry{
		{ID: uuid.New(), WaitlistNumber: 3, PriorityScore: 150},
		{ID: uuid.New(), WaitlistNumber: 1, PriorityScore: 100},
		{ID: uuid.New(), WaitlistNumber: 2, PriorityScore: 100},
	}

	assert.Equal(t, 1, positionIn(queue, queue[0].ID))
	assert.Equal(t, 2, positionIn(queue, queue[1].ID))
	assert.Equal(t, 3, positionIn(queue, queue[2].ID))
}

func TestPositionInReportsAbsentEntryAsZero(t *testing.T) {
	queue := []WaitlistEntry{
		{ID: uuid.New(), WaitlistNumber: 1, PriorityScore: 100},
	}

	// An expired or promoted entry no longer appears in the open queue and
	// must not be counted into anyone's position.
	assert.Equal(t, 0, positionIn(queue, uuid.New()))
	assert.Equal(t, 0, positionIn(nil, uuid.New()))
}
