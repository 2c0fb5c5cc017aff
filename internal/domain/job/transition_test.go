package job

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name  string
		from  Status
		to    Status
		actor string
		ok    bool
	}{
		{"tech accepts pending", StatusPending, StatusInProgress, ActorTech, true},
		{"user cannot accept", StatusPending, StatusInProgress, ActorUser, false},
		{"user cancels pending", StatusPending, StatusCancelled, ActorUser, true},
		{"user completes in progress", StatusInProgress, StatusCompleted, ActorUser, true},
		{"complete requires in progress", StatusPending, StatusCompleted, ActorAdmin, false},
		{"tech cannot cancel running job", StatusInProgress, StatusCancelled, ActorTech, false},
		{"admin declines pending", StatusPending, StatusDeclined, ActorAdmin, true},
		{"completed is terminal", StatusCompleted, StatusPending, ActorAdmin, false},
		{"declined is terminal", StatusDeclined, StatusInProgress, ActorAdmin, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanTransition(tc.from, tc.to, tc.actor)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidTransition))
		})
	}
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusInProgress, StatusDeclined, StatusCancelled}, NextStatuses(StatusPending))
	assert.Empty(t, NextStatuses(StatusCompleted))
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusInProgress.Terminal())
}
