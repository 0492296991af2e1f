package autoplay

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateOrderedRules(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		want    Verdict
	}{
		{
			name:  "all clear",
			state: State{Engaged: true, ListenerCount: 2},
			want:  Verdict{Eligible: true},
		},
		{
			name:  "disengaged",
			state: State{Engaged: false, ListenerCount: 5},
			want:  Verdict{Reason: ReasonDisengaged},
		},
		{
			name:  "only the bot in channel",
			state: State{Engaged: true, ListenerCount: 1},
			want:  Verdict{Reason: ReasonAlone},
		},
		{
			name:  "not connected at all",
			state: State{Engaged: true, ListenerCount: 0},
			want:  Verdict{Reason: ReasonAlone},
		},
		{
			name:  "queue has pending tracks",
			state: State{Engaged: true, ListenerCount: 2, QueueLength: 3},
			want:  Verdict{Reason: ReasonQueueNotEmpty},
		},
		{
			name:  "shuffled playlist running",
			state: State{Engaged: true, ListenerCount: 2, ActivePlaylistShuffled: true},
			want:  Verdict{Reason: ReasonShuffleActive},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.state))
		})
	}
}

func TestEvaluateDisengagedDominates(t *testing.T) {
	// Disengaged wins no matter what else is true.
	for _, s := range []State{
		{Engaged: false},
		{Engaged: false, ListenerCount: 1},
		{Engaged: false, ListenerCount: 4, QueueLength: 2},
		{Engaged: false, ListenerCount: 4, ActivePlaylistShuffled: true},
	} {
		assert.Equal(t, ReasonDisengaged, Evaluate(s).Reason)
	}
}

func TestEvaluateAloneBoundary(t *testing.T) {
	for count := 0; count <= 4; count++ {
		t.Run(fmt.Sprintf("listeners=%d", count), func(t *testing.T) {
			v := Evaluate(State{Engaged: true, ListenerCount: count})
			if count <= 1 {
				assert.False(t, v.Eligible)
				assert.Equal(t, ReasonAlone, v.Reason)
			} else {
				assert.True(t, v.Eligible)
			}
		})
	}
}

func TestEvaluateQueuePrecedesShuffle(t *testing.T) {
	// When both a non-empty queue and a shuffled playlist block autoplay,
	// the queue rule is reported because it is checked first.
	v := Evaluate(State{
		Engaged:                true,
		ListenerCount:          3,
		QueueLength:            1,
		ActivePlaylistShuffled: true,
	})
	assert.Equal(t, ReasonQueueNotEmpty, v.Reason)
}
