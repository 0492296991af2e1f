package autoplay

// Reason explains why the engine declined to start playback. Every value is
// an expected steady state, not an error.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonDisengaged
	ReasonAlone
	ReasonQueueNotEmpty
	ReasonShuffleActive
)

func (r Reason) String() string {
	switch r {
	case ReasonDisengaged:
		return "disengaged"
	case ReasonAlone:
		return "alone"
	case ReasonQueueNotEmpty:
		return "queue not empty"
	case ReasonShuffleActive:
		return "shuffle active"
	default:
		return "none"
	}
}

// State is a snapshot of everything eligibility depends on.
type State struct {
	Engaged                bool
	ListenerCount          int
	QueueLength            int
	ActivePlaylistShuffled bool
}

// Verdict is the outcome of an eligibility evaluation.
type Verdict struct {
	Eligible bool
	Reason   Reason
}

// Evaluate decides whether autoplay may fire for the given state. Rules are
// checked in order and the first failing rule wins:
//
//  1. disengaged
//  2. alone (the bot counts as one listener, so <= 1 means nobody else)
//  3. queue not empty
//  4. active playlist in shuffle mode -- a shuffled playlist self-replenishes
//     and never reports an empty queue, so it must not be interrupted
func Evaluate(s State) Verdict {
	if !s.Engaged {
		return Verdict{Reason: ReasonDisengaged}
	}
	if s.ListenerCount <= 1 {
		return Verdict{Reason: ReasonAlone}
	}
	if s.QueueLength > 0 {
		return Verdict{Reason: ReasonQueueNotEmpty}
	}
	if s.ActivePlaylistShuffled {
		return Verdict{Reason: ReasonShuffleActive}
	}
	return Verdict{Eligible: true}
}
