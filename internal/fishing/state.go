package fishing

import "fmt"

// State is the agent's current phase.
type State int32

const (
	Idle State = iota
	Casting
	LocatingTarget
	ConfirmingCue
	Retrieving
)

var stateNames = [...]string{
	Idle:           "idle",
	Casting:        "casting",
	LocatingTarget: "locating_target",
	ConfirmingCue:  "confirming_cue",
	Retrieving:     "retrieving",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Outcome classifies a finished cycle.
type Outcome string

const (
	OutcomeCaught    Outcome = "caught"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeNoTarget  Outcome = "no_target"
	OutcomeCancelled Outcome = "cancelled"
)
