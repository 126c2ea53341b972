package agents

import "fmt"

// State is an agent's epidemic state.
type State uint8

const (
	StateHealthy State = iota
	StateInfected
	StateRecovering
	StateImmune
	StateDeceased
)

// AllStates lists every state in display order.
var AllStates = [...]State{StateHealthy, StateInfected, StateRecovering, StateImmune, StateDeceased}

var stateNames = [...]string{"healthy", "infected", "recovering", "immune", "deceased"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateImmune || s == StateDeceased
}

// CanTransition reports whether from -> to is a legal epidemic transition.
func CanTransition(from, to State) bool {
	switch from {
	case StateHealthy:
		return to == StateInfected
	case StateInfected:
		return to == StateRecovering || to == StateDeceased
	case StateRecovering:
		return to == StateImmune
	}
	return false
}
