// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package aggregator

import (
	"fmt"
)

// State is the progress of one source through an aggregation cycle.
// Every source starts Pending, becomes Fetching, and ends either
// Merged or Skipped.
type State int

const (
	// Pending sources have not been fetched yet.
	Pending State = iota

	// Fetching sources have a request in flight.
	Fetching

	// Merged sources contributed their resources to the catalog.
	Merged

	// Skipped sources could not be fetched or decoded, and did
	// not contribute anything.
	Skipped
)

// MarshalText returns a string representing a state.
func (state State) MarshalText() ([]byte, error) {
	switch state {
	case Pending:
		return []byte("pending"), nil
	case Fetching:
		return []byte("fetching"), nil
	case Merged:
		return []byte("merged"), nil
	case Skipped:
		return []byte("skipped"), nil
	default:
		return nil, fmt.Errorf("invalid state (marshal, %+v)", int(state))
	}
}

// UnmarshalText populates a state from a string.
func (state *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*state = Pending
	case "fetching":
		*state = Fetching
	case "merged":
		*state = Merged
	case "skipped":
		*state = Skipped
	default:
		return fmt.Errorf("invalid state (unmarshal, %+v)", string(text))
	}
	return nil
}

func (state State) String() string {
	text, err := state.MarshalText()
	if err != nil {
		return fmt.Sprintf("State(%d)", int(state))
	}
	return string(text)
}
