// Package sale implements the one-way presale to main sale phase machine.
package sale

import (
	coreerrors "nftwrapped/core/errors"
)

// Phase identifies the sale phase of a collection.
type Phase uint8

const (
	// PhasePresale restricts public mints to whitelisted callers.
	PhasePresale Phase = iota
	// PhaseMainSale is terminal and open to any caller.
	PhaseMainSale
)

func (p Phase) String() string {
	switch p {
	case PhasePresale:
		return "presale"
	case PhaseMainSale:
		return "mainsale"
	default:
		return "unknown"
	}
}

// State wraps a Phase with the transition rules. The zero value is presale.
type State struct {
	Phase Phase
}

// IsPresale reports whether the presale phase is still active.
func (s State) IsPresale() bool {
	return s.Phase == PhasePresale
}

// EndPresale moves the state into the main sale. It fails on every call after
// the first.
func (s *State) EndPresale() error {
	if s.Phase != PhasePresale {
		return coreerrors.ErrAlreadyEnded
	}
	s.Phase = PhaseMainSale
	return nil
}

// Require returns ErrWrongPhase unless the state is in want.
func (s State) Require(want Phase) error {
	if s.Phase != want {
		return coreerrors.ErrWrongPhase
	}
	return nil
}
