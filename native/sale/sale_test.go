package sale

import (
	"errors"
	"testing"

	coreerrors "nftwrapped/core/errors"
)

func TestZeroValueIsPresale(t *testing.T) {
	var s State
	if !s.IsPresale() {
		t.Fatalf("expected zero state to be presale")
	}
	if err := s.Require(PhasePresale); err != nil {
		t.Fatalf("presale requirement: %v", err)
	}
	if err := s.Require(PhaseMainSale); !errors.Is(err, coreerrors.ErrWrongPhase) {
		t.Fatalf("expected wrong phase, got %v", err)
	}
}

func TestEndPresaleIsOneWay(t *testing.T) {
	var s State
	if err := s.EndPresale(); err != nil {
		t.Fatalf("end presale: %v", err)
	}
	if s.IsPresale() {
		t.Fatalf("expected main sale after first call")
	}
	if err := s.EndPresale(); !errors.Is(err, coreerrors.ErrAlreadyEnded) {
		t.Fatalf("expected already ended, got %v", err)
	}
	if s.IsPresale() {
		t.Fatalf("failed second call must not re-enter presale")
	}
	if s.Phase.String() != "mainsale" {
		t.Fatalf("unexpected phase string %q", s.Phase.String())
	}
}
