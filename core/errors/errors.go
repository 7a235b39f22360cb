package errors

import stderrors "errors"

// Authorization failures shared by the minting engines. Engines return these
// sentinels (optionally wrapped with %w) so callers can match with errors.Is.
var (
	ErrUnauthorized        = stderrors.New("mint: caller not authorized")
	ErrNotWhitelisted      = stderrors.New("mint: caller not whitelisted")
	ErrInsufficientPayment = stderrors.New("mint: payment below price")
	ErrWrongPhase          = stderrors.New("mint: wrong sale phase")
	ErrAlreadyEnded        = stderrors.New("mint: presale already ended")
	ErrInvalidCallee       = stderrors.New("mint: function call to a non-contract account")
	ErrInsufficientFunds   = stderrors.New("mint: insufficient balance")
)
