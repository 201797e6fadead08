package models

import "errors"

// Sentinel errors for the analysis pipeline. Callers branch on these with
// errors.Is; the wrapping sites attach the offending identifiers.
var (
	ErrUnknownDirection     = errors.New("unknown transfer direction")
	ErrInvalidEvent         = errors.New("invalid financial event")
	ErrInvalidAddress       = errors.New("invalid solana address")
	ErrInvalidSignature     = errors.New("invalid transaction signature")
	ErrArithmeticOverflow   = errors.New("arithmetic overflow")
	ErrDivisionByZero       = errors.New("division by zero")
	ErrMixedDirections      = errors.New("mixed volatile transfer directions in trade")
	ErrZeroVolatileQuantity = errors.New("zero volatile quantity in trade")
	ErrNoEvents             = errors.New("no events to analyze")
	ErrPriceUnavailable     = errors.New("price unavailable")
)
