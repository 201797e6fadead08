package models

// WarningKind enumerates the non-fatal conditions the pipeline surfaces
// instead of silently discarding data.
type WarningKind string

const (
	WarnValueImbalance   WarningKind = "value_imbalance"
	WarnMixedDirections  WarningKind = "mixed_directions"
	WarnZeroVolatile     WarningKind = "zero_volatile_quantity"
	WarnUnmatchedSell    WarningKind = "unmatched_sell"
	WarnEmptyPairSide    WarningKind = "empty_pair_side"
	WarnInvalidEvent     WarningKind = "invalid_event"
	WarnExtremePnL       WarningKind = "extreme_pnl"
	WarnMissingPrice     WarningKind = "missing_price"
	WarnTokenSkipped     WarningKind = "token_skipped"
	WarnOversoldPosition WarningKind = "oversold_position"
)

// Warning is a structured diagnostic attached to token and portfolio results.
type Warning struct {
	Kind          WarningKind `json:"kind"`
	TokenAddress  string      `json:"token_address,omitempty"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Detail        string      `json:"detail"`
}
