package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EventType is the normalized financial meaning of a transfer.
type EventType string

const (
	EventBuy     EventType = "buy"
	EventSell    EventType = "sell"
	EventReceive EventType = "receive"
	EventSend    EventType = "send"
)

// FinancialEvent is the normalized unit the matching engine consumes.
// Every event carries a concrete USD price; transfers that could not be
// priced never become events.
type FinancialEvent struct {
	EventID          string          `json:"event_id"`
	TransactionID    string          `json:"transaction_id"`
	WalletAddress    string          `json:"wallet_address"`
	EventType        EventType       `json:"event_type"`
	TokenAddress     string          `json:"token_address"`
	TokenSymbol      string          `json:"token_symbol"`
	Quantity         decimal.Decimal `json:"quantity"`
	USDPricePerToken decimal.Decimal `json:"usd_price_per_token"`
	USDValue         decimal.Decimal `json:"usd_value"`
	Timestamp        time.Time       `json:"timestamp"`
	// CounterpartToken cross-references the other leg of a token-to-token
	// swap. Empty for stable-quoted trades and plain transfers.
	CounterpartToken string `json:"counterpart_token,omitempty"`
}

// NewFinancialEvent builds an event with a derived EventID and the USD value
// precomputed from quantity and price.
func NewFinancialEvent(txID, wallet string, typ EventType, tokenAddr, tokenSym string, qty, price decimal.Decimal, ts time.Time) FinancialEvent {
	return FinancialEvent{
		EventID:          fmt.Sprintf("%s:%s:%s", txID, tokenAddr, typ),
		TransactionID:    txID,
		WalletAddress:    wallet,
		EventType:        typ,
		TokenAddress:     tokenAddr,
		TokenSymbol:      tokenSym,
		Quantity:         qty,
		USDPricePerToken: price,
		USDValue:         qty.Mul(price),
		Timestamp:        ts,
	}
}

// Validate rejects events that would corrupt FIFO accounting downstream.
func (e *FinancialEvent) Validate() error {
	if !e.Quantity.IsPositive() {
		return fmt.Errorf("%w: event %s has non-positive quantity %s", ErrInvalidEvent, e.EventID, e.Quantity)
	}
	if e.USDPricePerToken.IsNegative() {
		return fmt.Errorf("%w: event %s has negative price %s", ErrInvalidEvent, e.EventID, e.USDPricePerToken)
	}
	switch e.EventType {
	case EventBuy, EventSell, EventReceive, EventSend:
		return nil
	default:
		return fmt.Errorf("%w: event %s has unknown type %q", ErrInvalidEvent, e.EventID, e.EventType)
	}
}
