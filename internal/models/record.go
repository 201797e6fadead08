package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction classifies a transfer relative to the analyzed wallet.
// Raw provider markers are parsed once at the ingestion boundary; everything
// downstream only ever sees one of the three values below.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionSelf Direction = "self"
)

// ParseDirection maps a raw provider direction marker onto the closed enum.
// Unknown markers are rejected instead of being silently coerced.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in":
		return DirectionIn, nil
	case "out":
		return DirectionOut, nil
	case "self":
		return DirectionSelf, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, raw)
	}
}

// ProviderTransferRecord is a single token transfer as reported by the
// activity provider. A transaction usually carries several of these, tied
// together by TradeActID.
type ProviderTransferRecord struct {
	TokenAddress string          `json:"token_address"`
	TokenSymbol  string          `json:"token_symbol"`
	Decimals     uint8           `json:"decimals"`
	Quantity     decimal.Decimal `json:"quantity"`
	// USDPricePerUnit is nil when the provider had no price for the token
	// at transfer time.
	USDPricePerUnit *decimal.Decimal `json:"usd_price_per_unit,omitempty"`
	Direction       Direction        `json:"direction"`
	TransactionID   string           `json:"transaction_id"`
	TradeActID      string           `json:"trade_act_id"`
	Timestamp       time.Time        `json:"timestamp"`
}

// USDValue returns quantity times the per-unit price, or zero when the
// provider reported no price.
func (r *ProviderTransferRecord) USDValue() decimal.Decimal {
	if r.USDPricePerUnit == nil {
		return decimal.Zero
	}
	return r.Quantity.Mul(*r.USDPricePerUnit)
}

// HasPrice reports whether the provider supplied a usable per-unit price.
func (r *ProviderTransferRecord) HasPrice() bool {
	return r.USDPricePerUnit != nil && r.USDPricePerUnit.IsPositive()
}

// TradePair is one consolidated trade action: all transfers sharing a
// TradeActID, split by direction. Self transfers count as inbound.
type TradePair struct {
	TradeActID    string
	TransactionID string
	Timestamp     time.Time
	InTransfers   []ProviderTransferRecord
	OutTransfers  []ProviderTransferRecord
}

// Empty reports whether the pair lost both sides during consolidation.
func (p *TradePair) Empty() bool {
	return len(p.InTransfers) == 0 && len(p.OutTransfers) == 0
}
