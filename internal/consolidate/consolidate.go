// Package consolidate collapses raw provider transfers into trade pairs.
// Multi-hop swaps routed through intermediate tokens are netted down to
// their effective legs so the matching engine never sees routing noise.
package consolidate

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

// multiHopMinTokens is the distinct-token threshold above which a trade is
// treated as a routed swap rather than a simple two-leg exchange.
const multiHopMinTokens = 3

type Consolidator struct {
	qtyEps      decimal.Decimal
	usdEps      decimal.Decimal
	isReference func(string) bool
	log         *logrus.Entry
}

func New(cfg *config.Config) *Consolidator {
	return &Consolidator{
		qtyEps:      cfg.NetFlowQtyEpsilon,
		usdEps:      cfg.NetFlowUSDEpsilon,
		isReference: cfg.IsReferenceAsset,
		log:         logrus.WithField("component", "consolidator"),
	}
}

// Consolidate groups transfers by trade action, nets multi-hop routes, and
// returns the resulting pairs in chronological order. Invalid records are
// skipped with a warning instead of aborting the run.
func (c *Consolidator) Consolidate(records []models.ProviderTransferRecord) ([]models.TradePair, []models.Warning) {
	var warnings []models.Warning

	groups := make(map[string][]models.ProviderTransferRecord)
	var order []string
	for i := range records {
		r := records[i]
		if err := models.ValidateRecord(&r); err != nil {
			warnings = append(warnings, models.Warning{
				Kind:          models.WarnInvalidEvent,
				TokenAddress:  r.TokenAddress,
				TransactionID: r.TransactionID,
				Detail:        err.Error(),
			})
			continue
		}
		key := r.TradeActID
		if key == "" {
			// Transfers outside any trade action stand alone.
			key = fmt.Sprintf("solo:%s:%d", r.TransactionID, i)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	pairs := make([]models.TradePair, 0, len(order))
	for _, key := range order {
		pair := pairTransfers(groups[key])
		if pair.Empty() {
			continue
		}
		netted, ws := c.netMultiHop(pair)
		warnings = append(warnings, ws...)
		pairs = append(pairs, netted)
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Timestamp.Before(pairs[j].Timestamp)
	})
	return pairs, warnings
}

// pairTransfers splits a trade action's transfers by direction. Self
// transfers are wallet-internal moves and land on the inbound side.
func pairTransfers(records []models.ProviderTransferRecord) models.TradePair {
	pair := models.TradePair{
		TradeActID:    records[0].TradeActID,
		TransactionID: records[0].TransactionID,
		Timestamp:     records[0].Timestamp,
	}
	for _, r := range records {
		switch r.Direction {
		case models.DirectionIn, models.DirectionSelf:
			pair.InTransfers = append(pair.InTransfers, r)
		case models.DirectionOut:
			pair.OutTransfers = append(pair.OutTransfers, r)
		}
	}
	return pair
}

type netFlow struct {
	record   models.ProviderTransferRecord
	quantity decimal.Decimal // signed: positive inflow, negative outflow
	usdValue decimal.Decimal // signed, same convention
}

// netMultiHop collapses a routed swap down to its net per-token flows.
// Simple trades pass through untouched. If netting would empty either side
// of the pair, the original legs are kept so per-leg conversion still works.
func (c *Consolidator) netMultiHop(pair models.TradePair) (models.TradePair, []models.Warning) {
	tokens := make(map[string]struct{})
	hasReference := false
	for _, r := range pair.InTransfers {
		tokens[r.TokenAddress] = struct{}{}
		hasReference = hasReference || c.isReference(r.TokenAddress)
	}
	for _, r := range pair.OutTransfers {
		tokens[r.TokenAddress] = struct{}{}
		hasReference = hasReference || c.isReference(r.TokenAddress)
	}
	if len(tokens) < multiHopMinTokens || !hasReference {
		return pair, nil
	}

	flows := make(map[string]*netFlow)
	var flowOrder []string
	accumulate := func(r models.ProviderTransferRecord, sign int64) {
		f, ok := flows[r.TokenAddress]
		if !ok {
			f = &netFlow{record: r}
			flows[r.TokenAddress] = f
			flowOrder = append(flowOrder, r.TokenAddress)
		}
		mult := decimal.NewFromInt(sign)
		f.quantity = f.quantity.Add(r.Quantity.Mul(mult))
		f.usdValue = f.usdValue.Add(r.USDValue().Mul(mult))
	}
	for _, r := range pair.InTransfers {
		accumulate(r, 1)
	}
	for _, r := range pair.OutTransfers {
		accumulate(r, -1)
	}

	netted := models.TradePair{
		TradeActID:    pair.TradeActID,
		TransactionID: pair.TransactionID,
		Timestamp:     pair.Timestamp,
	}
	for _, addr := range flowOrder {
		f := flows[addr]
		absQty := f.quantity.Abs()
		absUSD := f.usdValue.Abs()
		// Intermediate routing tokens net out to dust on both axes.
		if absQty.LessThan(c.qtyEps) && absUSD.LessThan(c.usdEps) {
			continue
		}
		r := f.record
		r.Quantity = absQty
		if absQty.IsPositive() && absUSD.IsPositive() {
			price := absUSD.Div(absQty)
			r.USDPricePerUnit = &price
		} else {
			r.USDPricePerUnit = nil
		}
		if f.quantity.IsPositive() {
			r.Direction = models.DirectionIn
			netted.InTransfers = append(netted.InTransfers, r)
		} else {
			r.Direction = models.DirectionOut
			netted.OutTransfers = append(netted.OutTransfers, r)
		}
	}

	if len(netted.InTransfers) == 0 || len(netted.OutTransfers) == 0 {
		c.log.WithFields(logrus.Fields{
			"trade_act_id": pair.TradeActID,
			"tx":           pair.TransactionID,
		}).Warn("netting emptied one side of trade, keeping original legs")
		return pair, []models.Warning{{
			Kind:          models.WarnEmptyPairSide,
			TransactionID: pair.TransactionID,
			Detail:        fmt.Sprintf("net flows emptied one side of trade act %s, using per-leg conversion", pair.TradeActID),
		}}
	}
	return netted, nil
}
