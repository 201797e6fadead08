package models

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const signatureByteLen = 64

// ValidateWalletAddress checks that the string is a well-formed Solana
// public key.
func ValidateWalletAddress(addr string) error {
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	return nil
}

// ValidateSignature checks that the string decodes to a 64-byte Solana
// transaction signature.
func ValidateSignature(sig string) error {
	raw, err := base58.Decode(sig)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSignature, sig, err)
	}
	if len(raw) != signatureByteLen {
		return fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalidSignature, sig, len(raw), signatureByteLen)
	}
	return nil
}

// ValidateRecord rejects provider records that cannot participate in
// consolidation. Records with a zero quantity are meaningless; negative
// prices indicate provider corruption.
func ValidateRecord(r *ProviderTransferRecord) error {
	if r.TokenAddress == "" {
		return fmt.Errorf("%w: record in tx %s has empty token address", ErrInvalidEvent, r.TransactionID)
	}
	if r.Quantity.IsZero() {
		return fmt.Errorf("%w: record for %s in tx %s has zero quantity", ErrInvalidEvent, r.TokenSymbol, r.TransactionID)
	}
	if r.Quantity.IsNegative() {
		return fmt.Errorf("%w: record for %s in tx %s has negative quantity %s", ErrInvalidEvent, r.TokenSymbol, r.TransactionID, r.Quantity)
	}
	if r.USDPricePerUnit != nil && r.USDPricePerUnit.IsNegative() {
		return fmt.Errorf("%w: record for %s in tx %s has negative price %s", ErrInvalidEvent, r.TokenSymbol, r.TransactionID, r.USDPricePerUnit)
	}
	switch r.Direction {
	case DirectionIn, DirectionOut, DirectionSelf:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDirection, r.Direction)
	}
	return nil
}
