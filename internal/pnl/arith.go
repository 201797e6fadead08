package pnl

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

// maxAbsValue caps intermediate results. Decimal arithmetic does not wrap,
// but corrupt provider data can feed absurd magnitudes into multiplications;
// anything past 1e40 is guaranteed garbage and must fail loudly rather than
// propagate into a report.
var maxAbsValue = decimal.New(1, 40)

// checkedMul multiplies with a magnitude guard.
func checkedMul(a, b decimal.Decimal) (decimal.Decimal, error) {
	result := a.Mul(b)
	if result.Abs().GreaterThan(maxAbsValue) {
		return decimal.Zero, fmt.Errorf("%w: %s * %s", models.ErrArithmeticOverflow, a, b)
	}
	return result, nil
}

// checkedDiv divides with an explicit zero-divisor error.
func checkedDiv(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s / 0", models.ErrDivisionByZero, a)
	}
	result := a.Div(b)
	if result.Abs().GreaterThan(maxAbsValue) {
		return decimal.Zero, fmt.Errorf("%w: %s / %s", models.ErrArithmeticOverflow, a, b)
	}
	return result, nil
}
