package fuel

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReconcileStatus describes how a purchase's amount and volume were settled.
type ReconcileStatus string

const (
	StatusVolumeDerived ReconcileStatus = "volume_derived"
	StatusAmountDerived ReconcileStatus = "amount_derived"
	StatusConsistent    ReconcileStatus = "consistent"
	StatusInconsistent  ReconcileStatus = "inconsistent"
)

var (
	minTolerance  = decimal.NewFromInt(1)
	toleranceRate = decimal.NewFromFloat(0.01)
)

// Reconciliation is the settled amount/volume pair for one purchase.
type Reconciliation struct {
	Amount   decimal.Decimal `json:"amount"`
	Volume   decimal.Decimal `json:"volume"`
	Expected decimal.Decimal `json:"expected"`
	Status   ReconcileStatus `json:"status"`
}

// Warning returns the advisory message for an inconsistent input, or "".
func (r Reconciliation) Warning() string {
	if r.Status != StatusInconsistent {
		return ""
	}
	return fmt.Sprintf("amount disagrees with unit price x volume (expected %s), recomputed from volume", r.Expected.StringFixed(2))
}

// Reconcile derives the missing amount or volume from the unit price.
// A zero value means "not supplied". When both are supplied and disagree
// beyond max(1, 1% of the expected amount), volume is trusted and the
// amount is recomputed.
func Reconcile(unitPrice, amount, volume decimal.Decimal) (Reconciliation, error) {
	if !unitPrice.IsPositive() {
		return Reconciliation{}, fmt.Errorf("%w: unit price must be > 0, got %s", ErrInvalidInput, unitPrice.String())
	}
	if amount.IsNegative() || volume.IsNegative() {
		return Reconciliation{}, fmt.Errorf("%w: amount and volume must be >= 0", ErrInvalidInput)
	}

	switch {
	case amount.IsZero() && volume.IsZero():
		return Reconciliation{}, ErrMissingInput
	case volume.IsZero():
		volume = amount.Div(unitPrice)
		return Reconciliation{Amount: amount, Volume: volume, Expected: amount, Status: StatusVolumeDerived}, nil
	case amount.IsZero():
		amount = unitPrice.Mul(volume)
		return Reconciliation{Amount: amount, Volume: volume, Expected: amount, Status: StatusAmountDerived}, nil
	}

	expected := unitPrice.Mul(volume)
	if amount.Sub(expected).Abs().GreaterThan(Tolerance(expected)) {
		return Reconciliation{Amount: expected, Volume: volume, Expected: expected, Status: StatusInconsistent}, nil
	}

	return Reconciliation{Amount: amount, Volume: volume, Expected: expected, Status: StatusConsistent}, nil
}

// Tolerance is the accepted gap between a declared and an expected amount.
func Tolerance(expected decimal.Decimal) decimal.Decimal {
	return decimal.Max(minTolerance, expected.Mul(toleranceRate))
}
