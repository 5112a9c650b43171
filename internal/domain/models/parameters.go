package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TankCapacities lists the tank sizes (litres) a depot can be configured with.
var TankCapacities = []int64{9000, 18000, 27000, 45000}

// ErrInvalidParameters is returned when an operator parameter is out of bounds.
var ErrInvalidParameters = errors.New("invalid parameters")

// Parameters holds the operator-editable depot settings shared by every computation.
type Parameters struct {
	InitialStock    decimal.Decimal  `json:"initial_stock"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	SafetyThreshold decimal.Decimal  `json:"safety_threshold"`
	TankCapacity    *decimal.Decimal `json:"tank_capacity,omitempty"`
	SafetyPercent   *decimal.Decimal `json:"safety_percent,omitempty"`
}

// DefaultParameters mirrors the depot defaults used when nothing is configured.
func DefaultParameters() Parameters {
	return Parameters{
		InitialStock:    decimal.NewFromInt(9000),
		UnitPrice:       decimal.NewFromInt(775),
		SafetyThreshold: decimal.NewFromInt(1000),
	}
}

// Threshold returns the effective safety threshold. When both the tank
// capacity and the safety percent are set the threshold is derived from
// them, otherwise the direct value applies.
func (p Parameters) Threshold() decimal.Decimal {
	if p.TankCapacity != nil && p.SafetyPercent != nil {
		return p.TankCapacity.Mul(*p.SafetyPercent)
	}
	return p.SafetyThreshold
}

// Validate enforces the lower bounds of every parameter.
func (p Parameters) Validate() error {
	switch {
	case p.InitialStock.IsNegative():
		return fmt.Errorf("%w: initial stock must be >= 0", ErrInvalidParameters)
	case p.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit price must be >= 0", ErrInvalidParameters)
	case p.SafetyThreshold.IsNegative():
		return fmt.Errorf("%w: safety threshold must be >= 0", ErrInvalidParameters)
	}

	if (p.TankCapacity == nil) != (p.SafetyPercent == nil) {
		return fmt.Errorf("%w: tank capacity and safety percent must be set together", ErrInvalidParameters)
	}

	if p.TankCapacity != nil {
		if !isKnownCapacity(*p.TankCapacity) {
			return fmt.Errorf("%w: tank capacity %s not in %v", ErrInvalidParameters, p.TankCapacity.String(), TankCapacities)
		}
		if p.SafetyPercent.IsNegative() || p.SafetyPercent.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: safety percent must be within [0, 1]", ErrInvalidParameters)
		}
	}

	return nil
}

// CanReconcile reports whether the unit price allows deriving amount or volume.
func (p Parameters) CanReconcile() bool {
	return p.UnitPrice.IsPositive()
}

func isKnownCapacity(capacity decimal.Decimal) bool {
	for _, c := range TankCapacities {
		if capacity.Equal(decimal.NewFromInt(c)) {
			return true
		}
	}
	return false
}
