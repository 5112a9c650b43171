package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestParametersThreshold(t *testing.T) {
	p := DefaultParameters()
	assert.True(t, p.Threshold().Equal(decimal.NewFromInt(1000)))

	p.TankCapacity = ptr(decimal.NewFromInt(18000))
	p.SafetyPercent = ptr(decimal.RequireFromString("0.10"))
	assert.True(t, p.Threshold().Equal(decimal.NewFromInt(1800)))
}

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Parameters)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Parameters) {}},
		{name: "zero everything", mutate: func(p *Parameters) {
			p.InitialStock, p.UnitPrice, p.SafetyThreshold = decimal.Zero, decimal.Zero, decimal.Zero
		}},
		{name: "negative stock", mutate: func(p *Parameters) { p.InitialStock = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "negative price", mutate: func(p *Parameters) { p.UnitPrice = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "negative threshold", mutate: func(p *Parameters) { p.SafetyThreshold = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "tank without percent", mutate: func(p *Parameters) { p.TankCapacity = ptr(decimal.NewFromInt(9000)) }, wantErr: true},
		{name: "unknown tank size", mutate: func(p *Parameters) {
			p.TankCapacity = ptr(decimal.NewFromInt(10000))
			p.SafetyPercent = ptr(decimal.RequireFromString("0.1"))
		}, wantErr: true},
		{name: "percent above one", mutate: func(p *Parameters) {
			p.TankCapacity = ptr(decimal.NewFromInt(45000))
			p.SafetyPercent = ptr(decimal.RequireFromString("1.5"))
		}, wantErr: true},
		{name: "valid tank", mutate: func(p *Parameters) {
			p.TankCapacity = ptr(decimal.NewFromInt(27000))
			p.SafetyPercent = ptr(decimal.RequireFromString("0.05"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameters)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanReconcile(t *testing.T) {
	p := DefaultParameters()
	assert.True(t, p.CanReconcile())
	p.UnitPrice = decimal.Zero
	assert.False(t, p.CanReconcile())
}
