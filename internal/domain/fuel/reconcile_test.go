package fuel

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		unitPrice  string
		amount     string
		volume     string
		wantAmount string
		wantVolume string
		wantStatus ReconcileStatus
		wantErr    error
	}{
		{
			name:       "amount derived from volume",
			unitPrice:  "775",
			amount:     "0",
			volume:     "50",
			wantAmount: "38750",
			wantVolume: "50",
			wantStatus: StatusAmountDerived,
		},
		{
			name:       "volume derived from amount",
			unitPrice:  "800",
			amount:     "10000",
			volume:     "0",
			wantAmount: "10000",
			wantVolume: "12.5",
			wantStatus: StatusVolumeDerived,
		},
		{
			name:       "consistent within one unit",
			unitPrice:  "10",
			amount:     "50.9",
			volume:     "5",
			wantAmount: "50.9",
			wantVolume: "5",
			wantStatus: StatusConsistent,
		},
		{
			name:       "consistent within one percent",
			unitPrice:  "775",
			amount:     "38780",
			volume:     "50",
			wantAmount: "38780",
			wantVolume: "50",
			wantStatus: StatusConsistent,
		},
		{
			name:       "inconsistent amount recomputed from volume",
			unitPrice:  "775",
			amount:     "10000",
			volume:     "5",
			wantAmount: "3875",
			wantVolume: "5",
			wantStatus: StatusInconsistent,
		},
		{
			name:      "zero unit price",
			unitPrice: "0",
			amount:    "100",
			volume:    "0",
			wantErr:   ErrInvalidInput,
		},
		{
			name:      "negative unit price",
			unitPrice: "-1",
			amount:    "0",
			volume:    "3",
			wantErr:   ErrInvalidInput,
		},
		{
			name:      "negative volume",
			unitPrice: "775",
			amount:    "0",
			volume:    "-3",
			wantErr:   ErrInvalidInput,
		},
		{
			name:      "nothing supplied",
			unitPrice: "775",
			amount:    "0",
			volume:    "0",
			wantErr:   ErrMissingInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reconcile(d(tt.unitPrice), d(tt.amount), d(tt.volume))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.True(t, got.Amount.Equal(d(tt.wantAmount)), "amount got %s want %s", got.Amount, tt.wantAmount)
			assert.True(t, got.Volume.Equal(d(tt.wantVolume)), "volume got %s want %s", got.Volume, tt.wantVolume)
		})
	}
}

func TestReconcileAmountIsExactProduct(t *testing.T) {
	prices := []string{"0.5", "1", "775", "812.25", "1999.99"}
	volumes := []string{"0.001", "1", "12.903", "50", "4500.5"}

	for _, p := range prices {
		for _, v := range volumes {
			got, err := Reconcile(d(p), decimal.Zero, d(v))
			require.NoError(t, err)
			assert.True(t, got.Amount.Equal(d(p).Mul(d(v))), "price %s volume %s", p, v)
			assert.Equal(t, StatusAmountDerived, got.Status)
		}
	}
}

func TestReconcileVolumeIsAuthoritative(t *testing.T) {
	prices := []string{"1", "775", "812.25"}
	volumes := []string{"1", "50", "4500.5"}

	for _, p := range prices {
		for _, v := range volumes {
			expected := d(p).Mul(d(v))

			within := expected.Add(Tolerance(expected))
			got, err := Reconcile(d(p), within, d(v))
			require.NoError(t, err)
			assert.Equal(t, StatusConsistent, got.Status)
			assert.True(t, got.Amount.Equal(within))
			assert.True(t, got.Volume.Equal(d(v)))

			beyond := expected.Add(Tolerance(expected)).Add(d("0.01"))
			got, err = Reconcile(d(p), beyond, d(v))
			require.NoError(t, err)
			assert.Equal(t, StatusInconsistent, got.Status)
			assert.True(t, got.Amount.Equal(expected))
			assert.NotEmpty(t, got.Warning())
		}
	}
}

func TestToleranceFloorsAtOne(t *testing.T) {
	assert.True(t, Tolerance(d("20")).Equal(d("1")))
	assert.True(t, Tolerance(d("3875")).Equal(d("38.75")))
}
