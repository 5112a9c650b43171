package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRecord captures fuel bought for an engine (asset) from the depot.
type PurchaseRecord struct {
	Date      time.Time       `json:"date"`
	AssetID   string          `json:"asset_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	Volume    decimal.Decimal `json:"volume"` // litres
}

// DeliveryRecord captures fuel delivered into the tank. It shares the
// purchase columns so both ledgers round-trip through the same codec.
type DeliveryRecord = PurchaseRecord

// SalesRecord captures fuel sold out of the tank on a given day.
type SalesRecord struct {
	Date            time.Time       `json:"date"`
	VolumeSold      decimal.Decimal `json:"volume_sold"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
}

// AgentSale is one line of the commercial sales ledger used for agent statistics.
type AgentSale struct {
	Date      time.Time       `json:"date"`
	Agent     string          `json:"agent"`
	Contact   string          `json:"contact,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Commune   string          `json:"commune,omitempty"`
	Comment   string          `json:"comment,omitempty"`
}
