package models

import "time"

// StockSnapshot is the end-of-day picture of both ledgers, stored in MongoDB.
type StockSnapshot struct {
	Date             time.Time `bson:"date" json:"date"`
	InitialStock     float64   `bson:"initial_stock" json:"initial_stock"`
	SafetyThreshold  float64   `bson:"safety_threshold" json:"safety_threshold"`
	UnitPrice        float64   `bson:"unit_price" json:"unit_price"`
	PurchaseCount    int       `bson:"purchase_count" json:"purchase_count"`
	TotalVolume      float64   `bson:"total_volume" json:"total_volume"`
	TotalAmount      float64   `bson:"total_amount" json:"total_amount"`
	ClosingStock     *float64  `bson:"closing_stock,omitempty" json:"closing_stock,omitempty"`
	LedgerAlert      string    `bson:"ledger_alert,omitempty" json:"ledger_alert,omitempty"`
	TankClosingStock *float64  `bson:"tank_closing_stock,omitempty" json:"tank_closing_stock,omitempty"`
	TankAlert        string    `bson:"tank_alert,omitempty" json:"tank_alert,omitempty"`
	ClippedRows      int       `bson:"clipped_rows" json:"clipped_rows"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
