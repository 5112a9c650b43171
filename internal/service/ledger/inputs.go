package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/repository/records"
)

// PurchaseInput is a candidate purchase or delivery collected from an operator.
// Zero amount or volume means "not supplied"; a zero unit price means "use the
// configured unit price"; a zero date means today.
type PurchaseInput struct {
	Date      time.Time       `json:"date"`
	AssetID   string          `json:"asset_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	Volume    decimal.Decimal `json:"volume"`
}

// SaleInput is a candidate tank sale.
type SaleInput struct {
	Date            time.Time       `json:"date"`
	VolumeSold      decimal.Decimal `json:"volume_sold"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
}

// AgentSaleInput is a candidate commercial sale. Total and quantity follow the
// same reconciliation rule as purchases.
type AgentSaleInput struct {
	Date      time.Time       `json:"date"`
	Agent     string          `json:"agent"`
	Contact   string          `json:"contact"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Commune   string          `json:"commune"`
	Comment   string          `json:"comment"`
}

// PurchaseResult describes an accepted purchase.
type PurchaseResult struct {
	Record         models.PurchaseRecord `json:"record"`
	Reconciliation fuel.Reconciliation   `json:"reconciliation"`
	Warning        string                `json:"warning,omitempty"`
	Row            fuel.LedgerRow        `json:"row"`
	Summary        fuel.StockSummary     `json:"summary"`
	AlertRaised    bool                  `json:"alert_raised"`
}

// DeliveryResult describes an accepted tank delivery.
type DeliveryResult struct {
	Record         models.DeliveryRecord `json:"record"`
	Reconciliation fuel.Reconciliation   `json:"reconciliation"`
	Warning        string                `json:"warning,omitempty"`
	Summary        fuel.TankSummary      `json:"summary"`
	AlertRaised    bool                  `json:"alert_raised"`
}

// SaleResult describes an accepted tank sale.
type SaleResult struct {
	Record      models.SalesRecord `json:"record"`
	Summary     fuel.TankSummary   `json:"summary"`
	AlertRaised bool               `json:"alert_raised"`
}

// LoadReport lists what happened while loading the record store.
type LoadReport struct {
	Purchases  int             `json:"purchases"`
	Deliveries int             `json:"deliveries"`
	Sales      int             `json:"sales"`
	AgentSales int             `json:"agent_sales"`
	Issues     []records.Issue `json:"issues"`
}

// Alert is raised when a ledger's current stock drops below the safety threshold.
type Alert struct {
	Ledger       string          `json:"ledger"`
	Date         time.Time       `json:"date"`
	AssetID      string          `json:"asset_id,omitempty"`
	ClosingStock decimal.Decimal `json:"closing_stock"`
	Threshold    decimal.Decimal `json:"threshold"`
}
