package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/service/export"
	"github.com/mamadbah2/fueldepot/internal/service/ledger"
	"github.com/mamadbah2/fueldepot/internal/service/reporting"
)

// DepotHandler exposes the depot ledgers over HTTP.
type DepotHandler struct {
	ledger    *ledger.Service
	reporting *reporting.Service
	export    *export.Service
	logger    *zap.Logger
}

// NewDepotHandler constructs the HTTP handler adapter.
func NewDepotHandler(ledgerSvc *ledger.Service, reportingSvc *reporting.Service, exportSvc *export.Service, logger *zap.Logger) *DepotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepotHandler{ledger: ledgerSvc, reporting: reportingSvc, export: exportSvc, logger: logger}
}

type purchaseRequest struct {
	Date      string          `json:"date"`
	AssetID   string          `json:"asset_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	Volume    decimal.Decimal `json:"volume"`
}

func (r purchaseRequest) input() (ledger.PurchaseInput, error) {
	date, err := optionalDate(r.Date)
	if err != nil {
		return ledger.PurchaseInput{}, err
	}
	return ledger.PurchaseInput{Date: date, AssetID: r.AssetID, UnitPrice: r.UnitPrice, Amount: r.Amount, Volume: r.Volume}, nil
}

type saleRequest struct {
	Date            string          `json:"date"`
	VolumeSold      decimal.Decimal `json:"volume_sold"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
}

type agentSaleRequest struct {
	Date      string          `json:"date"`
	Agent     string          `json:"agent"`
	Contact   string          `json:"contact"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Commune   string          `json:"commune"`
	Comment   string          `json:"comment"`
}

// GetParameters returns the operator parameters and the effective threshold.
func (h *DepotHandler) GetParameters(c *gin.Context) {
	p := h.ledger.Parameters()
	c.JSON(http.StatusOK, gin.H{
		"parameters":      p,
		"threshold":       p.Threshold(),
		"tank_capacities": models.TankCapacities,
	})
}

// UpdateParameters replaces the operator parameters.
func (h *DepotHandler) UpdateParameters(c *gin.Context) {
	var p models.Parameters
	if !h.bind(c, &p) {
		return
	}
	if err := h.ledger.UpdateParameters(p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parameters": p, "threshold": p.Threshold()})
}

// PreviewPurchase shows the reconciliation of a purchase without recording it.
func (h *DepotHandler) PreviewPurchase(c *gin.Context) {
	var req purchaseRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(c, err)
		return
	}

	rec, err := h.ledger.PreviewPurchase(in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciliation": rec, "warning": rec.Warning()})
}

// AddPurchase records a purchase on the single ledger.
func (h *DepotHandler) AddPurchase(c *gin.Context) {
	var req purchaseRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.ledger.AddPurchase(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Ledger lists the computed purchase ledger.
func (h *DepotHandler) Ledger(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rows": h.ledger.Ledger(), "summary": h.ledger.Summary()})
}

// ResetLedger wipes one ledger.
func (h *DepotHandler) ResetLedger(c *gin.Context) {
	name := c.Param("name")
	if err := h.ledger.Reset(c.Request.Context(), name); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddDelivery records a tank delivery.
func (h *DepotHandler) AddDelivery(c *gin.Context) {
	var req purchaseRequest
	if !h.bind(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.ledger.AddDelivery(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// AddSale records a tank sale.
func (h *DepotHandler) AddSale(c *gin.Context) {
	var req saleRequest
	if !h.bind(c, &req) {
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.ledger.AddSale(c.Request.Context(), ledger.SaleInput{Date: date, VolumeSold: req.VolumeSold, AmountCollected: req.AmountCollected})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Tank lists the computed tank rows.
func (h *DepotHandler) Tank(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rows": h.ledger.Tank(), "sales": h.ledger.Sales(), "summary": h.ledger.TankSummary()})
}

// AddAgentSale records a commercial sale.
func (h *DepotHandler) AddAgentSale(c *gin.Context) {
	var req agentSaleRequest
	if !h.bind(c, &req) {
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		h.fail(c, err)
		return
	}

	sale, rec, err := h.ledger.AddAgentSale(c.Request.Context(), ledger.AgentSaleInput{
		Date:      date,
		Agent:     req.Agent,
		Contact:   req.Contact,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Total:     req.Total,
		Commune:   req.Commune,
		Comment:   req.Comment,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sale": sale, "reconciliation": rec, "warning": rec.Warning()})
}

// Summary returns both dashboard summaries and the load issues.
func (h *DepotHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ledger": h.ledger.Summary(),
		"tank":   h.ledger.TankSummary(),
		"issues": h.ledger.Issues(),
	})
}

// AssetReport aggregates purchased volume per asset and month.
func (h *DepotHandler) AssetReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.reporting.AssetReport())
}

// AgentReport returns the commercial sales statistics.
func (h *DepotHandler) AgentReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.reporting.AgentReport())
}

// Snapshots lists the stored daily snapshots.
func (h *DepotHandler) Snapshots(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "30"), 10, 64)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	snaps, err := h.reporting.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

// ExportLedger downloads the purchases workbook.
func (h *DepotHandler) ExportLedger(c *gin.Context) {
	h.workbook(c, "carburant_dashboard.xlsx", h.export.WriteLedger)
}

// ExportTank downloads the tank workbook.
func (h *DepotHandler) ExportTank(c *gin.Context) {
	h.workbook(c, "gestion_cuve.xlsx", h.export.WriteTank)
}

// ExportAgents downloads the commercial sales workbook.
func (h *DepotHandler) ExportAgents(c *gin.Context) {
	h.workbook(c, "ventes_stats.xlsx", h.export.WriteAgents)
}

func (h *DepotHandler) workbook(c *gin.Context, filename string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *DepotHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *DepotHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fuel.ErrMissingInput),
		errors.Is(err, fuel.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidParameters):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrUnknownLedger):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, reporting.ErrSnapshotsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func optionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := fuel.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", fuel.ErrInvalidInput, err)
	}
	return date, nil
}
