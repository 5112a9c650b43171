package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. webhook may
// be nil when WhatsApp is disabled.
func New(depot *handlers.DepotHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/parameters", depot.GetParameters)
	r.PUT("/parameters", depot.UpdateParameters)

	r.POST("/purchases/preview", depot.PreviewPurchase)
	r.POST("/purchases", depot.AddPurchase)
	r.GET("/ledger", depot.Ledger)
	r.DELETE("/ledger/:name", depot.ResetLedger)

	r.POST("/deliveries", depot.AddDelivery)
	r.POST("/sales", depot.AddSale)
	r.GET("/tank", depot.Tank)
	r.POST("/agent-sales", depot.AddAgentSale)

	r.GET("/summary", depot.Summary)
	r.GET("/reports/assets", depot.AssetReport)
	r.GET("/reports/agents", depot.AgentReport)
	r.GET("/snapshots", depot.Snapshots)

	exports := r.Group("/export")
	exports.GET("/ledger.xlsx", depot.ExportLedger)
	exports.GET("/tank.xlsx", depot.ExportTank)
	exports.GET("/agents.xlsx", depot.ExportAgents)

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
		r.POST("/send-message", webhook.SendMessage)
	}

	logger.Info("router initialized", zap.Bool("whatsapp", webhook != nil))

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
