package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fueldepot/internal/config"
	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/service/commands"
	"github.com/mamadbah2/fueldepot/internal/service/ledger"
	client "github.com/mamadbah2/fueldepot/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// ErrNoManager is returned when a manager message is requested but no
// manager number is configured.
var ErrNoManager = errors.New("whatsapp manager number not configured")

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	allowed    map[string]struct{}
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance. An empty
// AllowedSenders list accepts commands from anyone.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedSenders))
	for _, sender := range cfg.AllowedSenders {
		allowed[normalizeNumber(sender)] = struct{}{}
	}

	return &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		allowed:    allowed,
		logger:     logger,
	}
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook runs every operator command found in the payload and replies
// to its sender. Delivery receipts are ignored.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.CommandText()
	if text == "" {
		s.logger.Debug("skip message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	if !s.isAllowed(msg.From) {
		s.logger.Warn("command from unknown sender ignored", zap.String("from", msg.From))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	var failure error
	if err != nil {
		reply = replyForError(err)
		if !isOperatorError(err) {
			failure = err
		}
	}

	if err := s.send(ctx, msg.From, reply, false); err != nil {
		return err
	}
	return failure
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if strings.TrimSpace(req.To) == "" {
		return s.SendToManager(ctx, req.Message)
	}
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

// NotifyLowStock tells the depot manager a ledger went below its safety threshold.
func (s *MetaWhatsAppService) NotifyLowStock(ctx context.Context, alert ledger.Alert) error {
	message := fmt.Sprintf("⚠️ Low stock on the %s ledger\nClosing stock: %s L\nSafety threshold: %s L\nLast entry: %s",
		alert.Ledger, alert.ClosingStock.StringFixed(2), alert.Threshold.StringFixed(2), alert.Date.Format("2006-01-02"))
	if alert.AssetID != "" {
		message += " (" + alert.AssetID + ")"
	}
	return s.SendToManager(ctx, message)
}

// SendToManager pushes a message to the configured manager number.
func (s *MetaWhatsAppService) SendToManager(ctx context.Context, message string) error {
	if s.cfg.ManagerID == "" {
		return ErrNoManager
	}
	return s.send(ctx, s.cfg.ManagerID, message, false)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, previewURL bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	return err
}

func (s *MetaWhatsAppService) isAllowed(from string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[normalizeNumber(from)]
	return ok
}

func replyForError(err error) string {
	switch {
	case errors.Is(err, commands.ErrInvalidArguments), errors.Is(err, commands.ErrUnsupportedCommand):
		return "Command not understood.\n" + commands.Usage
	case errors.Is(err, fuel.ErrMissingInput):
		return "Give a quantity (e.g. 50L) or an amount (e.g. 38750F)."
	case errors.Is(err, fuel.ErrInvalidInput):
		return "Quantities, amounts and unit price must be positive."
	default:
		return "The entry could not be recorded. Please try again later."
	}
}

func isOperatorError(err error) bool {
	return errors.Is(err, commands.ErrInvalidArguments) ||
		errors.Is(err, commands.ErrUnsupportedCommand) ||
		errors.Is(err, fuel.ErrMissingInput) ||
		errors.Is(err, fuel.ErrInvalidInput)
}

func normalizeNumber(n string) string {
	return strings.TrimPrefix(strings.TrimSpace(n), "+")
}
