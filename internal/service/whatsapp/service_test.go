package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fueldepot/internal/config"
	"github.com/mamadbah2/fueldepot/internal/domain/fuel"
	"github.com/mamadbah2/fueldepot/internal/domain/models"
	"github.com/mamadbah2/fueldepot/internal/service/commands"
	"github.com/mamadbah2/fueldepot/internal/service/ledger"
	client "github.com/mamadbah2/fueldepot/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

type fakeDispatcher struct {
	reply string
	err   error
	got   []models.Command
}

func (f *fakeDispatcher) HandleCommand(_ context.Context, cmd models.Command, _ string) (string, error) {
	f.got = append(f.got, cmd)
	return f.reply, f.err
}

func textPayload(from, body string) models.WebhookPayload {
	return models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			Changes: []models.WebhookChange{{
				Field: "messages",
				Value: models.WebhookValue{
					Messages: []models.InboundMessage{{ID: "wamid.1", From: from, Type: "text", Text: &models.TextContent{Body: body}}},
				},
			}},
		}},
	}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "depot"}, &fakeClient{}, &fakeDispatcher{}, nil)

	challenge, err := svc.VerifyWebhookToken("subscribe", "depot", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", challenge)

	_, err = svc.VerifyWebhookToken("subscribe", "wrong", "42")
	assert.Error(t, err)

	_, err = svc.VerifyWebhookToken("unsubscribe", "depot", "42")
	assert.Error(t, err)

	_, err = svc.VerifyWebhookToken("", "", "42")
	assert.Error(t, err)
}

func TestHandleWebhookRepliesToSender(t *testing.T) {
	wa := &fakeClient{}
	dispatcher := &fakeDispatcher{reply: "Purchase saved"}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, dispatcher, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("22370000000", "/achat CHASSIS-1 50L")))

	require.Len(t, dispatcher.got, 1)
	assert.Equal(t, models.CommandPurchase, dispatcher.got[0].Type)
	require.Len(t, wa.sent, 1)
	assert.Equal(t, "22370000000", wa.sent[0].To)
	assert.Equal(t, "Purchase saved", wa.sent[0].Body)
}

func TestHandleWebhookIgnoresUnknownSenders(t *testing.T) {
	wa := &fakeClient{}
	dispatcher := &fakeDispatcher{reply: "ok"}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{AllowedSenders: []string{"+22370000000"}}, wa, dispatcher, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("22399999999", "/stock")))
	assert.Empty(t, dispatcher.got)
	assert.Empty(t, wa.sent)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("22370000000", "/stock")))
	assert.Len(t, dispatcher.got, 1)
}

func TestHandleWebhookOperatorErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		reply   string
		wantErr bool
	}{
		{name: "bad arguments", err: commands.ErrInvalidArguments, reply: commands.Usage},
		{name: "missing input", err: fuel.ErrMissingInput, reply: "Give a quantity"},
		{name: "negative input", err: fmt.Errorf("%w: volume", fuel.ErrInvalidInput), reply: "must be positive"},
		{name: "store failure", err: errors.New("sheets unavailable"), reply: "could not be recorded", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wa := &fakeClient{}
			svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, &fakeDispatcher{err: tt.err}, nil)

			err := svc.HandleWebhook(context.Background(), textPayload("1", "/achat"))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.Len(t, wa.sent, 1)
			assert.Contains(t, wa.sent[0].Body, tt.reply)
		})
	}
}

func TestHandleWebhookSkipsNonText(t *testing.T) {
	wa := &fakeClient{}
	dispatcher := &fakeDispatcher{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, dispatcher, nil)

	payload := textPayload("1", "")
	payload.Entry[0].Changes[0].Value.Messages[0].Text = nil
	payload.Entry[0].Changes[0].Value.Messages[0].Type = "image"

	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	assert.Empty(t, dispatcher.got)
	assert.Empty(t, wa.sent)
}

func TestNotifyLowStock(t *testing.T) {
	wa := &fakeClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{ManagerID: "22370000000"}, wa, &fakeDispatcher{}, nil)

	err := svc.NotifyLowStock(context.Background(), ledger.Alert{
		Ledger:       ledger.LedgerPurchases,
		Date:         time.Date(2025, time.September, 2, 0, 0, 0, 0, time.UTC),
		AssetID:      "CHASSIS-456",
		ClosingStock: decimal.NewFromInt(950),
		Threshold:    decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.Len(t, wa.sent, 1)
	assert.Equal(t, "22370000000", wa.sent[0].To)
	assert.Contains(t, wa.sent[0].Body, "Closing stock: 950.00 L")
	assert.Contains(t, wa.sent[0].Body, "2025-09-02 (CHASSIS-456)")
}

func TestSendToManagerRequiresManager(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, &fakeClient{}, &fakeDispatcher{}, nil)
	assert.ErrorIs(t, svc.SendToManager(context.Background(), "report"), ErrNoManager)
}

func TestSendOutboundPropagatesClientError(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, &fakeClient{err: errors.New("timeout")}, &fakeDispatcher{}, nil)
	err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "hi"})
	assert.Error(t, err)
}

func TestSendOutboundWithoutRecipientGoesToManager(t *testing.T) {
	wa := &fakeClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{ManagerID: "22370000000"}, wa, &fakeDispatcher{}, nil)

	require.NoError(t, svc.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: "livraison prévue demain"}))
	require.Len(t, wa.sent, 1)
	assert.Equal(t, "22370000000", wa.sent[0].To)

	noManager := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, &fakeDispatcher{}, nil)
	assert.ErrorIs(t, noManager.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: "x"}), ErrNoManager)
}
