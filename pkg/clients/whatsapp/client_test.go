package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fueldepot/internal/config"
)

func TestSendTextMessage(t *testing.T) {
	var got textPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer server.Close()

	client := NewClient(config.WhatsAppConfig{BaseURL: server.URL + "/", APIVersion: "v21.0", AccessToken: "secret", PhoneNumberID: "12345"})

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "22370000000", Body: "Stock low"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)

	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "22370000000", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "Stock low", got.Text.Body)
}

func TestSendTextMessageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	client := NewClient(config.WhatsAppConfig{BaseURL: server.URL, APIVersion: "v21.0", AccessToken: "bad", PhoneNumberID: "12345"})

	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=190")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}
