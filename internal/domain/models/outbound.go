package models

// OutboundMessageRequest is a manual WhatsApp message pushed through the API.
// An empty To addresses the depot manager.
type OutboundMessageRequest struct {
	To         string `json:"to,omitempty"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
