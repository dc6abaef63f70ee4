package handlers

import (
	"net/http"
	"strings"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/mailer"
	"opsboard-services/pkg/response"

	"go.uber.org/zap"
)

type emailSendRequest struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// EmailSend relays a templated message to the mail provider. Responses use
// the flat {error} and {success, messageId} shape, not the data envelope.
func (h *Handler) EmailSend(w http.ResponseWriter, r *http.Request) {
	var body emailSendRequest
	if err := decodeJSON(w, r, &body); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}

	msg := mailer.Message{
		To:       strings.TrimSpace(body.To),
		Subject:  strings.TrimSpace(body.Subject),
		Template: domain.EmailTemplate(strings.ToLower(strings.TrimSpace(body.Template))),
		Data:     body.Data,
	}
	if msg.To == "" || msg.Subject == "" || msg.Template == "" {
		response.JSON(w, http.StatusBadRequest, map[string]any{"error": "Missing required fields: to, subject, template"})
		return
	}
	if err := msg.Validate(); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if h.Mailer == nil {
		response.JSON(w, http.StatusInternalServerError, map[string]any{"error": "Email is not configured"})
		return
	}

	messageID, err := h.Mailer.Send(r.Context(), msg)
	if err != nil {
		if domain.IsCode(err, domain.ErrValidation) {
			response.JSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		h.Logger.Error("email send failed",
			zap.String("template", string(msg.Template)),
			zap.Error(err),
		)
		response.JSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to send email"})
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true, "messageId": messageID})
}
