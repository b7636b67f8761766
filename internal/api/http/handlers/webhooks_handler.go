package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/user-service/internal/api/dto"
	"github.com/spec-kit/user-service/internal/service"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Signature verification codes.
const (
	CodeWebhookSecret    = "ERR_WEBHOOK_SECRET"
	CodeSignatureHeader  = "ERR_SIGNATURE_HEADER"
	CodeSignatureInvalid = "ERR_SIGNATURE_INVALID"
)

// VerifySignature checks the hex HMAC-SHA256 of the raw body against header.
// A "sha256=" prefix on the header value is accepted.
func VerifySignature(secret, header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return apperrors.NewDomainError(CodeWebhookSecret, "Webhook secret is not configured", http.StatusInternalServerError, "env")
		}
		provided := strings.TrimSpace(c.Get(header))
		if provided == "" {
			return apperrors.NewUnauthorized(CodeSignatureHeader, "Missing signature header", "signature")
		}
		provided = strings.TrimPrefix(provided, "sha256=")

		got, err := hex.DecodeString(provided)
		if err != nil || !hmac.Equal(got, Sign(secret, c.Body())) {
			return apperrors.NewUnauthorized(CodeSignatureInvalid, "Invalid signature", "signature")
		}
		return c.Next()
	}
}

// Sign returns the HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// WebhookResponse is returned by POST /webhooks/:provider.
type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"eventId"`
	Duplicate bool   `json:"duplicate"`
	Status    string `json:"status"`
}

// WebhooksHandler accepts signed provider callbacks.
type WebhooksHandler struct {
	webhooks *service.WebhookService
}

// NewWebhooksHandler constructs handler.
func NewWebhooksHandler(webhookService *service.WebhookService) *WebhooksHandler {
	return &WebhooksHandler{webhooks: webhookService}
}

// Receive handles POST /webhooks/:provider.
func (h *WebhooksHandler) Receive(c *fiber.Ctx) error {
	result, err := h.webhooks.Receive(c.UserContext(), utils.CopyString(c.Params("provider")), c.Body())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSuccess("Webhook received", WebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		Duplicate: result.Duplicate,
		Status:    string(result.Status),
	}, nil))
}
