package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/adapter"
)

const ProviderMercadoPago = "mercadopago"

var _ adapter.WebhookParser = (*MercadoPagoParser)(nil)

// MercadoPagoParser handles payment notifications. Verification follows the
// gateway's manifest "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
type MercadoPagoParser struct {
	secret string
}

func NewMercadoPagoParser(secret string) *MercadoPagoParser {
	return &MercadoPagoParser{secret: secret}
}

// mpNotification is the subset of the notification body we rely on.
type mpNotification struct {
	ID     json.RawMessage `json:"id"` // number or string
	Type   string          `json:"type"`
	Action string          `json:"action"`
	Data   struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		ExternalReference string `json:"external_reference"`
	} `json:"data"`
}

func (p *MercadoPagoParser) Provider() string { return ProviderMercadoPago }

func (p *MercadoPagoParser) Verify(h http.Header, body []byte) error {
	parts := signatureParts(h.Get("x-signature"))
	ts, v1 := first(parts, "ts"), first(parts, "v1")
	if ts == "" || v1 == "" {
		return domain.ErrWebhookSignature
	}
	var n mpNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return domain.ErrWebhookPayload
	}
	if !validHex(p.secret, MercadoPagoManifest(strings.ToLower(n.Data.ID), h.Get("x-request-id"), ts), v1) {
		return domain.ErrWebhookSignature
	}
	return nil
}

// notificationID normalises the top-level id, which arrives as a number, a
// string or null. Absent and null ids yield "" so the inbox keys on the payment.
func notificationID(raw json.RawMessage) string {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return ""
	}
	return strings.Trim(v, `"`)
}

// MercadoPagoManifest builds the string the gateway signs.
func MercadoPagoManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		fmt.Fprintf(&b, "id:%s;", dataID)
	}
	if requestID != "" {
		fmt.Fprintf(&b, "request-id:%s;", requestID)
	}
	fmt.Fprintf(&b, "ts:%s;", ts)
	return b.String()
}

func (p *MercadoPagoParser) Parse(ctx context.Context, body []byte) (*model.WebhookEvent, error) {
	var n mpNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, domain.ErrWebhookPayload
	}
	if n.Type != "" && n.Type != "payment" {
		return nil, fmt.Errorf("%w: unsupported notification type %q", domain.ErrWebhookPayload, n.Type)
	}
	if n.Data.ID == "" || n.Data.Status == "" {
		return nil, fmt.Errorf("%w: missing data.id or data.status", domain.ErrWebhookPayload)
	}
	return &model.WebhookEvent{
		Provider:          ProviderMercadoPago,
		EventID:           notificationID(n.ID),
		Scope:             model.WebhookScopePayment,
		ExternalPaymentID: n.Data.ID,
		ExternalReference: n.Data.ExternalReference,
		ExternalStatus:    strings.ToLower(n.Data.Status),
	}, nil
}
