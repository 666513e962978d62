package adapter

import (
	"context"
	"net/http"

	"course-settlement/internal/domain/model"
)

// WebhookParser is the hex port for one payment gateway's callback dialect.
type WebhookParser interface {
	Provider() string

	// Verify checks the delivery signature against the raw body.
	Verify(h http.Header, body []byte) error
	// Parse turns a raw payload into a provider-neutral event.
	Parse(ctx context.Context, body []byte) (*model.WebhookEvent, error)
}
