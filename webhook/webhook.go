// Package webhook parses Genuka event envelopes and dispatches them to
// registered handlers by event name.
package webhook

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/genuka/go-auth-service/internal/errors"
)

// Event names Genuka delivers. Dot-namespaced: "<resource>.<action>".
const (
	EventCompanyUpdated        = "company.updated"
	EventCompanyDeleted        = "company.deleted"
	EventOrderCreated          = "order.created"
	EventOrderUpdated          = "order.updated"
	EventProductCreated        = "product.created"
	EventProductUpdated        = "product.updated"
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionUpdated   = "subscription.updated"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventPaymentSucceeded      = "payment.succeeded"
	EventPaymentFailed         = "payment.failed"
)

// Envelope is one webhook delivery. Data stays raw until a handler decides
// what it is.
type Envelope struct {
	Type      string          `json:"type"`
	CompanyID string          `json:"company_id"`
	Timestamp string          `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// ParseEnvelope decodes a raw body into an Envelope. Only called after the
// body's signature has been verified.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedRequest, "[ParseEnvelope] %v", err)
	}
	if env.Type == "" {
		return nil, errors.Wrapf(errors.ErrMalformedRequest, "[ParseEnvelope] missing event type")
	}
	return &env, nil
}

// HandlerFunc processes one event for one company.
type HandlerFunc func(ctx context.Context, companyID string, data json.RawMessage) error

// Registry maps event names to handlers. Registration happens at startup;
// dispatch is read-only after that, so no locking is needed.
type Registry struct {
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to an event name, replacing any previous one.
func (r *Registry) Register(event string, handler HandlerFunc) {
	r.handlers[event] = handler
}

// Dispatch routes an envelope to its handler. An unregistered event name is
// a no-op success so the platform does not retry-storm events this
// integration doesn't care about. A handler failure wraps ErrHandlerFailed.
func (r *Registry) Dispatch(ctx context.Context, env *Envelope) error {
	handler, ok := r.handlers[env.Type]
	if !ok {
		log.Warn().Str("event", env.Type).Str("company_id", env.CompanyID).Msg("unhandled webhook event")
		return nil
	}
	if err := handler(ctx, env.CompanyID, env.Data); err != nil {
		return errors.Wrapf(errors.ErrHandlerFailed, "[Registry.Dispatch] %s: %v", env.Type, err)
	}
	return nil
}
