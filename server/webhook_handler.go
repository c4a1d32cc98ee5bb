package server

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/genuka/go-auth-service/webhook"
)

// maxWebhookBody bounds how much of a webhook body is read before
// signature verification.
const maxWebhookBody = 1 << 20

// WebhookHandler verifies the body signature, then parses and dispatches
// the event. The signature gate is the only 401 path; everything after it
// is either malformed JSON (400) or a handler problem (500) that does not
// question the delivery's authenticity. A body over the size cap is its
// own 413 rather than a truncated-signature 401, so an oversized but
// authentic delivery is not mistaken for a forgery.
func (s *Server) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unreadable body"})
			return
		}
		if len(body) > maxWebhookBody {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "payload too large"})
			return
		}

		receivedHMAC := r.Header.Get(WebhookSignatureHeader)
		if receivedHMAC == "" || !s.webhookHMAC.VerifyRaw(body, receivedHMAC) {
			log.Warn().Msg("webhook rejected: signature mismatch")
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid signature"})
			return
		}

		env, err := webhook.ParseEnvelope(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
			return
		}

		log.Info().Str("event", env.Type).Str("company_id", env.CompanyID).Msg("webhook received")
		if err := s.events.Dispatch(r.Context(), env); err != nil {
			log.Error().Err(err).Str("event", env.Type).Msg("webhook handler failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to process webhook"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
