package server

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/genuka/go-auth-service/companies"
)

// CallbackHandler completes the Genuka install flow. The chain is linear
// and terminal on first failure:
//
//	verify HMAC -> verify timestamp freshness -> exchange code ->
//	fetch profile -> upsert company -> issue cookies -> redirect.
//
// A repeated install restarts the whole chain; the upsert is keyed on the
// company ID, so partial side effects from an earlier aborted attempt are
// safely overwritten.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := q.Get("code")
		companyID := q.Get("company_id")
		timestamp := q.Get("timestamp")
		receivedHMAC := q.Get("hmac")
		redirectTo := q.Get("redirect_to")
		if redirectTo == "" {
			redirectTo = s.config.GetDefaultRedirect()
		}

		if code == "" || companyID == "" || timestamp == "" || receivedHMAC == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":    "missing required parameters",
				"required": []string{"code", "company_id", "timestamp", "hmac"},
			})
			return
		}

		// The platform signs all parameters except the hmac itself.
		params := map[string]string{
			"code":        code,
			"company_id":  companyID,
			"timestamp":   timestamp,
			"redirect_to": redirectTo,
		}
		if !s.callbackHMAC.Verify(params, receivedHMAC) {
			log.Warn().Str("company_id", companyID).Msg("callback rejected: hmac mismatch")
			s.callbackUnauthorized(w)
			return
		}

		if !s.timestampFresh(timestamp) {
			log.Warn().Str("company_id", companyID).Str("timestamp", timestamp).Msg("callback rejected: stale timestamp")
			s.callbackUnauthorized(w)
			return
		}

		ctx := r.Context()
		tokens, err := s.upstream.ExchangeCode(ctx, code)
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("callback code exchange failed")
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "authorization failed"})
			return
		}

		profile, err := s.upstream.CompanyInfo(ctx, companyID)
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("callback profile fetch failed")
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "authorization failed"})
			return
		}

		company := &companies.Company{
			ID:                companyID,
			Handle:            profile.Handle,
			Name:              profile.Name,
			Description:       profile.Description,
			LogoURL:           profile.LogoURL,
			Phone:             profile.Contact(),
			AuthorizationCode: code,
			AccessToken:       tokens.AccessToken,
			RefreshToken:      tokens.RefreshToken,
			TokenExpiresAt:    &tokens.ExpiresAt,
		}
		if err := s.companies.Upsert(ctx, company); err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("callback company upsert failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
			return
		}

		sessionCookie, refreshCookie, err := s.sessions.Issue(companyID)
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("callback session issue failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
			return
		}
		http.SetCookie(w, sessionCookie)
		http.SetCookie(w, refreshCookie)

		// redirect_to arrives URL-encoded; unescape for the actual redirect.
		if decoded, err := url.QueryUnescape(redirectTo); err == nil {
			redirectTo = decoded
		}
		http.Redirect(w, r, redirectTo, http.StatusFound)
	}
}

// callbackUnauthorized is deliberately uniform across the signature and
// timestamp checks so the response can't be used as an oracle.
func (s *Server) callbackUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid callback request"})
}

// timestampFresh rejects timestamps outside the tolerance window in either
// direction. Future timestamps are as suspect as stale ones.
func (s *Server) timestampFresh(timestamp string) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	drift := s.nowTime().Sub(time.Unix(ts, 0))
	if drift < 0 {
		drift = -drift
	}
	return drift <= s.config.GetTimestampTolerance()
}
