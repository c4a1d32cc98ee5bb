package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/genuka/go-auth-service/companies"
	"github.com/genuka/go-auth-service/internal/errors"
)

// HomeHandler greets the authenticated company, or hints at the install
// flow when there is no session.
func (s *Server) HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company, err := s.sessions.AuthenticatedCompany(r.Context(), r)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"message":       "Welcome to the " + s.config.GetAppName(),
				"authenticated": false,
				"hint":          "install the app through Genuka to sign in",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":       "Welcome back, " + company.Name + "!",
			"authenticated": true,
			"company": map[string]any{
				"id":     company.ID,
				"name":   company.Name,
				"handle": company.Handle,
			},
		})
	}
}

// CheckHandler reports whether the request carries a valid session cookie.
func (s *Server) CheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": s.sessions.IsAuthenticated(r),
		})
	}
}

// RefreshHandler rotates the platform tokens and reissues both cookies.
// The company identity comes exclusively from the signed refresh cookie;
// the request body is never read. Every failure collapses to the same 401
// so the response can't reveal which step broke.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, ok := s.sessions.RefreshCompanyID(r)
		if !ok {
			unauthorized(w)
			return
		}

		ctx := r.Context()
		company, err := s.companies.FindByID(ctx, companyID)
		if err != nil {
			log.Warn().Str("company_id", companyID).Msg("refresh rejected: company not found")
			unauthorized(w)
			return
		}
		if company.RefreshToken == "" {
			log.Warn().Str("company_id", companyID).Msg("refresh rejected: no stored refresh token")
			unauthorized(w)
			return
		}

		tokens, err := s.upstream.Refresh(ctx, company.RefreshToken)
		if err != nil {
			if errors.Is(err, errors.ErrRefreshTokenRevoked) {
				log.Warn().Str("company_id", companyID).Msg("refresh rejected: upstream token revoked")
			} else {
				log.Error().Err(err).Str("company_id", companyID).Msg("upstream refresh failed")
			}
			unauthorized(w)
			return
		}

		// Upstream may omit the rotated refresh token; keep the old one then.
		refreshToken := tokens.RefreshToken
		if refreshToken == "" {
			refreshToken = company.RefreshToken
		}
		_, err = s.companies.UpdateByID(ctx, companyID, companies.Fields{
			"access_token":     tokens.AccessToken,
			"refresh_token":    refreshToken,
			"token_expires_at": tokens.ExpiresAt,
		})
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("persisting refreshed tokens failed")
			unauthorized(w)
			return
		}

		sessionCookie, refreshCookie, err := s.sessions.Issue(companyID)
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID).Msg("session reissue failed")
			unauthorized(w)
			return
		}
		http.SetCookie(w, sessionCookie)
		http.SetCookie(w, refreshCookie)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "session refreshed",
		})
	}
}

// MeHandler returns the authenticated company profile. An invalid session
// and an unknown company are the same 401; existing clients key off it to
// restart the install flow.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company, err := s.sessions.AuthenticatedCompany(r.Context(), r)
		if err != nil {
			unauthorized(w)
			return
		}
		writeJSON(w, http.StatusOK, companyProfile(company))
	}
}

// LogoutHandler expires both cookies.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.IsAuthenticated(r) {
			unauthorized(w)
			return
		}
		for _, cookie := range s.sessions.Clear() {
			http.SetCookie(w, cookie)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "logged out",
		})
	}
}

func companyProfile(company *companies.Company) map[string]any {
	profile := map[string]any{
		"id":          company.ID,
		"handle":      company.Handle,
		"name":        company.Name,
		"description": company.Description,
		"logo_url":    company.LogoURL,
		"phone":       company.Phone,
		"created_at":  company.CreatedAt.Format(time.RFC3339),
		"updated_at":  company.UpdatedAt.Format(time.RFC3339),
	}
	return profile
}
