// Package session implements the double-cookie session scheme: a
// short-lived "session" cookie for protected routes and a long-lived
// "refresh_session" cookie whose only power is minting a new pair.
// Both are signed tokens; nothing is stored server side.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/genuka/go-auth-service/companies"
	"github.com/genuka/go-auth-service/internal/errors"
	"github.com/genuka/go-auth-service/token"
)

const (
	SessionCookieName = "session"
	RefreshCookieName = "refresh_session"
)

// Manager issues and validates the session cookie pair.
type Manager struct {
	codec      *token.Codec
	companies  companies.Repo
	sessionTTL time.Duration
	refreshTTL time.Duration
	secure     bool
}

func NewManager(codec *token.Codec, companyRepo companies.Repo, sessionTTL, refreshTTL time.Duration, secure bool) *Manager {
	return &Manager{
		codec:      codec,
		companies:  companyRepo,
		sessionTTL: sessionTTL,
		refreshTTL: refreshTTL,
		secure:     secure,
	}
}

// Issue creates a fresh session + refresh cookie pair bound to companyID.
// Each call yields independent tokens; issuing a new pair never invalidates
// a previously issued one.
func (m *Manager) Issue(companyID string) (sessionCookie, refreshCookie *http.Cookie, err error) {
	sessionToken, err := m.codec.Encode(companyID, token.KindSession, m.sessionTTL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[Manager.Issue] session token")
	}
	refreshToken, err := m.codec.Encode(companyID, token.KindRefresh, m.refreshTTL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "[Manager.Issue] refresh token")
	}
	return m.cookie(SessionCookieName, sessionToken, int(m.sessionTTL.Seconds())),
		m.cookie(RefreshCookieName, refreshToken, int(m.refreshTTL.Seconds())),
		nil
}

// CompanyID returns the company bound to a valid session cookie. Absent,
// expired, or wrong-kind cookies all report not-authenticated; this query
// path never errors.
func (m *Manager) CompanyID(r *http.Request) (string, bool) {
	return m.companyIDFromCookie(r, SessionCookieName, token.KindSession)
}

// RefreshCompanyID returns the company bound to a valid refresh cookie.
// A session-kind token presented here is rejected even though it is a
// structurally valid signed token.
func (m *Manager) RefreshCompanyID(r *http.Request) (string, bool) {
	return m.companyIDFromCookie(r, RefreshCookieName, token.KindRefresh)
}

func (m *Manager) companyIDFromCookie(r *http.Request, name string, kind token.Kind) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	claims, err := m.codec.Decode(cookie.Value)
	if err != nil || claims.Kind != kind {
		return "", false
	}
	return claims.CompanyID, true
}

// IsAuthenticated reports whether the request carries a valid session cookie.
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	_, ok := m.CompanyID(r)
	return ok
}

// AuthenticatedCompany resolves the session cookie to a stored company
// record. An invalid cookie and a store miss both come back as
// ErrCompanyNotFound; callers treat either as unauthenticated.
func (m *Manager) AuthenticatedCompany(ctx context.Context, r *http.Request) (*companies.Company, error) {
	companyID, ok := m.CompanyID(r)
	if !ok {
		return nil, errors.ErrCompanyNotFound
	}
	company, err := m.companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, errors.ErrCompanyNotFound
	}
	return company, nil
}

// Clear returns cookie-expiry directives for both cookies, used by logout.
func (m *Manager) Clear() []*http.Cookie {
	return []*http.Cookie{
		m.cookie(SessionCookieName, "", -1),
		m.cookie(RefreshCookieName, "", -1),
	}
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
