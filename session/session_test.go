package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/genuka/go-auth-service/companies"
	"github.com/genuka/go-auth-service/companies/repofakes"
	"github.com/genuka/go-auth-service/internal/errors"
	"github.com/genuka/go-auth-service/session"
	"github.com/genuka/go-auth-service/token"
)

var testSecret = []byte("session-test-secret-session-test")

func newManager(t *testing.T, repo companies.Repo, opts ...token.CodecOption) *session.Manager {
	t.Helper()
	codec := token.NewCodec(testSecret, opts...)
	return session.NewManager(codec, repo, 7*time.Hour, 30*24*time.Hour, false)
}

func requestWithCookies(cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestIssueSetsBothCookies(t *testing.T) {
	m := newManager(t, repofakes.NewFakeCompanyRepo())

	sessionCookie, refreshCookie, err := m.Issue("comp_42")
	require.NoError(t, err)

	require.Equal(t, session.SessionCookieName, sessionCookie.Name)
	require.Equal(t, session.RefreshCookieName, refreshCookie.Name)
	for _, c := range []*http.Cookie{sessionCookie, refreshCookie} {
		require.True(t, c.HttpOnly)
		require.Equal(t, "/", c.Path)
		require.Equal(t, http.SameSiteLaxMode, c.SameSite)
		require.NotEmpty(t, c.Value)
	}
	require.Equal(t, int((7 * time.Hour).Seconds()), sessionCookie.MaxAge)
	require.Equal(t, int((30 * 24 * time.Hour).Seconds()), refreshCookie.MaxAge)
}

func TestCompanyIDFromSessionCookie(t *testing.T) {
	m := newManager(t, repofakes.NewFakeCompanyRepo())
	sessionCookie, _, err := m.Issue("comp_42")
	require.NoError(t, err)

	id, ok := m.CompanyID(requestWithCookies(sessionCookie))
	require.True(t, ok)
	require.Equal(t, "comp_42", id)
	require.True(t, m.IsAuthenticated(requestWithCookies(sessionCookie)))
}

func TestKindsAreNotInterchangeable(t *testing.T) {
	m := newManager(t, repofakes.NewFakeCompanyRepo())
	sessionCookie, refreshCookie, err := m.Issue("comp_42")
	require.NoError(t, err)

	// Refresh token presented as a session cookie: structurally valid,
	// signed, unexpired - still rejected.
	swapped := &http.Cookie{Name: session.SessionCookieName, Value: refreshCookie.Value}
	_, ok := m.CompanyID(requestWithCookies(swapped))
	require.False(t, ok)

	// And the reverse.
	swapped = &http.Cookie{Name: session.RefreshCookieName, Value: sessionCookie.Value}
	_, ok = m.RefreshCompanyID(requestWithCookies(swapped))
	require.False(t, ok)

	// In their own slots both work.
	_, ok = m.CompanyID(requestWithCookies(sessionCookie))
	require.True(t, ok)
	id, ok := m.RefreshCompanyID(requestWithCookies(refreshCookie))
	require.True(t, ok)
	require.Equal(t, "comp_42", id)
}

func TestExpiredSessionCookie(t *testing.T) {
	issued := time.Now().Add(-8 * time.Hour)
	issuer := newManager(t, repofakes.NewFakeCompanyRepo(), token.WithNowTime(func() time.Time { return issued }))
	sessionCookie, _, err := issuer.Issue("comp_42")
	require.NoError(t, err)

	m := newManager(t, repofakes.NewFakeCompanyRepo())
	_, ok := m.CompanyID(requestWithCookies(sessionCookie))
	require.False(t, ok)
	require.False(t, m.IsAuthenticated(requestWithCookies(sessionCookie)))
}

func TestMissingAndGarbageCookies(t *testing.T) {
	m := newManager(t, repofakes.NewFakeCompanyRepo())

	_, ok := m.CompanyID(requestWithCookies())
	require.False(t, ok)

	garbage := &http.Cookie{Name: session.SessionCookieName, Value: "not-a-token"}
	_, ok = m.CompanyID(requestWithCookies(garbage))
	require.False(t, ok)
}

func TestAuthenticatedCompany(t *testing.T) {
	repo := repofakes.NewFakeCompanyRepo()
	m := newManager(t, repo)
	require.NoError(t, repo.Upsert(context.Background(), &companies.Company{ID: "comp_42", Name: "Acme"}))

	sessionCookie, _, err := m.Issue("comp_42")
	require.NoError(t, err)

	company, err := m.AuthenticatedCompany(context.Background(), requestWithCookies(sessionCookie))
	require.NoError(t, err)
	require.Equal(t, "Acme", company.Name)

	// Store miss and bad cookie are indistinguishable to the caller.
	orphan, _, err := m.Issue("comp_unknown")
	require.NoError(t, err)
	_, err = m.AuthenticatedCompany(context.Background(), requestWithCookies(orphan))
	require.ErrorIs(t, err, errors.ErrCompanyNotFound)
	_, err = m.AuthenticatedCompany(context.Background(), requestWithCookies())
	require.ErrorIs(t, err, errors.ErrCompanyNotFound)
}

func TestIssueTwiceBothValid(t *testing.T) {
	m := newManager(t, repofakes.NewFakeCompanyRepo())

	first, _, err := m.Issue("comp_42")
	require.NoError(t, err)
	second, _, err := m.Issue("comp_42")
	require.NoError(t, err)

	_, ok := m.CompanyID(requestWithCookies(first))
	require.True(t, ok)
	_, ok = m.CompanyID(requestWithCookies(second))
	require.True(t, ok)
}

func TestClear(t *testing.T) {
	m := newManager(t, repofakes.NewFakeCompanyRepo())
	cleared := m.Clear()
	require.Len(t, cleared, 2)
	for _, c := range cleared {
		require.Equal(t, -1, c.MaxAge)
		require.Empty(t, c.Value)
	}
}
