package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/genuka/go-auth-service/companies/repofakes"
	"github.com/genuka/go-auth-service/genuka"
	"github.com/genuka/go-auth-service/internal/config"
	"github.com/genuka/go-auth-service/server"
	"github.com/genuka/go-auth-service/signature"
	"github.com/genuka/go-auth-service/token"
	"github.com/genuka/go-auth-service/webhook"
)

const (
	testClientID      = "client-1"
	testClientSecret  = "client-secret-1"
	testCookieSecret  = "cookie-secret-1"
	testWebhookSecret = "webhook-secret-1"
	testCompanyID     = "comp_42"
)

// testConfig satisfies config.Config with fixed secrets and an httptest
// upstream URL. Env-derived parts come from the real implementations.
type testConfig struct {
	config.EnvVars
	config.Cors
	genukaURL string
}

func (c testConfig) GetGenukaURL() string                 { return c.genukaURL }
func (c testConfig) GetClientID() string                  { return testClientID }
func (c testConfig) GetClientSecret() string              { return testClientSecret }
func (c testConfig) GetRedirectURI() string               { return "http://localhost:8080/api/auth/callback" }
func (c testConfig) GetDefaultRedirect() string           { return "/" }
func (c testConfig) GetCookieSigningSecret() string       { return testCookieSecret }
func (c testConfig) GetSessionTTL() time.Duration         { return 7 * time.Hour }
func (c testConfig) GetRefreshTTL() time.Duration         { return 30 * 24 * time.Hour }
func (c testConfig) GetTimestampTolerance() time.Duration { return 300 * time.Second }
func (c testConfig) GetWebhookSecret() string             { return testWebhookSecret }
func (c testConfig) GetUpstreamTimeout() time.Duration    { return 2 * time.Second }

var _ config.Config = testConfig{}

type fixture struct {
	repo   *repofakes.FakeCompanyRepo
	events *webhook.Registry
	srv    *server.Server
}

// newFixture builds a server against the given fake upstream. A nil
// upstream handler gets a default that succeeds at token and profile calls.
func newFixture(t *testing.T, upstreamHandler http.HandlerFunc, options ...server.ServerOption) *fixture {
	t.Helper()
	if upstreamHandler == nil {
		upstreamHandler = defaultUpstream()
	}
	upstream := httptest.NewServer(upstreamHandler)
	t.Cleanup(upstream.Close)

	cfg := testConfig{genukaURL: upstream.URL}
	repo := repofakes.NewFakeCompanyRepo()
	events := webhook.NewRegistry()
	webhook.RegisterCompanyHandlers(events, repo)

	client := genuka.NewClient(genuka.Config{
		BaseURL:      cfg.GetGenukaURL(),
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		RedirectURI:  cfg.GetRedirectURI(),
		Timeout:      cfg.GetUpstreamTimeout(),
	})

	return &fixture{
		repo:   repo,
		events: events,
		srv:    server.New(cfg, repo, client, events, options...),
	}
}

func defaultUpstream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "at-new",
				"refresh_token": "rt-new",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		default:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"id":       testCompanyID,
				"handle":   "acme",
				"name":     "Acme Stores",
				"metadata": map[string]any{"contact": "+23765000000"},
			})
		}
	}
}

// cookieCodec mirrors the codec the server builds from the test config.
func cookieCodec(opts ...token.CodecOption) *token.Codec {
	return token.NewCodec(signature.DeriveKey(testCookieSecret, "session-cookies"), opts...)
}

func mintCookie(t *testing.T, name string, kind token.Kind, ttl time.Duration, opts ...token.CodecOption) *http.Cookie {
	t.Helper()
	value, err := cookieCodec(opts...).Encode(testCompanyID, kind, ttl)
	if err != nil {
		t.Fatalf("minting %s cookie: %v", name, err)
	}
	return &http.Cookie{Name: name, Value: value}
}

func responseCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set on response", name)
	return nil
}

func do(f *fixture, r *http.Request) *http.Response {
	recorder := httptest.NewRecorder()
	f.srv.ServeHTTP(recorder, r)
	return recorder.Result()
}
