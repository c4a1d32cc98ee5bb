// Package genuka is the outbound client for the Genuka platform API:
// authorization-code exchange, token refresh, and company profile reads.
package genuka

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/genuka/go-auth-service/internal/errors"
)

const defaultTimeout = 10 * time.Second

// Config carries the OAuth client credentials and platform location.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration
}

// TokenSet is the platform token material returned by exchange and refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Profile is the company record as Genuka reports it.
type Profile struct {
	ID          string         `json:"id"`
	Handle      *string        `json:"handle"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	LogoURL     *string        `json:"logoUrl"`
	Metadata    map[string]any `json:"metadata"`
}

// Contact returns the contact phone from the profile metadata, if present.
func (p *Profile) Contact() *string {
	if v, ok := p.Metadata["contact"].(string); ok && v != "" {
		return &v
	}
	return nil
}

// Client talks to the Genuka platform. It never retries: the authorization
// code is single-use and token refresh is not guaranteed idempotent, so
// retry policy belongs to the caller.
type Client struct {
	baseURL string
	oauth   oauth2.Config
	http    *http.Client
	nowTime func() time.Time
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimRight(cfg.BaseURL, "/") + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		http:    &http.Client{Timeout: timeout},
		nowTime: time.Now,
	}
}

// ExchangeCode trades a callback authorization code for a token set.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUpstreamExchangeFailed, "[Client.ExchangeCode] %s", retrieveDetail(err))
	}
	return c.tokenSet(tok), nil
}

// Refresh trades a stored platform refresh token for a new token set.
// An upstream invalid_grant means the refresh token is revoked or spent;
// the caller must force a full re-authorization rather than retry.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	source := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && refreshRejected(retrieveErr) {
			return nil, errors.Wrapf(errors.ErrRefreshTokenRevoked, "[Client.Refresh] %s", retrieveDetail(err))
		}
		return nil, errors.Wrapf(errors.ErrUpstreamRefreshFailed, "[Client.Refresh] %s", retrieveDetail(err))
	}
	return c.tokenSet(tok), nil
}

// CompanyInfo fetches the company profile. On an upstream error status it
// degrades to a minimal profile instead of failing the install flow.
func (c *Client) CompanyInfo(ctx context.Context, companyID string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/companies/"+companyID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Client.CompanyInfo] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Profile{ID: companyID, Name: "Company " + companyID}, nil
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("[Client.CompanyInfo] decoding profile: %w", err)
	}
	if profile.ID == "" {
		profile.ID = companyID
	}
	return &profile, nil
}

// Get performs an access-token-authenticated GET against the platform API.
func (c *Client) Get(ctx context.Context, endpoint, accessToken string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, accessToken, nil)
}

// Post performs an access-token-authenticated POST against the platform API.
func (c *Client) Post(ctx context.Context, endpoint, accessToken string, body any) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, endpoint, accessToken, data)
}

func (c *Client) do(ctx context.Context, method, endpoint, accessToken string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Client.do] %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[Client.do] reading %s %s: %w", method, endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("[Client.do] %s %s: status %d", method, endpoint, resp.StatusCode)
	}
	return payload, nil
}

// oauthContext routes x/oauth2's internal HTTP through our bounded client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// tokenSet normalizes a platform token. Genuka reports expiry as the
// non-standard expires_in_minutes when expires_in is absent; 60 minutes is
// the documented default.
func (c *Client) tokenSet(tok *oauth2.Token) *TokenSet {
	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		minutes := 60.0
		if v, ok := tok.Extra("expires_in_minutes").(float64); ok && v > 0 {
			minutes = v
		}
		expiresAt = c.nowTime().Add(time.Duration(minutes) * time.Minute)
	}
	return &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}

func refreshRejected(err *oauth2.RetrieveError) bool {
	if err.ErrorCode == "invalid_grant" {
		return true
	}
	if err.Response == nil {
		return false
	}
	status := err.Response.StatusCode
	return status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden
}

func retrieveDetail(err error) string {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return fmt.Sprintf("status %d", retrieveErr.Response.StatusCode)
	}
	return err.Error()
}
