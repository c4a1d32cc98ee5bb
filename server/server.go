// Package server wires the HTTP surface of the auth gateway: the OAuth
// callback, the cookie-session endpoints, and the webhook receiver.
package server

import (
	"net/http"
	"time"

	"github.com/genuka/go-auth-service/companies"
	"github.com/genuka/go-auth-service/genuka"
	"github.com/genuka/go-auth-service/internal/config"
	"github.com/genuka/go-auth-service/session"
	"github.com/genuka/go-auth-service/signature"
	"github.com/genuka/go-auth-service/token"
	"github.com/genuka/go-auth-service/webhook"
)

type Server struct {
	mux          *http.ServeMux
	config       config.Config
	companies    companies.Repo
	upstream     *genuka.Client
	sessions     *session.Manager
	callbackHMAC *signature.Signer
	webhookHMAC  *signature.Signer
	events       *webhook.Registry
	nowTime      func() time.Time
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(cfg config.Config, companyRepo companies.Repo, upstream *genuka.Client, events *webhook.Registry, options ...ServerOption) *Server {
	codec := token.NewCodec(signature.DeriveKey(cfg.GetCookieSigningSecret(), "session-cookies"))

	s := &Server{
		mux:          http.NewServeMux(),
		config:       cfg,
		companies:    companyRepo,
		upstream:     upstream,
		sessions:     session.NewManager(codec, companyRepo, cfg.GetSessionTTL(), cfg.GetRefreshTTL(), cfg.GetEnv() == "PROD"),
		callbackHMAC: signature.New(cfg.GetClientSecret()),
		webhookHMAC:  signature.New(cfg.GetWebhookSecret()),
		events:       events,
		nowTime:      time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHome, ChainMiddleware(s.HomeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// OAuth install flow
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))

	// Session management
	s.RegisterRouteHandler("GET "+RouteCheck, ChainMiddleware(s.CheckHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Webhook ingestion
	s.RegisterRouteHandler("POST "+RouteWebhook, ChainMiddleware(s.WebhookHandler(), s.APIMiddleware()...))
}
