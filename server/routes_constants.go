package server

const (
	RouteHome     = "/{$}"
	RouteHealth   = "/health"
	RouteCallback = "/api/auth/callback"
	RouteCheck    = "/api/auth/check"
	RouteRefresh  = "/api/auth/refresh"
	RouteMe       = "/api/auth/me"
	RouteLogout   = "/api/auth/logout"
	RouteWebhook  = "/api/auth/webhook"
)

// WebhookSignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const WebhookSignatureHeader = "X-Genuka-Hmac"
