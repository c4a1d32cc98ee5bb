package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetTimestampTolerance() time.Duration
	GetWebhookSecret() string
	GetUpstreamTimeout() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetTimestampTolerance bounds how far an OAuth callback timestamp may drift
// from server time, in either direction.
func (Security) GetTimestampTolerance() time.Duration {
	seconds, err := strconv.Atoi(GetEnv("OAUTH_TIMESTAMP_TOLERANCE", "300"))
	if err != nil || seconds <= 0 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}

// GetWebhookSecret returns the shared secret Genuka signs webhook bodies with.
// Falls back to the client secret when not configured separately.
func (Security) GetWebhookSecret() string {
	if secret := GetEnv("GENUKA_WEBHOOK_SECRET", ""); secret != "" {
		return secret
	}
	return Genuka{}.GetClientSecret()
}

func (Security) GetUpstreamTimeout() time.Duration {
	return 10 * time.Second
}
