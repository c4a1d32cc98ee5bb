package config

import "time"

type SessionConfig interface {
	GetCookieSigningSecret() string
	GetSessionTTL() time.Duration
	GetRefreshTTL() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetCookieSigningSecret returns the secret used to sign the session cookies.
// Falls back to the Genuka client secret, which is what the platform
// boilerplates do when no dedicated secret is configured.
func (Session) GetCookieSigningSecret() string {
	if secret := GetEnv("COOKIE_SIGNING_SECRET", ""); secret != "" {
		return secret
	}
	return Genuka{}.GetClientSecret()
}

func (Session) GetSessionTTL() time.Duration {
	return 7 * time.Hour
}

func (Session) GetRefreshTTL() time.Duration {
	return 30 * 24 * time.Hour
}
