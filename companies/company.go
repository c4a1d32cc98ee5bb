// Package companies holds the record kept for each Genuka company that has
// installed the app, plus the storage interface the auth core depends on.
package companies

import "time"

// Company is one installed Genuka company (tenant). The ID is assigned by
// the platform and never changes; the handle is unique but mutable.
// AccessToken / RefreshToken are the platform-issued secrets, not the
// session cookies.
type Company struct {
	ID                string     `json:"id"`
	Handle            *string    `json:"handle,omitempty"`
	Name              string     `json:"name"`
	Description       *string    `json:"description,omitempty"`
	LogoURL           *string    `json:"logo_url,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	AuthorizationCode string     `json:"authorization_code,omitempty"`
	AccessToken       string     `json:"access_token,omitempty"`
	RefreshToken      string     `json:"refresh_token,omitempty"`
	TokenExpiresAt    *time.Time `json:"token_expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Fields is a partial update: only the keys present are written.
// Recognized keys match the Company JSON field names.
type Fields map[string]any
