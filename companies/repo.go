package companies

import (
	"context"
	"time"
)

type Repo interface {
	FindByID(ctx context.Context, companyID string) (*Company, error)
	FindByHandle(ctx context.Context, handle string) (*Company, error)
	FindByAccessToken(ctx context.Context, accessToken string) (*Company, error)
	List(ctx context.Context) ([]*Company, error)
	Upsert(ctx context.Context, company *Company) error
	UpdateByID(ctx context.Context, companyID string, fields Fields) (*Company, error)
	DeleteByID(ctx context.Context, companyID string) error
}

// ApplyFields writes the recognized keys of fields onto c. Unknown keys are
// ignored so webhook payloads can carry more than we store.
func ApplyFields(c *Company, fields Fields) {
	for key, value := range fields {
		switch key {
		case "name":
			if v, ok := value.(string); ok {
				c.Name = v
			}
		case "handle":
			if v, ok := value.(string); ok {
				c.Handle = &v
			}
		case "description":
			if v, ok := value.(string); ok {
				c.Description = &v
			}
		case "logo_url":
			if v, ok := value.(string); ok {
				c.LogoURL = &v
			}
		case "phone":
			if v, ok := value.(string); ok {
				c.Phone = &v
			}
		case "access_token":
			if v, ok := value.(string); ok {
				c.AccessToken = v
			}
		case "refresh_token":
			if v, ok := value.(string); ok {
				c.RefreshToken = v
			}
		case "token_expires_at":
			if v, ok := value.(time.Time); ok {
				c.TokenExpiresAt = &v
			}
		}
	}
}
