package config

// GenukaConfig holds everything needed to talk to the Genuka platform:
// OAuth client credentials, the platform base URL, and the redirect URIs
// used during the install flow.
type GenukaConfig interface {
	GetGenukaURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetDefaultRedirect() string
}

type Genuka struct{}

var _ GenukaConfig = Genuka{}

func (Genuka) GetGenukaURL() string {
	return GetEnv("GENUKA_URL", "https://api.genuka.com")
}

func (Genuka) GetClientID() string {
	return GetEnv("GENUKA_CLIENT_ID", "")
}

func (Genuka) GetClientSecret() string {
	return GetEnv("GENUKA_CLIENT_SECRET", "")
}

func (Genuka) GetRedirectURI() string {
	return GetEnv("GENUKA_REDIRECT_URI", "http://localhost:8080/api/auth/callback")
}

// GetDefaultRedirect is where the browser lands after a successful install
// when the callback carries no redirect_to parameter.
func (Genuka) GetDefaultRedirect() string {
	return GetEnv("GENUKA_DEFAULT_REDIRECT", "/")
}
