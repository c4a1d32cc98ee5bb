package config

type Config interface {
	EnvConfig
	GenukaConfig
	SessionConfig
	SecurityConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Genuka
	Session
	Security
	Cors
}

func New() Config {
	return mainConfig{}
}
