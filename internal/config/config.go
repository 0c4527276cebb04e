package config

type Config interface {
	EnvConfig
	CorsConfig
	ProviderConfig
	SecurityConfig
	RolesConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
	IsProduction() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	vars EnvVars
}

func New() (Config, error) {
	vars, err := ParseEnvVars()
	if err != nil {
		return nil, err
	}
	return mainConfig{vars: vars}, nil
}
