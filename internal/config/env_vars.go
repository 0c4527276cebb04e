package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvVars is the single env-backed source for all configuration values.
// Parsed once at startup; the Config sub-interfaces are views over it.
type EnvVars struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppName  string `env:"APP_NAME" envDefault:"Device Auth"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`
	Env      string `env:"ENV" envDefault:"DEV"`

	// Identity provider (OIDC device-code flow)
	IssuerURL      string        `env:"OIDC_ISSUER_URL" envDefault:"https://login.microsoftonline.com/common/v2.0"`
	ClientID       string        `env:"OIDC_CLIENT_ID"`
	Scopes         []string      `env:"OIDC_SCOPES" envDefault:"openid,profile,email"`
	LoginTimeout   time.Duration `env:"LOGIN_TIMEOUT" envDefault:"5m"`
	PollInterval   time.Duration `env:"LOGIN_POLL_INTERVAL" envDefault:"5s"`

	// Sessions
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	MaxSessionLifetime time.Duration `env:"SESSION_MAX_LIFETIME" envDefault:"12h"`
	SweepInterval      time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	RateLimitPerMin    int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`

	// Authorization (provider group ID -> application role)
	GroupRoleMap map[string]string `env:"GROUP_ROLE_MAP"`
	DefaultRole  string            `env:"DEFAULT_ROLE"`

	// CORS
	CorsOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
}

// ParseEnvVars reads the process environment into an EnvVars value.
func ParseEnvVars() (EnvVars, error) {
	vars, err := env.ParseAs[EnvVars]()
	if err != nil {
		return EnvVars{}, fmt.Errorf("[config ParseEnvVars] %w", err)
	}
	return vars, nil
}

var _ EnvConfig = mainConfig{}

func (c mainConfig) GetPort() string {
	port := c.vars.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (c mainConfig) GetAppName() string {
	return c.vars.AppName
}

func (c mainConfig) GetBaseURL() string {
	return c.vars.BaseURL
}

func (c mainConfig) GetLogLevel() string {
	return c.vars.LogLevel
}

func (c mainConfig) GetEnv() string {
	return c.vars.Env
}

func (c mainConfig) IsProduction() bool {
	return c.vars.Env == "PROD" || c.vars.Env == "production"
}
