package config

import "time"

// ProviderConfig describes the external identity provider the device-code
// flow runs against.
type ProviderConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetScopes() []string
	GetLoginTimeout() time.Duration
	GetPollInterval() time.Duration
}

var _ ProviderConfig = mainConfig{}

func (c mainConfig) GetIssuerURL() string {
	return c.vars.IssuerURL
}

func (c mainConfig) GetClientID() string {
	return c.vars.ClientID
}

func (c mainConfig) GetScopes() []string {
	return c.vars.Scopes
}

func (c mainConfig) GetLoginTimeout() time.Duration {
	return c.vars.LoginTimeout
}

func (c mainConfig) GetPollInterval() time.Duration {
	return c.vars.PollInterval
}
