package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-device-auth/internal/config"
)

func TestNewAppliesDefaults(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.GetPort())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.False(t, cfg.IsProduction())
	require.Equal(t, 30*time.Minute, cfg.GetSessionTTL())
	require.Equal(t, 12*time.Hour, cfg.GetMaxSessionLifetime())
	require.Equal(t, 5*time.Second, cfg.GetPollInterval())
}

func TestNewParsesEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ENV", "PROD")
	t.Setenv("OIDC_CLIENT_ID", "client-1")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("GROUP_ROLE_MAP", "group-a:admin,group-b:user")
	t.Setenv("DEFAULT_ROLE", "guest")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.GetPort())
	require.True(t, cfg.IsProduction())
	require.Equal(t, "client-1", cfg.GetClientID())
	require.Equal(t, 15*time.Minute, cfg.GetSessionTTL())
	require.Equal(t, map[string]string{"group-a": "admin", "group-b": "user"}, cfg.GetGroupRoleMapping())
	require.Equal(t, "guest", cfg.GetDefaultRole())

	origins := cfg.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://app.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://admin.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example.com"))
}

func TestGroupRoleMappingIsACopy(t *testing.T) {
	t.Setenv("GROUP_ROLE_MAP", "group-a:admin")

	cfg, err := config.New()
	require.NoError(t, err)

	mapping := cfg.GetGroupRoleMapping()
	mapping["group-a"] = "tampered"

	require.Equal(t, "admin", cfg.GetGroupRoleMapping()["group-a"])
}
