package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("MONEYBOX_BASE_URL", "https://moneybox.example.com/")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "https://moneybox.example.com", cfg.MoneyBoxBaseURL)
	assert.Equal(t, 60*time.Second, cfg.OnboardingTimeout)
	assert.Equal(t, 30*time.Second, cfg.LoginTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.PINDelay)
	assert.Equal(t, 1500*time.Millisecond, cfg.MockNameDelay)
	assert.Equal(t, GatewayModeMock, cfg.GatewayMode)
	assert.Equal(t, 800, cfg.ImageMaxDimension)
	assert.Equal(t, 50, cfg.ImageQuality)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "merchant.events", cfg.EventsExchange)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadPrefixedAliases(t *testing.T) {
	setRequired(t)
	t.Setenv("MERCHANT_PORT", "9090")
	t.Setenv("MERCHANT_GATEWAY_MODE", "HTTP")
	t.Setenv("MERCHANT_CORS_ORIGINS", "https://app.example.com, https://m.example.com")
	t.Setenv("MERCHANT_FLOW_IDLE_TTL", "5m")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, GatewayModeHTTP, cfg.GatewayMode)
	assert.Equal(t, []string{"https://app.example.com", "https://m.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Minute, cfg.FlowIdleTTL)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "short_secret", env: map[string]string{"JWT_SECRET": "short"}, want: "JWT_SECRET must be at least 32 characters"},
		{name: "missing_base_url", env: map[string]string{"MONEYBOX_BASE_URL": ""}, want: "MONEYBOX_BASE_URL is required"},
		{name: "relative_base_url", env: map[string]string{"MONEYBOX_BASE_URL": "moneybox"}, want: "MONEYBOX_BASE_URL must be an absolute URL"},
		{name: "bad_duration", env: map[string]string{"PIN_DELAY": "soon"}, want: "invalid PIN_DELAY"},
		{name: "bad_mode", env: map[string]string{"GATEWAY_MODE": "live"}, want: "GATEWAY_MODE must be"},
		{name: "bad_quality", env: map[string]string{"IMAGE_QUALITY": "0"}, want: "IMAGE_QUALITY must be between 1 and 100"},
		{name: "zero_timeout", env: map[string]string{"LOGIN_TIMEOUT": "0s"}, want: "must be positive"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
