package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	GatewayModeMock = "mock"
	GatewayModeHTTP = "http"
)

// Config holds all runtime configuration derived from environment variables.
type Config struct {
	HTTPPort           string
	RedisURL           string
	AMQPURL            string
	EventsExchange     string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	MoneyBoxBaseURL    string
	OnboardingTimeout  time.Duration
	LoginTimeout       time.Duration
	NameEnquiryPath    string
	VerifyPINPath      string
	GatewayMode        string
	MockNameDelay      time.Duration
	DevPIN             string
	PINDelay           time.Duration
	ImageMaxDimension  int
	ImageQuality       int
	FlowIdleTTL        time.Duration
	JanitorInterval    time.Duration
	CORSOrigins        []string
	PublicRateLimitRPS int
	AuthRateLimitRPS   int
	LogLevel           string
}

// Load reads environment variables using viper and returns a typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "MERCHANT_PORT")
	bindEnv(v, "redis_url", "REDIS_URL", "MERCHANT_REDIS_URL")
	bindEnv(v, "amqp_url", "AMQP_URL", "MERCHANT_AMQP_URL")
	bindEnv(v, "events_exchange", "EVENTS_EXCHANGE", "MERCHANT_EVENTS_EXCHANGE")
	bindEnv(v, "jwt_secret", "JWT_SECRET", "MERCHANT_JWT_SECRET")
	bindEnv(v, "jwt_issuer", "JWT_ISSUER", "MERCHANT_JWT_ISSUER")
	bindEnv(v, "jwt_audience", "JWT_AUDIENCE", "MERCHANT_JWT_AUDIENCE")
	bindEnv(v, "moneybox_base_url", "MONEYBOX_BASE_URL", "MERCHANT_MONEYBOX_BASE_URL")
	bindEnv(v, "onboarding_timeout", "ONBOARDING_TIMEOUT", "MERCHANT_ONBOARDING_TIMEOUT")
	bindEnv(v, "login_timeout", "LOGIN_TIMEOUT", "MERCHANT_LOGIN_TIMEOUT")
	bindEnv(v, "name_enquiry_path", "NAME_ENQUIRY_PATH", "MERCHANT_NAME_ENQUIRY_PATH")
	bindEnv(v, "verify_pin_path", "VERIFY_PIN_PATH", "MERCHANT_VERIFY_PIN_PATH")
	bindEnv(v, "gateway_mode", "GATEWAY_MODE", "MERCHANT_GATEWAY_MODE")
	bindEnv(v, "mock_name_delay", "MOCK_NAME_DELAY", "MERCHANT_MOCK_NAME_DELAY")
	bindEnv(v, "dev_pin", "DEV_PIN", "MERCHANT_DEV_PIN")
	bindEnv(v, "pin_delay", "PIN_DELAY", "MERCHANT_PIN_DELAY")
	bindEnv(v, "image_max_dimension", "IMAGE_MAX_DIMENSION", "MERCHANT_IMAGE_MAX_DIMENSION")
	bindEnv(v, "image_quality", "IMAGE_QUALITY", "MERCHANT_IMAGE_QUALITY")
	bindEnv(v, "flow_idle_ttl", "FLOW_IDLE_TTL", "MERCHANT_FLOW_IDLE_TTL")
	bindEnv(v, "janitor_interval", "JANITOR_INTERVAL", "MERCHANT_JANITOR_INTERVAL")
	bindEnv(v, "cors_origins", "CORS_ORIGINS", "MERCHANT_CORS_ORIGINS")
	bindEnv(v, "public_rate_limit_rps", "PUBLIC_RATE_LIMIT_RPS", "MERCHANT_PUBLIC_RATE_LIMIT_RPS")
	bindEnv(v, "auth_rate_limit_rps", "AUTH_RATE_LIMIT_RPS", "MERCHANT_AUTH_RATE_LIMIT_RPS")
	bindEnv(v, "log_level", "LOG_LEVEL", "MERCHANT_LOG_LEVEL")

	v.SetDefault("port", "8080")
	v.SetDefault("redis_url", "")
	v.SetDefault("amqp_url", "")
	v.SetDefault("events_exchange", "merchant.events")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "merchant-gateway")
	v.SetDefault("jwt_audience", "merchant-app")
	v.SetDefault("moneybox_base_url", "")
	v.SetDefault("onboarding_timeout", "60s")
	v.SetDefault("login_timeout", "30s")
	v.SetDefault("name_enquiry_path", "")
	v.SetDefault("verify_pin_path", "")
	v.SetDefault("gateway_mode", GatewayModeMock)
	v.SetDefault("mock_name_delay", "1500ms")
	v.SetDefault("dev_pin", "")
	v.SetDefault("pin_delay", "300ms")
	v.SetDefault("image_max_dimension", 800)
	v.SetDefault("image_quality", 50)
	v.SetDefault("flow_idle_ttl", "30m")
	v.SetDefault("janitor_interval", "1m")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("public_rate_limit_rps", 10)
	v.SetDefault("auth_rate_limit_rps", 100)
	v.SetDefault("log_level", "info")

	durations := map[string]*time.Duration{}
	cfg := &Config{
		HTTPPort:           v.GetString("port"),
		RedisURL:           strings.TrimSpace(v.GetString("redis_url")),
		AMQPURL:            strings.TrimSpace(v.GetString("amqp_url")),
		EventsExchange:     v.GetString("events_exchange"),
		JWTSecret:          v.GetString("jwt_secret"),
		JWTIssuer:          v.GetString("jwt_issuer"),
		JWTAudience:        v.GetString("jwt_audience"),
		MoneyBoxBaseURL:    strings.TrimRight(strings.TrimSpace(v.GetString("moneybox_base_url")), "/"),
		NameEnquiryPath:    v.GetString("name_enquiry_path"),
		VerifyPINPath:      v.GetString("verify_pin_path"),
		GatewayMode:        strings.ToLower(strings.TrimSpace(v.GetString("gateway_mode"))),
		DevPIN:             v.GetString("dev_pin"),
		ImageMaxDimension:  v.GetInt("image_max_dimension"),
		ImageQuality:       v.GetInt("image_quality"),
		CORSOrigins:        splitList(v.GetString("cors_origins")),
		PublicRateLimitRPS: max(v.GetInt("public_rate_limit_rps"), 1),
		AuthRateLimitRPS:   max(v.GetInt("auth_rate_limit_rps"), 1),
		LogLevel:           v.GetString("log_level"),
	}
	durations["ONBOARDING_TIMEOUT"] = &cfg.OnboardingTimeout
	durations["LOGIN_TIMEOUT"] = &cfg.LoginTimeout
	durations["MOCK_NAME_DELAY"] = &cfg.MockNameDelay
	durations["PIN_DELAY"] = &cfg.PINDelay
	durations["FLOW_IDLE_TTL"] = &cfg.FlowIdleTTL
	durations["JANITOR_INTERVAL"] = &cfg.JanitorInterval
	for name, dst := range durations {
		d, err := time.ParseDuration(v.GetString(strings.ToLower(name)))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = d
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if strings.TrimSpace(cfg.JWTIssuer) == "" {
		return fmt.Errorf("JWT_ISSUER is required")
	}
	if strings.TrimSpace(cfg.JWTAudience) == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}
	if cfg.MoneyBoxBaseURL == "" {
		return fmt.Errorf("MONEYBOX_BASE_URL is required")
	}
	if u, err := url.Parse(cfg.MoneyBoxBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MONEYBOX_BASE_URL must be an absolute URL")
	}
	if cfg.OnboardingTimeout <= 0 || cfg.LoginTimeout <= 0 {
		return fmt.Errorf("ONBOARDING_TIMEOUT and LOGIN_TIMEOUT must be positive")
	}
	if cfg.FlowIdleTTL <= 0 || cfg.JanitorInterval <= 0 {
		return fmt.Errorf("FLOW_IDLE_TTL and JANITOR_INTERVAL must be positive")
	}
	if cfg.MockNameDelay < 0 || cfg.PINDelay < 0 {
		return fmt.Errorf("MOCK_NAME_DELAY and PIN_DELAY must not be negative")
	}
	switch cfg.GatewayMode {
	case GatewayModeMock, GatewayModeHTTP:
	default:
		return fmt.Errorf("GATEWAY_MODE must be %q or %q", GatewayModeMock, GatewayModeHTTP)
	}
	if cfg.ImageMaxDimension <= 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must be positive")
	}
	if cfg.ImageQuality < 1 || cfg.ImageQuality > 100 {
		return fmt.Errorf("IMAGE_QUALITY must be between 1 and 100")
	}
	return nil
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
