package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the sync backend.
type Config struct {
	Addr              string        `env:"ADDR,default=:8080"`
	DBDSN             string        `env:"DB_DSN,required"`
	OAuthClientID     string        `env:"OAUTH_CLIENT_ID,required"`
	OAuthClientSecret string        `env:"OAUTH_CLIENT_SECRET,required"`
	OAuthAuthURL      string        `env:"OAUTH_AUTH_URL,default=https://github.com/login/oauth/authorize"`
	OAuthTokenURL     string        `env:"OAUTH_TOKEN_URL,default=https://github.com/login/oauth/access_token"`
	OAuthRedirectURL  string        `env:"OAUTH_REDIRECT_URL,default=http://localhost:8080/auth/redirect"`
	SessionTTL        time.Duration `env:"SESSION_TTL,default=5m"`
	PollTimeout       time.Duration `env:"POLL_TIMEOUT,default=45s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=60s"`
	RequestsPerMinute int           `env:"REQUESTS_PER_MINUTE,default=300"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS,default=*"`
	NATSURL           string        `env:"NATS_URL"`
	OTLPEndpoint      string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
