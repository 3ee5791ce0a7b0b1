package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	APIConfig
	DevAPIConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetAuthRoutes() string
	AllowPlaceholderUser() bool
	GetSocialLoginURL() string
}

type DevAPIConfig interface {
	GetDevAPIPort() string
	GetDevAPISecret() string
	GetDevAPIAccessTTL() time.Duration
	GetDevAPIRefreshTTL() time.Duration
}

type mainConfig struct {
	EnvVars
}

var _ Config = mainConfig{}

// New loads an optional .env file and then parses the process environment.
func New() (Config, error) {
	return Load(".env")
}

func Load(dotEnvFiles ...string) (Config, error) {
	for _, f := range dotEnvFiles {
		// A missing file is fine; real environment variables win over it.
		_ = godotenv.Load(f)
	}

	var vars EnvVars
	if err := env.Parse(&vars); err != nil {
		return nil, errors.Wrap(err, "[config.Load] parse environment")
	}
	if err := vars.validate(); err != nil {
		return nil, err
	}
	return mainConfig{EnvVars: vars}, nil
}
