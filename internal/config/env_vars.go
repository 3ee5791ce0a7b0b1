package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

const (
	AuthRoutesPlain = "plain"
	AuthRoutesEmail = "email"
)

type EnvVars struct {
	Env        string `env:"ENV" envDefault:"DEV"`
	AppName    string `env:"APP_NAME" envDefault:"Contract Desk"`
	Host       string `env:"HOST" envDefault:"127.0.0.1"`
	Port       string `env:"PORT" envDefault:"8080"`
	DataFolder string `env:"FOLDER" envDefault:"./data"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	APIBaseURL       string        `env:"API_BASE_URL" envDefault:"http://127.0.0.1:5000/api"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"8s"`
	AuthRoutes       string        `env:"AUTH_ROUTES" envDefault:"plain"`
	PlaceholderUsers bool          `env:"ALLOW_PLACEHOLDER_USER" envDefault:"false"`
	SocialLogin      bool          `env:"SOCIAL_LOGIN" envDefault:"false"`

	DevAPIPort       string        `env:"DEVAPI_PORT" envDefault:"5000"`
	DevAPISecret     string        `env:"DEVAPI_SECRET" envDefault:"dev-secret-change-me"`
	DevAPIAccessTTL  time.Duration `env:"DEVAPI_ACCESS_TTL" envDefault:"15m"`
	DevAPIRefreshTTL time.Duration `env:"DEVAPI_REFRESH_TTL" envDefault:"720h"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) validate() error {
	switch e.AuthRoutes {
	case AuthRoutesPlain, AuthRoutesEmail:
	default:
		return fmt.Errorf("[config] AUTH_ROUTES must be %q or %q, got %q", AuthRoutesPlain, AuthRoutesEmail, e.AuthRoutes)
	}
	if e.RequestTimeout <= 0 {
		return fmt.Errorf("[config] REQUEST_TIMEOUT must be positive")
	}
	if e.APIBaseURL == "" {
		return fmt.Errorf("[config] API_BASE_URL is required")
	}
	return nil
}

// GetPort is the desk listen address. A bare port binds to HOST, which
// defaults to loopback; "host:port" is used as given.
func (e EnvVars) GetPort() string {
	return listenAddr(e.Host, e.Port)
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(e.APIBaseURL, "/")
}

func (e EnvVars) GetRequestTimeout() time.Duration {
	return e.RequestTimeout
}

func (e EnvVars) GetAuthRoutes() string {
	return e.AuthRoutes
}

// AllowPlaceholderUser reports whether a login response without a user may
// fall back to a synthesized user built from the email.
func (e EnvVars) AllowPlaceholderUser() bool {
	return e.PlaceholderUsers
}

// GetSocialLoginURL is where provider logins start, or "" when social login
// is off. The provider name is appended as a path segment.
func (e EnvVars) GetSocialLoginURL() string {
	if !e.SocialLogin {
		return ""
	}
	return e.GetAPIBaseURL() + "/auth"
}

func (e EnvVars) GetDevAPIPort() string {
	return listenAddr(e.Host, e.DevAPIPort)
}

func (e EnvVars) GetDevAPISecret() string {
	return e.DevAPISecret
}

func (e EnvVars) GetDevAPIAccessTTL() time.Duration {
	return e.DevAPIAccessTTL
}

func (e EnvVars) GetDevAPIRefreshTTL() time.Duration {
	return e.DevAPIRefreshTTL
}

func listenAddr(host, port string) string {
	if h, p, err := net.SplitHostPort(port); err == nil {
		if h != "" {
			return port
		}
		port = p
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
