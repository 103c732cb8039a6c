package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kioskpanel/internal/log"
)

type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Remote      RemoteConfig    `mapstructure:"remote"`
	Dashboard   DashboardConfig `mapstructure:"dashboard"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Log         *log.Options    `mapstructure:"log"`
	ActionsFile string          `mapstructure:"actions-file"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

// RemoteConfig describes the single host every command is sent to.
type RemoteConfig struct {
	Host           string        `mapstructure:"host"`
	User           string        `mapstructure:"user"`
	KeyPath        string        `mapstructure:"key-path"`
	Transport      string        `mapstructure:"transport"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout"`
	WifiInterface  string        `mapstructure:"wifi-interface"`
}

type DashboardConfig struct {
	URL string `mapstructure:"url"`
}

// AuthConfig guards the mutating endpoints with HTTP basic auth when Enabled.
type AuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// envBindings keeps the environment names the panel has always used.
var envBindings = map[string][]string{
	"server.address":         {"SERVER_ADDRESS"},
	"server.write-timeout":   {"SERVER_WRITE_TIMEOUT"},
	"remote.host":            {"REMOTE_HOST", "EPIMETHEUS_HOST"},
	"remote.user":            {"SSH_USER"},
	"remote.key-path":        {"SSH_KEY_PATH"},
	"remote.transport":       {"SSH_TRANSPORT"},
	"remote.connect-timeout": {"SSH_CONNECT_TIMEOUT"},
	"remote.wifi-interface":  {"WIFI_INTERFACE"},
	"dashboard.url":          {"DASHBOARD_URL"},
	"auth.enabled":           {"AUTH_ENABLED"},
	"auth.username":          {"AUTH_USERNAME"},
	"auth.password":          {"AUTH_PASSWORD"},
	"actions-file":           {"ACTIONS_FILE"},
	"log.level":              {"LOG_LEVEL"},
	"log.format":             {"LOG_FORMAT"},
}

// AddFlags registers every setting on fs with its default value.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("server.address", ":5000", "HTTP listen address.")
	fs.Duration("server.write-timeout", 90*time.Second, "HTTP write timeout; must cover the slowest status poll.")

	fs.String("remote.host", "epimetheus", "Remote host ([user@]host[:port]).")
	fs.String("remote.user", "root", "SSH login user when the host does not name one.")
	fs.String("remote.key-path", "/root/.ssh/id_ed25519", "SSH private key file.")
	fs.String("remote.transport", "ssh", "Remote shell transport: 'ssh' (native) or 'openssh' (system binary).")
	fs.Duration("remote.connect-timeout", 5*time.Second, "SSH connect timeout.")
	fs.String("remote.wifi-interface", "wlp2s0", "Wireless interface queried for signal strength.")

	fs.String("dashboard.url", "http://dashboard.local", "Default dashboard URL shown on the kiosk.")

	fs.Bool("auth.enabled", false, "Require HTTP basic auth on mutating endpoints.")
	fs.String("auth.username", "admin", "Basic auth username.")
	fs.String("auth.password", "changeme", "Basic auth password.")

	fs.String("actions-file", "", "Optional YAML file overriding the built-in action catalog.")

	log.NewOptions().AddFlags(fs)
}

// Load resolves the configuration from flags, environment and an optional
// config file already set on v, in that order of precedence.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{Log: log.NewOptions()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		errs = append(errs, fmt.Errorf("server.address %q: %w", c.Server.Address, err))
	}
	if c.Remote.Host == "" {
		errs = append(errs, errors.New("remote.host is required"))
	}
	switch c.Remote.Transport {
	case "ssh":
		if c.Remote.KeyPath == "" {
			errs = append(errs, errors.New("remote.key-path is required for the ssh transport"))
		}
	case "openssh":
	default:
		errs = append(errs, fmt.Errorf("remote.transport must be ssh or openssh, got %q", c.Remote.Transport))
	}
	if c.Remote.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("remote.connect-timeout must be positive"))
	}
	if err := ValidateDashboardURL(c.Dashboard.URL); err != nil {
		errs = append(errs, fmt.Errorf("dashboard.url: %w", err))
	}
	if c.Auth.Enabled && (c.Auth.Username == "" || c.Auth.Password == "") {
		errs = append(errs, errors.New("auth.username and auth.password are required when auth is enabled"))
	}
	errs = append(errs, c.Log.Validate()...)

	return errors.Join(errs...)
}

// ValidateDashboardURL accepts absolute http and https URLs only.
func ValidateDashboardURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
