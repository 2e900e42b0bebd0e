// Package config loads settings for the wpyvr binaries from an optional
// YAML file, a .env file and the environment. Keys are dotted ("wp.base_url")
// and map to upper-case environment variables ("WP_BASE_URL").
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/internal/store"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// Config is the resolved configuration.
type Config struct {
	WP       WPConfig
	HTTP     HTTPConfig
	Cache    CacheConfig
	Session  SessionConfig
	Firebase FirebaseConfig
	Gateway  GatewayConfig
	Email    EmailConfig
	Contact  ContactConfig
}

// WPConfig locates the CMS. HubURL falls back to BaseURL.
type WPConfig struct {
	BaseURL string `validate:"required,url"`
	HubURL  string `validate:"omitempty,url"`
}

type HTTPConfig struct {
	Timeout time.Duration `validate:"gt=0"`
}

type CacheConfig struct {
	Enabled bool
}

// SessionConfig selects where the identity cache lives.
type SessionConfig struct {
	Backend       string `validate:"oneof=memory file sqlite postgres redis"`
	Path          string
	DSN           string
	RedisAddr     string
	EncryptionKey string
}

type FirebaseConfig struct {
	APIKey string
}

// GatewayConfig configures the HTTP gateway binary.
type GatewayConfig struct {
	Port            int `validate:"gt=0,lte=65535"`
	CORSOrigins     []string
	RateLimitRPS    float64 `validate:"gte=0"`
	SanitizeContent bool
	ProbeInterval   time.Duration
}

// EmailConfig configures outbound SMTP. An empty SMTPHost selects the noop
// sender.
type EmailConfig struct {
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	FromAddress string `validate:"omitempty,email"`
}

type ContactConfig struct {
	ToAddress string `validate:"omitempty,email"`
}

// Options controls where Load looks.
type Options struct {
	// Name is the config file base name searched in ./configs, . and
	// ~/.wpyvr (default "wpyvr").
	Name string
	// File is an explicit config file; it must exist when set.
	File string
	// EnvFiles are dotenv files loaded before reading the environment.
	// Missing files are ignored. Defaults to ".env".
	EnvFiles []string
}

// DefaultDir returns ~/.wpyvr, or ".wpyvr" when the home directory is
// unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wpyvr"
	}
	return filepath.Join(home, ".wpyvr")
}

// Load resolves the configuration. Values in the environment win over the
// config file, which wins over defaults.
func Load(opts Options, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := loadDotenv(opts.EnvFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		name := opts.Name
		if name == "" {
			name = "wpyvr"
		}
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir())
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &cfgNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Debug("no config file found, using defaults and env vars")
	} else {
		logger.Info("config file loaded", zap.String("path", v.ConfigFileUsed()))
	}

	cfg := &Config{
		WP: WPConfig{
			BaseURL: strings.TrimRight(v.GetString("wp.base_url"), "/"),
			HubURL:  strings.TrimRight(v.GetString("wp.hub_url"), "/"),
		},
		HTTP:  HTTPConfig{Timeout: v.GetDuration("http.timeout")},
		Cache: CacheConfig{Enabled: v.GetBool("cache.enabled")},
		Session: SessionConfig{
			Backend:       v.GetString("session.backend"),
			Path:          v.GetString("session.path"),
			DSN:           v.GetString("session.dsn"),
			RedisAddr:     v.GetString("session.redis_addr"),
			EncryptionKey: v.GetString("session.encryption_key"),
		},
		Firebase: FirebaseConfig{APIKey: v.GetString("firebase.api_key")},
		Gateway: GatewayConfig{
			Port:            v.GetInt("gateway.port"),
			CORSOrigins:     splitList(v.GetStringSlice("gateway.cors_origins")),
			RateLimitRPS:    v.GetFloat64("gateway.rate_limit_rps"),
			SanitizeContent: v.GetBool("gateway.sanitize_content"),
			ProbeInterval:   v.GetDuration("gateway.probe_interval"),
		},
		Email: EmailConfig{
			SMTPHost:    v.GetString("email.smtp_host"),
			SMTPPort:    v.GetInt("email.smtp_port"),
			SMTPUser:    v.GetString("email.smtp_username"),
			SMTPPass:    v.GetString("email.smtp_password"),
			FromAddress: v.GetString("email.from_address"),
		},
		Contact: ContactConfig{ToAddress: v.GetString("contact.to_address")},
	}
	if cfg.WP.HubURL == "" {
		cfg.WP.HubURL = cfg.WP.BaseURL
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("wp.base_url", "http://localhost:8000")
	v.SetDefault("wp.hub_url", "")
	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("session.backend", store.BackendFile)
	v.SetDefault("session.path", filepath.Join(DefaultDir(), "session.json"))
	v.SetDefault("session.dsn", "")
	v.SetDefault("session.redis_addr", "")
	v.SetDefault("session.encryption_key", "")
	v.SetDefault("firebase.api_key", "")
	v.SetDefault("gateway.port", 8080)
	v.SetDefault("gateway.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("gateway.rate_limit_rps", 20)
	v.SetDefault("gateway.sanitize_content", false)
	v.SetDefault("gateway.probe_interval", time.Minute)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.smtp_username", "")
	v.SetDefault("email.smtp_password", "")
	v.SetDefault("email.from_address", "noreply@wpyvr.org")
	v.SetDefault("contact.to_address", "")
}

// StoreOptions maps the session settings onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:       c.Session.Backend,
		Path:          c.Session.Path,
		DSN:           c.Session.DSN,
		RedisAddr:     c.Session.RedisAddr,
		EncryptionKey: c.Session.EncryptionKey,
		Namespace:     "wpyvr",
	}
}

// ClientOptions returns the content client options implied by the config.
// Content sanitizing is configured by the caller.
func (c *Config) ClientOptions(logger *zap.Logger) []client.Option {
	opts := []client.Option{
		client.WithHubBase(c.WP.HubURL),
		client.WithHTTPClient(&http.Client{Timeout: c.HTTP.Timeout}),
	}
	if logger != nil {
		opts = append(opts, client.WithLogger(logger))
	}
	if c.Cache.Enabled {
		opts = append(opts, client.WithResponseCache())
	}
	return opts
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) {
				return fmt.Errorf("load %s: %w", f, err)
			}
		}
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
