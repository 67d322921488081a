package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind   string `yaml:"kind"`
		Prefix string `yaml:"prefix"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Auth struct {
		// CallbackURL is the absolute redirect_uri registered with every
		// provider, e.g. https://example.com/oauth2callback.
		CallbackURL string `yaml:"callback_url"`

		// TokenSecret signs session tokens. Rotating it logs everyone out.
		TokenSecret string `yaml:"token_secret"`

		TokenExpirySeconds int           `yaml:"token_expiry_seconds"`
		LoginCodeTTL       time.Duration `yaml:"login_code_ttl"`

		AdminDomain string   `yaml:"admin_domain"`
		Admins      []string `yaml:"admins"`
	} `yaml:"auth"`

	Providers struct {
		Google struct {
			Enabled      bool   `yaml:"enabled"`
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"google"`
		QQ struct {
			Enabled      bool   `yaml:"enabled"`
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"qq"`
	} `yaml:"providers"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "moonauth"
	}
	if c.Auth.TokenExpirySeconds == 0 {
		c.Auth.TokenExpirySeconds = 86400 // 24h
	}
	if c.Auth.LoginCodeTTL == 0 {
		c.Auth.LoginCodeTTL = 30 * time.Second
	}

	// validate string durations
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides lets the environment win over config.yaml, which keeps
// secrets out of the file in deployments.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("AUTH_CALLBACK_URL"); ok {
		c.Auth.CallbackURL = v
	}
	if v, ok := getEnvStr("AUTH_TOKEN_SECRET"); ok {
		c.Auth.TokenSecret = v
	}
	if v, ok := getEnvInt("AUTH_TOKEN_EXPIRY_SECONDS"); ok {
		c.Auth.TokenExpirySeconds = v
	}
	if v, ok := getEnvDur("AUTH_LOGIN_CODE_TTL"); ok {
		c.Auth.LoginCodeTTL = v
	}
	if v, ok := getEnvStr("AUTH_ADMIN_DOMAIN"); ok {
		c.Auth.AdminDomain = v
	}
	if v, ok := getEnvCSV("AUTH_ADMINS"); ok {
		c.Auth.Admins = v
	}

	if v, ok := getEnvBool("GOOGLE_ENABLED"); ok {
		c.Providers.Google.Enabled = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Providers.Google.ClientID = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_SECRET"); ok {
		c.Providers.Google.ClientSecret = v
	}
	if v, ok := getEnvBool("QQ_ENABLED"); ok {
		c.Providers.QQ.Enabled = v
	}
	if v, ok := getEnvStr("QQ_CLIENT_ID"); ok {
		c.Providers.QQ.ClientID = v
	}
	if v, ok := getEnvStr("QQ_CLIENT_SECRET"); ok {
		c.Providers.QQ.ClientSecret = v
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.TokenSecret) == "" {
		return fmt.Errorf("config: auth.token_secret is required")
	}
	if len(c.Auth.TokenSecret) < 32 {
		return fmt.Errorf("config: auth.token_secret must be at least 32 bytes")
	}

	anyProvider := c.Providers.Google.Enabled || c.Providers.QQ.Enabled
	if !anyProvider {
		return fmt.Errorf("config: at least one provider must be enabled")
	}
	if strings.TrimSpace(c.Auth.CallbackURL) == "" {
		return fmt.Errorf("config: auth.callback_url is required when a provider is enabled")
	}
	if c.Providers.Google.Enabled && (c.Providers.Google.ClientID == "" || c.Providers.Google.ClientSecret == "") {
		return fmt.Errorf("config: providers.google needs client_id and client_secret")
	}
	if c.Providers.QQ.Enabled && (c.Providers.QQ.ClientID == "" || c.Providers.QQ.ClientSecret == "") {
		return fmt.Errorf("config: providers.qq needs client_id and client_secret")
	}
	return nil
}
