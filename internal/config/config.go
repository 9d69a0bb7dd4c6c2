package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	Payment   PaymentConfig   `yaml:"payment"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessExpireHour  int    `yaml:"access_expire_hour"`
	RefreshExpireHour int    `yaml:"refresh_expire_hour"`
}

// OAuthConfig holds settings for the external OAuth identity provider.
type OAuthConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenURL     string `yaml:"token_url"`
	UserInfoURL  string `yaml:"user_info_url"`
	RedirectURL  string `yaml:"redirect_url"`
}

// PaymentConfig holds settings for the external payment provider.
type PaymentConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// StorageConfig holds settings for S3-compatible image storage.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"` // empty for AWS S3
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"` // base URL for uploaded objects
}

// RedisConfig for the optional async email queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig holds per-endpoint sliding window limits.
type RateLimitConfig struct {
	RefreshWindowSec int `yaml:"refresh_window_sec"`
	RefreshMax       int `yaml:"refresh_max"`
	LoginWindowSec   int `yaml:"login_window_sec"`
	LoginMax         int `yaml:"login_max"`
	SearchRPS        int `yaml:"search_rps"`
	SearchBurst      int `yaml:"search_burst"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "fooddelivery.db",
		},
		JWT: JWTConfig{
			Secret:            "food-delivery-secret-change-in-production",
			AccessExpireHour:  1,
			RefreshExpireHour: 720,
		},
		OAuth: OAuthConfig{
			Enabled:     false,
			TokenURL:    "https://oauth2.googleapis.com/token",
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		Payment: PaymentConfig{
			Enabled: false,
			BaseURL: "https://api.payment.example.com",
		},
		Storage: StorageConfig{
			Enabled: false,
			Region:  "ap-southeast-1",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		RateLimit: RateLimitConfig{
			RefreshWindowSec: 300,
			RefreshMax:       30,
			LoginWindowSec:   60,
			LoginMax:         10,
			SearchRPS:        20,
			SearchBurst:      40,
		},
	}
}

// applyDefaults fills zero-valued fields that would otherwise disable a feature.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.JWT.AccessExpireHour <= 0 {
		c.JWT.AccessExpireHour = d.JWT.AccessExpireHour
	}
	if c.JWT.RefreshExpireHour <= 0 {
		c.JWT.RefreshExpireHour = d.JWT.RefreshExpireHour
	}
	if c.RateLimit.RefreshWindowSec <= 0 {
		c.RateLimit.RefreshWindowSec = d.RateLimit.RefreshWindowSec
	}
	if c.RateLimit.RefreshMax <= 0 {
		c.RateLimit.RefreshMax = d.RateLimit.RefreshMax
	}
	if c.RateLimit.LoginWindowSec <= 0 {
		c.RateLimit.LoginWindowSec = d.RateLimit.LoginWindowSec
	}
	if c.RateLimit.LoginMax <= 0 {
		c.RateLimit.LoginMax = d.RateLimit.LoginMax
	}
	if c.RateLimit.SearchRPS <= 0 {
		c.RateLimit.SearchRPS = d.RateLimit.SearchRPS
	}
	if c.RateLimit.SearchBurst <= 0 {
		c.RateLimit.SearchBurst = d.RateLimit.SearchBurst
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if clientID := os.Getenv("OAUTH_CLIENT_ID"); clientID != "" {
		c.OAuth.Enabled = true
		c.OAuth.ClientID = clientID
	}
	if clientSecret := os.Getenv("OAUTH_CLIENT_SECRET"); clientSecret != "" {
		c.OAuth.ClientSecret = clientSecret
	}
	if apiKey := os.Getenv("PAYMENT_API_KEY"); apiKey != "" {
		c.Payment.Enabled = true
		c.Payment.APIKey = apiKey
	}
	if baseURL := os.Getenv("PAYMENT_BASE_URL"); baseURL != "" {
		c.Payment.BaseURL = baseURL
	}
	if bucket := os.Getenv("STORAGE_BUCKET"); bucket != "" {
		c.Storage.Enabled = true
		c.Storage.Bucket = bucket
	}
	if accessKey := os.Getenv("STORAGE_ACCESS_KEY"); accessKey != "" {
		c.Storage.AccessKey = accessKey
	}
	if secretKey := os.Getenv("STORAGE_SECRET_KEY"); secretKey != "" {
		c.Storage.SecretKey = secretKey
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
