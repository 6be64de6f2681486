package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AI providers
const (
	ProviderGateway = "gateway"
	ProviderGemini  = "gemini"
)

const (
	DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1"
	DefaultModel      = "google/gemini-2.5-pro"
	DefaultBucket     = "image-analyses"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
		// RateLimit is off when Capacity is 0
		RateLimit struct {
			Capacity        int `yaml:"capacity"`
			RefillPerSecond int `yaml:"refillPerSecond"`
		} `yaml:"rateLimit"`
		AllowPrivateImageHosts bool `yaml:"allowPrivateImageHosts"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text | json
	} `yaml:"log"`

	AI struct {
		Provider     string  `yaml:"provider"` // gateway | gemini
		BaseURL      string  `yaml:"baseURL"`
		APIKey       string  `yaml:"apiKey"`
		GeminiAPIKey string  `yaml:"geminiApiKey"`
		Model        string  `yaml:"model"`
		Temperature  float32 `yaml:"temperature"`
	} `yaml:"ai"`

	Database struct {
		Driver   string `yaml:"driver"` // postgres | mysql | sqlite | none
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
		PublicURL  string `yaml:"publicURL"`
	} `yaml:"minio"`

	// Client is used by the terminal client only
	Client struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"client"`
}

// Default returns a config that runs locally with SQLite and the AI gateway.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.AI.Provider = ProviderGateway
	c.AI.BaseURL = DefaultGatewayURL
	c.AI.Model = DefaultModel
	c.AI.Temperature = 0.3
	c.Database.Driver = "sqlite"
	c.Database.Name = "chromaleap.db"
	c.Minio.BucketName = DefaultBucket
	c.Minio.Region = "us-east-1"
	c.Client.Endpoint = "http://localhost:8080"
	return &c
}

// Load baca .env, config.yaml (boleh tidak ada), lalu override dari env
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	str(&c.AI.APIKey, "AI_GATEWAY_API_KEY", "LOVABLE_API_KEY")
	str(&c.AI.BaseURL, "AI_GATEWAY_URL")
	str(&c.AI.Provider, "AI_PROVIDER")
	str(&c.AI.Model, "AI_MODEL")
	str(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	str(&c.Database.Driver, "DATABASE_DRIVER")
	str(&c.Database.URL, "DATABASE_URL")
	str(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	str(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	str(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	str(&c.Minio.BucketName, "MINIO_BUCKET")
	str(&c.Minio.Region, "MINIO_REGION")
	str(&c.Minio.PublicURL, "MINIO_PUBLIC_URL")
	str(&c.Client.Endpoint, "CHROMALEAP_ENDPOINT")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.Format, "LOG_FORMAT")

	if v, ok := lookup("MINIO_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MINIO_USE_SSL: %w", err)
		}
		c.Minio.UseSSL = b
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	return nil
}

// Validate checks values that would otherwise fail late. A missing model
// credential is not an error here; analysis requests report it instead.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderGateway, ProviderGemini:
	default:
		return fmt.Errorf("ai.provider: unknown provider %q", c.AI.Provider)
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite", "none", "":
	default:
		return fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature: %v out of range", c.AI.Temperature)
	}
	return nil
}

// ModelAPIKey is the credential of the selected provider, empty when unset.
func (c *Config) ModelAPIKey() string {
	if c.AI.Provider == ProviderGemini {
		return c.AI.GeminiAPIKey
	}
	return c.AI.APIKey
}

// PersistenceEnabled is false when database.driver is none or empty.
func (c *Config) PersistenceEnabled() bool {
	return c.Database.Driver != "" && c.Database.Driver != "none"
}

// DSN returns database.url when set, otherwise one built for the driver.
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	switch c.Database.Driver {
	case "postgres":
		return c.PostgresDSN()
	case "mysql":
		return c.MySQLDSN()
	default:
		return c.Database.Name
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (URL form, lib/pq)
func (c *Config) PostgresDSN() string {
	sslmode := c.Database.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// StorageEnabled reports whether MinIO is configured.
func (c *Config) StorageEnabled() bool {
	return strings.TrimSpace(c.Minio.Endpoint) != ""
}
