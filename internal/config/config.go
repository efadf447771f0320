package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rupor-github/gencfg"
	yaml "gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaults []byte

type (
	BotConfig struct {
		Token       SecretString `yaml:"token"`
		Handle      string       `yaml:"handle"`
		PollTimeout int          `yaml:"poll_timeout" validate:"gte=0"`
		Debug       bool         `yaml:"debug"`
	}

	SessionConfig struct {
		IdleTimeout   time.Duration `yaml:"idle_timeout" validate:"gte=0"`
		SweepInterval time.Duration `yaml:"sweep_interval" validate:"gte=0"`
		MaxPhotos     int           `yaml:"max_photos" validate:"min=1,max=50"`
		ListLimit     int           `yaml:"list_limit" validate:"min=1,max=50"`
	}

	MediaConfig struct {
		MaxWidth     int           `yaml:"max_width" validate:"min=100"`
		MaxHeight    int           `yaml:"max_height" validate:"min=100"`
		JPEGQuality  int           `yaml:"jpeg_quality" validate:"min=40,max=100"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gte=0"`
		FetchRetries int           `yaml:"fetch_retries" validate:"min=0,max=5"`
	}

	PageConfig struct {
		Badge string `yaml:"badge"`
		Lang  string `yaml:"lang" validate:"required"`
	}

	DatabaseConfig struct {
		Driver   string       `yaml:"driver" validate:"oneof=sqlite postgres"`
		Path     string       `yaml:"path" validate:"required_if=Driver sqlite"`
		URL      SecretString `yaml:"url"`
		PoolSize int          `yaml:"pool_size" validate:"gte=0"`
	}

	PublishConfig struct {
		Backend  string `yaml:"backend" validate:"oneof=local supabase"`
		Dir      string `yaml:"dir" validate:"required_if=Backend local"`
		BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
		LinkBase string `yaml:"link_base" validate:"required,url"`
	}

	SupabaseConfig struct {
		URL    string       `yaml:"url" validate:"omitempty,url"`
		Key    SecretString `yaml:"key"`
		Bucket string       `yaml:"bucket"`
	}

	ServerConfig struct {
		Enabled   bool         `yaml:"enabled"`
		Port      string       `yaml:"port" validate:"required,numeric"`
		JWTSecret SecretString `yaml:"jwt_secret"`
		Mode      string       `yaml:"mode" validate:"oneof=debug release test"`
	}

	Config struct {
		Version  int            `yaml:"version" validate:"eq=1"`
		Bot      BotConfig      `yaml:"bot"`
		Session  SessionConfig  `yaml:"session"`
		Media    MediaConfig    `yaml:"media"`
		Page     PageConfig     `yaml:"page"`
		Database DatabaseConfig `yaml:"database"`
		Publish  PublishConfig  `yaml:"publish"`
		Supabase SupabaseConfig `yaml:"supabase"`
		Server   ServerConfig   `yaml:"server"`
		Logging  LoggingConfig  `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// only fields we defined are allowed, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// Load superimposes the file at path (if any) on the embedded defaults,
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := unmarshalConfig(defaults, &Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}

	if len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = unmarshalConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(crossChecks)); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Bot.Token = SecretString(getEnv("BOT_TOKEN", string(c.Bot.Token)))
	c.Bot.Handle = getEnv("BOT_HANDLE", c.Bot.Handle)
	c.Database.URL = SecretString(getEnv("DATABASE_URL", string(c.Database.URL)))
	c.Server.JWTSecret = SecretString(getEnv("JWT_SECRET", string(c.Server.JWTSecret)))
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Supabase.URL = getEnv("SUPABASE_URL", c.Supabase.URL)
	c.Supabase.Key = SecretString(getEnv("SUPABASE_KEY", string(c.Supabase.Key)))
	c.Supabase.Bucket = getEnv("SUPABASE_BUCKET", c.Supabase.Bucket)
}

// crossChecks validates settings that depend on selected backends.
func crossChecks(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)

	if cfg.Database.Driver == "postgres" && cfg.Database.URL == "" {
		sl.ReportError(cfg.Database.URL, "Database.URL", "URL", "required_for_postgres", "")
	}
	if cfg.Publish.Backend == "supabase" {
		if cfg.Supabase.URL == "" {
			sl.ReportError(cfg.Supabase.URL, "Supabase.URL", "URL", "required_for_supabase", "")
		}
		if cfg.Supabase.Key == "" {
			sl.ReportError(cfg.Supabase.Key, "Supabase.Key", "Key", "required_for_supabase", "")
		}
		if cfg.Supabase.Bucket == "" {
			sl.ReportError(cfg.Supabase.Bucket, "Supabase.Bucket", "Bucket", "required_for_supabase", "")
		}
	}
}

// Defaults returns the embedded default configuration.
func Defaults() []byte {
	return bytes.Clone(defaults)
}

// Dump marshals cfg with secrets hidden.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
