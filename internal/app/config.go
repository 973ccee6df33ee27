package app

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

// Duration reads values like "15m" or "168h" from TOML strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type GSheetConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	SheetID         string `toml:"sheet_id"`
	SheetName       string `toml:"sheet_name"`
	Range           string `toml:"range"`
	TimestampRange  string `toml:"timestamp_range"`
	Schedule        string `toml:"schedule"`
}

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Redis struct {
		URL string `toml:"url"`
	} `toml:"redis"`

	Auth struct {
		JWTSecret  string   `toml:"jwt_secret"`
		AccessTTL  Duration `toml:"access_ttl"`
		RefreshTTL Duration `toml:"refresh_ttl"`
	} `toml:"auth"`

	Throttle struct {
		MaxAttempts  int      `toml:"max_attempts"`
		LockDuration Duration `toml:"lock_duration"`
		FailOpen     *bool    `toml:"fail_open"`
	} `toml:"throttle"`

	Paging struct {
		DefaultPageSize int `toml:"default_page_size"`
		MaxPageSize     int `toml:"max_page_size"`
	} `toml:"paging"`

	Bot struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
	} `toml:"bot"`

	// keyed by course code
	GSheet map[string][]GSheetConfig `toml:"gsheet"`

	EmojiVariants []string `toml:"emoji_variants"`
}

// environment variables that win over the TOML file, typically set from .env
const (
	envDSN       = "REGISTRAR_DSN"
	envRedisURL  = "REGISTRAR_REDIS_URL"
	envJWTSecret = "REGISTRAR_JWT_SECRET"
	envBotToken  = "REGISTRAR_BOT_TOKEN"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w",
			path,
			err,
		)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded, using process environment: %v", err)
	}
	config.applyEnv()
	config.applyDefaults()

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is not specified, set it in config or %s", envJWTSecret)
	}

	logger.Debug.Printf(
		"Loaded throttle config: max_attempts=%d lock_duration=%s fail_open=%t",
		config.Throttle.MaxAttempts,
		config.Throttle.LockDuration,
		config.ThrottleFailOpen(),
	)

	return &config, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		envDSN:       &c.Database.DSN,
		envRedisURL:  &c.Redis.URL,
		envJWTSecret: &c.Auth.JWTSecret,
		envBotToken:  &c.Bot.Token,
	}
	for name, target := range overrides {
		if v := os.Getenv(name); v != "" {
			*target = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Database.DSN == "" {
		c.Database.DSN = "registrar.db"
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "./migrations"
	}
	if c.Auth.AccessTTL.Duration <= 0 {
		c.Auth.AccessTTL.Duration = 24 * time.Hour
	}
	if c.Auth.RefreshTTL.Duration <= 0 {
		c.Auth.RefreshTTL.Duration = 7 * 24 * time.Hour
	}
	if c.Throttle.MaxAttempts <= 0 {
		c.Throttle.MaxAttempts = 5
	}
	if c.Throttle.LockDuration.Duration <= 0 {
		c.Throttle.LockDuration.Duration = 15 * time.Minute
	}
	if c.Paging.DefaultPageSize <= 0 {
		c.Paging.DefaultPageSize = 10
	}
	if c.Paging.MaxPageSize <= 0 {
		c.Paging.MaxPageSize = 100
	}
	if len(c.EmojiVariants) == 0 {
		c.EmojiVariants = []string{"📚"}
	}
}

// ThrottleFailOpen is true unless fail_open = false is set explicitly.
func (c *Config) ThrottleFailOpen() bool {
	return c.Throttle.FailOpen == nil || *c.Throttle.FailOpen
}
