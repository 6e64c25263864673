package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/yuvi90/chatapp/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultAccessTTL    = 15 * time.Minute
	defaultRefreshTTL   = 24 * time.Hour
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret keys for the access and refresh token signatures
	AccessSecret  string
	RefreshSecret string

	// Token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Public base URL used in mail links
	BaseURL string

	// Outbound mail settings
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		AccessTokenTTL:  defaultAccessTTL,
		RefreshTokenTTL: defaultRefreshTTL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if d, err := time.ParseDuration(value); err == nil && d > 0 {
				*o = d
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"TOKEN_SECRET":         setString(&c.AccessSecret),
		"REFRESH_TOKEN_SECRET": setString(&c.RefreshSecret),
		"TOKEN_EXPIRY":         setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_EXPIRY": setDuration(&c.RefreshTokenTTL),
		"BASE_URL":             setString(&c.BaseURL),
		"SMTP_HOST":            setString(&c.SMTPHost),
		"SMTP_PORT":            setString(&c.SMTPPort),
		"SMTP_USER":            setString(&c.SMTPUser),
		"SMTP_PASSWORD":        setString(&c.SMTPPassword),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("chatapp", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.AccessSecret, "token-secret", c.AccessSecret, "Access token signing secret")
	fs.StringVar(&c.RefreshSecret, "refresh-token-secret", c.RefreshSecret, "Refresh token signing secret")
	fs.DurationVar(&c.AccessTokenTTL, "token-expiry", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-token-expiry", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.StringVarP(&c.BaseURL, "base-url", "b", c.BaseURL, "Public base URL used in mail links")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production)")

	return fs.Parse(args)
}
