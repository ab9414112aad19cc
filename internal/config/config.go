// Package config provides functionality for managing configuration options
// for the server using command-line flags, a JSON config file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default CORS policy for the hosted frontend.
const (
	DefaultAllowedOrigin        = "https://todo-app-pro-web.vercel.app"
	DefaultAllowedOriginPattern = `^https://todo-app-pro-.*\.vercel\.app$`
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// JWTSecret signs and verifies session tokens.
	JWTSecret string `json:"jwt_secret"`

	// JWTExpiresIn is the session token lifetime in seconds.
	JWTExpiresIn int `json:"jwt_expires_in"`

	// AllowedOrigins lists origins allowed to call the API with credentials.
	AllowedOrigins []string `json:"allowed_origins"`

	// AllowedOriginPattern is a regular expression matching additional
	// (preview deployment) origins.
	AllowedOriginPattern string `json:"allowed_origin_pattern"`

	// AuthRateLimit is the number of /auth requests allowed per client per AuthRateWindow.
	AuthRateLimit int `json:"auth_rate_limit"`

	// AuthRateWindow is the rate limiting window for /auth requests.
	AuthRateWindow time.Duration `json:"-"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// TokenTTL returns JWTExpiresIn as a duration.
func (o *Options) TokenTTL() time.Duration {
	return time.Duration(o.JWTExpiresIn) * time.Second
}

// Validate reports configuration that would leave the server unusable.
func (o *Options) Validate() error {
	if o.JWTSecret == "" {
		return errors.New("JWT secret is required (JWT_SECRET or -s)")
	}
	if o.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT expiry must be positive, got %d", o.JWTExpiresIn)
	}
	if o.DatabaseDSN == "" {
		return errors.New("database DSN is required (DATABASE_URL or -d)")
	}
	return nil
}

// Parse parses the process arguments and environment. It exits the process
// on malformed input, as flag.Parse does.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return opts
}

// ParseArgs builds Options from args and getenv. Precedence, lowest first:
// defaults, flags, config file, environment.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{
		AllowedOrigins:       []string{DefaultAllowedOrigin},
		AllowedOriginPattern: DefaultAllowedOriginPattern,
		AuthRateLimit:        20,
		AuthRateWindow:       15 * time.Minute,
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", ":3000", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.JWTSecret, "s", "", "JWT signing secret")
	fs.IntVar(&options.JWTExpiresIn, "e", 3600, "JWT lifetime in seconds")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if port := getenv("PORT"); port != "" {
		options.Port = ":" + port
	}
	if serverAddress := getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := getenv("DATABASE_URL"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := getenv("JWT_SECRET"); secret != "" {
		options.JWTSecret = secret
	}
	if raw := getenv("JWT_EXPIRES_IN"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRES_IN %q: %w", raw, err)
		}
		options.JWTExpiresIn = n
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	return options, nil
}
