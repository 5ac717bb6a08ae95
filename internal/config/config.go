// Package config loads application configuration from the environment.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/iliyamo/flight-reservation/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string `envconfig:"APP_ENV" default:"dev"`
	Port           string `envconfig:"APP_PORT" default:"8080"`
	DBUser         string `envconfig:"DB_USER" required:"true"`
	DBPass         string `envconfig:"DB_PASS"` // empty allowed
	DBHost         string `envconfig:"DB_HOST" required:"true"`
	DBPort         string `envconfig:"DB_PORT" default:"3306"`
	DBName         string `envconfig:"DB_NAME" required:"true"`
	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`
	AccessTTLMin   int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"15"`
	RefreshTTLDays int    `envconfig:"REFRESH_TOKEN_TTL_DAYS" default:"7"`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"10"`
	RabbitURL      string `envconfig:"RABBITMQ_URL"` // empty disables events
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"text"`
	// PopularDestinations is the pool shown on the landing page, as
	// CODE:Name pairs separated by commas.
	PopularDestinations []string `envconfig:"POPULAR_DESTINATIONS" default:"JFK:New York,LHR:London,CDG:Paris,ATH:Athens,FCO:Rome"`
}

// Destination is one entry of the popular destination pool.
type Destination struct {
	Code string
	Name string
}

// Load reads an optional .env file and then the environment.  A missing
// required variable is an error.
func Load() (Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	for key, v := range map[string]string{"DB_USER": cfg.DBUser, "DB_HOST": cfg.DBHost, "DB_NAME": cfg.DBName, "JWT_SECRET": cfg.JWTSecret} {
		if strings.TrimSpace(v) == "" {
			return Config{}, errors.Errorf("required key %s is empty", key)
		}
	}
	if cfg.AccessTTLMin < 1 {
		return Config{}, errors.Errorf("ACCESS_TOKEN_TTL_MIN must be positive, got %d", cfg.AccessTTLMin)
	}
	if cfg.RefreshTTLDays < 1 {
		return Config{}, errors.Errorf("REFRESH_TOKEN_TTL_DAYS must be positive, got %d", cfg.RefreshTTLDays)
	}
	return cfg, nil
}

// Database returns the MySQL connection options.
func (c Config) Database() database.Options {
	return database.Options{User: c.DBUser, Pass: c.DBPass, Host: c.DBHost, Port: c.DBPort, Name: c.DBName}
}

// Popular parses PopularDestinations.  An entry without a name uses the code
// as its name; blank entries are skipped.
func (c Config) Popular() []Destination {
	out := make([]Destination, 0, len(c.PopularDestinations))
	for _, p := range c.PopularDestinations {
		code, name, _ := strings.Cut(strings.TrimSpace(p), ":")
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if name = strings.TrimSpace(name); name == "" {
			name = code
		}
		out = append(out, Destination{Code: code, Name: name})
	}
	return out
}
