package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"

	// DefaultAPIURL is the hardcoded fallback used only when neither
	// build-time configuration nor the environment supplies a value.
	DefaultAPIURL = "http://localhost:8080"
)

// Config holds all application configuration, for both the client and
// the dev server binary.
type Config struct {
	// Environment
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Client settings
	APIURL string `envconfig:"QUICKWISH_API_URL"`

	// Location settings. Consent is the terminal analogue of the
	// foreground-location permission: unset means denied.
	LocationConsent bool    `envconfig:"QUICKWISH_LOCATION_CONSENT" default:"false"`
	Lat             float64 `envconfig:"QUICKWISH_LAT"`
	Lng             float64 `envconfig:"QUICKWISH_LNG"`
	GeocodeURL      string  `envconfig:"QUICKWISH_GEOCODE_URL" default:"https://nominatim.openstreetmap.org/reverse"`

	// Voice note settings
	MaxNoteSeconds int `envconfig:"QUICKWISH_MAX_NOTE_SECONDS" default:"10"`

	// Server settings
	Port       string `envconfig:"PORT" default:"8080"`
	JWTSecret  string `envconfig:"QUICKWISH_JWT_SECRET" default:"dev-only-secret"`
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	// Try to load .env file (optional for development)
	if err := godotenv.Load(); err != nil {
		// Not an error if file doesn't exist (expected in production)
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	// Parse environment variables into config struct
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}

	return &config, nil
}

// MaxNoteDuration returns the voice-note recording cap.
func (c *Config) MaxNoteDuration() time.Duration {
	return time.Duration(c.MaxNoteSeconds) * time.Second
}
