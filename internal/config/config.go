package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Event and data file configuration
	Event EventConfig

	// OTP configuration
	OTP OTPConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// EventConfig holds the event identity and the flat-file storage paths
type EventConfig struct {
	Name        string  // event title shown on every screen
	VenueName   string  // hosting school/venue name
	CenterLat   float64 // map center (navigation origin)
	CenterLon   float64
	DataDir     string
	VenuesPath  string // read-only venue catalog CSV
	FeedbackCSV string // append-only feedback CSV
}

// OTPConfig holds OTP-related configuration
type OTPConfig struct {
	Mode          string // "demo" returns the fixed code in responses; "production" generates random codes
	DemoCode      string
	ExpiryMinutes int
	MaxAttempts   int
}

// RateLimitConfig holds OTP rate limiting configuration
type RateLimitConfig struct {
	PhoneRequests      int
	PhoneWindowMinutes int
	IPRequests         int
	IPWindowMinutes    int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Event: EventConfig{
			Name:        getEnv("EVENT_NAME", "Project Day 2025 Navigator"),
			VenueName:   getEnv("EVENT_VENUE_NAME", "Yuvabharathi Public School"),
			CenterLat:   getEnvAsFloat("EVENT_CENTER_LAT", 11.067095),
			CenterLon:   getEnvAsFloat("EVENT_CENTER_LON", 76.916370),
			DataDir:     getEnv("DATA_DIR", "data"),
			VenuesPath:  getEnv("VENUES_CSV", ""),
			FeedbackCSV: getEnv("FEEDBACK_CSV", ""),
		},
		OTP: OTPConfig{
			Mode:          getEnv("OTP_MODE", "demo"),
			DemoCode:      getEnv("OTP_DEMO_CODE", "123456"),
			ExpiryMinutes: getEnvAsInt("OTP_EXPIRY_MINUTES", 5),
			MaxAttempts:   getEnvAsInt("OTP_MAX_ATTEMPTS", 3),
		},
		RateLimit: RateLimitConfig{
			PhoneRequests:      getEnvAsInt("OTP_RATE_LIMIT_PHONE", 3),
			PhoneWindowMinutes: getEnvAsInt("OTP_RATE_WINDOW_PHONE_MINUTES", 10),
			IPRequests:         getEnvAsInt("OTP_RATE_LIMIT_IP", 10),
			IPWindowMinutes:    getEnvAsInt("OTP_RATE_WINDOW_IP_MINUTES", 60),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "X-Session-Token"}),
		},
	}

	// Derive file paths from the data dir unless overridden
	if config.Event.VenuesPath == "" {
		config.Event.VenuesPath = config.Event.DataDir + "/venues.csv"
	}
	if config.Event.FeedbackCSV == "" {
		config.Event.FeedbackCSV = config.Event.DataDir + "/feedback.csv"
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Event.VenuesPath == "" {
		return fmt.Errorf("VENUES_CSV is required")
	}

	if c.OTP.Mode != "demo" && c.OTP.Mode != "production" {
		return fmt.Errorf("invalid OTP mode: %s (must be 'demo' or 'production')", c.OTP.Mode)
	}

	if c.OTP.Mode == "demo" && c.OTP.DemoCode == "" {
		return fmt.Errorf("OTP_DEMO_CODE is required in demo mode")
	}

	if c.OTP.ExpiryMinutes <= 0 {
		return fmt.Errorf("OTP_EXPIRY_MINUTES must be positive")
	}

	if c.OTP.MaxAttempts <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}

	return nil
}

// OTPExpiry returns the OTP expiry window as a duration
func (c *Config) OTPExpiry() time.Duration {
	return time.Duration(c.OTP.ExpiryMinutes) * time.Minute
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
