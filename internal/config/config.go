package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	// Database configuration
	DatabasePath string

	// Diacloud API configuration
	DiacloudBaseURL string
	CredentialsPath string

	// Push API configuration; empty disables the API key check
	PushAPIKey string

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int

	// Logging configuration
	LogLevel string
}

// Credentials are the Diacloud account credentials, used only to obtain a
// session token and never persisted anywhere else.
type Credentials struct {
	Email    string
	Password string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Host:            getEnv("HOST", "localhost"),
		Port:            getEnvInt("PORT", 4180),
		DatabasePath:    getEnv("DATABASE_PATH", "./data.db"),
		DiacloudBaseURL: getEnv("DIACLOUD_BASE_URL", "https://api.diacloud.example.com"),
		CredentialsPath: getEnv("CREDENTIALS_PATH", "secrets/diacloud.env"),
		PushAPIKey:      os.Getenv("PUSH_API_KEY"),
		MetricsEnabled:  getEnv("METRICS_ENABLED", "false") == "true",
		MetricsHost:     getEnv("METRICS_HOST", "localhost"),
		MetricsPort:     getEnvInt("METRICS_PORT", 4181),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// LoadCredentials reads the Diacloud credentials from the key=value file at
// the given path. Blank lines and lines starting with # are skipped.
func LoadCredentials(path string) (*Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials file: %w", err)
	}
	defer f.Close()

	creds := &Credentials{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "EMAIL":
			creds.Email = strings.TrimSpace(value)
		case "PASSWORD":
			creds.Password = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var missing []string
	if creds.Email == "" {
		missing = append(missing, "EMAIL")
	}
	if creds.Password == "" {
		missing = append(missing, "PASSWORD")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("credentials file missing required keys: %v", missing)
	}

	return creds, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
