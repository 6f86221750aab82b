package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string
	// Course API
	CourseAPIURL     string
	CourseAPITimeout time.Duration
	// Drafts database (optional)
	DatabaseURL string
	// Auth
	AuthJWKSURL string
	DevUserID   string // trusted user when AuthJWKSURL is empty outside prod
	// Local storage
	SpoolDir    string
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool // Enables debug logging and the preview listing endpoint
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:      tablePrefix,
		CourseAPIURL:     getEnv("COURSE_API_URL", "http://localhost:4000/api"),
		CourseAPITimeout: getDuration("COURSE_API_TIMEOUT", 60*time.Second),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		AuthJWKSURL:      getEnv("AUTH_JWKS_URL", ""),
		DevUserID:        getEnv("DEV_USER_ID", "dev-user"),
		SpoolDir:         getEnv("SPOOL_DIR", filepath.Join(os.TempDir(), "coursecraft")),
		LogDir:           getEnv("LOG_DIR", ""),
		LogMaxFiles:      getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// DraftsEnabled reports whether a drafts database is configured
func (c *Config) DraftsEnabled() bool {
	return c.DatabaseURL != ""
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
