package config

import (
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Document store configuration
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	// Best-effort; absence of a .env file is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "12321"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "28015"),
		DBName:            getEnv("DB_NAME", "zelda"),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 10),
	}

	return cfg, nil
}

// DBAddress returns the host:port address of the document store.
func (c *Config) DBAddress() string {
	return net.JoinHostPort(c.DBHost, c.DBPort)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
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
