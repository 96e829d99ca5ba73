package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	// RedisURL enables the identity cache; empty disables it.
	RedisURL  string
	JWTSecret string
	LogPretty bool
}

func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "trellis"),
		DBPassword: getEnv("DB_PASSWORD", "trellis_dev_password"),
		DBName:     getEnv("DB_NAME", "trellis"),
		RedisURL:   getEnv("REDIS_URL", ""),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		LogPretty:  getEnv("LOG_PRETTY", "") != "",
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}
