package config

import (
	"os"
	"strconv"
)

type Config struct {
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	JWTSecret          string
	JWTLifetimeMinutes int
	UploadDir          string
	GinMode            string
	ListenAddr         string
}

func Load() *Config {
	return &Config{
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", "taskuser"),
		DBPassword:         getEnv("DB_PASSWORD", "taskpassword"),
		DBName:             getEnv("DB_NAME", "task_management"),
		JWTSecret:          getEnv("JWT_SECRET", "default-secret-key-change-me-32bytes!"),
		JWTLifetimeMinutes: getEnvInt("JWT_LIFETIME_MINUTES", 60*24),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
