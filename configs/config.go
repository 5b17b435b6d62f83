package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once in main and handed to the components that need it.
// Nothing reads the environment after startup.
type Config struct {
	Port        int
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBNameTest  string
	RedisHost   string
	RedisPort   int
	JWTSecret   []byte
	TokenTTL    time.Duration
	CORSOrigins string
	Timezone    string
	SeedAdmin   bool
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		Port:        envInt("PORT", 8008),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBPort:      envInt("DB_PORT", 5432),
		DBUser:      envStr("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      envStr("DB_NAME", "tasktracker"),
		DBNameTest:  envStr("DB_NAME_TEST", "tasktracker_test"),
		RedisHost:   envStr("REDIS_HOST", "localhost"),
		RedisPort:   envInt("REDIS_PORT", 6379),
		JWTSecret:   []byte(envStr("JWT_SECRET", "dev-secret-change-me")),
		TokenTTL:    time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 300)) * time.Minute,
		CORSOrigins: envStr("CORS_ORIGINS", "http://localhost:3000"),
		Timezone:    envStr("TIMEZONE", "Asia/Jakarta"),
		SeedAdmin:   os.Getenv("SEED_ADMIN") == "1",
	}
}

// Location resolves the reference timezone used for civil-date comparisons
// on the dashboard. Falls back to UTC if the name does not resolve.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
