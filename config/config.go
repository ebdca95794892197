package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the server and the CLI read from the environment
type Config struct {
	Port          string
	StoreBackend  string
	MongoURI      string
	MongoDatabase string

	JWTSecret    []byte
	SessionKey   []byte
	CookieSecure bool

	EmailProvider string
	EmailAPIKey   string
	EmailSender   string

	CartCachePath     string
	CartRetention     time.Duration
	SweepInterval     time.Duration
	CheckoutRateLimit int

	LogLevel slog.Level
}

// Load reads a .env file if one exists, then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found. Proceeding with environment variables.")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8000"),
		StoreBackend:  getEnv("STORE_BACKEND", "mongo"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "bookshop"),
		CookieSecure:  getEnv("COOKIE_SECURE", "false") == "true",
		EmailProvider: strings.ToLower(getEnv("EMAIL_PROVIDER", "none")),
		EmailSender:   getEnv("EMAIL_SENDER", ""),
		CartCachePath: getEnv("CART_CACHE_PATH", ""),
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		cfg.EmailAPIKey = os.Getenv("SENDGRID_API_KEY")
	case "postmark":
		cfg.EmailAPIKey = os.Getenv("POSTMARK_API_TOKEN")
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Warn("JWT_SECRET not set. Generating a random key; admin tokens will not survive a restart.")
		cfg.JWTSecret = randomBytes(32)
	} else {
		cfg.JWTSecret = []byte(secret)
	}

	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		slog.Warn("SESSION_KEY not set. Generating a random key; cart cookies will not survive a restart.")
		cfg.SessionKey = randomBytes(32)
	} else {
		decoded, err := base64.StdEncoding.DecodeString(sessionKey)
		if err != nil || len(decoded) < 32 {
			return nil, fmt.Errorf("SESSION_KEY must be base64 of at least 32 bytes")
		}
		cfg.SessionKey = decoded
	}

	var err error
	if cfg.CartRetention, err = getDuration("CART_RETENTION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CheckoutRateLimit, err = getInt("CHECKOUT_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return b
}
