package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Store backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
)

// Auth modes
const (
	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
)

type Config struct {
	Port                    string
	Env                     string
	MetricsPort             string
	LogLevel                string
	StoreBackend            string
	FirebaseCredentialsPath string
	MongoURI                string
	MongoDatabase           string
	PostgresConnStr         string
	AuthMode                string
	JWTSecret               string
	DevLogin                bool
	AdminUIDs               []string
	HeartbeatInterval       time.Duration
	OnlineThreshold         time.Duration
	FeedChunkSize           int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, assuming environment variables are set")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		StoreBackend:            getEnv("STORE_BACKEND", BackendMemory),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialsync"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		AuthMode:                getEnv("AUTH_MODE", AuthJWT),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		DevLogin:                getBool("DEV_LOGIN", false),
		AdminUIDs:               getList("ADMIN_UIDS"),
		HeartbeatInterval:       getDuration("HEARTBEAT_INTERVAL", 60*time.Second),
		OnlineThreshold:         getDuration("ONLINE_THRESHOLD", 120*time.Second),
		FeedChunkSize:           getInt("FEED_CHUNK_SIZE", 30),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

var ErrDevLoginInProduction = errors.New("DEV_LOGIN must not be enabled in production")

// Validate rejects combinations the server must not start with.
func (c *Config) Validate() error {
	if c.DevLogin && c.IsProduction() {
		return ErrDevLoginInProduction
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return b
}

// getList reads a comma separated list, dropping blank entries.
func getList(key string) []string {
	items := lo.Map(strings.Split(os.Getenv(key), ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Compact(items)
}
