package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName       string
	AppVersion    string
	Environment   string
	HTTPAddr      string
	AuthJWTSecret string
	AuthTokenTTL  int

	// DataDir holds device-local state such as the recovery code file.
	DataDir string

	OTLPEndpoint string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      int

	// Login attempts allowed per username and client IP within the window.
	// Counted in Redis when configured, otherwise per process.
	LoginMaxAttempts   int
	LoginWindowSeconds int

	SettingsPath   string
	MigrateOnStart bool

	BootstrapAdminUser     string
	BootstrapAdminPassword string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSQLitePath      string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	dataDir := getenv("SHIPDESK_DATA_DIR", defaultDataDir())

	cfg := Config{
		AppName:                getenv("APP_SERVICE", "shipdesk"),
		AppVersion:             getenv("APP_VERSION", "0.1.0"),
		Environment:            getenv("ENVIRONMENT", "development"),
		HTTPAddr:               getenv("HTTP_ADDR", ":8080"),
		AuthJWTSecret:          strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthTokenTTL:           getenvInt("AUTH_TOKEN_TTL_MINUTES", 720),
		DataDir:                dataDir,
		OTLPEndpoint:           getenv("OTLP_ENDPOINT", "localhost:4317"),
		RedisAddr:              strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:          getenv("REDIS_PASSWORD", ""),
		RedisDB:                getenvInt("REDIS_DB", 0),
		CacheTTL:               getenvInt("SETTINGS_CACHE_TTL_SECONDS", 300),
		LoginMaxAttempts:       getenvInt("LOGIN_MAX_ATTEMPTS", 10),
		LoginWindowSeconds:     getenvInt("LOGIN_WINDOW_SECONDS", 300),
		SettingsPath:           strings.TrimSpace(getenv("SETTINGS_PATH", "")),
		MigrateOnStart:         getenvBool("MIGRATE_ON_START", true),
		BootstrapAdminUser:     getenv("BOOTSTRAP_ADMIN_USER", "admin"),
		BootstrapAdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		DBType:                 getenv("DATABASE_TYPE", "sqlite"),
		DBHost:                 getenv("DATABASE_HOST", "localhost"),
		DBPort:                 getenv("DATABASE_PORT", "5432"),
		DBName:                 getenv("DATABASE_NAME", "shipdesk"),
		DBUser:                 getenv("DATABASE_USER", "postgres"),
		DBPassword:             getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:              getenv("DATABASE_SSLMODE", "disable"),
		DBSQLitePath:           getenv("DATABASE_SQLITE_PATH", filepath.Join(dataDir, "shipdesk.db")),
		DBMaxIdleConn:          getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:          getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime:      getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime:      getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".shipdesk"
	}
	return filepath.Join(home, ".shipdesk")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
