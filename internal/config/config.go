package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// Store backends selectable via STORE_BACKEND.
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Store  StoreConfig
	Quota  QuotaConfig
	Ticket TicketConfig
	Roles  RolesConfig
	Admin  AdminConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	Version string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// StoreConfig selects and configures the durable ticket store.
type StoreConfig struct {
	Backend  string
	FilePath string
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds DB connection values for the postgres backend.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// RedisConfig holds connection values for the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// QuotaConfig caps how many tickets one user may hold open.
type QuotaConfig struct {
	MaxTotal       int
	MaxPerCategory int
}

// TicketConfig tunes lifecycle behavior.
type TicketConfig struct {
	DeleteGraceSeconds int
	TranscriptDir      string
}

// RolesConfig maps each category to the staff role IDs entitled to it.
type RolesConfig struct {
	ByCategory map[domain.Category][]string
}

// AdminConfig guards the administrative HTTP surface.
type AdminConfig struct {
	PasswordHash    string
	JWTSecret       string
	TokenTTLMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("STORE_BACKEND", StoreBackendFile))
	switch backend {
	case StoreBackendFile, StoreBackendPostgres, StoreBackendRedis:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "ticket-desk"),
			Env:     getEnv("APP_ENV", "development"),
			Host:    getEnv("APP_HOST", "0.0.0.0"),
			Port:    getEnv("APP_PORT", "8080"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Backend:  backend,
			FilePath: getEnv("STORE_FILE_PATH", "data/tickets.json"),
			Postgres: PostgresConfig{
				DSN:      os.Getenv("POSTGRES_DSN"),
				MaxConns: int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
				MinConns: int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			},
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       redisDB,
				Key:      getEnv("REDIS_STATE_KEY", "ticket-desk:state"),
			},
		},
		Quota: QuotaConfig{
			MaxTotal:       getEnvAsInt("QUOTA_MAX_TOTAL", 10),
			MaxPerCategory: getEnvAsInt("QUOTA_MAX_PER_CATEGORY", 3),
		},
		Ticket: TicketConfig{
			DeleteGraceSeconds: getEnvAsInt("TICKET_DELETE_GRACE_SECONDS", 5),
			TranscriptDir:      getEnv("TRANSCRIPT_DIR", "data/transcripts"),
		},
		Roles: RolesConfig{
			ByCategory: loadCategoryRoles(),
		},
		Admin: AdminConfig{
			PasswordHash:    os.Getenv("ADMIN_PASSWORD_HASH"),
			JWTSecret:       getEnv("ADMIN_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("ADMIN_TOKEN_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// DeleteGrace returns the delay between record removal and channel deletion.
func (t TicketConfig) DeleteGrace() time.Duration {
	if t.DeleteGraceSeconds <= 0 {
		return 0
	}
	return time.Duration(t.DeleteGraceSeconds) * time.Second
}

// loadCategoryRoles reads STAFF_ROLES_<CATEGORY> env vars as comma-separated
// role ID lists, e.g. STAFF_ROLES_SUPPORT=123...,456...
func loadCategoryRoles() map[domain.Category][]string {
	roles := make(map[domain.Category][]string)
	for _, cat := range domain.Categories() {
		key := "STAFF_ROLES_" + strings.ToUpper(string(cat))
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		var ids []string
		for _, part := range strings.Split(raw, ",") {
			if id := strings.TrimSpace(part); id != "" {
				ids = append(ids, id)
			}
		}
		roles[cat] = ids
	}
	return roles
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
