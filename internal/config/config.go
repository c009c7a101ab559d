package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL       string
	ServerAddr        string
	StoreDriver       string
	MigrationsDir     string
	VoteRetryInterval time.Duration
	VoteRetryBatch    int
	ScoringFormula    string
	LogLevel          zerolog.Level

	// SeedRoomID creates an active room on startup when set. The memory
	// driver has no other way to create rooms.
	SeedRoomID   uuid.UUID
	SeedRoomCode string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first without overriding variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "livestage")
		pass := getenv("POSTGRES_PASSWORD", "livestage_pass")
		db := getenv("POSTGRES_DB", "livestage")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	driver := strings.ToLower(getenv("STORE_DRIVER", StorePostgres))
	if driver != StorePostgres && driver != StoreMemory {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getenv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	var seed uuid.UUID
	if raw := os.Getenv("SEED_ROOM_ID"); raw != "" {
		seed, err = uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse SEED_ROOM_ID: %w", err)
		}
	}

	return &Config{
		DatabaseURL:       dsn,
		ServerAddr:        getenv("SERVER_ADDR", "0.0.0.0:8080"),
		StoreDriver:       driver,
		MigrationsDir:     getenv("MIGRATIONS_DIR", "internal/migrations"),
		VoteRetryInterval: parseDuration(getenv("VOTE_RETRY_INTERVAL", "5s"), 5*time.Second),
		VoteRetryBatch:    parseInt(getenv("VOTE_RETRY_BATCH", "50"), 50),
		ScoringFormula:    os.Getenv("SCORING_FORMULA"),
		LogLevel:          level,
		SeedRoomID:        seed,
		SeedRoomCode:      getenv("SEED_ROOM_CODE", "DEMO"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
