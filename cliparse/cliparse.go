package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port              int
	DatabaseURL       string
	DatabaseType      string
	VerifiedUsersFile string
	SessionServerURL  string
	AuthCacheTTL      time.Duration
	ApproveThreshold  int
	LockThreshold     int
}

// DefaultSessionServer is Mojang's production sessionserver.
const DefaultSessionServer = "https://sessionserver.mojang.com"

// ParseFlags validates flags and fills in defaults
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var cacheTTL string

	fs := flag.NewFlagSet("wynnextras-server", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	fs.StringVar(&cfg.VerifiedUsersFile, "verified-users", "", "Path to verified users file")
	fs.StringVar(&cfg.SessionServerURL, "session-server", "", "Mojang sessionserver base URL")
	fs.StringVar(&cacheTTL, "auth-cache-ttl", "", "Auth cache TTL (e.g. 20s)")
	fs.IntVar(&cfg.ApproveThreshold, "approve-threshold", 0, "Unique submitters needed to approve a pool")
	fs.IntVar(&cfg.LockThreshold, "lock-threshold", 0, "Unique submitters needed to lock a pool")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8080 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "sqlite" {
			cfg.DatabaseURL = "file:wynnextras.db"
		} else {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
	}

	if cfg.VerifiedUsersFile == "" {
		cfg.VerifiedUsersFile = os.Getenv("VERIFIED_USERS_FILE")
	}
	if cfg.VerifiedUsersFile == "" {
		cfg.VerifiedUsersFile = "verified_users.txt"
	}

	if cfg.SessionServerURL == "" {
		cfg.SessionServerURL = os.Getenv("SESSION_SERVER_URL")
	}
	if cfg.SessionServerURL == "" {
		cfg.SessionServerURL = DefaultSessionServer
	}

	if cacheTTL == "" {
		cacheTTL = os.Getenv("AUTH_CACHE_TTL")
	}
	if cacheTTL == "" {
		cfg.AuthCacheTTL = 20 * time.Second
	} else {
		ttl, err := time.ParseDuration(cacheTTL)
		if err != nil || ttl <= 0 {
			return Config{}, errors.New("invalid AUTH_CACHE_TTL value")
		}
		cfg.AuthCacheTTL = ttl
	}

	if cfg.ApproveThreshold == 0 {
		cfg.ApproveThreshold = envInt("APPROVE_THRESHOLD", 3)
	}
	if cfg.LockThreshold == 0 {
		cfg.LockThreshold = envInt("LOCK_THRESHOLD", 10)
	}
	if cfg.ApproveThreshold < 1 || cfg.LockThreshold < cfg.ApproveThreshold {
		return Config{}, errors.New("thresholds must satisfy 1 <= approve <= lock")
	}

	return cfg, nil
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}
