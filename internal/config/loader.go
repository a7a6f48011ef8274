package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by ORIENTATION_STORE_DRIVER.
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"
)

// Config captures environment driven configuration values for the orientation service.
type Config struct {
	HTTPPort             int
	StoreDriver          string
	SQLiteDSN            string
	MongoURL             string
	SessionSecret        string
	SessionTTL           time.Duration
	LegacyUsernameTokens bool
	SecureCookies        bool
	LogLevel             slog.Level
}

// LoadDotEnv reads key/value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults. Required values that are absent and
// values that fail to parse are reported together in a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:             8080,
		StoreDriver:          StoreDriverSQLite,
		SQLiteDSN:            "orientation.db",
		SessionTTL:           24 * time.Hour,
		LegacyUsernameTokens: true,
		LogLevel:             slog.LevelInfo,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := strings.TrimSpace(os.Getenv("ORIENTATION_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ORIENTATION_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.ToLower(strings.TrimSpace(os.Getenv("ORIENTATION_STORE_DRIVER"))); driver != "" {
		switch driver {
		case StoreDriverMemory, StoreDriverSQLite, StoreDriverMongo:
			cfg.StoreDriver = driver
		default:
			invalid = append(invalid, "ORIENTATION_STORE_DRIVER")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ORIENTATION_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.MongoURL = strings.TrimSpace(os.Getenv("ORIENTATION_MONGODB_URL"))
	if cfg.MongoURL == "" {
		cfg.MongoURL = strings.TrimSpace(os.Getenv("MONGODB_URL"))
	}
	if cfg.StoreDriver == StoreDriverMongo && cfg.MongoURL == "" {
		missing = append(missing, "ORIENTATION_MONGODB_URL")
	}

	if secret := strings.TrimSpace(os.Getenv("ORIENTATION_SESSION_SECRET")); secret == "" {
		missing = append(missing, "ORIENTATION_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ORIENTATION_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ORIENTATION_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if legacyValue := strings.TrimSpace(os.Getenv("ORIENTATION_LEGACY_USERNAME_TOKENS")); legacyValue != "" {
		legacy, err := strconv.ParseBool(legacyValue)
		if err != nil {
			invalid = append(invalid, "ORIENTATION_LEGACY_USERNAME_TOKENS")
		} else {
			cfg.LegacyUsernameTokens = legacy
		}
	}

	if secureValue := strings.TrimSpace(os.Getenv("ORIENTATION_SECURE_COOKIES")); secureValue != "" {
		secure, err := strconv.ParseBool(secureValue)
		if err != nil {
			invalid = append(invalid, "ORIENTATION_SECURE_COOKIES")
		} else {
			cfg.SecureCookies = secure
		}
	}

	if levelValue := strings.TrimSpace(os.Getenv("ORIENTATION_LOG_LEVEL")); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "ORIENTATION_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
