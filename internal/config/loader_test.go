package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"ORIENTATION_HTTP_PORT",
	"ORIENTATION_STORE_DRIVER",
	"ORIENTATION_SQLITE_DSN",
	"ORIENTATION_MONGODB_URL",
	"MONGODB_URL",
	"ORIENTATION_SESSION_SECRET",
	"ORIENTATION_SESSION_TTL",
	"ORIENTATION_LEGACY_USERNAME_TOKENS",
	"ORIENTATION_SECURE_COOKIES",
	"ORIENTATION_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		const secret = "super-secret"
		t.Setenv("ORIENTATION_SESSION_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.StoreDriver != StoreDriverSQLite {
			t.Fatalf("expected sqlite driver by default, got %q", cfg.StoreDriver)
		}
		if cfg.SQLiteDSN != "orientation.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionSecret != secret {
			t.Fatalf("expected session secret to be %q, got %q", secret, cfg.SessionSecret)
		}
		if !cfg.LegacyUsernameTokens {
			t.Fatalf("expected legacy username tokens to be enabled by default")
		}
		if cfg.SecureCookies {
			t.Fatalf("expected plain HTTP cookies by default")
		}
		if cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("expected info log level, got %s", cfg.LogLevel)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: ORIENTATION_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("requires a mongo url for the mongo driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORIENTATION_SESSION_SECRET", "secret")
		t.Setenv("ORIENTATION_STORE_DRIVER", "mongo")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error without a mongo url")
		}
		expected := "required environment variables are not set: ORIENTATION_MONGODB_URL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}

		t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.MongoURL != "mongodb://localhost:27017" {
			t.Fatalf("expected fallback mongo url, got %q", cfg.MongoURL)
		}
	})

	t.Run("reports invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORIENTATION_SESSION_SECRET", "secret")
		t.Setenv("ORIENTATION_HTTP_PORT", "eighty")
		t.Setenv("ORIENTATION_STORE_DRIVER", "postgres")
		t.Setenv("ORIENTATION_SECURE_COOKIES", "sometimes")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "environment variables have invalid values: ORIENTATION_HTTP_PORT, ORIENTATION_STORE_DRIVER, ORIENTATION_SECURE_COOKIES"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration, numeric and boolean fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORIENTATION_SESSION_SECRET", "secret-value")
		t.Setenv("ORIENTATION_HTTP_PORT", "9090")
		t.Setenv("ORIENTATION_SQLITE_DSN", "file:/tmp/orientation.db")
		t.Setenv("ORIENTATION_SESSION_TTL", "2h")
		t.Setenv("ORIENTATION_LEGACY_USERNAME_TOKENS", "false")
		t.Setenv("ORIENTATION_SECURE_COOKIES", "true")
		t.Setenv("ORIENTATION_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.SessionTTL != 2*time.Hour {
			t.Fatalf("expected session TTL 2h, got %s", cfg.SessionTTL)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/orientation.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.LegacyUsernameTokens {
			t.Fatalf("expected legacy username tokens to be disabled")
		}
		if !cfg.SecureCookies {
			t.Fatalf("expected secure cookies to be enabled")
		}
		if cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("expected debug log level, got %s", cfg.LogLevel)
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("ignores missing files", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("expected missing file to be ignored, got %v", err)
		}
	})

	t.Run("populates unset variables", func(t *testing.T) {
		t.Setenv("ORIENTATION_HTTP_PORT", "")
		if err := os.Unsetenv("ORIENTATION_HTTP_PORT"); err != nil {
			t.Fatalf("failed to unset: %v", err)
		}
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("ORIENTATION_HTTP_PORT=7070\n"), 0o600); err != nil {
			t.Fatalf("write env file: %v", err)
		}

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv returned error: %v", err)
		}
		if got := os.Getenv("ORIENTATION_HTTP_PORT"); got != "7070" {
			t.Fatalf("expected port from env file, got %q", got)
		}
	})
}
