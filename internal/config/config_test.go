package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "DATABASE_PATH", "LOG_LEVEL", "METRICS_ENABLED", "PUSH_API_KEY"} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Host != "localhost" {
		t.Errorf("Expected localhost, got %s", cfg.Host)
	}
	if cfg.Port != 4180 {
		t.Errorf("Expected port 4180, got %d", cfg.Port)
	}
	if cfg.MetricsEnabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.CredentialsPath != "secrets/diacloud.env" {
		t.Errorf("Unexpected credentials path: %s", cfg.CredentialsPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Port)
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected metrics enabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug, got %s", cfg.LogLevel)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Run("ValidFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "diacloud.env")
		content := "# diacloud account\nEMAIL=user@example.com\nPASSWORD = hunter2\n\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("Failed to write credentials file: %v", err)
		}

		creds, err := LoadCredentials(path)
		if err != nil {
			t.Fatalf("Failed to load credentials: %v", err)
		}
		if creds.Email != "user@example.com" {
			t.Errorf("Expected user@example.com, got %s", creds.Email)
		}
		if creds.Password != "hunter2" {
			t.Errorf("Expected hunter2, got %s", creds.Password)
		}
	})

	t.Run("MissingKeys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "diacloud.env")
		if err := os.WriteFile(path, []byte("EMAIL=user@example.com\n"), 0600); err != nil {
			t.Fatalf("Failed to write credentials file: %v", err)
		}

		if _, err := LoadCredentials(path); err == nil {
			t.Fatal("Expected error for missing PASSWORD")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.env")); err == nil {
			t.Fatal("Expected error for missing file")
		}
	})
}
