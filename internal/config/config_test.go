package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	for _, key := range []string{
		"ADVENTURE_SAVE_BACKEND", "ADVENTURE_SAVE_PATH", "ADVENTURE_DB_PATH",
		"ADVENTURE_LOG_PATH", "ADVENTURE_PRINT_DELAY", "GEMINI_MODEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.SaveBackend != BackendFile {
		t.Errorf("Expected backend %s, got %s", BackendFile, cfg.SaveBackend)
	}
	if cfg.SavePath != "savegame.yaml" {
		t.Errorf("Expected save path savegame.yaml, got %s", cfg.SavePath)
	}
	if cfg.PrintDelay != 30*time.Millisecond {
		t.Errorf("Expected delay 30ms, got %s", cfg.PrintDelay)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("Expected default model, got %s", cfg.GeminiModel)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("ADVENTURE_SAVE_BACKEND", "sqlite")
	t.Setenv("ADVENTURE_DB_PATH", "/tmp/island.db")
	t.Setenv("ADVENTURE_PRINT_DELAY", "0s")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.SaveBackend != BackendSQLite || cfg.DBPath != "/tmp/island.db" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.PrintDelay != 0 {
		t.Errorf("Expected no delay, got %s", cfg.PrintDelay)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"ADVENTURE_SAVE_BACKEND": "floppy",
		"ADVENTURE_PRINT_DELAY":  "-1s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Parse(); err == nil {
				t.Fatalf("Expected %s=%s to be rejected", key, value)
			}
		})
	}
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ADVENTURE_LOG_PATH=from-dotenv.log\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("ADVENTURE_LOG_PATH", "")
	os.Unsetenv("ADVENTURE_LOG_PATH")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogPath != "from-dotenv.log" {
		t.Errorf("Expected log path from .env, got %s", cfg.LogPath)
	}
}

func TestLoadConfigWithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("Expected a missing .env to be fine, got %v", err)
	}
}
