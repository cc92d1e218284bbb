package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendSQLite)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if len(cfg.SourceFiles) != 3 {
		t.Errorf("SourceFiles = %v, want three default files", cfg.SourceFiles)
	}
	if cfg.DecisionsFile != "decisions.json" {
		t.Errorf("DecisionsFile = %q, want decisions.json", cfg.DecisionsFile)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	content := `{"backend": "file", "port": 8080, "source_files": ["only.csv"]}`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Backend)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	// The source list is replaced, not merged: order decides dedup.
	if len(cfg.SourceFiles) != 1 || cfg.SourceFiles[0] != "only.csv" {
		t.Errorf("SourceFiles = %v, want [only.csv]", cfg.SourceFiles)
	}
	// Unset fields keep their defaults.
	if cfg.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want default", cfg.Bind)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("CULL_BACKEND", "bolt")
	t.Setenv("CULL_PORT", "9090")
	t.Setenv("CULL_SOURCES", "a.csv, b.csv")
	t.Setenv("CULL_DECISIONS_FILE", "/tmp/d.json")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != BackendBolt {
		t.Errorf("Backend = %q, want bolt", cfg.Backend)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if len(cfg.SourceFiles) != 2 || cfg.SourceFiles[0] != "a.csv" || cfg.SourceFiles[1] != "b.csv" {
		t.Errorf("SourceFiles = %v, want [a.csv b.csv]", cfg.SourceFiles)
	}
	if cfg.DecisionsFile != "/tmp/d.json" {
		t.Errorf("DecisionsFile = %q", cfg.DecisionsFile)
	}
}

func TestLoad_EnvInvalidPortIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("CULL_PORT", "not-a-number")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want default 3000", cfg.Port)
	}
}

func TestValidBackend(t *testing.T) {
	for _, name := range []string{BackendFile, BackendSQLite, BackendBolt} {
		if !ValidBackend(name) {
			t.Errorf("ValidBackend(%q) = false", name)
		}
	}
	if ValidBackend("mongo") {
		t.Error("ValidBackend(mongo) = true")
	}
	if ValidBackend("") {
		t.Error("ValidBackend(\"\") = true")
	}
}
