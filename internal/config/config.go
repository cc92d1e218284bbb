package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Backend names accepted in config.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config holds application configuration.
type Config struct {
	// Bind is the address the HTTP server listens on.
	Bind string `json:"bind,omitempty"`

	// Port is the HTTP server port.
	Port int `json:"port,omitempty"`

	// Backend selects the decision store: "file", "sqlite", or "bolt".
	Backend string `json:"backend,omitempty"`

	// SourceFiles is the ordered list of catalog CSV files. Order matters:
	// when the same handle appears in several files, the earliest wins.
	SourceFiles []string `json:"source_files,omitempty"`

	// DecisionsFile is the path of the flat-file decision store. It is also
	// the source read by the migrate command.
	DecisionsFile string `json:"decisions_file,omitempty"`

	// DBMaxOpenConns limits open connections for the sqlite backend.
	// 0 means use sql.DB default. Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle connections for the sqlite backend.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bind:    "127.0.0.1",
		Port:    3000,
		Backend: BackendSQLite,
		SourceFiles: []string{
			"antique_furniture_shopify_import-1.csv",
			"antique_furniture_shopify_import_table2.csv",
			"antique_furniture_shopify_import_table3.csv",
		},
		DecisionsFile: "decisions.json",
	}
}

// Load loads configuration from baseDir/config.json, applies defaults for
// anything unset, then applies CULL_* environment overrides.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.cull.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	applyEnv(merged)
	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; the source file list is
// replaced wholesale when the overlay provides one (order is significant,
// so merging lists would scramble dedup precedence).
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Bind = overlay.Bind
	if result.Bind == "" {
		result.Bind = base.Bind
	}

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	result.Backend = overlay.Backend
	if result.Backend == "" {
		result.Backend = base.Backend
	}

	result.DecisionsFile = overlay.DecisionsFile
	if result.DecisionsFile == "" {
		result.DecisionsFile = base.DecisionsFile
	}

	result.SourceFiles = overlay.SourceFiles
	if len(result.SourceFiles) == 0 {
		result.SourceFiles = base.SourceFiles
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	return result
}

// applyEnv overrides config values from CULL_* environment variables.
// Main loads .env via godotenv before this runs.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CULL_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("CULL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	if v := os.Getenv("CULL_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("CULL_DECISIONS_FILE"); v != "" {
		cfg.DecisionsFile = v
	}
	if v := os.Getenv("CULL_SOURCES"); v != "" {
		var files []string
		for _, f := range strings.Split(v, ",") {
			f = strings.TrimSpace(f)
			if f != "" {
				files = append(files, f)
			}
		}
		if len(files) > 0 {
			cfg.SourceFiles = files
		}
	}
}

// ValidBackend reports whether name is a known decision store backend.
func ValidBackend(name string) bool {
	switch name {
	case BackendFile, BackendSQLite, BackendBolt:
		return true
	}
	return false
}
