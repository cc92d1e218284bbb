package decision

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hpungsan/cull/internal/config"
)

// Open constructs the decision store selected by cfg.Backend. Database
// backends live under baseDir; the flat-file backend uses
// cfg.DecisionsFile as-is so it can point at an existing decisions.json.
//
// The store is opened once at startup and the handle is passed into every
// component that needs storage, so "not yet connected" is impossible by
// construction rather than a runtime check.
func Open(cfg *config.Config, baseDir string) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		log.Debug().Str("path", cfg.DecisionsFile).Msg("using flat-file decision store")
		return NewFileStore(cfg.DecisionsFile), nil
	case config.BackendSQLite:
		dbPath := filepath.Join(baseDir, "cull.db")
		log.Debug().Str("path", dbPath).Msg("using sqlite decision store")
		return OpenSQLite(dbPath, cfg)
	case config.BackendBolt:
		dbPath := filepath.Join(baseDir, "cull.bolt")
		log.Debug().Str("path", dbPath).Msg("using bolt decision store")
		return OpenBolt(dbPath)
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s, %s, or %s)",
			cfg.Backend, config.BackendFile, config.BackendSQLite, config.BackendBolt)
	}
}
