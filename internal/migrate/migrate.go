// Package migrate replays a flat-file decision store into a database
// backend. One-shot batch job, safe to re-run: every entry is an upsert,
// so repeated runs converge to the same end state.
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/hpungsan/cull/internal/decision"
)

// Report tallies a migration run. Per-entry failures do not abort the
// batch; they are counted and listed here instead.
type Report struct {
	Attempted int          `json:"attempted"`
	Migrated  int          `json:"migrated"`
	Failed    int          `json:"failed"`
	Errors    []EntryError `json:"errors,omitempty"`
}

// EntryError records one failed entry.
type EntryError struct {
	Handle  string `json:"handle"`
	Message string `json:"message"`
}

// Run reads the whole flat file at path and saves every entry into dst.
// A missing, unreadable, or unparseable file is a precondition failure
// returned as an error before any entry is attempted; after that point
// individual failures only show up in the report.
func Run(ctx context.Context, path string, dst decision.Store) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s not found, nothing to migrate", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	decisions := map[string]decision.Decision{}
	if err := json.Unmarshal(data, &decisions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	report := &Report{}
	if len(decisions) == 0 {
		log.Info().Str("path", path).Msg("decisions file is empty, nothing to migrate")
		return report, nil
	}

	// Stable iteration order keeps reruns and their logs comparable.
	handles := make([]string, 0, len(decisions))
	for handle := range decisions {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	for _, handle := range handles {
		report.Attempted++
		if err := dst.Save(ctx, handle, decisions[handle]); err != nil {
			log.Warn().Str("handle", handle).Err(err).Msg("failed to migrate entry")
			report.Failed++
			report.Errors = append(report.Errors, EntryError{
				Handle:  handle,
				Message: err.Error(),
			})
			continue
		}
		report.Migrated++
	}

	log.Info().
		Int("attempted", report.Attempted).
		Int("migrated", report.Migrated).
		Int("failed", report.Failed).
		Msg("migration complete")

	return report, nil
}
