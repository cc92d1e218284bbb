// Package decision persists the operator's keep/delete verdicts, keyed by
// catalog item handle. Three backends implement the same Store contract:
// a flat JSON file, an embedded sqlite database, and a bbolt key-value
// database. The backend is picked once at startup; callers only see Store.
package decision

import (
	"context"
	"fmt"
)

// Decision is an operator verdict on a catalog item.
type Decision string

const (
	Keep   Decision = "keep"
	Delete Decision = "delete"
)

// Valid reports whether d is one of the two permitted values.
func (d Decision) Valid() bool {
	return d == Keep || d == Delete
}

// Parse converts a raw string into a Decision, rejecting anything outside
// the keep/delete enum.
func Parse(s string) (Decision, error) {
	d := Decision(s)
	if !d.Valid() {
		return "", fmt.Errorf("decision must be %q or %q, got %q", Keep, Delete, s)
	}
	return d, nil
}

// Store is the durable handle→decision mapping. At most one entry exists
// per handle (Save is an upsert, last write wins). A successful Save is
// fully flushed before it returns — callers treat it as a durability
// guarantee across process restarts.
type Store interface {
	// LoadAll returns every persisted entry. A store that has never been
	// written to yields an empty map, not an error.
	LoadAll(ctx context.Context) (map[string]Decision, error)

	// Save upserts the decision for handle. Invalid decision values are
	// rejected before any state changes.
	Save(ctx context.Context, handle string, d Decision) error

	// Get looks up one handle. The bool is false when no entry exists.
	Get(ctx context.Context, handle string) (Decision, bool, error)

	// Delete removes the entry for handle if present. Deleting an absent
	// handle is not an error (idempotent).
	Delete(ctx context.Context, handle string) error

	// Close releases the underlying resource. Safe to call once at
	// process shutdown.
	Close() error
}
