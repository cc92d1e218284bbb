package decision

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hpungsan/cull/internal/errors"
)

// backends lists every Store implementation under its config name, so the
// shared contract tests below run against all of them.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore := NewFileStore(filepath.Join(t.TempDir(), "decisions.json"))

	sqliteStore, err := OpenSQLite(filepath.Join(t.TempDir(), "cull.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	boltStore, err := OpenBolt(filepath.Join(t.TempDir(), "cull.bolt"))
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { boltStore.Close() })

	return map[string]Store{
		"file":   fileStore,
		"sqlite": sqliteStore,
		"bolt":   boltStore,
	}
}

func TestStore_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(ctx, "oak-dresser", Delete); err != nil {
				t.Fatalf("Save: %v", err)
			}

			d, found, err := store.Get(ctx, "oak-dresser")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !found {
				t.Fatal("Get found = false after Save")
			}
			if d != Delete {
				t.Errorf("Get = %q, want %q", d, Delete)
			}
		})
	}
}

func TestStore_UpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(ctx, "oak-dresser", Delete); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := store.Save(ctx, "oak-dresser", Keep); err != nil {
				t.Fatalf("Save: %v", err)
			}

			all, err := store.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			if len(all) != 1 {
				t.Fatalf("len(LoadAll()) = %d, want 1 (upsert, not append)", len(all))
			}
			if all["oak-dresser"] != Keep {
				t.Errorf("decision = %q, want %q", all["oak-dresser"], Keep)
			}
		})
	}
}

func TestStore_GetAbsent(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d, found, err := store.Get(ctx, "never-saved")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if found {
				t.Errorf("Get found = true for absent handle, decision %q", d)
			}

			all, err := store.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			if _, ok := all["never-saved"]; ok {
				t.Error("absent handle appears in LoadAll keys")
			}
		})
	}
}

func TestStore_LoadAllEmpty(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			all, err := store.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll on a never-written store: %v", err)
			}
			if len(all) != 0 {
				t.Errorf("len(LoadAll()) = %d, want 0", len(all))
			}
		})
	}
}

func TestStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(ctx, "oak-dresser", Keep); err != nil {
				t.Fatalf("Save: %v", err)
			}

			if err := store.Delete(ctx, "oak-dresser"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, found, err := store.Get(ctx, "oak-dresser"); err != nil || found {
				t.Fatalf("Get after Delete: found=%v err=%v, want absent", found, err)
			}

			// Second delete on an absent handle still succeeds.
			if err := store.Delete(ctx, "oak-dresser"); err != nil {
				t.Errorf("second Delete: %v, want nil", err)
			}
		})
	}
}

func TestStore_RejectsInvalidDecision(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, "oak-dresser", Decision("maybe"))
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Fatalf("Save(maybe) error = %v, want INVALID_REQUEST", err)
			}

			// No state mutation on validation failure.
			all, err := store.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			if len(all) != 0 {
				t.Errorf("len(LoadAll()) = %d after rejected Save, want 0", len(all))
			}
		})
	}
}

func TestStore_RejectsEmptyHandle(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, "", Keep)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Fatalf("Save with empty handle error = %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "decisions.json")
		first := NewFileStore(path)
		if err := first.Save(ctx, "oak-dresser", Delete); err != nil {
			t.Fatalf("Save: %v", err)
		}

		second := NewFileStore(path)
		d, found, err := second.Get(ctx, "oak-dresser")
		if err != nil || !found || d != Delete {
			t.Fatalf("Get after reopen: %q %v %v, want delete", d, found, err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cull.db")
		first, err := OpenSQLite(path, nil)
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		if err := first.Save(ctx, "oak-dresser", Delete); err != nil {
			t.Fatalf("Save: %v", err)
		}
		first.Close()

		second, err := OpenSQLite(path, nil)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer second.Close()
		d, found, err := second.Get(ctx, "oak-dresser")
		if err != nil || !found || d != Delete {
			t.Fatalf("Get after reopen: %q %v %v, want delete", d, found, err)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cull.bolt")
		first, err := OpenBolt(path)
		if err != nil {
			t.Fatalf("OpenBolt: %v", err)
		}
		if err := first.Save(ctx, "oak-dresser", Delete); err != nil {
			t.Fatalf("Save: %v", err)
		}
		first.Close()

		second, err := OpenBolt(path)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer second.Close()
		d, found, err := second.Get(ctx, "oak-dresser")
		if err != nil || !found || d != Delete {
			t.Fatalf("Get after reopen: %q %v %v, want delete", d, found, err)
		}
	})
}

func TestParse(t *testing.T) {
	if d, err := Parse("keep"); err != nil || d != Keep {
		t.Errorf("Parse(keep) = %q, %v", d, err)
	}
	if d, err := Parse("delete"); err != nil || d != Delete {
		t.Errorf("Parse(delete) = %q, %v", d, err)
	}
	if _, err := Parse("maybe"); err == nil {
		t.Error("Parse(maybe) should fail")
	}
	if _, err := Parse(""); err == nil {
		t.Error("Parse(\"\") should fail")
	}
}
