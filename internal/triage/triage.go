// Package triage joins the ephemeral catalog with the durable decision
// store. Items are re-read from the source files and decisions re-loaded
// from the store on every call, so results always reflect the latest state
// on disk; nothing here is cached or persisted.
package triage

import (
	"context"
	"math"

	"github.com/hpungsan/cull/internal/catalog"
	"github.com/hpungsan/cull/internal/decision"
	"github.com/hpungsan/cull/internal/errors"
)

// Service reconciles catalog items with recorded decisions. It depends
// only on the decision.Store interface, never a concrete backend.
type Service struct {
	sources []string
	store   decision.Store
}

// NewService creates a Service reading items from the given source files
// in order, and decisions from store.
func NewService(sources []string, store decision.Store) *Service {
	return &Service{sources: sources, store: store}
}

// AnnotatedItem is a catalog item plus its current decision, nil when the
// operator has not decided yet. View-only, never stored.
type AnnotatedItem struct {
	catalog.Item
	Decision *decision.Decision `json:"decision"`
}

// Progress summarizes how far the triage has gotten. Completed counts
// every stored decision, including orphans whose handle no longer appears
// in the source files, so Remaining can go negative after a catalog shrink.
type Progress struct {
	Total           int `json:"total"`
	Completed       int `json:"completed"`
	Remaining       int `json:"remaining"`
	ToDelete        int `json:"toDelete"`
	ToKeep          int `json:"toKeep"`
	PercentComplete int `json:"percentComplete"`
}

// Items returns every catalog item in first-seen order, annotated with
// its decision by handle.
func (s *Service) Items(ctx context.Context) ([]AnnotatedItem, error) {
	items, err := catalog.Load(s.sources)
	if err != nil {
		return nil, errors.NewSource(err)
	}

	decisions, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	annotated := make([]AnnotatedItem, len(items))
	for i, item := range items {
		annotated[i] = AnnotatedItem{Item: item}
		if d, ok := decisions[item.Handle]; ok {
			annotated[i].Decision = &d
		}
	}
	return annotated, nil
}

// Progress counts over the current item set and the full decision map.
func (s *Service) Progress(ctx context.Context) (Progress, error) {
	items, err := catalog.Load(s.sources)
	if err != nil {
		return Progress{}, errors.NewSource(err)
	}

	decisions, err := s.store.LoadAll(ctx)
	if err != nil {
		return Progress{}, err
	}

	p := Progress{
		Total:     len(items),
		Completed: len(decisions),
	}
	p.Remaining = p.Total - p.Completed
	for _, d := range decisions {
		switch d {
		case decision.Delete:
			p.ToDelete++
		case decision.Keep:
			p.ToKeep++
		}
	}
	// An empty catalog reports 0% rather than dividing by zero.
	if p.Total > 0 {
		p.PercentComplete = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p, nil
}

// ExportDeletions renders the items currently marked delete as CSV, in
// item order, with a fixed header row. Fields are wrapped in quotes but
// embedded quote characters are not doubled; this matches the format the
// downstream cleanup scripts already consume.
func (s *Service) ExportDeletions(ctx context.Context) ([]byte, error) {
	items, err := catalog.Load(s.sources)
	if err != nil {
		return nil, errors.NewSource(err)
	}

	decisions, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []byte
	out = append(out, "Handle,Title,SKU,Type,Decision\n"...)
	for _, item := range items {
		if decisions[item.Handle] != decision.Delete {
			continue
		}
		row := `"` + item.Handle + `","` + item.Title + `","` + item.SKU + `","` + item.Type + `","delete"` + "\n"
		out = append(out, row...)
	}
	return out, nil
}
