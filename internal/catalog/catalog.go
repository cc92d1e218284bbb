// Package catalog loads product records from Shopify-style CSV exports.
//
// Loading is a pure function of the source files: no caching, no side
// effects, safe to call concurrently. Every read surface re-derives the
// item list so it always reflects the files currently on disk.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Column headers expected in the source files. Case-sensitive.
const (
	colHandle      = "Handle"
	colTitle       = "Title"
	colDescription = "Body (HTML)"
	colPrice       = "Variant Price"
	colImageSrc    = "Image Src"
	colSKU         = "Variant SKU"
	colType        = "Type"
	colTags        = "Tags"
)

// Item is one catalog record. Only Handle is required; the rest are copied
// verbatim from the first source row bearing that handle.
type Item struct {
	Handle      string `json:"handle"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"imageUrl"`
	SKU         string `json:"sku"`
	Type        string `json:"type"`
	Tags        string `json:"tags"`
}

// Load reads the given CSV files in order and returns the deduplicated
// item list in first-seen order. Shopify exports repeat a product's handle
// on every variant/image row; only the first row per handle contributes
// field values, later rows with the same handle are dropped entirely,
// even across files.
//
// If any file is unreadable or malformed the whole load fails; a partial
// item list is never returned.
func Load(paths []string) ([]Item, error) {
	var items []Item
	seen := make(map[string]bool)

	for _, path := range paths {
		if err := loadFile(path, seen, &items); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// loadFile parses one CSV file, appending new items to out.
func loadFile(path string, seen map[string]bool, out *[]Item) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open source file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	if _, ok := cols[colHandle]; !ok {
		return fmt.Errorf("source file %s has no %q column", path, colHandle)
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		handle := field(record, colHandle)
		if handle == "" || seen[handle] {
			continue
		}
		seen[handle] = true

		*out = append(*out, Item{
			Handle:      handle,
			Title:       field(record, colTitle),
			Description: field(record, colDescription),
			Price:       field(record, colPrice),
			ImageURL:    field(record, colImageSrc),
			SKU:         field(record, colSKU),
			Type:        field(record, colType),
			Tags:        field(record, colTags),
		})
	}

	return nil
}
