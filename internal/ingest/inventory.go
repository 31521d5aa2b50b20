package ingest

import (
	"encoding/csv"
	"os"
	"sort"

	langfxcore "github.com/termfx/langfx/internal/core"
)

// LoadInventory reads a one-column CSV set file into a set.
func LoadInventory(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "opening inventory "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	set := map[string]struct{}{}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "reading inventory "+path, err)
	}
	for _, row := range rows {
		for _, cell := range row {
			set[cell] = struct{}{}
		}
	}
	return set, nil
}

// LoadInventoryIfPresent is LoadInventory, but a missing file yields an
// empty set instead of an error.
func LoadInventoryIfPresent(path string) (map[string]struct{}, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]struct{}{}, nil
	}
	return LoadInventory(path)
}

// WriteInventory persists a set as a sorted one-column CSV, replacing any
// previous file so reruns on identical input stay idempotent.
func WriteInventory(path string, set map[string]struct{}) error {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)

	f, err := os.Create(path)
	if err != nil {
		return langfxcore.Wrap(langfxcore.ErrIO, "creating inventory "+path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, item := range items {
		if err := w.Write([]string{item}); err != nil {
			return langfxcore.Wrap(langfxcore.ErrIO, "writing inventory "+path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return langfxcore.Wrap(langfxcore.ErrIO, "flushing inventory "+path, err)
	}
	return nil
}
