// Package translate materializes the cross-lingual translation table: for
// every subject seen in any configured language dump, its title in each of
// the other languages, resolved through batched langlinks lookups.
package translate

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/termfx/langfx/core"
	langfxcore "github.com/termfx/langfx/internal/core"
	"github.com/termfx/langfx/internal/util"
)

// Translator resolves entity titles across languages. *wiki.Client is the
// production implementation.
type Translator interface {
	Langlinks(ctx context.Context, entities []string, srcLang string, targetLangs []string) ([]map[string]string, error)
}

// Table is a persisted translation table: one row per entity, one column
// per language, empty cells for unknown titles.
type Table struct {
	Langs []string
	Rows  [][]string
}

// FileName composes the table file name for an ordered language list and an
// optional suffix, e.g. subj_en_de_translations.csv.
func FileName(langs []string, suffix string) string {
	name := "subj_" + strings.Join(langs, "_")
	if suffix != "" {
		name += "_" + suffix
	}
	return name + "_translations.csv"
}

// Options configures a table build.
type Options struct {
	// DataDir is where the table file lives.
	DataDir string
	// Suffix is appended to the table file name.
	Suffix string
	// Langs is the ordered language list; it defines column order.
	Langs []string
	// Subjects maps each language to the subjects inventoried for it.
	Subjects map[string]map[string]struct{}
	// Workers is the lookup parallelism per language; 0 means one per CPU.
	Workers int
	// Progress enables the progress meter.
	Progress bool
}

// Build materializes the translation table, or loads it when the file is
// already present. Each language's subjects are split evenly across workers;
// workers translate batches independently and only the table set is shared.
func Build(ctx context.Context, tr Translator, opts Options) (*Table, error) {
	path := filepath.Join(opts.DataDir, FileName(opts.Langs, opts.Suffix))
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = core.DefaultWorkers()
	}

	var (
		mu     sync.Mutex
		tuples = map[string][]string{}
	)

	for _, lang := range opts.Langs {
		subjects := make([]string, 0, len(opts.Subjects[lang]))
		for s := range opts.Subjects[lang] {
			subjects = append(subjects, s)
		}
		sort.Strings(subjects)

		targets := otherLangs(opts.Langs, lang)

		var bar interface{ Add(int) error }
		if opts.Progress {
			bar = core.NewCountBar(int64(len(subjects)), "translate "+lang)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, split := range util.SplitEqual(subjects, workers) {
			g.Go(func() error {
				for batch := range batches(split, BatchSize) {
					resolved, err := tr.Langlinks(gctx, batch, lang, targets)
					if err != nil {
						return err
					}
					mu.Lock()
					for _, entry := range resolved {
						tuple := make([]string, len(opts.Langs))
						for i, l := range opts.Langs {
							tuple[i] = entry[l]
						}
						tuples[strings.Join(tuple, "\x1f")] = tuple
					}
					mu.Unlock()
					if bar != nil {
						_ = bar.Add(len(batch))
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	table := &Table{Langs: opts.Langs, Rows: make([][]string, 0, len(tuples))}
	keys := make([]string, 0, len(tuples))
	for k := range tuples {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		table.Rows = append(table.Rows, tuples[k])
	}

	if err := write(path, table); err != nil {
		return nil, err
	}
	return table, nil
}

// BatchSize mirrors the lookup batch the endpoint accepts comfortably.
const BatchSize = 40

// batches yields consecutive sub-slices of at most size elements.
func batches(items []string, size int) func(func([]string) bool) {
	return func(yield func([]string) bool) {
		for lo := 0; lo < len(items); lo += size {
			hi := lo + size
			if hi > len(items) {
				hi = len(items)
			}
			if !yield(items[lo:hi]) {
				return
			}
		}
	}
}

// Load reads a persisted table. The first row is the language order.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "opening translation table", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "reading translation table", err)
	}
	if len(rows) == 0 {
		return nil, langfxcore.CLIError{Code: langfxcore.ErrIO, Message: "translation table " + path + " has no header"}
	}
	return &Table{Langs: rows[0], Rows: rows[1:]}, nil
}

func write(path string, table *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return langfxcore.Wrap(langfxcore.ErrIO, "creating translation table", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Langs); err != nil {
		return langfxcore.Wrap(langfxcore.ErrIO, "writing translation table header", err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return langfxcore.Wrap(langfxcore.ErrIO, "writing translation table", err)
	}
	w.Flush()
	return w.Error()
}

func otherLangs(langs []string, lang string) []string {
	out := make([]string, 0, len(langs)-1)
	for _, l := range langs {
		if l != lang {
			out = append(out, l)
		}
	}
	return out
}
