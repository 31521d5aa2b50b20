// Package ingest converts line-oriented RDF-Turtle infobox dumps into
// per-key CSV shards plus the property, subject and value-format
// inventories the later pipeline stages work from.
//
// The dump is split into line-aligned byte ranges, one per worker. Workers
// parse concurrently and write worker-private partial shards; a merge sweep
// produces the final shard files with their header written exactly once.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/termfx/langfx/core"
	langfxcore "github.com/termfx/langfx/internal/core"
	"github.com/termfx/langfx/internal/model"
	"github.com/termfx/langfx/internal/rdf"
	"github.com/termfx/langfx/internal/util"
)

// Options configures one ingest run.
type Options struct {
	// DumpPath is the uncompressed .ttl dump to read.
	DumpPath string
	// DataDir is where inventories and the shard directory are created.
	DataDir string
	// Lang overrides the language code; derived from DumpPath when empty.
	Lang string
	// Suffix is appended to every produced file name (parallel experiments).
	Suffix string
	// Key selects property- or subject-sharded output. Defaults to property.
	Key model.ShardKey
	// Filter, when non-nil, restricts shard rows and the subject inventory
	// to the given subjects. Properties are inventoried regardless, since
	// filters express interest, not validity.
	Filter map[string]struct{}
	// Workers is the parse parallelism; 0 means one per CPU.
	Workers int
	// Force re-ingests even when the inventory file already exists.
	Force bool
	// Progress enables the byte-denominated progress meter.
	Progress bool
}

// Result carries the inventories of one ingest run.
type Result struct {
	Lang       string
	Properties map[string]struct{}
	Subjects   map[string]struct{}
	Types      map[string]struct{}
	// Lines is the number of parsed triples, Failed the number of lines
	// that went to the error log instead.
	Lines  int64
	Failed int64
	// Cached is true when the run was satisfied from existing inventories.
	Cached bool
}

// Run ingests one dump. When the inventory file for the configured key mode
// already exists and Force is unset, the persisted inventories are loaded
// and returned without touching the dump.
func Run(opts Options) (*Result, error) {
	if opts.Lang == "" {
		opts.Lang = util.LangCode(opts.DumpPath)
	}
	if opts.Lang == "" {
		return nil, langfxcore.CLIError{Code: langfxcore.ErrConfig, Message: "cannot derive language code from " + opts.DumpPath}
	}
	if opts.Key == "" {
		opts.Key = model.ByProperty
	}
	if opts.Workers <= 0 {
		opts.Workers = core.DefaultWorkers()
	}

	outName := util.OutName(opts.Lang, opts.Suffix)
	paths := outPaths{
		properties: filepath.Join(opts.DataDir, outName+"_properties.csv"),
		subjects:   filepath.Join(opts.DataDir, outName+"_subjects.csv"),
		types:      filepath.Join(opts.DataDir, outName+"_types.csv"),
		shardDir:   filepath.Join(opts.DataDir, outName),
	}

	if !opts.Force {
		if cached, err := loadCached(opts.Lang, opts.Key, paths); err != nil {
			return nil, err
		} else if cached != nil {
			return cached, nil
		}
	}

	if err := os.MkdirAll(paths.shardDir, 0o755); err != nil {
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "creating shard directory", err)
	}

	res, err := parseDump(opts, paths.shardDir)
	if err != nil {
		return nil, err
	}

	if err := core.MergeShards(paths.shardDir, opts.Key.Header()); err != nil {
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "merging shards", err)
	}

	if err := WriteInventory(paths.properties, res.Properties); err != nil {
		return nil, err
	}
	if err := WriteInventory(paths.subjects, res.Subjects); err != nil {
		return nil, err
	}
	if err := WriteInventory(paths.types, res.Types); err != nil {
		return nil, err
	}

	return res, nil
}

type outPaths struct {
	properties string
	subjects   string
	types      string
	shardDir   string
}

// cacheFile returns the inventory whose presence marks the dump as already
// ingested.
func (p outPaths) cacheFile(key model.ShardKey) string {
	if key == model.BySubject {
		return p.subjects
	}
	return p.properties
}

func loadCached(lang string, key model.ShardKey, paths outPaths) (*Result, error) {
	if _, err := os.Stat(paths.cacheFile(key)); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "checking inventory", err)
	}

	res := &Result{Lang: lang, Cached: true}
	var err error
	if res.Properties, err = LoadInventoryIfPresent(paths.properties); err != nil {
		return nil, err
	}
	if res.Subjects, err = LoadInventoryIfPresent(paths.subjects); err != nil {
		return nil, err
	}
	if res.Types, err = LoadInventoryIfPresent(paths.types); err != nil {
		return nil, err
	}
	return res, nil
}

// workerTally is what one chunk worker contributes to the run result.
type workerTally struct {
	properties map[string]struct{}
	subjects   map[string]struct{}
	types      map[string]struct{}
	lines      int64
	failed     int64
}

func parseDump(opts Options, shardDir string) (*Result, error) {
	chunks, err := core.SplitFile(opts.DumpPath, opts.Workers)
	if err != nil {
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "splitting dump", err)
	}

	errlog, err := core.OpenErrorLog(shardDir)
	if err != nil {
		return nil, langfxcore.Wrap(langfxcore.ErrIO, "opening error log", err)
	}
	defer errlog.Close()

	var total int64
	for _, c := range chunks {
		total += c.Size()
	}
	progress := newMeter(opts.Progress, total, "ingest "+util.OutName(opts.Lang, opts.Suffix))

	tallies := make([]workerTally, len(chunks))
	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			tally, err := parseChunk(opts, shardDir, i, chunk, errlog, progress)
			if err != nil {
				return err
			}
			tallies[i] = tally
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	progress.finish()

	res := &Result{
		Lang:       opts.Lang,
		Properties: map[string]struct{}{},
		Subjects:   map[string]struct{}{},
		Types:      map[string]struct{}{},
	}
	for _, t := range tallies {
		for p := range t.properties {
			res.Properties[p] = struct{}{}
		}
		for s := range t.subjects {
			res.Subjects[s] = struct{}{}
		}
		for f := range t.types {
			res.Types[f] = struct{}{}
		}
		res.Lines += t.lines
		res.Failed += t.failed
	}
	return res, nil
}

func parseChunk(opts Options, shardDir string, worker int, chunk core.Chunk, errlog *core.ErrorLog, progress *meter) (workerTally, error) {
	tally := workerTally{
		properties: map[string]struct{}{},
		subjects:   map[string]struct{}{},
		types:      map[string]struct{}{},
	}

	f, err := os.Open(opts.DumpPath)
	if err != nil {
		return tally, langfxcore.Wrap(langfxcore.ErrIO, "opening dump", err)
	}
	defer f.Close()

	shards, err := core.NewPartialShards(shardDir, worker)
	if err != nil {
		return tally, langfxcore.Wrap(langfxcore.ErrIO, "creating partial shards", err)
	}

	sc := bufio.NewScanner(io.NewSectionReader(f, chunk.Start, chunk.Size()))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for sc.Scan() {
		line := sc.Text()
		progress.add(int64(len(line)) + 1)

		triple, err := rdf.ParseLine(line)
		if err != nil {
			tally.failed++
			errlog.Record(line, err)
			continue
		}
		tally.lines++
		tally.properties[triple.Property] = struct{}{}

		if opts.Filter != nil {
			if _, ok := opts.Filter[triple.Subject]; !ok {
				continue
			}
		}
		tally.subjects[triple.Subject] = struct{}{}
		tally.types[triple.Value.Format] = struct{}{}

		key, other := triple.Subject, triple.Property
		if opts.Key == model.ByProperty {
			key, other = triple.Property, triple.Subject
		}
		if err := shards.Append(key, []string{other, triple.Value.Literal, triple.Value.Format}); err != nil {
			return tally, langfxcore.Wrap(langfxcore.ErrIO, fmt.Sprintf("writing shard row for %q", key), err)
		}
	}
	if err := sc.Err(); err != nil {
		return tally, langfxcore.Wrap(langfxcore.ErrIO, "reading dump chunk", err)
	}

	if err := shards.Close(); err != nil {
		return tally, langfxcore.Wrap(langfxcore.ErrIO, "flushing partial shards", err)
	}
	return tally, nil
}

// meter wraps the progress bar so chunk workers can stay oblivious to
// whether reporting is on.
type meter struct {
	add    func(int64)
	finish func()
}

func newMeter(enabled bool, total int64, desc string) *meter {
	if !enabled {
		return &meter{add: func(int64) {}, finish: func() {}}
	}
	bar := core.NewByteBar(total, desc)
	return &meter{
		add:    func(n int64) { _ = bar.Add64(n) },
		finish: func() { _ = bar.Finish() },
	}
}

