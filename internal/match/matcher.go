// Package match proposes property-to-property pairs between two language
// editions: first by exact name, then by statistical agreement of the
// (subject, value) populations after translating the target side into
// source-language space.
package match

import (
	"context"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/termfx/langfx/core"
	"github.com/termfx/langfx/internal/ingest"
	"github.com/termfx/langfx/internal/model"
	"github.com/termfx/langfx/internal/translate"
	"github.com/termfx/langfx/internal/util"
)

// Threshold is the agreement fraction of the smaller shard a pair must
// reach to count as a statistical match.
const Threshold = 0.6

// Options configures a matcher run.
type Options struct {
	// DataDir holds the shard directories and receives the report.
	DataDir string
	// SrcLang and TrgLang are the two-letter edition codes.
	SrcLang string
	TrgLang string
	// Suffix is the shared output-name suffix of the ingest runs.
	Suffix string
	// Workers is the sweep parallelism; 0 means one per CPU. It also sets
	// the number of target groups loaded into memory one at a time.
	Workers int
	// Progress enables the progress meters.
	Progress bool
}

// Matcher pairs properties of a source and a target inventory.
type Matcher struct {
	opts Options
	tr   translate.Translator
}

// New returns a matcher using tr to move target-side entities into
// source-language space.
func New(tr translate.Translator, opts Options) *Matcher {
	if opts.Workers <= 0 {
		opts.Workers = core.DefaultWorkers()
	}
	return &Matcher{opts: opts, tr: tr}
}

// Report is the outcome of one matcher run.
type Report struct {
	// Pairs are the matched properties, direct matches first.
	Pairs []model.Pair
	// UnmatchedSrc and UnmatchedTrg are the leftover inventories.
	UnmatchedSrc []string
	UnmatchedTrg []string
}

// Run executes the full pipeline: noise filter, direct name match, then the
// statistical entity sweep. Target properties are consumed by at most one
// match; the first source property to cross the threshold wins a target.
func (m *Matcher) Run(ctx context.Context, srcProps, trgProps map[string]struct{}) (*Report, error) {
	src := CleanProps(srcProps)
	trg := CleanProps(trgProps)

	report := &Report{}

	direct := DirectMatches(src, trg)
	for p := range direct {
		delete(trg, p)
	}
	for _, p := range sortedKeys(direct) {
		report.Pairs = append(report.Pairs, model.Pair{Source: p, Target: p})
	}

	residualSrc := map[string]struct{}{}
	for p := range src {
		if _, ok := direct[p]; !ok {
			residualSrc[p] = struct{}{}
		}
	}

	entity, err := m.entityMatches(ctx, sortedKeys(residualSrc), sortedKeys(trg))
	if err != nil {
		return nil, err
	}

	matchedSrc := map[string]struct{}{}
	for p := range direct {
		matchedSrc[p] = struct{}{}
	}
	for _, pair := range entity {
		report.Pairs = append(report.Pairs, pair)
		matchedSrc[pair.Source] = struct{}{}
		delete(trg, pair.Target)
	}

	for _, p := range sortedKeys(src) {
		if _, ok := matchedSrc[p]; !ok {
			report.UnmatchedSrc = append(report.UnmatchedSrc, p)
		}
	}
	report.UnmatchedTrg = sortedKeys(trg)
	return report, nil
}

// entityMatches sweeps every remaining source property against the target
// inventory. Targets are processed in groups: one group's shards are loaded
// and translated once, then all workers sweep their slice of the source
// inventory against it.
func (m *Matcher) entityMatches(ctx context.Context, src, trg []string) ([]model.Pair, error) {
	srcDir := shardDir(m.opts.DataDir, m.opts.SrcLang, m.opts.Suffix)

	var pairs []model.Pair
	matchedSrc := map[string]struct{}{}
	matchedTrg := map[string]struct{}{}

	for _, group := range util.SplitEqual(trg, m.opts.Workers) {
		if len(group) == 0 {
			continue
		}
		loaded, err := m.loadGroup(ctx, group)
		if err != nil {
			return nil, err
		}

		candidates, err := m.sweepGroup(src, srcDir, loaded)
		if err != nil {
			return nil, err
		}

		// workers report in slice order; consumption is resolved here so
		// no source or target is matched twice
		for _, cand := range candidates {
			if _, ok := matchedSrc[cand.Source]; ok {
				continue
			}
			if _, ok := matchedTrg[cand.Target]; ok {
				continue
			}
			matchedSrc[cand.Source] = struct{}{}
			matchedTrg[cand.Target] = struct{}{}
			pairs = append(pairs, cand)
		}
	}
	return pairs, nil
}

// sweepGroup runs the source inventory over one loaded target group with K
// workers, each sweeping a contiguous sub-slice.
func (m *Matcher) sweepGroup(src []string, srcDir string, group *targetGroup) ([]model.Pair, error) {
	splits := util.SplitEqual(src, m.opts.Workers)
	results := make([][]model.Pair, len(splits))

	var bar interface{ Add(int) error }
	if m.opts.Progress {
		bar = core.NewCountBar(int64(len(src)), "match vs "+m.opts.TrgLang)
	}

	var g errgroup.Group
	for i, split := range splits {
		g.Go(func() error {
			for _, srcProp := range split {
				rows, err := ingest.LoadShard(srcDir, srcProp)
				if err != nil {
					// absent or unreadable shard is absence of evidence
					continue
				}
				for _, trgProp := range group.order {
					if agrees(rows, group.rows[trgProp]) {
						results[i] = append(results[i], model.Pair{Source: srcProp, Target: trgProp})
						break
					}
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Pair
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// agrees counts exact (subject, value) coincidences between a source shard
// and a translated target shard, returning early once the threshold is
// crossed.
func agrees(src, trg []model.Row) bool {
	if len(src) == 0 || len(trg) == 0 {
		return false
	}
	need := Threshold * float64(min(len(src), len(trg)))

	index := make(map[model.Row]int, len(src))
	for _, row := range src {
		index[model.Row{Key: row.Key, Value: row.Value}]++
	}

	var matches float64
	for _, row := range trg {
		matches += float64(index[model.Row{Key: row.Key, Value: row.Value}])
		if matches >= need {
			return true
		}
	}
	return false
}

func shardDir(dataDir, lang, suffix string) string {
	return filepath.Join(dataDir, util.OutName(lang, suffix))
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
