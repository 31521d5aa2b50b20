package match

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	langfxcore "github.com/termfx/langfx/internal/core"
	"github.com/termfx/langfx/internal/model"
	"github.com/termfx/langfx/internal/util"
)

// ReportName composes the report file name for a language pair.
func ReportName(srcLang, trgLang, suffix string) string {
	return util.OutName(srcLang+"_"+trgLang, suffix) + "_matches.csv"
}

// WriteReport persists a report as the two-column CSV: matched pairs first,
// then the one-sided residuals. The file is rewritten on every run.
func WriteReport(dataDir string, opts Options, report *Report) (string, error) {
	path := filepath.Join(dataDir, ReportName(opts.SrcLang, opts.TrgLang, opts.Suffix))

	f, err := os.Create(path)
	if err != nil {
		return "", langfxcore.Wrap(langfxcore.ErrIO, "creating match report", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"source", "target"}); err != nil {
		return "", langfxcore.Wrap(langfxcore.ErrIO, "writing match report", err)
	}
	for _, pair := range report.Pairs {
		if err := w.Write([]string{pair.Source, pair.Target}); err != nil {
			return "", langfxcore.Wrap(langfxcore.ErrIO, "writing match report", err)
		}
	}
	for _, p := range report.UnmatchedSrc {
		if err := w.Write([]string{p, ""}); err != nil {
			return "", langfxcore.Wrap(langfxcore.ErrIO, "writing match report", err)
		}
	}
	for _, p := range report.UnmatchedTrg {
		if err := w.Write([]string{"", p}); err != nil {
			return "", langfxcore.Wrap(langfxcore.ErrIO, "writing match report", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", langfxcore.Wrap(langfxcore.ErrIO, "flushing match report", err)
	}
	return path, nil
}

// MatchOne sweeps the source inventory against a single target property.
// It returns the winning pair, or nil when nothing crosses the threshold.
func (m *Matcher) MatchOne(ctx context.Context, srcProps map[string]struct{}, trgProp string) (*model.Pair, error) {
	group, err := m.loadGroup(ctx, []string{trgProp})
	if err != nil {
		return nil, err
	}
	if len(group.order) == 0 {
		return nil, nil
	}

	srcDir := shardDir(m.opts.DataDir, m.opts.SrcLang, m.opts.Suffix)
	candidates, err := m.sweepGroup(sortedKeys(CleanProps(srcProps)), srcDir, group)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}
