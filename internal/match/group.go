package match

import (
	"context"

	"github.com/termfx/langfx/internal/ingest"
	"github.com/termfx/langfx/internal/model"
	"github.com/termfx/langfx/internal/translate"
)

// targetGroup is one slice of the target inventory with its shards loaded
// and translated into source-language space.
type targetGroup struct {
	order []string
	rows  map[string][]model.Row
}

// loadGroup reads the group's shards and translates subjects (always) and
// instance values (only those) to the source language. Untranslatable
// fields keep their original spelling. Properties whose shard is missing or
// unreadable contribute no evidence and are left out of the group.
func (m *Matcher) loadGroup(ctx context.Context, group []string) (*targetGroup, error) {
	trgDir := shardDir(m.opts.DataDir, m.opts.TrgLang, m.opts.Suffix)

	out := &targetGroup{rows: map[string][]model.Row{}}
	for _, prop := range group {
		rows, err := ingest.LoadShard(trgDir, prop)
		if err != nil {
			continue
		}

		translated, err := m.toSourceSpace(ctx, rows)
		if err != nil {
			return nil, err
		}
		out.order = append(out.order, prop)
		out.rows[prop] = translated
	}
	return out, nil
}

// toSourceSpace rewrites a target-language shard into source-language
// names, batch by batch.
func (m *Matcher) toSourceSpace(ctx context.Context, rows []model.Row) ([]model.Row, error) {
	out := make([]model.Row, len(rows))
	copy(out, rows)

	for lo := 0; lo < len(out); lo += translate.BatchSize {
		hi := lo + translate.BatchSize
		if hi > len(out) {
			hi = len(out)
		}
		if err := m.translateSlice(ctx, out[lo:hi]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *Matcher) translateSlice(ctx context.Context, rows []model.Row) error {
	subjects := make([]string, len(rows))
	for i, row := range rows {
		subjects[i] = row.Key
	}
	resolved, err := m.tr.Langlinks(ctx, subjects, m.opts.TrgLang, []string{m.opts.SrcLang})
	if err != nil {
		return err
	}
	for i := range rows {
		if title, ok := resolved[i][m.opts.SrcLang]; ok && title != "" {
			rows[i].Key = title
		}
	}

	var (
		values []string
		where  []int
	)
	for i, row := range rows {
		if row.Format == model.FormatInstance {
			values = append(values, row.Value)
			where = append(where, i)
		}
	}
	if len(values) == 0 {
		return nil
	}
	resolved, err = m.tr.Langlinks(ctx, values, m.opts.TrgLang, []string{m.opts.SrcLang})
	if err != nil {
		return err
	}
	for j, i := range where {
		if title, ok := resolved[j][m.opts.SrcLang]; ok && title != "" {
			rows[i].Value = title
		}
	}
	return nil
}
