package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/termfx/langfx/core"
	"github.com/termfx/langfx/internal/model"
)

// ShardPath returns the shard file for a key inside a shard directory,
// applying the same file-name mapping the writer used.
func ShardPath(shardDir, key string) string {
	return filepath.Join(shardDir, core.ShardFileName(key))
}

// LoadShard reads one shard file, skipping the header row. A missing file
// surfaces as model.ErrNoShard so callers can treat it as absence of
// evidence rather than a failure.
func LoadShard(shardDir, key string) ([]model.Row, error) {
	f, err := os.Open(ShardPath(shardDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrNoShard
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, model.Row{Key: rec[0], Value: rec[1], Format: rec[2]})
	}
	return rows, nil
}
