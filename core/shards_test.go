package core

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readShard(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestPartialShards_MergeSingleWorker(t *testing.T) {
	root := t.TempDir()

	ps, err := NewPartialShards(root, 1)
	require.NoError(t, err)
	require.NoError(t, ps.Append("name", []string{"Foo", "Bar", "string"}))
	require.NoError(t, ps.Append("name", []string{"Baz", "Qux", "string"}))
	require.NoError(t, ps.Append("year", []string{"Foo", "1999", "integer"}))
	require.NoError(t, ps.Close())

	header := []string{"subject", "value", "format"}
	require.NoError(t, MergeShards(root, header))

	rows := readShard(t, filepath.Join(root, "name.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"Foo", "Bar", "string"}, rows[1])
	assert.Equal(t, []string{"Baz", "Qux", "string"}, rows[2])

	rows = readShard(t, filepath.Join(root, "year.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, header, rows[0])

	_, err = os.Stat(filepath.Join(root, ".partial"))
	assert.True(t, os.IsNotExist(err), "partial tree must be removed after merge")
}

func TestPartialShards_MergeManyWorkers(t *testing.T) {
	root := t.TempDir()
	header := []string{"subject", "value", "format"}

	for w := 1; w <= 4; w++ {
		ps, err := NewPartialShards(root, w)
		require.NoError(t, err)
		for i := 0; i < 300; i++ { // crosses the flush threshold
			require.NoError(t, ps.Append("pop", []string{"S", "V", "string"}))
		}
		require.NoError(t, ps.Close())
	}

	require.NoError(t, MergeShards(root, header))

	rows := readShard(t, filepath.Join(root, "pop.csv"))
	assert.Len(t, rows, 4*300+1)
	assert.Equal(t, header, rows[0])
	for _, row := range rows[1:] {
		assert.Equal(t, []string{"S", "V", "string"}, row)
	}
}

func TestShardFileName_Sanitizes(t *testing.T) {
	assert.Equal(t, "name.csv", ShardFileName("name"))
	assert.Equal(t, "a_b.csv", ShardFileName("a/b"))
	assert.Equal(t, "a_b.csv", ShardFileName(`a\b`))
}

func TestMergeShards_NoPartials(t *testing.T) {
	assert.NoError(t, MergeShards(t.TempDir(), []string{"subject", "value", "format"}))
}

func TestErrorLog(t *testing.T) {
	dir := t.TempDir()
	log, err := OpenErrorLog(dir)
	require.NoError(t, err)

	log.Record("bad line\n", assert.AnError)
	require.NoError(t, log.Close())

	data, err := os.ReadFile(filepath.Join(dir, ErrLogName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "bad line || Error:")
}
