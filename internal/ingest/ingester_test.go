package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/langfx/internal/model"
)

func dumpLine(lang, subject, prop, object string) string {
	return fmt.Sprintf("<http://%s.dbpedia.org/resource/%s> <http://%s.dbpedia.org/property/%s> %s .",
		lang, subject, lang, prop, object)
}

func writeDump(t *testing.T, dir string, lang string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("infobox-properties_lang=%s.ttl", lang))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func testDump(t *testing.T, dir string) string {
	lines := []string{
		dumpLine("en", "Book1", "year", `"1999"^^<http://www.w3.org/2001/XMLSchema#integer>`),
		dumpLine("en", "Book1", "author", "<http://en.dbpedia.org/resource/Alice>"),
		dumpLine("en", "Book2", "year", `"2003"^^<http://www.w3.org/2001/XMLSchema#integer>`),
		dumpLine("en", "Book2", "name", `"Second Book"@en`),
		dumpLine("en", "Book3", "name", `"Third Book"@en`),
		"this line is garbage",
	}
	return writeDump(t, dir, "en", lines)
}

func TestRun_PropertySharded(t *testing.T) {
	dir := t.TempDir()
	dump := testDump(t, dir)

	res, err := Run(Options{DumpPath: dump, DataDir: dir, Workers: 3})
	require.NoError(t, err)

	assert.Equal(t, "en", res.Lang)
	assert.False(t, res.Cached)
	assert.EqualValues(t, 5, res.Lines)
	assert.EqualValues(t, 1, res.Failed)

	wantProps := map[string]struct{}{"year": {}, "author": {}, "name": {}}
	assert.Equal(t, wantProps, res.Properties)
	wantSubjects := map[string]struct{}{"Book1": {}, "Book2": {}, "Book3": {}}
	assert.Equal(t, wantSubjects, res.Subjects)
	assert.Equal(t, map[string]struct{}{"integer": {}, "instance": {}, "string": {}}, res.Types)

	// every inventoried property has a shard starting with the header
	for prop := range res.Properties {
		rows := readCSV(t, ShardPath(filepath.Join(dir, "en"), prop))
		require.NotEmpty(t, rows, "shard for %q", prop)
		assert.Equal(t, []string{"subject", "value", "format"}, rows[0])
		for _, row := range rows[1:] {
			assert.NotEqual(t, "subject", row[0], "header must appear once")
		}
	}

	yearRows, err := LoadShard(filepath.Join(dir, "en"), "year")
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Row{
		{Key: "Book1", Value: "1999", Format: "integer"},
		{Key: "Book2", Value: "2003", Format: "integer"},
	}, yearRows)

	errData, err := os.ReadFile(filepath.Join(dir, "en", "_err.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errData), "this line is garbage")
}

func TestRun_UsesCachedInventories(t *testing.T) {
	dir := t.TempDir()
	dump := testDump(t, dir)

	first, err := Run(Options{DumpPath: dump, DataDir: dir, Workers: 2})
	require.NoError(t, err)

	// wipe the dump: a cached rerun must not need it
	require.NoError(t, os.WriteFile(dump, nil, 0o644))

	second, err := Run(Options{DumpPath: dump, DataDir: dir, Workers: 2})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Properties, second.Properties)
	assert.Equal(t, first.Subjects, second.Subjects)
	assert.Equal(t, first.Types, second.Types)
}

func TestRun_ForceReingests(t *testing.T) {
	dir := t.TempDir()
	dump := testDump(t, dir)

	_, err := Run(Options{DumpPath: dump, DataDir: dir, Workers: 2})
	require.NoError(t, err)

	res, err := Run(Options{DumpPath: dump, DataDir: dir, Workers: 2, Force: true})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.EqualValues(t, 5, res.Lines)
}

func TestRun_SubjectFilter(t *testing.T) {
	dir := t.TempDir()
	dump := testDump(t, dir)

	res, err := Run(Options{
		DumpPath: dump,
		DataDir:  dir,
		Workers:  2,
		Filter:   map[string]struct{}{"Book1": {}},
	})
	require.NoError(t, err)

	// properties reflect everything seen, subjects only the filtered set
	assert.Len(t, res.Properties, 3)
	assert.Equal(t, map[string]struct{}{"Book1": {}}, res.Subjects)

	rows, err := LoadShard(filepath.Join(dir, "en"), "year")
	require.NoError(t, err)
	assert.Equal(t, []model.Row{{Key: "Book1", Value: "1999", Format: "integer"}}, rows)

	// name was only held by filtered-out subjects: inventoried, no rows
	nameRows, err := LoadShard(filepath.Join(dir, "en"), "name")
	if err == nil {
		assert.Empty(t, nameRows)
	} else {
		assert.ErrorIs(t, err, model.ErrNoShard)
	}
}

func TestRun_SubjectSharded(t *testing.T) {
	dir := t.TempDir()
	dump := testDump(t, dir)

	res, err := Run(Options{DumpPath: dump, DataDir: dir, Workers: 2, Key: model.BySubject, Suffix: "bysubj"})
	require.NoError(t, err)
	assert.Len(t, res.Subjects, 3)

	rows := readCSV(t, ShardPath(filepath.Join(dir, "en_bysubj"), "Book1"))
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"property", "value", "format"}, rows[0])
	assert.Len(t, rows, 3)
}

func TestRun_Suffix(t *testing.T) {
	dir := t.TempDir()
	dump := testDump(t, dir)

	_, err := Run(Options{DumpPath: dump, DataDir: dir, Workers: 1, Suffix: "exp1"})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "en_exp1_properties.csv"))
	assert.FileExists(t, filepath.Join(dir, "en_exp1_subjects.csv"))
	assert.FileExists(t, filepath.Join(dir, "en_exp1_types.csv"))
	assert.DirExists(t, filepath.Join(dir, "en_exp1"))
}

func TestRun_RerunEquivalence(t *testing.T) {
	dir := t.TempDir()
	dump := testDump(t, dir)

	_, err := Run(Options{DumpPath: dump, DataDir: dir, Workers: 4})
	require.NoError(t, err)
	first := readCSVSet(t, ShardPath(filepath.Join(dir, "en"), "year"))

	_, err = Run(Options{DumpPath: dump, DataDir: dir, Workers: 1, Force: true})
	require.NoError(t, err)
	second := readCSVSet(t, ShardPath(filepath.Join(dir, "en"), "year"))

	assert.Equal(t, first, second, "shards must be multiset-equivalent across reruns")
}

func TestLoadShard_Missing(t *testing.T) {
	_, err := LoadShard(t.TempDir(), "ghost")
	assert.ErrorIs(t, err, model.ErrNoShard)
}

func TestWriteAndLoadInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en_properties.csv")
	set := map[string]struct{}{"b": {}, "a": {}, "c": {}}

	require.NoError(t, WriteInventory(path, set))
	got, err := LoadInventory(path)
	require.NoError(t, err)
	assert.Equal(t, set, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(data))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func readCSVSet(t *testing.T, path string) map[string]int {
	t.Helper()
	set := map[string]int{}
	for _, row := range readCSV(t, path) {
		set[strings.Join(row, "\x1f")]++
	}
	return set
}
