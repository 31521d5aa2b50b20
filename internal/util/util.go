package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LangCode extracts the two-letter language code from a dump file name. Dump
// names carry a `lang=XX` segment, e.g. `infobox-properties_lang=de.ttl`.
// Returns "" when the segment is missing.
func LangCode(fname string) string {
	idx := strings.Index(fname, "lang=")
	if idx < 0 || idx+7 > len(fname) {
		return ""
	}
	return fname[idx+5 : idx+7]
}

// Underscore normalizes an entity title the way the dumps spell it: spaces
// become underscores.
func Underscore(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}

// OutName composes an output base name from a language code and an optional
// suffix, e.g. ("de", "films") -> "de_films".
func OutName(lang, suffix string) string {
	if suffix == "" {
		return lang
	}
	return lang + "_" + suffix
}

// ExpandGlobs expands a list of file paths, including doublestar glob
// patterns, against the filesystem.
func ExpandGlobs(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[{") {
			out = append(out, p)
			continue
		}
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(p))
		matches, err := doublestar.Glob(os.DirFS(base), pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			out = append(out, filepath.Join(base, m))
		}
	}
	return out
}

// SplitEqual partitions a slice into n runs whose lengths differ by at most
// one, preserving order. Runs may be empty when len(items) < n.
func SplitEqual[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	c := len(items) / n
	r := len(items) % n
	out := make([][]T, 0, n)
	for i := 0; i < n; i++ {
		lo := i*c + min(i, r)
		hi := (i+1)*c + min(i+1, r)
		out = append(out, items[lo:hi])
	}
	return out
}
