// Package config holds the effective pipeline configuration: flag values
// overlaid on LANGFX_* environment defaults. Nothing in here is global;
// every stage receives the struct it needs explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/pflag"

	langfxcore "github.com/termfx/langfx/internal/core"
	"github.com/termfx/langfx/internal/util"
)

// Config is the full configuration of one invocation.
type Config struct {
	// SrcLang and TrgLang are two-letter language-edition codes.
	SrcLang string
	TrgLang string
	// Version is the dump version segment used to locate dump files.
	Version string
	// DataDir holds dumps, inventories, shards and reports.
	DataDir string
	// OutSuffix is appended to every produced file name.
	OutSuffix string
	// SrcCategory and TrgCategory optionally restrict the subject set.
	SrcCategory string
	TrgCategory string
	// SrcDump and TrgDump override dump-file discovery with explicit paths.
	SrcDump string
	TrgDump string
	// ForceNew ignores cached inventories and re-ingests.
	ForceNew bool
	// Workers sizes every worker pool; 0 means one per CPU.
	Workers int
	// Verbose enables progress meters and the report diff.
	Verbose bool
	// JournalDSN is the run-journal database; empty disables journaling.
	JournalDSN string
}

// FromEnv returns a config seeded from the environment.
func FromEnv() *Config {
	cfg := &Config{
		SrcLang:    "en",
		DataDir:    envOr("LANGFX_DATA_DIR", "data"),
		JournalDSN: envOr("LANGFX_JOURNAL", filepath.Join(".langfx", "journal.db")),
	}
	if w := os.Getenv("LANGFX_WORKERS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RegisterFlags binds the configuration to a flag set. Flag defaults are
// the current (environment-seeded) values.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.SrcLang, "src_lang", c.SrcLang, "Two-letter source language code.")
	fs.StringVar(&c.TrgLang, "trg_lang", c.TrgLang, "Two-letter target language code. (Required)")
	fs.StringVar(&c.Version, "version", c.Version, "Dump version segment, e.g. 2022.03.01.")
	fs.StringVar(&c.DataDir, "data_dir", c.DataDir, "Directory holding dumps and produced artifacts.")
	fs.StringVar(&c.OutSuffix, "out_suffix", c.OutSuffix, "Suffix appended to all produced file names.")
	fs.StringVar(&c.SrcCategory, "src_cat", c.SrcCategory, "Category restricting the source subject set.")
	fs.StringVar(&c.TrgCategory, "trg_cat", c.TrgCategory, "Category restricting the target subject set.")
	fs.StringVar(&c.SrcDump, "src_dump", c.SrcDump, "Explicit source dump file (skips discovery).")
	fs.StringVar(&c.TrgDump, "trg_dump", c.TrgDump, "Explicit target dump file (skips discovery).")
	fs.BoolVar(&c.ForceNew, "force_new", c.ForceNew, "Ignore cached inventories and re-ingest.")
	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "Concurrent workers, 0 means all available CPUs.")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Enable progress meters and report diffs.")
	fs.StringVar(&c.JournalDSN, "journal", c.JournalDSN, "Run-journal DSN (SQLite path or libsql URL); empty disables.")
}

// Validate surfaces configuration errors before any work starts.
func (c *Config) Validate() error {
	if c.TrgLang == "" {
		return langfxcore.CLIError{Code: langfxcore.ErrConfig, Message: "target language is required", Detail: "set --trg_lang"}
	}
	for _, lang := range []string{c.SrcLang, c.TrgLang} {
		if len(lang) != 2 {
			return langfxcore.CLIError{
				Code:    langfxcore.ErrConfig,
				Message: fmt.Sprintf("language code %q is not a two-letter code", lang),
			}
		}
	}
	if c.SrcLang == c.TrgLang {
		return langfxcore.CLIError{Code: langfxcore.ErrConfig, Message: "source and target language must differ"}
	}
	if c.Workers < 0 {
		return langfxcore.CLIError{Code: langfxcore.ErrConfig, Message: "workers must be >= 0"}
	}
	return nil
}

// Dump resolves the dump file for a language: the explicit override when
// set, otherwise discovery in DataDir by the lang=XX segment (and the
// version segment when configured).
func (c *Config) Dump(lang string) (string, error) {
	switch {
	case lang == c.SrcLang && c.SrcDump != "":
		return c.SrcDump, nil
	case lang == c.TrgLang && c.TrgDump != "":
		return c.TrgDump, nil
	}

	pattern := filepath.Join(c.DataDir, "*lang="+lang+"*.ttl")
	if c.Version != "" {
		pattern = filepath.Join(c.DataDir, "*"+c.Version+"*lang="+lang+"*.ttl")
	}
	matches := util.ExpandGlobs([]string{pattern})
	if len(matches) == 0 {
		return "", langfxcore.CLIError{
			Code:    langfxcore.ErrConfig,
			Message: fmt.Sprintf("no dump for language %q in %s", lang, c.DataDir),
			Detail:  "expected a file matching " + pattern,
		}
	}
	return matches[0], nil
}
