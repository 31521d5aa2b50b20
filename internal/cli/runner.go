// Package cli wires the pipeline stages together: ingest both language
// sides, fetch category filters, materialize the translation table, run the
// matcher and persist the report, journaling the run along the way.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/termfx/langfx/db"
	"github.com/termfx/langfx/internal/config"
	langfxcore "github.com/termfx/langfx/internal/core"
	"github.com/termfx/langfx/internal/ingest"
	"github.com/termfx/langfx/internal/match"
	"github.com/termfx/langfx/internal/model"
	"github.com/termfx/langfx/internal/translate"
	"github.com/termfx/langfx/internal/util"
	"github.com/termfx/langfx/internal/wiki"
	"github.com/termfx/langfx/models"
)

// Runner executes pipeline stages against one configuration.
type Runner struct {
	cfg    *config.Config
	client *wiki.Client
	stdout io.Writer
	stderr io.Writer
}

// NewRunner creates a runner with the production wiki client.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		cfg:    cfg,
		client: wiki.NewClient(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce langfxcore.CLIError
	if errors.As(err, &ce) && ce.Code == langfxcore.ErrConfig {
		return 2
	}
	return 1
}

// RunPipeline executes the whole alignment: ingest, translate, match.
func (r *Runner) RunPipeline(ctx context.Context) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}

	journal := r.openJournal()
	run := r.startRun(journal)

	err := r.pipeline(ctx, journal, run)
	r.finishRun(journal, run, err)
	return err
}

func (r *Runner) pipeline(ctx context.Context, journal *gorm.DB, run *models.Run) error {
	srcRes, err := r.ingestSide(ctx, r.cfg.SrcLang, r.cfg.SrcCategory)
	if err != nil {
		return err
	}
	trgRes, err := r.ingestSide(ctx, r.cfg.TrgLang, r.cfg.TrgCategory)
	if err != nil {
		return err
	}

	if run != nil {
		run.SrcProperties = len(srcRes.Properties)
		run.TrgProperties = len(trgRes.Properties)
		run.SrcSubjects = len(srcRes.Subjects)
		run.TrgSubjects = len(trgRes.Subjects)
	}

	_, err = translate.Build(ctx, r.client, translate.Options{
		DataDir: r.cfg.DataDir,
		Suffix:  r.cfg.OutSuffix,
		Langs:   []string{r.cfg.SrcLang, r.cfg.TrgLang},
		Subjects: map[string]map[string]struct{}{
			r.cfg.SrcLang: srcRes.Subjects,
			r.cfg.TrgLang: trgRes.Subjects,
		},
		Workers:  r.cfg.Workers,
		Progress: r.cfg.Verbose,
	})
	if err != nil {
		return err
	}

	report, err := r.match(ctx, srcRes.Properties, trgRes.Properties)
	if err != nil {
		return err
	}

	r.journalMatches(journal, run, report)
	return nil
}

func (r *Runner) ingestSide(ctx context.Context, lang, category string) (*ingest.Result, error) {
	dump, err := r.cfg.Dump(lang)
	if err != nil {
		return nil, err
	}

	var filter map[string]struct{}
	if category != "" {
		filter, err = r.client.CategoryMembers(ctx, category, lang)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(r.stderr, "category %s: %d members\n", category, len(filter))
	}

	res, err := ingest.Run(ingest.Options{
		DumpPath: dump,
		DataDir:  r.cfg.DataDir,
		Lang:     lang,
		Suffix:   r.cfg.OutSuffix,
		Filter:   filter,
		Workers:  r.cfg.Workers,
		Force:    r.cfg.ForceNew,
		Progress: r.cfg.Verbose,
	})
	if err != nil {
		return nil, err
	}
	if res.Cached {
		fmt.Fprintf(r.stderr, "%s: reusing cached inventories (%d properties)\n",
			util.OutName(lang, r.cfg.OutSuffix), len(res.Properties))
	}
	return res, nil
}

// match runs the matcher and writes the report, printing a diff against the
// previous report in verbose mode.
func (r *Runner) match(ctx context.Context, srcProps, trgProps map[string]struct{}) (*match.Report, error) {
	opts := match.Options{
		DataDir:  r.cfg.DataDir,
		SrcLang:  r.cfg.SrcLang,
		TrgLang:  r.cfg.TrgLang,
		Suffix:   r.cfg.OutSuffix,
		Workers:  r.cfg.Workers,
		Progress: r.cfg.Verbose,
	}

	report, err := match.New(r.client, opts).Run(ctx, srcProps, trgProps)
	if err != nil {
		return nil, err
	}

	reportName := match.ReportName(opts.SrcLang, opts.TrgLang, opts.Suffix)
	previous, _ := os.ReadFile(filepath.Join(r.cfg.DataDir, reportName))

	path, err := match.WriteReport(r.cfg.DataDir, opts, report)
	if err != nil {
		return nil, err
	}

	matched := 0
	for _, p := range report.Pairs {
		if p.Matched() {
			matched++
		}
	}
	fmt.Fprintf(r.stdout, "%d matched pairs, %d source and %d target properties unmatched -> %s\n",
		matched, len(report.UnmatchedSrc), len(report.UnmatchedTrg), path)

	if r.cfg.Verbose && len(previous) > 0 {
		current, err := os.ReadFile(path)
		if err == nil {
			if diff := util.UnifiedDiff(string(previous), string(current), reportName, 3); diff != "" {
				fmt.Fprint(r.stdout, diff)
			}
		}
	}
	return report, nil
}

// RunIngest ingests a single language side, optionally subject-sharded.
func (r *Runner) RunIngest(ctx context.Context, lang string, key model.ShardKey) error {
	if lang == "" {
		return langfxcore.CLIError{Code: langfxcore.ErrConfig, Message: "language is required", Detail: "pass a language argument"}
	}
	dump, err := r.cfg.Dump(lang)
	if err != nil {
		return err
	}

	category := ""
	switch lang {
	case r.cfg.SrcLang:
		category = r.cfg.SrcCategory
	case r.cfg.TrgLang:
		category = r.cfg.TrgCategory
	}

	var filter map[string]struct{}
	if category != "" {
		filter, err = r.client.CategoryMembers(ctx, category, lang)
		if err != nil {
			return err
		}
	}

	res, err := ingest.Run(ingest.Options{
		DumpPath: dump,
		DataDir:  r.cfg.DataDir,
		Lang:     lang,
		Suffix:   r.cfg.OutSuffix,
		Key:      key,
		Filter:   filter,
		Workers:  r.cfg.Workers,
		Force:    r.cfg.ForceNew,
		Progress: r.cfg.Verbose,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.stdout, "%s: %d properties, %d subjects, %d value formats (%d lines, %d failed)\n",
		util.OutName(lang, r.cfg.OutSuffix), len(res.Properties), len(res.Subjects), len(res.Types), res.Lines, res.Failed)
	return nil
}

// RunTranslate materializes the translation table from persisted subject
// inventories.
func (r *Runner) RunTranslate(ctx context.Context) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}

	subjects := map[string]map[string]struct{}{}
	for _, lang := range []string{r.cfg.SrcLang, r.cfg.TrgLang} {
		inv, err := r.loadSubjects(lang)
		if err != nil {
			return err
		}
		subjects[lang] = inv
	}

	table, err := translate.Build(ctx, r.client, translate.Options{
		DataDir:  r.cfg.DataDir,
		Suffix:   r.cfg.OutSuffix,
		Langs:    []string{r.cfg.SrcLang, r.cfg.TrgLang},
		Subjects: subjects,
		Workers:  r.cfg.Workers,
		Progress: r.cfg.Verbose,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.stdout, "translation table: %d entities across %v\n", len(table.Rows), table.Langs)
	return nil
}

// RunMatch matches from persisted property inventories.
func (r *Runner) RunMatch(ctx context.Context, one string) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}

	srcProps, err := r.loadProperties(r.cfg.SrcLang)
	if err != nil {
		return err
	}
	trgProps, err := r.loadProperties(r.cfg.TrgLang)
	if err != nil {
		return err
	}

	if one != "" {
		matcher := match.New(r.client, match.Options{
			DataDir: r.cfg.DataDir,
			SrcLang: r.cfg.SrcLang,
			TrgLang: r.cfg.TrgLang,
			Suffix:  r.cfg.OutSuffix,
			Workers: r.cfg.Workers,
		})
		pair, err := matcher.MatchOne(ctx, srcProps, one)
		if err != nil {
			return err
		}
		if pair == nil {
			fmt.Fprintf(r.stdout, "no source property matches %q\n", one)
			return nil
		}
		fmt.Fprintf(r.stdout, "%s -> %s\n", pair.Source, pair.Target)
		return nil
	}

	journal := r.openJournal()
	run := r.startRun(journal)

	report, err := r.match(ctx, srcProps, trgProps)
	if err == nil {
		if run != nil {
			run.SrcProperties = len(srcProps)
			run.TrgProperties = len(trgProps)
		}
		r.journalMatches(journal, run, report)
	}
	r.finishRun(journal, run, err)
	return err
}

func (r *Runner) loadProperties(lang string) (map[string]struct{}, error) {
	path := filepath.Join(r.cfg.DataDir, util.OutName(lang, r.cfg.OutSuffix)+"_properties.csv")
	set, err := ingest.LoadInventory(path)
	if err != nil {
		return nil, langfxcore.CLIError{
			Code:    langfxcore.ErrConfig,
			Message: fmt.Sprintf("no property inventory for %q", lang),
			Detail:  "run ingest first: " + err.Error(),
		}
	}
	return set, nil
}

func (r *Runner) loadSubjects(lang string) (map[string]struct{}, error) {
	path := filepath.Join(r.cfg.DataDir, util.OutName(lang, r.cfg.OutSuffix)+"_subjects.csv")
	set, err := ingest.LoadInventory(path)
	if err != nil {
		return nil, langfxcore.CLIError{
			Code:    langfxcore.ErrConfig,
			Message: fmt.Sprintf("no subject inventory for %q", lang),
			Detail:  "run ingest first: " + err.Error(),
		}
	}
	return set, nil
}

// --- journaling -------------------------------------------------------------

// openJournal connects to the run journal. Journal trouble is reported and
// swallowed: the pipeline result does not depend on it.
func (r *Runner) openJournal() *gorm.DB {
	if r.cfg.JournalDSN == "" {
		return nil
	}
	journal, err := db.Connect(r.cfg.JournalDSN, false)
	if err != nil {
		fmt.Fprintf(r.stderr, "warning: run journal unavailable: %v\n", err)
		return nil
	}
	return journal
}

func (r *Runner) startRun(journal *gorm.DB) *models.Run {
	if journal == nil {
		return nil
	}
	params, _ := json.Marshal(r.cfg)
	run := &models.Run{
		SrcLang: r.cfg.SrcLang,
		TrgLang: r.cfg.TrgLang,
		Suffix:  r.cfg.OutSuffix,
		Params:  params,
		Status:  models.RunRunning,
	}
	if err := journal.Create(run).Error; err != nil {
		fmt.Fprintf(r.stderr, "warning: journaling run failed: %v\n", err)
		return nil
	}
	return run
}

func (r *Runner) journalMatches(journal *gorm.DB, run *models.Run, report *match.Report) {
	if journal == nil || run == nil {
		return
	}
	var records []models.Match
	for _, pair := range report.Pairs {
		kind := models.MatchEntity
		if pair.Source == pair.Target {
			kind = models.MatchDirect
		}
		records = append(records, models.Match{
			RunID:  run.ID,
			Source: pair.Source,
			Target: pair.Target,
			Kind:   kind,
		})
		if kind == models.MatchDirect {
			run.DirectCount++
		} else {
			run.EntityCount++
		}
	}
	if len(records) > 0 {
		if err := journal.Create(&records).Error; err != nil {
			fmt.Fprintf(r.stderr, "warning: journaling matches failed: %v\n", err)
		}
	}
}

func (r *Runner) finishRun(journal *gorm.DB, run *models.Run, err error) {
	if journal == nil || run == nil {
		return
	}
	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunFinished
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
	}
	if saveErr := journal.Save(run).Error; saveErr != nil {
		fmt.Fprintf(r.stderr, "warning: journaling run failed: %v\n", saveErr)
	}
}
