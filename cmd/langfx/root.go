package main

import (
	"github.com/spf13/cobra"

	"github.com/termfx/langfx/internal/cli"
	"github.com/termfx/langfx/internal/config"
	"github.com/termfx/langfx/internal/model"
)

func newRootCmd() *cobra.Command {
	cfg := config.FromEnv()

	root := &cobra.Command{
		Use:           "langfx",
		Short:         "Cross-lingual infobox property alignment",
		Long:          "langfx ingests per-language infobox dumps, builds a cross-lingual translation table and proposes property-to-property matches between a source and a target language edition.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cfg.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newRunCmd(cfg),
		newIngestCmd(cfg),
		newTranslateCmd(cfg),
		newMatchCmd(cfg),
	)
	return root
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: ingest, translate, match",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.NewRunner(cfg).RunPipeline(cmd.Context())
		},
	}
}

func newIngestCmd(cfg *config.Config) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "ingest [lang]",
		Short: "Shard one language dump and build its inventories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := cfg.SrcLang
			if len(args) > 0 {
				lang = args[0]
			}
			key := model.ByProperty
			if by == string(model.BySubject) {
				key = model.BySubject
			}
			return cli.NewRunner(cfg).RunIngest(cmd.Context(), lang, key)
		},
	}
	cmd.Flags().StringVar(&by, "by", string(model.ByProperty), "Shard key: property or subject.")
	return cmd
}

func newTranslateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "translate",
		Short: "Materialize the cross-lingual translation table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.NewRunner(cfg).RunTranslate(cmd.Context())
		},
	}
}

func newMatchCmd(cfg *config.Config) *cobra.Command {
	var one string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Propose property pairs from existing shards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.NewRunner(cfg).RunMatch(cmd.Context(), one)
		},
	}
	cmd.Flags().StringVar(&one, "one", "", "Match a single target property instead of the full sweep.")
	return cmd
}
