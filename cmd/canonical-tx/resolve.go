package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/canonical-tx/internal/metrics"
	"github.com/inodb/canonical-tx/internal/pipeline"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve canonical transcripts and write the export",
		Long: `Load every configured input, run the integrity checks, resolve each
approved gene symbol for every perspective and write the export table.
Nothing is written when an integrity check fails.`,
		Example: `  canonical-tx resolve
  canonical-tx resolve --output canonical_transcripts.txt --db canonical.duckdb
  canonical-tx resolve --config grch38.yaml --workers 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p := pipeline.New(cfg)
			p.SetLogger(logger)
			p.SetReportOutput(cmd.ErrOrStderr())
			if cfg.Output.Metrics != "" {
				p.SetMetrics(metrics.New())
			}
			_, err = p.Run(cmd.Context())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Export file (overrides output.path)")
	flags.String("db", "", "DuckDB file to store results in (overrides output.duckdb)")
	flags.Int("workers", 0, "Resolution workers (default: number of CPUs)")
	flags.String("metrics", "", "Prometheus textfile to write run metrics to (overrides output.metrics)")
	flags.String("cache-dir", "", "Directory for the parsed BioMart cache (overrides inputs.cache_dir)")

	bindFlag(cmd, "output.path", "output")
	bindFlag(cmd, "output.duckdb", "db")
	bindFlag(cmd, "output.metrics", "metrics")
	bindFlag(cmd, "workers", "workers")
	bindFlag(cmd, "inputs.cache_dir", "cache-dir")

	return cmd
}

// bindFlag makes a flag override a config key when set on the command line.
func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}
