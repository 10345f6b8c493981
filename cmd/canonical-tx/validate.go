package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/canonical-tx/internal/pipeline"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the input integrity checks only",
		Long: `Load every configured input and run the integrity checks without
resolving. New gene symbols that must be triaged are listed on stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p := pipeline.New(cfg)
			p.SetLogger(logger)
			p.SetReportOutput(cmd.ErrOrStderr())

			in, err := p.Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := p.Validate(in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All integrity checks passed (%d genes, %d transcripts)\n",
				in.Symbols.Len(), in.Catalog.TranscriptCount())
			return nil
		},
	}
}
