package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/canonical-tx/internal/output"
	"github.com/inodb/canonical-tx/internal/pipeline"
)

func newCompareCmd() *cobra.Command {
	var (
		showAll    bool
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "compare <previous-export>",
		Short: "Compare a fresh resolution with a previously published export",
		Long: `Resolve canonical transcripts with the current inputs and report, per
perspective, every gene whose transcript, version or explanation differs from
the given export. A summary of category counts is printed to stderr.`,
		Example: `  canonical-tx compare ensembl_biomart_canonical_transcripts_per_hgnc.txt
  canonical-tx compare --all -o diff.tsv previous.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			prev, err := output.LoadExport(args[0])
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
			res, err := p.Resolve(cmd.Context(), in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			var perspectives []string
			for _, pc := range cfg.Perspectives {
				perspectives = append(perspectives, pc.Name)
			}
			cw := output.NewCompareWriter(w, perspectives, showAll)
			if err := cw.Compare(prev, res); err != nil {
				return err
			}
			cw.WriteSummary(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "Show unchanged genes too")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
