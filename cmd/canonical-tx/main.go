// Package main provides the canonical-tx command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/canonical-tx/internal/config"
	"github.com/inodb/canonical-tx/internal/validate"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool

	logger = zap.NewNop()
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		var usage usageError
		if errors.As(err, &usage) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canonical-tx",
		Short: "Resolve one canonical transcript per gene",
		Long: `canonical-tx reconciles Ensembl BioMart transcripts, the HGNC gene
nomenclature and curated isoform override tables into one canonical
transcript per approved gene symbol and consumer perspective.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l

			if err := config.Init(viper.GetViper(), cfgFile); err != nil {
				return usageError{err}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/"+config.FileName+")")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newCompareCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "canonical-tx version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// usageError marks errors caused by bad invocation or configuration.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// loadConfig decodes the active viper settings.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, usageError{err}
	}
	return cfg, nil
}

// printError writes err to w. Integrity failures are listed in full, one
// offender per line.
func printError(w io.Writer, err error) {
	var integrity []*validate.IntegrityError
	collectIntegrity(err, &integrity)
	if len(integrity) == 0 {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	for _, ie := range integrity {
		fmt.Fprintf(w, "Error: integrity check %s failed (%d):\n", ie.Check, len(ie.Offenders))
		for _, o := range ie.Offenders {
			fmt.Fprintf(w, "  %s\n", o)
		}
	}
}

func collectIntegrity(err error, out *[]*validate.IntegrityError) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collectIntegrity(e, out)
		}
		return
	}
	var ie *validate.IntegrityError
	if errors.As(err, &ie) {
		*out = append(*out, ie)
	}
}
