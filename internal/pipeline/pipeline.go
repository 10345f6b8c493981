package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/canonical-tx/internal/config"
	"github.com/inodb/canonical-tx/internal/duckdb"
	"github.com/inodb/canonical-tx/internal/metrics"
	"github.com/inodb/canonical-tx/internal/output"
	"github.com/inodb/canonical-tx/internal/resolve"
	"github.com/inodb/canonical-tx/internal/validate"
)

// Pipeline runs resolution for one configuration.
type Pipeline struct {
	cfg     config.Config
	logger  *zap.Logger
	report  io.Writer
	metrics *metrics.Metrics
}

// New creates a pipeline for cfg.
func New(cfg config.Config) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		logger: zap.NewNop(),
		report: os.Stderr,
	}
}

// SetLogger sets the logger for progress and diagnostics.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// SetReportOutput sets where integrity reports (the new-genes list) are printed.
func (p *Pipeline) SetReportOutput(w io.Writer) {
	p.report = w
}

// SetMetrics enables run metrics. Run writes them to output.metrics when set.
func (p *Pipeline) SetMetrics(m *metrics.Metrics) {
	p.metrics = m
}

// Validate runs the entry gate over loaded inputs.
func (p *Pipeline) Validate(in *Inputs) error {
	var cancer []string
	if in.CancerGenes != nil {
		cancer = in.CancerGenes.Symbols()
	}
	v := validate.New(in.Symbols, in.Catalog, cancer, in.Ignore, validate.Options{
		FailOnAmbiguousSymbols: p.cfg.Validation.FailOnAmbiguousSymbols,
	})
	v.SetLogger(p.logger)
	v.SetOutput(p.report)
	return v.EntryGate()
}

// Resolve resolves every approved symbol in nomenclature order and runs the
// exit gate.
func (p *Pipeline) Resolve(ctx context.Context, in *Inputs) ([]*resolve.Resolution, error) {
	start := time.Now()
	r := resolve.NewResolver(in.Symbols, in.Catalog, in.Registry.Perspectives())
	r.SetLogger(p.logger)

	res, err := r.ResolveAll(ctx, in.Symbols.Symbols(), p.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("resolve genes: %w", err)
	}
	if err := validate.CheckExplanations(res); err != nil {
		return nil, err
	}

	p.logger.Info("resolved genes",
		zap.Int("genes", len(res)),
		zap.Int("workers", p.cfg.Workers),
		zap.Duration("elapsed", time.Since(start)))
	for _, s := range Summarize(res) {
		p.logger.Info("perspective summary",
			zap.String("perspective", s.Perspective),
			zap.Int("override", s.Counts[resolve.ResolvedByOverride]),
			zap.Int("gene_id", s.Counts[resolve.ResolvedByGene]),
			zap.Int("symbol", s.Counts[resolve.ResolvedBySymbol]),
			zap.Int("no_transcript", s.Counts[resolve.NoTranscript]))
	}
	return res, nil
}

// WriteExport writes the export table for res to w.
func (p *Pipeline) WriteExport(w io.Writer, in *Inputs, res []*resolve.Resolution) error {
	perspectives := make([]string, 0, len(p.cfg.Perspectives))
	for _, pc := range p.cfg.Perspectives {
		perspectives = append(perspectives, pc.Name)
	}

	tw := output.NewTabWriter(w, perspectives, output.PassthroughColumns(in.HGNC.Columns))
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range res {
		entry, _ := in.Symbols.Get(r.Symbol)
		if err := tw.Write(r, entry); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Result is the outcome of a full run.
type Result struct {
	Inputs      *Inputs
	Resolutions []*resolve.Resolution
}

// Run loads inputs, runs both integrity gates and resolution, then writes
// the export and, when configured, the DuckDB store. Nothing is written if
// any gate fails. The export is staged next to its final path and only
// renamed into place after the store has been written, so a store failure
// leaves the previous export untouched.
func (p *Pipeline) Run(ctx context.Context) (result *Result, err error) {
	if p.metrics != nil {
		start := time.Now()
		defer func() {
			p.metrics.ObserveError(err)
			p.metrics.ObserveRun(time.Since(start), err == nil)
			if path := p.cfg.Output.Metrics; path != "" {
				if werr := p.metrics.WriteFile(path); werr != nil {
					p.logger.Warn("failed to write metrics", zap.String("path", path), zap.Error(werr))
				}
			}
		}()
	}

	in, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	p.observeInputs(in)
	if err := p.Validate(in); err != nil {
		return nil, err
	}
	res, err := p.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	var staged string
	if path := p.cfg.Output.Path; path != "" {
		staged, err = p.stageExport(path, in, res)
		if err != nil {
			return nil, err
		}
		defer os.Remove(staged)
	}

	if path := p.cfg.Output.DuckDB; path != "" {
		if err := p.writeStore(ctx, path, res); err != nil {
			return nil, err
		}
		p.logger.Info("wrote duckdb store", zap.String("path", path))
	}

	if staged != "" {
		path := p.cfg.Output.Path
		if err := os.Rename(staged, path); err != nil {
			return nil, fmt.Errorf("rename export: %w", err)
		}
		p.logger.Info("wrote export", zap.String("path", path))
	}

	if p.metrics != nil {
		p.metrics.ObserveResolutions(res)
	}
	return &Result{Inputs: in, Resolutions: res}, nil
}

func (p *Pipeline) observeInputs(in *Inputs) {
	if p.metrics == nil {
		return
	}
	p.metrics.SetInputRows("hgnc", in.Symbols.Len())
	p.metrics.SetInputRows("biomart", in.Catalog.TranscriptCount())
	p.metrics.SetInputRows("cancer_genes", len(in.CancerGenes))
	p.metrics.SetInputRows("ignored_genes", len(in.Ignore))
}

// stageExport writes the export to a unique temporary file in the
// destination directory and returns its path. The caller renames it.
func (p *Pipeline) stageExport(path string, in *Inputs, res []*resolve.Resolution) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	tmpPath := f.Name()
	if err := p.WriteExport(f, in, res); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod export: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close export: %w", err)
	}
	return tmpPath, nil
}

func (p *Pipeline) writeStore(ctx context.Context, path string, res []*resolve.Resolution) error {
	s, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ClearResolutions(); err != nil {
		return fmt.Errorf("clear resolutions: %w", err)
	}
	if err := s.WriteResolutions(ctx, res); err != nil {
		return fmt.Errorf("write resolutions: %w", err)
	}
	return nil
}
