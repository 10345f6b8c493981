// Package pipeline runs a full canonical transcript resolution: load inputs,
// check integrity, resolve every gene and write the export.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/canonical-tx/internal/cache"
	"github.com/inodb/canonical-tx/internal/config"
	"github.com/inodb/canonical-tx/internal/datasource/oncokb"
	"github.com/inodb/canonical-tx/internal/duckdb"
	"github.com/inodb/canonical-tx/internal/hgnc"
	"github.com/inodb/canonical-tx/internal/override"
	"github.com/inodb/canonical-tx/internal/validate"
)

// Inputs holds every loaded reference table. All fields are read-only once
// Load returns.
type Inputs struct {
	HGNC        *hgnc.Table
	Symbols     *hgnc.Index
	Catalog     *cache.Cache
	Registry    *override.Registry
	CancerGenes oncokb.CancerGeneList
	Ignore      validate.IgnoreList
}

// Load reads all configured inputs concurrently. Override tables are keyed
// by approved symbol once the nomenclature is available.
func (p *Pipeline) Load(ctx context.Context) (*Inputs, error) {
	start := time.Now()
	in := &Inputs{}
	tables := p.cfg.UsedTables()
	rows := make([][]override.Entry, len(tables))
	tableConfigs := make([]config.TableConfig, len(tables))
	for i, name := range tables {
		tc, ok := p.cfg.Table(name)
		if !ok {
			return nil, fmt.Errorf("override table %q is not configured", name)
		}
		tableConfigs[i] = tc
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := hgnc.Load(p.cfg.Inputs.HGNC)
		if err != nil {
			return err
		}
		in.HGNC = t
		in.Symbols = hgnc.NewIndex(t.Entries)
		p.logger.Info("loaded nomenclature",
			zap.String("path", p.cfg.Inputs.HGNC),
			zap.Int("genes", in.Symbols.Len()))
		return nil
	})

	g.Go(func() error {
		c, err := p.loadCatalog(ctx)
		if err != nil {
			return err
		}
		in.Catalog = c
		return nil
	})

	if p.cfg.Inputs.CancerGenes != "" {
		g.Go(func() error {
			cgl, err := oncokb.LoadCancerGeneList(p.cfg.Inputs.CancerGenes)
			if err != nil {
				return err
			}
			in.CancerGenes = cgl
			p.logger.Info("loaded cancer gene list", zap.Int("genes", len(cgl)))
			return nil
		})
	}

	if p.cfg.Inputs.IgnoredGenes != "" {
		g.Go(func() error {
			l, err := validate.LoadIgnoreList(p.cfg.Inputs.IgnoredGenes)
			if err != nil {
				return err
			}
			in.Ignore = l
			return nil
		})
	}

	for i, tc := range tableConfigs {
		name := tc.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := override.LoadRows(tc.Path, tc.Columns)
			if err != nil {
				return fmt.Errorf("load override table %s: %w", name, err)
			}
			rows[i] = r
			p.logger.Info("loaded override table",
				zap.String("table", name),
				zap.String("path", tc.Path),
				zap.Int("rows", len(r)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	in.Registry = override.NewRegistry()
	for i, name := range tables {
		if err := in.Registry.AddTable(override.NewTable(name, rows[i], in.Symbols)); err != nil {
			return nil, err
		}
	}
	for _, pc := range p.cfg.Perspectives {
		links := make([]override.LinkSpec, len(pc.Chain))
		for i, l := range pc.Chain {
			links[i] = override.LinkSpec{Table: l.Table, Label: l.Label}
		}
		if err := in.Registry.AddPerspective(pc.Name, links); err != nil {
			return nil, err
		}
	}

	in.Symbols.LogAmbiguities(p.logger)
	p.logger.Info("inputs loaded", zap.Duration("elapsed", time.Since(start)))
	return in, nil
}

// loadCatalog parses the BioMart table, going through the gob cache when a
// cache directory is configured.
func (p *Pipeline) loadCatalog(ctx context.Context) (*cache.Cache, error) {
	path := p.cfg.Inputs.Biomart
	cols := p.cfg.Columns

	var tc *duckdb.TranscriptCache
	var fp duckdb.FileFingerprint
	if p.cfg.Inputs.CacheDir != "" {
		var err error
		fp, err = duckdb.StatFile(path)
		if err != nil {
			return nil, fmt.Errorf("stat biomart table: %w", err)
		}
		tc = duckdb.NewTranscriptCache(p.cfg.Inputs.CacheDir)
		if tc.Valid(fp, cols) {
			c := cache.New()
			err := tc.Load(c)
			if err == nil {
				p.logger.Info("loaded transcript catalog from cache",
					zap.String("dir", p.cfg.Inputs.CacheDir),
					zap.Int("transcripts", c.TranscriptCount()))
				return c, nil
			}
			p.logger.Warn("transcript cache unreadable, reparsing", zap.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := cache.New()
	loader := cache.NewBiomartLoader(path)
	loader.SetColumns(cols)
	if err := loader.Load(c); err != nil {
		return nil, fmt.Errorf("load biomart table: %w", err)
	}
	p.logger.Info("loaded transcript catalog",
		zap.String("path", path),
		zap.Int("transcripts", c.TranscriptCount()),
		zap.Int("genes", len(c.GeneIDs())))

	if tc != nil {
		if err := tc.Write(c, fp, cols); err != nil {
			p.logger.Warn("could not write transcript cache", zap.Error(err))
		}
	}
	return c, nil
}
