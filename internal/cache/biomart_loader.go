package cache

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/canonical-tx/internal/tsv"
)

// Columns names the BioMart export columns the loader reads.
type Columns struct {
	GeneID        string `mapstructure:"gene_id" yaml:"gene_id"`
	TranscriptID  string `mapstructure:"transcript_id" yaml:"transcript_id"`
	Symbol        string `mapstructure:"symbol" yaml:"symbol"`
	IsCanonical   string `mapstructure:"is_canonical" yaml:"is_canonical"`
	ProteinLength string `mapstructure:"protein_length" yaml:"protein_length"`
	Version       string `mapstructure:"version" yaml:"version"` // optional
}

// DefaultColumns returns the column names of the pipeline's BioMart query.
func DefaultColumns() Columns {
	return Columns{
		GeneID:        "gene_stable_id",
		TranscriptID:  "transcript_stable_id",
		Symbol:        "hgnc_symbol",
		IsCanonical:   "is_canonical",
		ProteinLength: "protein_length",
		Version:       "transcript_stable_id_version",
	}
}

// martDisplayNames maps BioMart web-export headers to the default column names.
var martDisplayNames = map[string]string{
	"Gene stable ID":               "gene_stable_id",
	"Transcript stable ID":         "transcript_stable_id",
	"Transcript stable ID version": "transcript_stable_id_version",
	"HGNC symbol":                  "hgnc_symbol",
	"Ensembl Canonical":            "is_canonical",
}

// BiomartLoader loads transcript records from an Ensembl BioMart TSV export.
type BiomartLoader struct {
	path string
	cols Columns
}

// NewBiomartLoader creates a loader using DefaultColumns.
func NewBiomartLoader(path string) *BiomartLoader {
	return &BiomartLoader{path: path, cols: DefaultColumns()}
}

// SetColumns overrides the column names. Empty fields keep their default.
func (l *BiomartLoader) SetColumns(cols Columns) {
	def := DefaultColumns()
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	l.cols = Columns{
		GeneID:        pick(cols.GeneID, def.GeneID),
		TranscriptID:  pick(cols.TranscriptID, def.TranscriptID),
		Symbol:        pick(cols.Symbol, def.Symbol),
		IsCanonical:   pick(cols.IsCanonical, def.IsCanonical),
		ProteinLength: pick(cols.ProteinLength, def.ProteinLength),
		Version:       pick(cols.Version, def.Version),
	}
}

// Load reads the export into the cache.
func (l *BiomartLoader) Load(c *Cache) error {
	r, err := tsv.Open(l.path)
	if err != nil {
		return fmt.Errorf("open biomart file: %w", err)
	}
	defer r.Close()
	return l.load(r, c)
}

// LoadFrom reads an export from rd into the cache.
func (l *BiomartLoader) LoadFrom(rd io.Reader, c *Cache) error {
	r, err := tsv.NewReader(rd)
	if err != nil {
		return fmt.Errorf("read biomart file: %w", err)
	}
	return l.load(r, c)
}

func (l *BiomartLoader) load(r *tsv.Reader, c *Cache) error {
	r.Rename(martDisplayNames)
	if err := r.Require(l.cols.GeneID, l.cols.TranscriptID, l.cols.Symbol); err != nil {
		return err
	}

	for {
		row, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read biomart file: %w", err)
		}

		t, err := l.parseRow(row)
		if err != nil {
			return &tsv.ParseError{Path: l.path, Line: row.Line, Message: err.Error()}
		}
		if t == nil {
			continue
		}
		c.AddTranscript(t)
	}
}

// parseRow converts a row to a Transcript. Rows without a transcript ID are skipped.
func (l *BiomartLoader) parseRow(row tsv.Row) (*Transcript, error) {
	rawID := strings.TrimSpace(row.Get(l.cols.TranscriptID))
	if tsv.IsMissing(rawID) {
		return nil, nil
	}
	id, version := SplitVersion(rawID)

	// A dedicated version column holds either "7" or "ENST00000123456.7".
	if v := strings.TrimSpace(row.Get(l.cols.Version)); !tsv.IsMissing(v) {
		if _, suffix := SplitVersion(v); suffix != "" {
			version = suffix
		} else {
			version = v
		}
	}

	symbol := strings.TrimSpace(row.Get(l.cols.Symbol))
	if tsv.IsMissing(symbol) {
		symbol = ""
	}
	geneID := strings.TrimSpace(row.Get(l.cols.GeneID))
	if tsv.IsMissing(geneID) {
		geneID = ""
	}

	t := &Transcript{
		ID:          id,
		Version:     version,
		GeneID:      stripVersion(geneID),
		GeneName:    symbol,
		IsCanonical: parseCanonicalFlag(row.Get(l.cols.IsCanonical)),
	}

	if v := strings.TrimSpace(row.Get(l.cols.ProteinLength)); !tsv.IsMissing(v) {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse protein length %q: %w", v, err)
		}
		t.ProteinLength = int(n)
	}
	return t, nil
}

// parseCanonicalFlag interprets BioMart's boolean-like canonical column.
func parseCanonicalFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return true
	}
	return false
}
