package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/canonical-tx/internal/tsv"
)

// ExportRecord is one perspective's columns in a previously written export.
type ExportRecord struct {
	TranscriptID string
	Version      string
	Explanation  string
}

// Export is a parsed export file.
type Export struct {
	Perspectives []string // header order
	Symbols      []string // row order
	rows         map[string]map[string]ExportRecord
}

// Get returns a gene's record for one perspective.
func (e *Export) Get(symbol, perspective string) (ExportRecord, bool) {
	recs, ok := e.rows[symbol]
	if !ok {
		return ExportRecord{}, false
	}
	rec, ok := recs[perspective]
	return rec, ok
}

// Has reports whether the export has a row for symbol.
func (e *Export) Has(symbol string) bool {
	_, ok := e.rows[symbol]
	return ok
}

// LoadExport reads an export file written by TabWriter or by earlier
// releases of the pipeline.
func LoadExport(path string) (*Export, error) {
	r, err := tsv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer r.Close()
	return readExport(r)
}

// ParseExport reads an export from rd.
func ParseExport(rd io.Reader) (*Export, error) {
	r, err := tsv.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return readExport(r)
}

func readExport(r *tsv.Reader) (*Export, error) {
	if err := r.Require(ColSymbol); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	e := &Export{rows: make(map[string]map[string]ExportRecord)}
	for _, col := range r.Header() {
		if p, ok := strings.CutSuffix(col, suffixTranscript); ok && p != "" {
			e.Perspectives = append(e.Perspectives, p)
		}
	}
	if len(e.Perspectives) == 0 {
		return nil, fmt.Errorf("export: no *%s columns", suffixTranscript)
	}

	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading export: %w", err)
		}
		sym := row.Get(ColSymbol)
		if sym == "" {
			continue
		}
		if _, dup := e.rows[sym]; !dup {
			e.Symbols = append(e.Symbols, sym)
		}
		recs := make(map[string]ExportRecord, len(e.Perspectives))
		for _, p := range e.Perspectives {
			t, v, x := PerspectiveColumns(p)
			recs[p] = ExportRecord{
				TranscriptID: missing(row.Get(t)),
				Version:      normalizeVersion(missing(row.Get(v))),
				Explanation:  missing(row.Get(x)),
			}
		}
		e.rows[sym] = recs
	}
	return e, nil
}

func missing(v string) string {
	if tsv.IsMissing(v) {
		return ""
	}
	return v
}

// normalizeVersion undoes float formatting of integer versions ("7.0" -> "7")
// found in exports written through a dataframe.
func normalizeVersion(v string) string {
	if s, ok := strings.CutSuffix(v, ".0"); ok {
		return s
	}
	return v
}
