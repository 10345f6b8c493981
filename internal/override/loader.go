package override

import (
	"fmt"
	"io"
	"strings"

	"github.com/inodb/canonical-tx/internal/tsv"
)

// Columns names the override table columns. Empty fields are auto-detected.
type Columns struct {
	Symbol     string `mapstructure:"symbol" yaml:"symbol"`
	Transcript string `mapstructure:"transcript" yaml:"transcript"`
	Note       string `mapstructure:"note" yaml:"note"`
}

// Column names seen across the curated tables, in detection order.
var (
	symbolColumns     = []string{"gene_name", "hugo_symbol", "gene_symbol", "Hugo Symbol"}
	transcriptColumns = []string{"enst_id", "isoform_override", "transcript_id"}
	noteColumns       = []string{"note", "notes"}
)

// LoadRows reads an isoform override TSV.
func LoadRows(path string, cols Columns) ([]Entry, error) {
	r, err := tsv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open override table: %w", err)
	}
	defer r.Close()

	rows, err := readRows(r, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ParseRows reads an isoform override TSV from rd.
func ParseRows(rd io.Reader, cols Columns) ([]Entry, error) {
	r, err := tsv.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("read override table: %w", err)
	}
	return readRows(r, cols)
}

func detect(r *tsv.Reader, configured string, candidates []string) string {
	if configured != "" {
		return configured
	}
	for _, c := range candidates {
		if r.Has(c) {
			return c
		}
	}
	return ""
}

func readRows(r *tsv.Reader, cols Columns) ([]Entry, error) {
	symbolCol := detect(r, cols.Symbol, symbolColumns)
	transcriptCol := detect(r, cols.Transcript, transcriptColumns)
	noteCol := detect(r, cols.Note, noteColumns)

	if symbolCol == "" {
		return nil, fmt.Errorf("no gene symbol column (tried %s)", strings.Join(symbolColumns, ", "))
	}
	if transcriptCol == "" {
		return nil, fmt.Errorf("no transcript column (tried %s)", strings.Join(transcriptColumns, ", "))
	}
	if err := r.Require(symbolCol, transcriptCol); err != nil {
		return nil, err
	}

	header := r.Header()
	var out []Entry
	for {
		row, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		symbol := strings.TrimSpace(row.Get(symbolCol))
		transcript := strings.TrimSpace(row.Get(transcriptCol))
		if tsv.IsMissing(symbol) || tsv.IsMissing(transcript) {
			continue
		}

		e := Entry{GeneSymbol: symbol, IsoformOverride: transcript}
		if noteCol != "" && !tsv.IsMissing(row.Get(noteCol)) {
			e.Note = strings.TrimSpace(row.Get(noteCol))
		}
		values := row.Fields()
		for i, c := range header {
			if c == symbolCol || c == transcriptCol || c == noteCol || i >= len(values) {
				continue
			}
			if e.Fields == nil {
				e.Fields = make(map[string]string)
			}
			e.Fields[c] = values[i]
		}
		out = append(out, e)
	}
}
