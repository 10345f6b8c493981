package hgnc

import (
	"fmt"
	"io"
	"strings"

	"github.com/inodb/canonical-tx/internal/tsv"
)

// legacyColumns maps current HGNC download column names to the names used by
// the canonical transcript export. Consumers break if these change.
var legacyColumns = map[string]string{
	"name":             ColApprovedName,
	"symbol":           ColApprovedSymbol,
	"prev_symbol":      ColPreviousSymbols,
	"alias_symbol":     ColSynonyms,
	"location":         "chromosome",
	"entrez_id":        ColEntrezGeneID,
	"ena":              "accession_numbers",
	"refseq_accession": "refseq_ids",
	"uniprot_ids":      "uniprot_id",
	"ensembl_id":       ColEnsemblGeneID,
}

// Table is the parsed nomenclature table.
type Table struct {
	Columns []string // column names after renaming, file order
	Entries []*Entry // non-withdrawn rows, file order
}

// Load reads an HGNC complete set file (plain or gzipped).
func Load(path string) (*Table, error) {
	r, err := tsv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hgnc table: %w", err)
	}
	defer r.Close()
	return parse(r)
}

// Parse reads an HGNC complete set from r.
func Parse(rd io.Reader) (*Table, error) {
	r, err := tsv.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("read hgnc table: %w", err)
	}
	return parse(r)
}

func parse(r *tsv.Reader) (*Table, error) {
	r.Rename(legacyColumns)
	if err := r.Require(ColApprovedSymbol); err != nil {
		return nil, err
	}

	cols := append([]string(nil), r.Header()...)
	t := &Table{Columns: cols}

	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read hgnc table: %w", err)
		}

		symbol := strings.TrimSpace(row.Get(ColApprovedSymbol))
		if symbol == "" {
			return nil, &tsv.ParseError{Line: row.Line, Message: "empty approved symbol"}
		}
		if row.Get(ColApprovedName) == withdrawnName {
			continue
		}

		fields := make(map[string]string, len(cols))
		values := row.Fields()
		for i, c := range cols {
			if i < len(values) {
				fields[c] = unquote(values[i])
			}
		}

		t.Entries = append(t.Entries, &Entry{
			Symbol:          symbol,
			HGNCID:          row.Get(ColHGNCID),
			EntrezGeneID:    row.Get(ColEntrezGeneID),
			EnsemblGeneID:   strings.TrimSpace(row.Get(ColEnsemblGeneID)),
			PreviousSymbols: splitList(row.Get(ColPreviousSymbols)),
			Synonyms:        splitList(row.Get(ColSynonyms)),
			Fields:          fields,
		})
	}

	return t, nil
}
