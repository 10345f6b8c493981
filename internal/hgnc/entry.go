// Package hgnc provides the HGNC gene nomenclature index used to map any
// gene symbol (current, previous or alias) to its approved symbol.
package hgnc

import "strings"

// Column names used in exported tables. These are the legacy HGNC names that
// downstream consumers of the canonical transcript export expect.
const (
	ColApprovedSymbol  = "approved_symbol"
	ColApprovedName    = "approved_name"
	ColPreviousSymbols = "previous_symbols"
	ColSynonyms        = "synonyms"
	ColHGNCID          = "hgnc_id"
	ColEntrezGeneID    = "entrez_gene_id"
	ColEnsemblGeneID   = "ensembl_gene_id"
)

// withdrawnName marks HGNC rows that no longer describe a gene.
const withdrawnName = "entry withdrawn"

// Entry is one approved gene from the nomenclature table.
type Entry struct {
	Symbol          string            // Approved symbol (e.g. NSD3)
	HGNCID          string            // HGNC ID (e.g. HGNC:12767)
	EntrezGeneID    string            // NCBI gene ID
	EnsemblGeneID   string            // Ensembl gene ID, empty if not cross-referenced
	PreviousSymbols []string          // Symbols this gene was known by (e.g. WHSC1L1)
	Synonyms        []string          // Alias symbols
	Fields          map[string]string // All columns, by name, as read from the table
}

// Field returns the raw value of a passthrough column.
func (e *Entry) Field(col string) string {
	if e.Fields == nil {
		return ""
	}
	return e.Fields[col]
}

// unquote strips the double quotes HGNC puts around whole list cells.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// splitList splits an HGNC multi-valued cell. HGNC uses "|" in current
// downloads and ", " in older exports; both are accepted.
func splitList(v string) []string {
	v = unquote(strings.TrimSpace(v))
	if v == "" {
		return nil
	}
	sep := "|"
	if !strings.Contains(v, "|") {
		sep = ","
	}
	parts := strings.Split(v, sep)
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
