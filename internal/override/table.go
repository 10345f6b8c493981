// Package override holds curator isoform override tables and the per-perspective
// priority chains that consult them.
package override

import "sort"

// Entry is one row of an isoform override table.
type Entry struct {
	GeneSymbol      string            // Symbol as written by the curator
	IsoformOverride string            // Transcript ID, possibly versioned
	Note            string            // Free-text curator note
	Fields          map[string]string // Remaining columns (refseq_id, ccds_id, ...)
}

// Normalizer maps any gene symbol to its approved symbol.
// It reports false when the symbol is unknown.
type Normalizer interface {
	Approved(symbol string) (approved string, ok bool)
}

// Table is one curation source, keyed by approved gene symbol.
type Table struct {
	name    string
	entries map[string][]Entry
}

// NewTable builds a table from rows in file order. When normalizer is non-nil,
// keys are rewritten to approved symbols. A row keyed by the approved symbol
// itself comes before rows that reached it through a previous or alias symbol;
// otherwise file order is kept.
func NewTable(name string, rows []Entry, normalizer Normalizer) *Table {
	t := &Table{name: name, entries: make(map[string][]Entry)}

	type keyed struct {
		entry  Entry
		direct bool
	}
	grouped := make(map[string][]keyed)
	var order []string
	for _, e := range rows {
		key, direct := e.GeneSymbol, true
		if normalizer != nil {
			if approved, ok := normalizer.Approved(e.GeneSymbol); ok {
				direct = approved == e.GeneSymbol
				key = approved
			}
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], keyed{entry: e, direct: direct})
	}

	for _, key := range order {
		group := grouped[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].direct && !group[j].direct
		})
		entries := make([]Entry, len(group))
		for i, g := range group {
			entries[i] = g.entry
		}
		t.entries[key] = entries
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Get returns the first entry for an approved symbol.
func (t *Table) Get(symbol string) (Entry, bool) {
	entries := t.entries[symbol]
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[0], true
}

// All returns every entry for an approved symbol.
func (t *Table) All(symbol string) []Entry {
	return t.entries[symbol]
}

// Len returns the number of distinct symbols in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Symbols returns the table's keys, sorted.
func (t *Table) Symbols() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
