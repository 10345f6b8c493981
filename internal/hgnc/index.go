package hgnc

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// MatchKind records which part of the nomenclature a symbol was found in.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchApproved
	MatchPrevious
	MatchSynonym
)

func (k MatchKind) String() string {
	switch k {
	case MatchApproved:
		return "approved"
	case MatchPrevious:
		return "previous"
	case MatchSynonym:
		return "synonym"
	}
	return "none"
}

// Ambiguity is a previous or alias symbol claimed by more than one approved gene.
type Ambiguity struct {
	Symbol     string
	Kind       MatchKind
	Candidates []string // approved symbols, sorted
}

// Index is an immutable lookup over the nomenclature table.
// It is safe for concurrent reads.
type Index struct {
	entries     []*Entry          // first entry per approved symbol, table order
	bySymbol    map[string]*Entry // approved symbol -> entry
	previous    map[string][]string
	synonyms    map[string][]string
	known       map[string]struct{} // lowercased approved ∪ previous ∪ synonyms
	duplicates  []string
	ambiguities []Ambiguity
}

// NewIndex builds an index from entries in table order. Duplicate approved
// symbols keep their first entry and are reported by Duplicates.
func NewIndex(entries []*Entry) *Index {
	idx := &Index{
		bySymbol: make(map[string]*Entry, len(entries)),
		previous: make(map[string][]string),
		synonyms: make(map[string][]string),
		known:    make(map[string]struct{}, len(entries)*3),
	}

	dupSeen := make(map[string]bool)
	for _, e := range entries {
		if _, ok := idx.bySymbol[e.Symbol]; ok {
			if !dupSeen[e.Symbol] {
				idx.duplicates = append(idx.duplicates, e.Symbol)
				dupSeen[e.Symbol] = true
			}
			continue
		}
		idx.bySymbol[e.Symbol] = e
		idx.entries = append(idx.entries, e)
		idx.known[strings.ToLower(e.Symbol)] = struct{}{}

		for _, p := range e.PreviousSymbols {
			idx.previous[p] = appendUnique(idx.previous[p], e.Symbol)
			idx.known[strings.ToLower(p)] = struct{}{}
		}
		for _, s := range e.Synonyms {
			idx.synonyms[s] = appendUnique(idx.synonyms[s], e.Symbol)
			idx.known[strings.ToLower(s)] = struct{}{}
		}
	}
	sort.Strings(idx.duplicates)

	idx.ambiguities = append(collectAmbiguities(idx.previous, MatchPrevious),
		collectAmbiguities(idx.synonyms, MatchSynonym)...)
	return idx
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// collectAmbiguities sorts multi-candidate lists in place so lookups do not
// depend on table order, and returns them sorted by symbol.
func collectAmbiguities(m map[string][]string, kind MatchKind) []Ambiguity {
	var out []Ambiguity
	for sym, cands := range m {
		if len(cands) < 2 {
			continue
		}
		sort.Strings(cands)
		out = append(out, Ambiguity{Symbol: sym, Kind: kind, Candidates: cands})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Normalize returns the approved symbol for any symbol. Approved symbols
// match first, then previous symbols, then synonyms. An unknown symbol is
// returned unchanged with MatchNone.
func (idx *Index) Normalize(symbol string) (string, MatchKind) {
	if _, ok := idx.bySymbol[symbol]; ok {
		return symbol, MatchApproved
	}
	if cands := idx.previous[symbol]; len(cands) > 0 {
		return cands[0], MatchPrevious
	}
	if cands := idx.synonyms[symbol]; len(cands) > 0 {
		return cands[0], MatchSynonym
	}
	return symbol, MatchNone
}

// Approved returns the approved symbol for symbol, reporting false when the
// symbol is unknown.
func (idx *Index) Approved(symbol string) (string, bool) {
	approved, kind := idx.Normalize(symbol)
	return approved, kind != MatchNone
}

// Get returns the entry for an approved symbol.
func (idx *Index) Get(approved string) (*Entry, bool) {
	e, ok := idx.bySymbol[approved]
	return e, ok
}

// Lookup normalizes symbol and returns its entry.
func (idx *Index) Lookup(symbol string) (*Entry, MatchKind) {
	approved, kind := idx.Normalize(symbol)
	if kind == MatchNone {
		return nil, MatchNone
	}
	return idx.bySymbol[approved], kind
}

// Known reports whether symbol appears, case-insensitively, as an approved,
// previous or alias symbol.
func (idx *Index) Known(symbol string) bool {
	_, ok := idx.known[strings.ToLower(symbol)]
	return ok
}

// Symbols returns approved symbols in table order.
func (idx *Index) Symbols() []string {
	out := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = e.Symbol
	}
	return out
}

// Entries returns entries in table order.
func (idx *Index) Entries() []*Entry {
	return idx.entries
}

// Len returns the number of distinct approved symbols.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Duplicates returns approved symbols that occurred on more than one row.
func (idx *Index) Duplicates() []string {
	return idx.duplicates
}

// Ambiguities returns previous/alias symbols shared by several approved genes.
func (idx *Index) Ambiguities() []Ambiguity {
	return idx.ambiguities
}

// LogAmbiguities logs each ambiguous symbol once, with the candidate that
// Normalize will pick.
func (idx *Index) LogAmbiguities(logger *zap.Logger) {
	for _, a := range idx.ambiguities {
		logger.Warn("symbol maps to several approved genes",
			zap.String("symbol", a.Symbol),
			zap.Stringer("kind", a.Kind),
			zap.Strings("candidates", a.Candidates),
			zap.String("chosen", a.Candidates[0]))
	}
}
