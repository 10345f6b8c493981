// Package cache provides the in-memory Ensembl transcript catalog.
package cache

import (
	"sort"
)

// LookupKind tags how many transcripts a catalog lookup found.
type LookupKind int

const (
	Empty LookupKind = iota
	Single
	Multiple
)

func (k LookupKind) String() string {
	switch k {
	case Single:
		return "single"
	case Multiple:
		return "multiple"
	}
	return "empty"
}

// Lookup is the result of a catalog lookup by gene symbol or gene ID.
// Transcripts are in load order.
type Lookup struct {
	Kind        LookupKind
	Transcripts []*Transcript
}

func newLookup(ts []*Transcript) Lookup {
	switch len(ts) {
	case 0:
		return Lookup{Kind: Empty}
	case 1:
		return Lookup{Kind: Single, Transcripts: ts}
	}
	return Lookup{Kind: Multiple, Transcripts: ts}
}

// Cache is the transcript catalog. It is filled by a loader and must not be
// modified once resolution starts; concurrent reads are then safe.
type Cache struct {
	transcripts []*Transcript
	seen        map[Transcript]struct{}

	// equivalent views of the same transcript set
	bySymbol     map[string][]*Transcript
	byGene       map[string][]*Transcript
	byTranscript map[string][]*Transcript
}

// New creates a new empty cache.
func New() *Cache {
	return &Cache{
		seen:         make(map[Transcript]struct{}),
		bySymbol:     make(map[string][]*Transcript),
		byGene:       make(map[string][]*Transcript),
		byTranscript: make(map[string][]*Transcript),
	}
}

// AddTranscript adds a transcript to the cache. A record identical to one
// already present is ignored. It reports whether the transcript was added.
func (c *Cache) AddTranscript(t *Transcript) bool {
	if _, dup := c.seen[*t]; dup {
		return false
	}
	c.seen[*t] = struct{}{}

	c.transcripts = append(c.transcripts, t)
	if t.GeneName != "" {
		c.bySymbol[t.GeneName] = append(c.bySymbol[t.GeneName], t)
	}
	if t.GeneID != "" {
		c.byGene[t.GeneID] = append(c.byGene[t.GeneID], t)
	}
	c.byTranscript[t.ID] = append(c.byTranscript[t.ID], t)
	return true
}

// BySymbol returns transcripts whose Ensembl-reported symbol equals symbol.
func (c *Cache) BySymbol(symbol string) Lookup {
	if symbol == "" {
		return Lookup{Kind: Empty}
	}
	return newLookup(c.bySymbol[symbol])
}

// ByGene returns transcripts owned by a gene stable ID.
func (c *Cache) ByGene(geneID string) Lookup {
	if geneID == "" {
		return Lookup{Kind: Empty}
	}
	return newLookup(c.byGene[geneID])
}

// GetTranscripts returns all records for a transcript stable ID (without version).
// More than one record means the ID is reported with several versions or genes.
func (c *Cache) GetTranscripts(id string) []*Transcript {
	return c.byTranscript[id]
}

// Versions returns the version strings recorded for a transcript stable ID.
func (c *Cache) Versions(id string) []string {
	var out []string
	for _, t := range c.byTranscript[id] {
		if t.Version != "" {
			out = append(out, t.Version)
		}
	}
	return out
}

// Transcripts returns all transcripts in load order.
func (c *Cache) Transcripts() []*Transcript {
	return c.transcripts
}

// TranscriptCount returns the total number of distinct records in the cache.
func (c *Cache) TranscriptCount() int {
	return len(c.transcripts)
}

// Symbols returns a sorted list of Ensembl-reported gene symbols.
func (c *Cache) Symbols() []string {
	return sortedKeys(c.bySymbol)
}

// GeneIDs returns a sorted list of gene stable IDs.
func (c *Cache) GeneIDs() []string {
	return sortedKeys(c.byGene)
}

// TranscriptIDs returns a sorted list of transcript stable IDs.
func (c *Cache) TranscriptIDs() []string {
	return sortedKeys(c.byTranscript)
}

func sortedKeys(m map[string][]*Transcript) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
