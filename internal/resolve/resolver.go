package resolve

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/canonical-tx/internal/cache"
	"github.com/inodb/canonical-tx/internal/hgnc"
	"github.com/inodb/canonical-tx/internal/override"
)

// ErrUnknownSymbol is returned when asked to resolve a symbol that is not approved.
var ErrUnknownSymbol = errors.New("unknown hugo symbol")

// SymbolLookup returns nomenclature entries by approved symbol.
type SymbolLookup interface {
	Get(approved string) (*hgnc.Entry, bool)
}

// TranscriptLookup is the catalog view used during resolution.
type TranscriptLookup interface {
	ByGene(geneID string) cache.Lookup
	BySymbol(symbol string) cache.Lookup
	VersionSource
}

// Resolver resolves canonical transcripts. All its inputs are read-only, so
// ResolveGene may be called from many goroutines.
type Resolver struct {
	symbols      SymbolLookup
	catalog      TranscriptLookup
	versions     *VersionResolver
	perspectives []override.Perspective
	logger       *zap.Logger
}

// NewResolver creates a resolver over the given indexes.
func NewResolver(symbols SymbolLookup, catalog TranscriptLookup, perspectives []override.Perspective) *Resolver {
	return &Resolver{
		symbols:      symbols,
		catalog:      catalog,
		versions:     NewVersionResolver(catalog),
		perspectives: perspectives,
		logger:       zap.NewNop(),
	}
}

// SetLogger sets the logger for debug messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Perspectives returns the configured perspectives.
func (r *Resolver) Perspectives() []override.Perspective {
	return r.perspectives
}

// ResolveGene resolves every perspective for an approved symbol.
func (r *Resolver) ResolveGene(symbol string) (*Resolution, error) {
	entry, ok := r.symbols.Get(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	ensembl, ensemblExpl, ensemblState := r.ensemblCanonical(entry)

	res := &Resolution{
		Symbol:  symbol,
		Records: make([]Record, 0, len(r.perspectives)),
	}
	if ensembl != nil {
		res.EnsemblCanonicalGene = ensembl.GeneID
	}

	for _, p := range r.perspectives {
		rec := Record{Perspective: p.Name, State: Unresolved}

		if hit, ok := p.Chain.Resolve(symbol); ok {
			rec.TranscriptID = cache.StripVersion(hit.Entry.IsoformOverride)
			rec.Version, _ = r.versions.ResolveVersion(rec.TranscriptID, hit.Entry.IsoformOverride)
			rec.Explanation = hit.Explanation
			rec.State = ResolvedByOverride
		} else if ensembl != nil {
			rec.TranscriptID = ensembl.ID
			rec.Version, _ = r.versions.ResolveVersion(ensembl.ID, ensembl.VersionedID())
			rec.Explanation = ensemblExpl
			rec.State = ensemblState
		} else {
			rec.State = NoTranscript
		}

		res.Records = append(res.Records, rec)
	}

	if ensembl == nil {
		r.logger.Debug("no transcript for gene", zap.String("symbol", symbol))
	}
	return res, nil
}

// ensemblCanonical selects by the HGNC-linked gene ID first, then by the
// symbol Ensembl reports, since many genes lack an Ensembl cross-reference in
// HGNC but still appear under their symbol in the BioMart table.
func (r *Resolver) ensemblCanonical(e *hgnc.Entry) (*cache.Transcript, string, State) {
	if t, expl := cache.Canonical(r.catalog.ByGene(e.EnsemblGeneID)); t != nil {
		return t, expl, ResolvedByGene
	}
	if t, expl := cache.Canonical(r.catalog.BySymbol(e.Symbol)); t != nil {
		return t, expl, ResolvedBySymbol
	}
	return nil, "", NoTranscript
}
