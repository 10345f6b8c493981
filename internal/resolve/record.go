// Package resolve picks one canonical transcript per gene for each configured
// perspective.
package resolve

// State is the terminal state of one gene × perspective resolution.
type State int

const (
	Unresolved State = iota
	ResolvedByOverride
	ResolvedByGene
	ResolvedBySymbol
	NoTranscript
)

func (s State) String() string {
	switch s {
	case ResolvedByOverride:
		return "override"
	case ResolvedByGene:
		return "gene_id"
	case ResolvedBySymbol:
		return "symbol"
	case NoTranscript:
		return "no_transcript"
	}
	return "unresolved"
}

// Record is the canonical transcript chosen for one gene in one perspective.
// TranscriptID and Explanation are either both set or both empty.
type Record struct {
	Perspective  string
	TranscriptID string // base ID, no version
	Version      string // empty if unknown
	Explanation  string
	State        State
}

// Resolution holds every perspective's record for one approved symbol.
type Resolution struct {
	Symbol string
	// EnsemblCanonicalGene is the gene ID of the transcript picked by Ensembl
	// selection alone, independent of any override.
	EnsemblCanonicalGene string
	Records              []Record // configured perspective order
}

// Record returns the record for a perspective.
func (r *Resolution) Record(perspective string) (Record, bool) {
	for _, rec := range r.Records {
		if rec.Perspective == perspective {
			return rec, true
		}
	}
	return Record{}, false
}
