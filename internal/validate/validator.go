package validate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/canonical-tx/internal/cache"
	"github.com/inodb/canonical-tx/internal/hgnc"
	"github.com/inodb/canonical-tx/internal/resolve"
)

// SymbolSet is the nomenclature view the gates need.
type SymbolSet interface {
	Duplicates() []string
	Known(symbol string) bool
	Ambiguities() []hgnc.Ambiguity
}

// TranscriptSource is the catalog view the gates need.
type TranscriptSource interface {
	Transcripts() []*cache.Transcript
	Symbols() []string
}

// Options toggles optional checks.
type Options struct {
	FailOnAmbiguousSymbols bool
}

// Validator runs the integrity gates over loaded inputs.
type Validator struct {
	symbols     SymbolSet
	catalog     TranscriptSource
	cancerGenes []string
	ignore      IgnoreList
	opts        Options
	out         io.Writer
	logger      *zap.Logger
}

// New creates a validator. cancerGenes and ignore may be empty.
func New(symbols SymbolSet, catalog TranscriptSource, cancerGenes []string, ignore IgnoreList, opts Options) *Validator {
	if ignore == nil {
		ignore = IgnoreList{}
	}
	return &Validator{
		symbols:     symbols,
		catalog:     catalog,
		cancerGenes: cancerGenes,
		ignore:      ignore,
		opts:        opts,
		out:         os.Stderr,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for check results.
func (v *Validator) SetLogger(l *zap.Logger) {
	v.logger = l
}

// SetOutput sets where the new-genes report is printed. Defaults to stderr.
func (v *Validator) SetOutput(w io.Writer) {
	v.out = w
}

// EntryGate runs every pre-resolution check and returns all failures joined.
func (v *Validator) EntryGate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{CheckDuplicateSymbol, v.CheckDuplicateSymbols},
		{CheckCancerGeneSplit, v.CheckCancerGeneSplit},
		{CheckTranscriptMultipleGenes, v.CheckTranscriptGenes},
		{CheckUnknownCancerGenes, v.CheckUnknownCancerGenes},
		{CheckUnknownGeneSymbols, v.CheckUnknownGenes},
	}
	if v.opts.FailOnAmbiguousSymbols {
		checks = append(checks, struct {
			name string
			fn   func() error
		}{CheckAmbiguousSymbols, v.CheckAmbiguousSymbols})
	}

	var errs []error
	for _, c := range checks {
		if err := c.fn(); err != nil {
			v.logger.Error("integrity check failed", zap.String("check", c.name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		v.logger.Debug("integrity check passed", zap.String("check", c.name))
	}
	return errors.Join(errs...)
}

// CheckDuplicateSymbols fails when an approved symbol occurs on several rows.
func (v *Validator) CheckDuplicateSymbols() error {
	return newIntegrityError(CheckDuplicateSymbol, append([]string(nil), v.symbols.Duplicates()...))
}

// CheckCancerGeneSplit fails when a gene stable ID carries more than one
// cancer gene symbol in the catalog.
func (v *Validator) CheckCancerGeneSplit() error {
	if len(v.cancerGenes) == 0 {
		return nil
	}
	cancer := make(map[string]bool, len(v.cancerGenes))
	for _, s := range v.cancerGenes {
		cancer[s] = true
	}

	symbolsByGene := make(map[string]map[string]struct{})
	for _, t := range v.catalog.Transcripts() {
		if t.GeneID == "" || !cancer[t.GeneName] {
			continue
		}
		addTo(symbolsByGene, t.GeneID, t.GeneName)
	}
	return newIntegrityError(CheckCancerGeneSplit, multiValued(symbolsByGene))
}

// CheckTranscriptGenes fails when a transcript stable ID belongs to more
// than one gene stable ID.
func (v *Validator) CheckTranscriptGenes() error {
	genesByTranscript := make(map[string]map[string]struct{})
	for _, t := range v.catalog.Transcripts() {
		if t.GeneID == "" {
			continue
		}
		addTo(genesByTranscript, t.ID, t.GeneID)
	}
	return newIntegrityError(CheckTranscriptMultipleGenes, multiValued(genesByTranscript))
}

// NewGenes returns catalog symbols unknown to the nomenclature, lowercased
// and sorted, excluding RNA gene names and the ignore list.
func (v *Validator) NewGenes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range v.catalog.Symbols() {
		lower := strings.ToLower(s)
		if seen[lower] || v.symbols.Known(lower) || IsRNAGeneSymbol(lower) || v.ignore.Contains(lower) {
			continue
		}
		seen[lower] = true
		out = append(out, lower)
	}
	sort.Strings(out)
	return out
}

// CheckUnknownGenes fails when the catalog reports symbols that must be
// triaged into the nomenclature or the ignore list. The list is printed in
// full before returning.
func (v *Validator) CheckUnknownGenes() error {
	genes := v.NewGenes()
	if len(genes) == 0 {
		return nil
	}
	fmt.Fprint(v.out, NewGenesReport(genes))
	return newIntegrityError(CheckUnknownGeneSymbols, genes)
}

// NewGenesReport formats the list of genes awaiting triage.
func NewGenesReport(genes []string) string {
	var b strings.Builder
	b.WriteString("------ New genes need to be added into ignored_genes.txt ------\n")
	b.WriteString("------ Start of new genes list ------\n")
	for _, g := range genes {
		b.WriteString(g)
		b.WriteByte('\n')
	}
	b.WriteString("------ End of new genes list ------\n")
	return b.String()
}

// CheckUnknownCancerGenes fails when a cancer gene is not an approved,
// previous or alias symbol.
func (v *Validator) CheckUnknownCancerGenes() error {
	var out []string
	for _, s := range v.cancerGenes {
		if v.symbols.Known(s) || v.ignore.Contains(s) {
			continue
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return newIntegrityError(CheckUnknownCancerGenes, out)
}

// CheckAmbiguousSymbols fails when a previous or alias symbol belongs to
// more than one approved gene.
func (v *Validator) CheckAmbiguousSymbols() error {
	var out []string
	for _, a := range v.symbols.Ambiguities() {
		out = append(out, fmt.Sprintf("%s (%s): %s", a.Symbol, a.Kind, strings.Join(a.Candidates, ", ")))
	}
	return newIntegrityError(CheckAmbiguousSymbols, out)
}

// CheckExplanations is the exit gate: every record must carry a transcript
// and an explanation together, or neither.
func CheckExplanations(resolutions []*resolve.Resolution) error {
	var out []string
	for _, res := range resolutions {
		for _, rec := range res.Records {
			if (rec.TranscriptID == "") != (rec.Explanation == "") {
				out = append(out, res.Symbol+"/"+rec.Perspective)
			}
		}
	}
	sort.Strings(out)
	return newIntegrityError(CheckExplanationMismatch, out)
}

func addTo(m map[string]map[string]struct{}, key, val string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[val] = struct{}{}
}

// multiValued lists keys with more than one value as "key: v1, v2", sorted.
func multiValued(m map[string]map[string]struct{}) []string {
	var out []string
	for k, set := range m {
		if len(set) < 2 {
			continue
		}
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out = append(out, k+": "+strings.Join(vals, ", "))
	}
	sort.Strings(out)
	return out
}
