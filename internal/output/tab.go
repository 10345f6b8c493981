// Package output writes and compares canonical transcript exports.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/canonical-tx/internal/hgnc"
	"github.com/inodb/canonical-tx/internal/resolve"
)

// Fixed export columns.
const (
	ColSymbol               = "hgnc_symbol"
	ColEnsemblCanonicalGene = "ensembl_canonical_gene"
)

const (
	suffixTranscript  = "_canonical_transcript"
	suffixVersion     = "_canonical_transcript_version"
	suffixExplanation = "_canonical_transcript_explanation"
)

// PerspectiveColumns returns the three export columns of a perspective.
func PerspectiveColumns(p string) (transcript, version, explanation string) {
	return p + suffixTranscript, p + suffixVersion, p + suffixExplanation
}

// PassthroughColumns returns the nomenclature columns copied into the export:
// every column except the approved symbol (already in hgnc_symbol) and the
// Ensembl gene ID.
func PassthroughColumns(hgncColumns []string) []string {
	var out []string
	for _, c := range hgncColumns {
		if c == hgnc.ColApprovedSymbol || c == hgnc.ColEnsemblGeneID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// listReplacer turns HGNC "|" lists into the ", " form downstream consumers expect.
var listReplacer = strings.NewReplacer("|", ", ")

// TabWriter writes one export row per gene.
type TabWriter struct {
	w            *bufio.Writer
	perspectives []string
	passthrough  []string
	columns      []string
}

// NewTabWriter creates an export writer for the given perspectives and
// passthrough columns.
func NewTabWriter(w io.Writer, perspectives, passthrough []string) *TabWriter {
	columns := []string{ColSymbol, ColEnsemblCanonicalGene}
	for _, p := range perspectives {
		t, v, e := PerspectiveColumns(p)
		columns = append(columns, t, v, e)
	}
	columns = append(columns, passthrough...)

	return &TabWriter{
		w:            bufio.NewWriter(w),
		perspectives: perspectives,
		passthrough:  passthrough,
		columns:      columns,
	}
}

// Columns returns the header columns.
func (tw *TabWriter) Columns() []string {
	return tw.columns
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes the resolution of one gene. entry supplies the passthrough
// fields and may be nil.
func (tw *TabWriter) Write(res *resolve.Resolution, entry *hgnc.Entry) error {
	values := make([]string, 0, len(tw.columns))
	values = append(values, res.Symbol, res.EnsemblCanonicalGene)

	for _, p := range tw.perspectives {
		rec, _ := res.Record(p)
		values = append(values, rec.TranscriptID, rec.Version, rec.Explanation)
	}
	for _, c := range tw.passthrough {
		v := ""
		if entry != nil {
			v = entry.Field(c)
		}
		values = append(values, v)
	}

	for i, v := range values {
		values[i] = sanitize(listReplacer.Replace(v))
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func sanitize(v string) string {
	if strings.ContainsAny(v, "\t\n\r") {
		return strings.Join(strings.Fields(v), " ")
	}
	return v
}
