package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/canonical-tx/internal/hgnc"
	"github.com/inodb/canonical-tx/internal/resolve"
)

func kras() (*resolve.Resolution, *hgnc.Entry) {
	res := &resolve.Resolution{
		Symbol:               "KRAS",
		EnsemblCanonicalGene: "ENSG00000133703",
		Records: []resolve.Record{
			{Perspective: "ensembl", TranscriptID: "ENST00000311936", Version: "8", Explanation: "ensembl longest", State: resolve.ResolvedByGene},
			{Perspective: "mskcc", TranscriptID: "ENST00000256078", Version: "10", Explanation: "oncokb isoform override", State: resolve.ResolvedByOverride},
		},
	}
	entry := &hgnc.Entry{
		Symbol: "KRAS",
		Fields: map[string]string{
			"hgnc_id":         "HGNC:6407",
			"approved_symbol": "KRAS",
			"synonyms":        "RASK2|C-K-RAS",
			"ensembl_gene_id": "ENSG00000133703",
			"approved_name":   "KRAS proto-oncogene, GTPase",
		},
	}
	return res, entry
}

func TestTabWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, []string{"ensembl", "mskcc"}, []string{"hgnc_id", "synonyms"})

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	want := "hgnc_symbol\tensembl_canonical_gene\t" +
		"ensembl_canonical_transcript\tensembl_canonical_transcript_version\tensembl_canonical_transcript_explanation\t" +
		"mskcc_canonical_transcript\tmskcc_canonical_transcript_version\tmskcc_canonical_transcript_explanation\t" +
		"hgnc_id\tsynonyms\n"
	assert.Equal(t, want, buf.String())
}

func TestTabWriter_Write_KRAS(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, []string{"ensembl", "mskcc"}, []string{"hgnc_id", "synonyms", "approved_name"})

	res, entry := kras()
	require.NoError(t, w.Write(res, entry))
	require.NoError(t, w.Flush())

	fields := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\t")
	require.Len(t, fields, len(w.Columns()))

	assert.Equal(t, []string{
		"KRAS", "ENSG00000133703",
		"ENST00000311936", "8", "ensembl longest",
		"ENST00000256078", "10", "oncokb isoform override",
		"HGNC:6407", "RASK2, C-K-RAS", "KRAS proto-oncogene, GTPase",
	}, fields)
}

func TestTabWriter_Write_Unresolved(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, []string{"ensembl", "uniprot"}, nil)

	res := &resolve.Resolution{
		Symbol: "NOTX",
		Records: []resolve.Record{
			{Perspective: "ensembl", State: resolve.NoTranscript},
			// uniprot record missing entirely
		},
	}
	require.NoError(t, w.Write(res, nil))
	require.NoError(t, w.Flush())

	assert.Equal(t, "NOTX\t\t\t\t\t\t\t\n", buf.String())
}

func TestPassthroughColumns(t *testing.T) {
	got := PassthroughColumns([]string{"hgnc_id", "approved_symbol", "approved_name", "ensembl_gene_id", "synonyms"})
	assert.Equal(t, []string{"hgnc_id", "approved_name", "synonyms"}, got)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a b", sanitize("a\tb"))
	assert.Equal(t, "line one line two", sanitize("line one\nline two"))
	assert.Equal(t, "plain", sanitize("plain"))
}
