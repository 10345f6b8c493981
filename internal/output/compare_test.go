package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/canonical-tx/internal/resolve"
)

const previousExport = "hgnc_symbol\tensembl_canonical_gene\t" +
	"mskcc_canonical_transcript\tmskcc_canonical_transcript_version\tmskcc_canonical_transcript_explanation\t" +
	"hgnc_id\n" +
	"KRAS\tENSG1\tENST00000256078\t10.0\toncokb isoform override\tHGNC:6407\n" +
	"TP53\tENSG2\tENST00000269305\t4\tmskcc isoform override\tHGNC:11998\n" +
	"BRAF\tENSG3\tENST00000288602\t6\tmskcc isoform override\tHGNC:1097\n" +
	"EGFR\tENSG4\tENST00000275493\t2\tensembl longest\tHGNC:3236\n" +
	"OLDGENE\tENSG5\tENST00000000001\t1\tensembl only one transcript\tHGNC:1\n" +
	"NOTX\t\tnan\t\t\tHGNC:2\n"

func TestParseExport(t *testing.T) {
	exp, err := ParseExport(strings.NewReader(previousExport))
	require.NoError(t, err)

	assert.Equal(t, []string{"mskcc"}, exp.Perspectives)
	assert.Equal(t, []string{"KRAS", "TP53", "BRAF", "EGFR", "OLDGENE", "NOTX"}, exp.Symbols)

	rec, ok := exp.Get("KRAS", "mskcc")
	require.True(t, ok)
	assert.Equal(t, ExportRecord{"ENST00000256078", "10", "oncokb isoform override"}, rec)

	rec, ok = exp.Get("NOTX", "mskcc")
	require.True(t, ok)
	assert.Equal(t, ExportRecord{}, rec)

	_, ok = exp.Get("KRAS", "ensembl")
	assert.False(t, ok)
}

func TestParseExport_NoPerspectives(t *testing.T) {
	_, err := ParseExport(strings.NewReader("hgnc_symbol\thgnc_id\nKRAS\tHGNC:6407\n"))
	assert.ErrorContains(t, err, "_canonical_transcript")
}

func mskcc(symbol, id, version, expl string) *resolve.Resolution {
	return &resolve.Resolution{
		Symbol:  symbol,
		Records: []resolve.Record{{Perspective: "mskcc", TranscriptID: id, Version: version, Explanation: expl}},
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		prev ExportRecord
		cur  resolve.Record
		want Category
	}{
		{"unchanged", ExportRecord{"ENST1", "1", "x"}, resolve.Record{TranscriptID: "ENST1", Version: "1", Explanation: "x"}, CatUnchanged},
		{"both empty", ExportRecord{}, resolve.Record{}, CatBothEmpty},
		{"added", ExportRecord{}, resolve.Record{TranscriptID: "ENST1", Explanation: "x"}, CatAdded},
		{"removed", ExportRecord{"ENST1", "1", "x"}, resolve.Record{}, CatRemoved},
		{"transcript", ExportRecord{"ENST1", "1", "x"}, resolve.Record{TranscriptID: "ENST2", Version: "1", Explanation: "x"}, CatTranscriptChanged},
		{"version", ExportRecord{"ENST1", "1", "x"}, resolve.Record{TranscriptID: "ENST1", Version: "2", Explanation: "x"}, CatVersionChanged},
		{"explanation", ExportRecord{"ENST1", "1", "x"}, resolve.Record{TranscriptID: "ENST1", Version: "1", Explanation: "y"}, CatExplanationChanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categorize(tt.prev, tt.cur))
		})
	}
}

func TestCompareWriter_Compare(t *testing.T) {
	prev, err := ParseExport(strings.NewReader(previousExport))
	require.NoError(t, err)

	cur := []*resolve.Resolution{
		mskcc("KRAS", "ENST00000256078", "10", "oncokb isoform override"),
		mskcc("TP53", "ENST00000269305", "4", "oncokb isoform override"),
		mskcc("BRAF", "ENST00000646891", "2", "oncokb isoform override"),
		mskcc("EGFR", "ENST00000275493", "3", "ensembl longest"),
		mskcc("NEWGENE", "ENST00000999999", "1", "ensembl only one transcript"),
		mskcc("NOTX", "", "", ""),
	}

	var buf bytes.Buffer
	cw := NewCompareWriter(&buf, []string{"mskcc"}, false)
	require.NoError(t, cw.Compare(prev, cur))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6, "header plus the five changed genes")
	assert.True(t, strings.HasPrefix(lines[0], "hgnc_symbol\tperspective"))
	assert.Equal(t, "BRAF\tmskcc\tENST00000288602.6\tENST00000646891.2\tmskcc isoform override\toncokb isoform override\ttranscript_changed", lines[2])
	assert.True(t, strings.HasSuffix(lines[5], "\tremoved"), lines[5])
	assert.True(t, strings.HasPrefix(lines[5], "OLDGENE\t"))

	assert.Equal(t, 7, cw.Total())
	assert.Equal(t, map[Category]int{
		CatUnchanged:          1,
		CatExplanationChanged: 1,
		CatTranscriptChanged:  1,
		CatVersionChanged:     1,
		CatAdded:              1,
		CatRemoved:            1,
		CatBothEmpty:          1,
	}, cw.Counts()["mskcc"])

	var summary bytes.Buffer
	cw.WriteSummary(&summary)
	assert.Contains(t, summary.String(), "Comparison Summary (7 genes)")
	assert.Contains(t, summary.String(), "transcript_changed")
}

func TestCompareWriter_ShowAll(t *testing.T) {
	prev, err := ParseExport(strings.NewReader(previousExport))
	require.NoError(t, err)

	var buf bytes.Buffer
	cw := NewCompareWriter(&buf, []string{"mskcc"}, true)
	require.NoError(t, cw.WriteComparison("KRAS", prev, mskcc("KRAS", "ENST00000256078", "10", "oncokb isoform override")))
	assert.Contains(t, buf.String(), "\tunchanged")
}
