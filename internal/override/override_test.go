package override

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapNormalizer map[string]string

func (m mapNormalizer) Approved(symbol string) (string, bool) {
	if a, ok := m[symbol]; ok {
		return a, true
	}
	return symbol, false
}

func TestParseRows_MSKCCFormat(t *testing.T) {
	input := "gene_name\trefseq_id\tenst_id\tnote\n" +
		"IKZF1\tNM_006060.4\tENST00000331340.3\t\n" +
		"APC\tNM_000038.5\tENST00000257430.4\tlong isoform\n" +
		"TP53\tNM_000546.5\tnan\t\n"

	rows, err := ParseRows(strings.NewReader(input), Columns{})
	require.NoError(t, err)
	require.Len(t, rows, 2, "rows without a transcript are skipped")

	assert.Equal(t, "IKZF1", rows[0].GeneSymbol)
	assert.Equal(t, "ENST00000331340.3", rows[0].IsoformOverride)
	assert.Equal(t, "NM_006060.4", rows[0].Fields["refseq_id"])
	assert.Equal(t, "long isoform", rows[1].Note)
}

func TestParseRows_OncoKBFormat(t *testing.T) {
	input := "hugo_symbol\tentrez_gene_id\tenst_id\tref_seq\n" +
		"BRAF\t673\tENST00000646891\tNM_001374258.1\n"

	rows, err := ParseRows(strings.NewReader(input), Columns{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BRAF", rows[0].GeneSymbol)
	assert.Equal(t, "ENST00000646891", rows[0].IsoformOverride)
}

func TestParseRows_MissingColumns(t *testing.T) {
	_, err := ParseRows(strings.NewReader("foo\tenst_id\n"), Columns{})
	assert.ErrorContains(t, err, "gene symbol")

	_, err = ParseRows(strings.NewReader("gene_name\tfoo\n"), Columns{})
	assert.ErrorContains(t, err, "transcript")

	_, err = ParseRows(strings.NewReader("gene_name\tenst_id\n"), Columns{Transcript: "isoform"})
	assert.Error(t, err)
}

func TestTable_FirstRowWins(t *testing.T) {
	tbl := NewTable("mskcc", []Entry{
		{GeneSymbol: "CDKN2A", IsoformOverride: "ENST00000304494"},
		{GeneSymbol: "CDKN2A", IsoformOverride: "ENST00000579755"},
	}, nil)

	e, ok := tbl.Get("CDKN2A")
	require.True(t, ok)
	assert.Equal(t, "ENST00000304494", e.IsoformOverride)
	assert.Len(t, tbl.All("CDKN2A"), 2)
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_NormalizesLegacySymbols(t *testing.T) {
	norm := mapNormalizer{"WHSC1L1": "NSD3", "NSD3": "NSD3", "KRAS": "KRAS"}
	tbl := NewTable("custom", []Entry{
		{GeneSymbol: "WHSC1L1", IsoformOverride: "ENST_OLD"},
		{GeneSymbol: "NSD3", IsoformOverride: "ENST_NEW"},
		{GeneSymbol: "UNKNOWN1", IsoformOverride: "ENST_X"},
	}, norm)

	e, ok := tbl.Get("NSD3")
	require.True(t, ok)
	assert.Equal(t, "ENST_NEW", e.IsoformOverride, "row keyed by the approved symbol wins")
	assert.Len(t, tbl.All("NSD3"), 2)

	_, ok = tbl.Get("WHSC1L1")
	assert.False(t, ok)

	_, ok = tbl.Get("UNKNOWN1")
	assert.True(t, ok, "unknown symbols keep their key")
	assert.Equal(t, []string{"NSD3", "UNKNOWN1"}, tbl.Symbols())
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.AddTable(NewTable("oncokb", []Entry{
		{GeneSymbol: "BRAF", IsoformOverride: "ENST00000646891"},
	}, nil)))
	require.NoError(t, r.AddTable(NewTable("mskcc", []Entry{
		{GeneSymbol: "BRAF", IsoformOverride: "ENST00000288602.6"},
		{GeneSymbol: "TP53", IsoformOverride: "ENST00000269305.4"},
	}, nil)))
	require.NoError(t, r.AddTable(NewTable("custom", []Entry{
		{GeneSymbol: "KRAS", IsoformOverride: "ENST00000256078"},
	}, nil)))

	require.NoError(t, r.AddPerspective("ensembl", nil))
	require.NoError(t, r.AddPerspective("genome_nexus", []LinkSpec{
		{Table: "custom", Label: "genome nexus isoform override"},
	}))
	require.NoError(t, r.AddPerspective("mskcc", []LinkSpec{
		{Table: "oncokb", Label: "oncokb isoform override"},
		{Table: "mskcc", Label: "mskcc isoform override"},
		{Table: "custom", Label: "manually override"},
	}))
	return r
}

func TestRegistry_Precedence(t *testing.T) {
	r := newTestRegistry(t)

	hit, ok := r.Resolve("BRAF", "mskcc")
	require.True(t, ok)
	assert.Equal(t, "ENST00000646891", hit.Entry.IsoformOverride)
	assert.Equal(t, "oncokb isoform override", hit.Explanation)

	hit, ok = r.Resolve("TP53", "mskcc")
	require.True(t, ok)
	assert.Equal(t, "mskcc isoform override", hit.Explanation)

	hit, ok = r.Resolve("KRAS", "mskcc")
	require.True(t, ok)
	assert.Equal(t, "manually override", hit.Explanation)

	hit, ok = r.Resolve("KRAS", "genome_nexus")
	require.True(t, ok)
	assert.Equal(t, "genome nexus isoform override", hit.Explanation, "same table, perspective-specific label")

	_, ok = r.Resolve("BRAF", "genome_nexus")
	assert.False(t, ok)
	_, ok = r.Resolve("BRAF", "ensembl")
	assert.False(t, ok)
	_, ok = r.Resolve("BRAF", "nope")
	assert.False(t, ok)
}

func TestRegistry_Errors(t *testing.T) {
	r := newTestRegistry(t)

	assert.Error(t, r.AddTable(NewTable("mskcc", nil, nil)))
	assert.Error(t, r.AddPerspective("mskcc", nil))
	assert.Error(t, r.AddPerspective("", nil))
	assert.ErrorContains(t, r.AddPerspective("broken", []LinkSpec{{Table: "missing"}}), "missing")
}

func TestRegistry_PerspectivesAndExplanations(t *testing.T) {
	r := newTestRegistry(t)

	var names []string
	for _, p := range r.Perspectives() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"ensembl", "genome_nexus", "mskcc"}, names)
	assert.Equal(t, []string{
		"genome nexus isoform override",
		"oncokb isoform override",
		"mskcc isoform override",
		"manually override",
	}, r.Explanations())
}

func TestLink_ExplanationDefaultsToTableName(t *testing.T) {
	l := Link{Table: NewTable("uniprot isoform override", nil, nil)}
	assert.Equal(t, "uniprot isoform override", l.Explanation())
}
