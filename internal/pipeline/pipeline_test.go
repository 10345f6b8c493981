package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/canonical-tx/internal/config"
	"github.com/inodb/canonical-tx/internal/duckdb"
	"github.com/inodb/canonical-tx/internal/metrics"
	"github.com/inodb/canonical-tx/internal/output"
	"github.com/inodb/canonical-tx/internal/resolve"
	"github.com/inodb/canonical-tx/internal/validate"
)

const (
	hgncFixture = "hgnc_id\tsymbol\tname\tprev_symbol\talias_symbol\tentrez_id\tensembl_gene_id\tuniprot_ids\n" +
		"HGNC:12767\tNSD3\tnuclear receptor binding SET domain protein 3\tWHSC1L1\t\t54904\tENSG00000147548\tQ9BZ95\n" +
		"HGNC:19235\tAATF\tapoptosis antagonizing transcription factor\t\tCHE-1|DED\t26574\t\tQ9NY61\n" +
		"HGNC:6407\tKRAS\tKRAS proto-oncogene, GTPase\tKRAS2\t\t3845\tENSG00000133703\tP01116\n" +
		"HGNC:11998\tTP53\ttumor protein p53\t\tp53|LFS1\t7157\tENSG00000141510\tP04637\n" +
		"HGNC:99999\tNOTX\tgene without transcripts\t\t\t1\tENSG00000999999\t\n" +
		"HGNC:1\tGONE1\tentry withdrawn\t\t\t\t\t\n"

	biomartHeader = "gene_stable_id\ttranscript_stable_id\thgnc_symbol\tis_canonical\tprotein_length\ttranscript_stable_id_version\n"
	biomartRows   = "ENSG00000147548\tENST00000433068\tWHSC1L1\t1\t1437\tENST00000433068.7\n" +
		"ENSG00000147548\tENST00000317025\tWHSC1L1\t\t645\tENST00000317025.13\n" +
		"ENSG00000275700\tENST00000620073\tAATF\t1\t560\tENST00000620073.4\n" +
		"ENSG00000133703\tENST00000311936\tKRAS\t1\t189\tENST00000311936.8\n" +
		"ENSG00000133703\tENST00000256078\tKRAS\t\t189\tENST00000256078.10\n" +
		"ENSG00000141510\tENST00000269305\tTP53\t1\t393\tENST00000269305.9\n" +
		"ENSG00000200000\tENST00000384000\tMIR21\t\t\tENST00000384000.1\n" +
		"ENSG00000300000\tENST00000500000\tCUSTOMIGNORED\t\t12\tENST00000500000.1\n"

	customFixture  = "gene_name\trefseq_id\tenst_id\tnote\nKRAS\tNM_004985.5\tENST00000311936\t\n"
	uniprotFixture = "gene_name\tenst_id\nTP53\tENST00000269305\n"
	mskccFixture   = "gene_name\trefseq_id\tenst_id\tnote\nWHSC1L1\tNM_023034.2\tENST00000317025\tlegacy symbol\n"
	oncokbFixture  = "hugo_symbol\tentrez_gene_id\tenst_id\tref_seq\nKRAS\t3845\tENST00000256078\tNM_033360.4\n"
	cancerFixture  = "Hugo Symbol\tGene Type\nKRAS\tONCOGENE\nTP53\tTSG\n"
	ignoreFixture  = "customignored\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testConfig writes the fixtures and returns a config pointing at them.
// extraBiomart is appended to the BioMart table.
func testConfig(t *testing.T, extraBiomart string) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Inputs = config.Inputs{
		Biomart:      writeFile(t, dir, "biomart.txt", biomartHeader+biomartRows+extraBiomart),
		HGNC:         writeFile(t, dir, "hgnc.txt", hgncFixture),
		CancerGenes:  writeFile(t, dir, "cancer_genes.txt", cancerFixture),
		IgnoredGenes: writeFile(t, dir, "ignored_genes.txt", ignoreFixture),
		CacheDir:     filepath.Join(dir, "cache"),
	}
	paths := map[string]string{
		"custom":  writeFile(t, dir, "custom.txt", customFixture),
		"uniprot": writeFile(t, dir, "uniprot.txt", uniprotFixture),
		"mskcc":   writeFile(t, dir, "mskcc.txt", mskccFixture),
		"oncokb":  writeFile(t, dir, "oncokb.txt", oncokbFixture),
	}
	for i := range cfg.Overrides {
		cfg.Overrides[i].Path = paths[cfg.Overrides[i].Name]
	}
	cfg.Output = config.Output{
		Path:   filepath.Join(dir, "out", "canonical.txt"),
		DuckDB: filepath.Join(dir, "out", "canonical.duckdb"),
	}
	cfg.Workers = 4
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t, "")
	p := New(cfg)
	var report bytes.Buffer
	p.SetReportOutput(&report)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.String())
	require.Len(t, result.Resolutions, 5, "withdrawn entries are not resolved")

	exp, err := output.LoadExport(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ensembl", "genome_nexus", "uniprot", "mskcc"}, exp.Perspectives)
	assert.Equal(t, []string{"NSD3", "AATF", "KRAS", "TP53", "NOTX"}, exp.Symbols)

	tests := []struct {
		symbol, perspective string
		want                output.ExportRecord
	}{
		{"NSD3", "ensembl", output.ExportRecord{TranscriptID: "ENST00000433068", Version: "7", Explanation: "ensembl longest"}},
		{"NSD3", "mskcc", output.ExportRecord{TranscriptID: "ENST00000317025", Version: "13", Explanation: "mskcc isoform override"}},
		{"AATF", "ensembl", output.ExportRecord{TranscriptID: "ENST00000620073", Version: "4", Explanation: "ensembl only one transcript"}},
		{"AATF", "mskcc", output.ExportRecord{TranscriptID: "ENST00000620073", Version: "4", Explanation: "ensembl only one transcript"}},
		{"KRAS", "ensembl", output.ExportRecord{TranscriptID: "ENST00000311936", Version: "8", Explanation: "ensembl longest"}},
		{"KRAS", "genome_nexus", output.ExportRecord{TranscriptID: "ENST00000311936", Version: "8", Explanation: "genome nexus isoform override"}},
		{"KRAS", "uniprot", output.ExportRecord{TranscriptID: "ENST00000311936", Version: "8", Explanation: "manually override"}},
		{"KRAS", "mskcc", output.ExportRecord{TranscriptID: "ENST00000256078", Version: "10", Explanation: "oncokb isoform override"}},
		{"TP53", "uniprot", output.ExportRecord{TranscriptID: "ENST00000269305", Version: "9", Explanation: "uniprot isoform override"}},
		{"TP53", "mskcc", output.ExportRecord{TranscriptID: "ENST00000269305", Version: "9", Explanation: "uniprot isoform override"}},
		{"NOTX", "mskcc", output.ExportRecord{}},
	}
	for _, tt := range tests {
		t.Run(tt.symbol+"/"+tt.perspective, func(t *testing.T) {
			got, ok := exp.Get(tt.symbol, tt.perspective)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "hgnc_symbol\tensembl_canonical_gene\tensembl_canonical_transcript\t"))
	assert.Contains(t, lines[0], "\tuniprot_id")
	assert.NotContains(t, lines[0], "ensembl_gene_id")
	assert.Contains(t, lines[2], "ENSG00000275700", "AATF canonical gene comes from the symbol lookup")
	assert.Contains(t, lines[4], "p53, LFS1")

	store, err := duckdb.Open(cfg.Output.DuckDB)
	require.NoError(t, err)
	defer store.Close()
	recs, err := store.LookupGene("KRAS")
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, resolve.ResolvedByOverride, recs[3].Record.State)
}

func TestRun_ExportUnquotesHGNCLists(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Output.DuckDB = ""
	quoted := strings.NewReplacer(
		"\tKRAS2\t", "\t\"KRAS2\"\t",
		"\tCHE-1|DED\t", "\t\"CHE-1|DED\"\t",
		"\tp53|LFS1\t", "\t\"p53|LFS1\"\t",
	).Replace(hgncFixture)
	require.NotEqual(t, hgncFixture, quoted)
	require.NoError(t, os.WriteFile(cfg.Inputs.HGNC, []byte(quoted), 0o644))

	_, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"`)

	lines := strings.Split(string(data), "\n")
	assert.Contains(t, lines[2], "\tCHE-1, DED\t")
	assert.Contains(t, lines[3], "\tKRAS2\t")
	assert.Contains(t, lines[4], "\tp53, LFS1\t")
}

func TestRun_StoreFailureKeepsPreviousExport(t *testing.T) {
	cfg := testConfig(t, "")
	outDir := filepath.Dir(cfg.Output.Path)
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.Output.Path, []byte("previous\n"), 0o644))

	// a regular file where the store's parent directory should be
	blocker := writeFile(t, t.TempDir(), "blocker", "")
	cfg.Output.DuckDB = filepath.Join(blocker, "canonical.duckdb")

	_, err := New(cfg).Run(context.Background())
	require.Error(t, err)

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staged export is removed")
}

func TestStageExport_ConcurrentRunsDoNotCollide(t *testing.T) {
	cfg := testConfig(t, "")
	p := New(cfg)
	in, err := p.Load(context.Background())
	require.NoError(t, err)
	res, err := p.Resolve(context.Background(), in)
	require.NoError(t, err)

	staged := make([]string, 4)
	errs := make([]error, 4)
	var wg sync.WaitGroup
	for i := range staged {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			staged[i], errs[i] = p.stageExport(cfg.Output.Path, in, res)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	var first []byte
	for i, path := range staged {
		require.NoError(t, errs[i])
		assert.False(t, seen[path], "each stage gets its own temporary file")
		seen[path] = true
		assert.Equal(t, filepath.Dir(cfg.Output.Path), filepath.Dir(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		if first == nil {
			first = data
		}
		assert.Equal(t, first, data)
		require.NoError(t, os.Rename(path, cfg.Output.Path))
	}

	info, err := os.Stat(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	var outputs []string
	for _, workers := range []int{1, 3, 8} {
		cfg := testConfig(t, "")
		cfg.Workers = workers
		cfg.Output.DuckDB = ""
		_, err := New(cfg).Run(context.Background())
		require.NoError(t, err)

		data, err := os.ReadFile(cfg.Output.Path)
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[0], outputs[2])
}

func TestRun_UsesCatalogCache(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Output.DuckDB = ""

	_, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	p := New(cfg)
	p.SetLogger(zap.New(core))
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("loaded transcript catalog from cache").Len())
	assert.Equal(t, 0, logs.FilterMessage("loaded transcript catalog").Len())
}

func TestRun_UnknownGeneHaltsWithoutOutput(t *testing.T) {
	cfg := testConfig(t, "ENSG00000400000\tENST00000600000\tBRANDNEW1\t\t100\tENST00000600000.1\n")
	p := New(cfg)
	var report bytes.Buffer
	p.SetReportOutput(&report)

	_, err := p.Run(context.Background())
	var ie *validate.IntegrityError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, validate.CheckUnknownGeneSymbols, ie.Check)
	assert.Equal(t, []string{"brandnew1"}, ie.Offenders)
	assert.Contains(t, report.String(), "------ Start of new genes list ------\nbrandnew1\n")

	assert.NoFileExists(t, cfg.Output.Path)
	assert.NoFileExists(t, cfg.Output.DuckDB)
}

func TestRun_TranscriptOnTwoGenesHaltsWithoutOutput(t *testing.T) {
	cfg := testConfig(t, "ENSG00000999998\tENST00000311936\tKRAS\t\t189\tENST00000311936.8\n")

	_, err := New(cfg).Run(context.Background())
	var ie *validate.IntegrityError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, validate.CheckTranscriptMultipleGenes, ie.Check)
	assert.Equal(t, []string{"ENST00000311936: ENSG00000133703, ENSG00000999998"}, ie.Offenders)
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestLoad_MissingOverrideTable(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Overrides[0].Path = filepath.Join(t.TempDir(), "missing.txt")

	_, err := New(cfg).Load(context.Background())
	assert.ErrorContains(t, err, "load override table custom")
}

func TestLoad_Canceled(t *testing.T) {
	cfg := testConfig(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg).Load(ctx)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	res := []*resolve.Resolution{
		{Symbol: "A", Records: []resolve.Record{
			{Perspective: "ensembl", State: resolve.ResolvedByGene},
			{Perspective: "mskcc", State: resolve.ResolvedByOverride},
		}},
		{Symbol: "B", Records: []resolve.Record{
			{Perspective: "ensembl", State: resolve.NoTranscript},
			{Perspective: "mskcc", State: resolve.NoTranscript},
		}},
	}
	got := Summarize(res)
	require.Len(t, got, 2)
	assert.Equal(t, "ensembl", got[0].Perspective)
	assert.Equal(t, 1, got[0].Counts[resolve.ResolvedByGene])
	assert.Equal(t, 1, got[1].Counts[resolve.NoTranscript])
}

func TestRun_WritesMetrics(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Output.DuckDB = ""
	cfg.Output.Metrics = filepath.Join(t.TempDir(), "canonical_tx.prom")

	p := New(cfg)
	p.SetMetrics(metrics.New())
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Output.Metrics)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `canonical_tx_input_rows{input="hgnc"} 5`)
	assert.Contains(t, text, `canonical_tx_resolutions_total{perspective="ensembl",state="no_transcript"} 1`)
	assert.Contains(t, text, "canonical_tx_last_success_timestamp_seconds")
}

func TestRun_MetricsRecordIntegrityFailures(t *testing.T) {
	cfg := testConfig(t, "ENSG00000400000\tENST00000600000\tBRANDNEW1\t\t100\tENST00000600000.1\n")
	cfg.Output.Metrics = filepath.Join(t.TempDir(), "canonical_tx.prom")

	p := New(cfg)
	p.SetReportOutput(&bytes.Buffer{})
	p.SetMetrics(metrics.New())
	_, err := p.Run(context.Background())
	require.Error(t, err)

	data, err := os.ReadFile(cfg.Output.Metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `canonical_tx_integrity_failures_total{check="unknown-gene-symbols"} 1`)
	assert.Contains(t, string(data), "canonical_tx_last_success_timestamp_seconds 0")
}
