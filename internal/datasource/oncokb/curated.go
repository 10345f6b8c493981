package oncokb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// CuratedGenesURL lists every OncoKB curated gene with its isoforms for both assemblies.
const CuratedGenesURL = "https://www.oncokb.org/api/v1/utils/allCuratedGenes?includeEvidence=false"

// CuratedGene is one entry of the allCuratedGenes response.
type CuratedGene struct {
	HugoSymbol             string `json:"hugoSymbol"`
	EntrezGeneID           int    `json:"entrezGeneId"`
	GRCh37Isoform          string `json:"grch37Isoform"`
	GRCh37RefSeq           string `json:"grch37RefSeq"`
	GRCh38Isoform          string `json:"grch38Isoform"`
	GRCh38RefSeq           string `json:"grch38RefSeq"`
	Oncogene               bool   `json:"oncogene"`
	TSG                    bool   `json:"tsg"`
	HighestSensitiveLevel  string `json:"highestSensitiveLevel"`
	HighestResistanceLevel string `json:"highestResistanceLevel"`
	Summary                string `json:"summary"`
	Background             string `json:"background"`
}

// Isoform returns the transcript and RefSeq IDs for an assembly ("GRCh37" or "GRCh38").
func (g CuratedGene) Isoform(assembly string) (enst, refseq string, err error) {
	switch strings.ToUpper(assembly) {
	case "GRCH37":
		return g.GRCh37Isoform, g.GRCh37RefSeq, nil
	case "GRCH38":
		return g.GRCh38Isoform, g.GRCh38RefSeq, nil
	}
	return "", "", fmt.Errorf("unsupported assembly %q", assembly)
}

// GeneType renders the oncogene/tsg flags the way cancerGeneList.tsv does.
func (g CuratedGene) GeneType() string {
	switch {
	case g.Oncogene && g.TSG:
		return "ONCOGENE,TSG"
	case g.Oncogene:
		return "ONCOGENE"
	case g.TSG:
		return "TSG"
	}
	return ""
}

// FetchCuratedGenes downloads and decodes the curated gene list.
func FetchCuratedGenes(ctx context.Context, client *http.Client, url string) ([]CuratedGene, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	var genes []CuratedGene
	if err := json.NewDecoder(resp.Body).Decode(&genes); err != nil {
		return nil, fmt.Errorf("decode curated genes: %w", err)
	}
	return genes, nil
}

// overrideColumns is the header of the generated isoform override table.
var overrideColumns = []string{
	"hugo_symbol", "entrez_gene_id", "enst_id", "ref_seq", "oncogene", "tsg",
	"highest_sensitive_level", "highest_resistance_level", "summary", "background",
}

// WriteIsoformOverrides writes genes as an isoform override table for one
// assembly. Genes without an isoform on that assembly are written with an
// empty enst_id and skipped by the override loader.
func WriteIsoformOverrides(w io.Writer, genes []CuratedGene, assembly string) error {
	if _, err := io.WriteString(w, strings.Join(overrideColumns, "\t")+"\n"); err != nil {
		return err
	}
	for _, g := range genes {
		enst, refseq, err := g.Isoform(assembly)
		if err != nil {
			return err
		}
		entrez := ""
		if g.EntrezGeneID != 0 {
			entrez = strconv.Itoa(g.EntrezGeneID)
		}
		fields := []string{
			g.HugoSymbol, entrez, enst, refseq,
			strconv.FormatBool(g.Oncogene), strconv.FormatBool(g.TSG),
			g.HighestSensitiveLevel, g.HighestResistanceLevel,
			clean(g.Summary), clean(g.Background),
		}
		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteCancerGeneList writes genes in the cancerGeneList.tsv layout read by
// LoadCancerGeneList.
func WriteCancerGeneList(w io.Writer, genes []CuratedGene) error {
	if _, err := io.WriteString(w, colHugoSymbol+"\tEntrez Gene ID\t"+colGeneType+"\n"); err != nil {
		return err
	}
	for _, g := range genes {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", g.HugoSymbol, g.EntrezGeneID, g.GeneType()); err != nil {
			return err
		}
	}
	return nil
}

var cleaner = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func clean(s string) string {
	return cleaner.Replace(s)
}
