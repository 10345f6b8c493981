// Package oncokb provides the OncoKB cancer gene list and curated gene download.
package oncokb

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/inodb/canonical-tx/internal/tsv"
)

// Annotation holds OncoKB gene-level annotations.
type Annotation struct {
	HugoSymbol string
	GeneType   string // "ONCOGENE", "TSG", or "ONCOGENE,TSG"; empty if the list has no Gene Type column
}

// CancerGeneList maps Hugo Symbol to Annotation.
type CancerGeneList map[string]*Annotation

// IsCancerGene returns true if the gene is in the cancer gene list.
func (c CancerGeneList) IsCancerGene(gene string) bool {
	_, ok := c[gene]
	return ok
}

// Symbols returns the cancer gene symbols, sorted.
func (c CancerGeneList) Symbols() []string {
	out := make([]string, 0, len(c))
	for s := range c {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LoadCancerGeneList loads an OncoKB cancerGeneList.tsv file.
// The TSV must have a "Hugo Symbol" column; "Gene Type" is read when present.
func LoadCancerGeneList(path string) (CancerGeneList, error) {
	r, err := tsv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cancer gene list: %w", err)
	}
	defer r.Close()
	return readCancerGeneList(r)
}

// ParseCancerGeneList reads a cancer gene list from rd.
func ParseCancerGeneList(rd io.Reader) (CancerGeneList, error) {
	r, err := tsv.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("cancer gene list: %w", err)
	}
	return readCancerGeneList(r)
}

func readCancerGeneList(r *tsv.Reader) (CancerGeneList, error) {
	if err := r.Require(colHugoSymbol); err != nil {
		return nil, fmt.Errorf("cancer gene list: %w", err)
	}

	cgl := make(CancerGeneList)
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading cancer gene list: %w", err)
		}
		hugo := strings.TrimSpace(row.Get(colHugoSymbol))
		if hugo == "" {
			continue
		}
		cgl[hugo] = &Annotation{
			HugoSymbol: hugo,
			GeneType:   strings.TrimSpace(row.Get(colGeneType)),
		}
	}
	return cgl, nil
}

const (
	colHugoSymbol = "Hugo Symbol"
	colGeneType   = "Gene Type"
)
