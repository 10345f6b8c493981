package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/inodb/canonical-tx/internal/resolve"
)

// Category classifies the comparison result for a single perspective.
type Category string

const (
	CatUnchanged          Category = "unchanged"
	CatBothEmpty          Category = "both_empty"
	CatVersionChanged     Category = "version_changed"
	CatExplanationChanged Category = "explanation_changed"
	CatTranscriptChanged  Category = "transcript_changed"
	CatAdded              Category = "added"
	CatRemoved            Category = "removed"
)

// isShownByDefault returns whether rows with this category are shown without --all.
func isShownByDefault(cat Category) bool {
	switch cat {
	case CatUnchanged, CatBothEmpty:
		return false
	}
	return true
}

// categorize compares the previous and current record of one perspective.
func categorize(prev ExportRecord, cur resolve.Record) Category {
	switch {
	case prev.TranscriptID == "" && cur.TranscriptID == "":
		return CatBothEmpty
	case prev.TranscriptID == "":
		return CatAdded
	case cur.TranscriptID == "":
		return CatRemoved
	case prev.TranscriptID != cur.TranscriptID:
		return CatTranscriptChanged
	case prev.Version != cur.Version:
		return CatVersionChanged
	case prev.Explanation != cur.Explanation:
		return CatExplanationChanged
	}
	return CatUnchanged
}

// CompareWriter writes tab-delimited comparison output between a previous
// export and a fresh resolution, with category-based classification.
type CompareWriter struct {
	w            io.Writer
	perspectives []string
	counts       map[string]map[Category]int // perspective → category → count
	total        int
	showAll      bool
}

// NewCompareWriter creates a new comparison output writer.
func NewCompareWriter(w io.Writer, perspectives []string, showAll bool) *CompareWriter {
	counts := make(map[string]map[Category]int)
	for _, p := range perspectives {
		counts[p] = make(map[Category]int)
	}
	return &CompareWriter{
		w:            w,
		perspectives: perspectives,
		counts:       counts,
		showAll:      showAll,
	}
}

// WriteHeader writes the comparison output header.
func (c *CompareWriter) WriteHeader() error {
	parts := []string{
		ColSymbol, "perspective",
		"previous_transcript", "current_transcript",
		"previous_explanation", "current_explanation",
		"category",
	}
	_, err := fmt.Fprintln(c.w, strings.Join(parts, "\t"))
	return err
}

// WriteComparison compares one gene. prev is nil when the gene is new; cur
// is nil when the gene is no longer resolved.
func (c *CompareWriter) WriteComparison(symbol string, prev *Export, cur *resolve.Resolution) error {
	c.total++

	for _, p := range c.perspectives {
		var before ExportRecord
		if prev != nil {
			before, _ = prev.Get(symbol, p)
		}
		var after resolve.Record
		if cur != nil {
			after, _ = cur.Record(p)
		}

		cat := categorize(before, after)
		c.counts[p][cat]++

		if !c.showAll && !isShownByDefault(cat) {
			continue
		}
		parts := []string{
			symbol, p,
			versioned(before.TranscriptID, before.Version),
			versioned(after.TranscriptID, after.Version),
			before.Explanation, after.Explanation,
			string(cat),
		}
		if _, err := fmt.Fprintln(c.w, strings.Join(parts, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// Compare writes the header and compares every gene: current genes in
// resolution order, then genes only present in prev.
func (c *CompareWriter) Compare(prev *Export, cur []*resolve.Resolution) error {
	if err := c.WriteHeader(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(cur))
	for _, res := range cur {
		seen[res.Symbol] = true
		var p *Export
		if prev.Has(res.Symbol) {
			p = prev
		}
		if err := c.WriteComparison(res.Symbol, p, res); err != nil {
			return err
		}
	}
	for _, sym := range prev.Symbols {
		if seen[sym] {
			continue
		}
		if err := c.WriteComparison(sym, prev, nil); err != nil {
			return err
		}
	}
	return nil
}

// Total returns the number of genes compared.
func (c *CompareWriter) Total() int {
	return c.total
}

// Counts returns the category counts per perspective.
func (c *CompareWriter) Counts() map[string]map[Category]int {
	return c.counts
}

// WriteSummary writes per-perspective category counts.
func (c *CompareWriter) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "\nComparison Summary (%d genes):\n", c.total)

	for _, p := range c.perspectives {
		cats := c.counts[p]
		fmt.Fprintf(w, "\n  %s:\n", p)

		// Sort categories by count descending
		type catCount struct {
			cat   Category
			count int
		}
		var sorted []catCount
		for cat, count := range cats {
			sorted = append(sorted, catCount{cat, count})
		}
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].count != sorted[j].count {
				return sorted[i].count > sorted[j].count
			}
			return sorted[i].cat < sorted[j].cat
		})

		for _, cc := range sorted {
			fmt.Fprintf(w, "    %-20s%d\n", cc.cat, cc.count)
		}
	}
}

func versioned(id, version string) string {
	if id == "" || version == "" {
		return id
	}
	return id + "." + version
}
