package cache

import (
	"sort"
	"strconv"
)

// Explanations produced by Ensembl-based canonical selection.
const (
	ExplanationOnlyOne = "ensembl only one transcript"
	ExplanationLongest = "ensembl longest"
)

// Canonical picks the canonical transcript from a lookup result.
//
//   - Empty: (nil, "")
//   - Single: the transcript, whatever its flags, "ensembl only one transcript"
//   - Multiple: the first by (is_canonical, protein_length, gene_id) descending,
//     "ensembl longest"
func Canonical(l Lookup) (*Transcript, string) {
	switch l.Kind {
	case Single:
		return l.Transcripts[0], ExplanationOnlyOne
	case Multiple:
		return RankCanonical(l.Transcripts)[0], ExplanationLongest
	}
	return nil, ""
}

// RankCanonical returns a copy of ts ordered best-first. Ties on all three
// keys are broken by transcript ID, then version, ascending so the order is total.
// Versions compare numerically when both are numeric.
func RankCanonical(ts []*Transcript) []*Transcript {
	ranked := append([]*Transcript(nil), ts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.IsCanonical != b.IsCanonical {
			return a.IsCanonical
		}
		if a.ProteinLength != b.ProteinLength {
			return a.ProteinLength > b.ProteinLength
		}
		if a.GeneID != b.GeneID {
			return a.GeneID > b.GeneID
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return versionLess(a.Version, b.Version)
	})
	return ranked
}

// versionLess orders missing versions first, then numeric versions by value,
// then anything else as strings.
func versionLess(a, b string) bool {
	ka, na := versionKey(a)
	kb, nb := versionKey(b)
	if ka != kb {
		return ka < kb
	}
	if ka == 1 {
		return na < nb
	}
	return a < b
}

func versionKey(v string) (class int, n uint64) {
	if v == "" {
		return 0, 0
	}
	if n, err := strconv.ParseUint(v, 10, 32); err == nil {
		return 1, n
	}
	return 2, 0
}
