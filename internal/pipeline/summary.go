package pipeline

import "github.com/inodb/canonical-tx/internal/resolve"

// PerspectiveSummary counts terminal states for one perspective.
type PerspectiveSummary struct {
	Perspective string
	Counts      map[resolve.State]int
}

// Summarize counts resolution states per perspective, in record order.
func Summarize(res []*resolve.Resolution) []PerspectiveSummary {
	var out []PerspectiveSummary
	index := make(map[string]int)
	for _, r := range res {
		for _, rec := range r.Records {
			i, ok := index[rec.Perspective]
			if !ok {
				i = len(out)
				index[rec.Perspective] = i
				out = append(out, PerspectiveSummary{
					Perspective: rec.Perspective,
					Counts:      make(map[resolve.State]int),
				})
			}
			out[i].Counts[rec.State]++
		}
	}
	return out
}
