package resolve

import (
	"strconv"

	"github.com/inodb/canonical-tx/internal/cache"
)

// VersionSource lists the version strings recorded for a transcript stable ID.
type VersionSource interface {
	Versions(id string) []string
}

// VersionResolver infers transcript versions from the catalog when a source
// reports an unversioned ID.
type VersionResolver struct {
	src VersionSource
}

// NewVersionResolver creates a resolver backed by src.
func NewVersionResolver(src VersionSource) *VersionResolver {
	return &VersionResolver{src: src}
}

// ResolveVersion returns the version for baseID. A dotted suffix on raw is
// used as is; otherwise the highest numeric version recorded for baseID is
// returned. It reports false when no version is known.
func (v *VersionResolver) ResolveVersion(baseID, raw string) (string, bool) {
	if _, suffix := cache.SplitVersion(raw); suffix != "" {
		return suffix, true
	}

	best := -1
	for _, s := range v.src.Versions(baseID) {
		if !cache.IsNumericVersion(s) {
			continue
		}
		n, _ := strconv.Atoi(s)
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return "", false
	}
	return strconv.Itoa(best), true
}
