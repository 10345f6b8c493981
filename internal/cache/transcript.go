// Package cache provides the in-memory Ensembl transcript catalog.
package cache

import (
	"strconv"
	"strings"
)

// Transcript represents a specific gene isoform as reported by Ensembl BioMart.
type Transcript struct {
	ID            string // Transcript stable ID without version (e.g., ENST00000311936)
	Version       string // Version number (e.g., "8"), empty if not reported
	GeneID        string // Parent gene stable ID
	GeneName      string // HGNC symbol as reported by Ensembl, may be stale
	IsCanonical   bool   // Ensembl canonical flag
	ProteinLength int    // Protein length in amino acids, 0 if non-coding or unknown
}

// VersionedID returns the transcript ID with its version suffix, if known.
func (t *Transcript) VersionedID() string {
	if t.Version == "" {
		return t.ID
	}
	return t.ID + "." + t.Version
}

// stripVersion removes the version suffix from an Ensembl ID.
// e.g., "ENST00000456328.2" -> "ENST00000456328"
func stripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}

// SplitVersion splits an Ensembl ID into its base and version suffix.
// e.g., "ENST00000257430.4" -> ("ENST00000257430", "4"), "ENST00000257430" -> ("ENST00000257430", "")
func SplitVersion(id string) (base, version string) {
	id = strings.TrimSpace(id)
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx], id[idx+1:]
	}
	return id, ""
}

// StripVersion is the exported form of stripVersion.
func StripVersion(id string) string {
	return stripVersion(strings.TrimSpace(id))
}

// IsNumericVersion reports whether v is a well-formed version number.
func IsNumericVersion(v string) bool {
	if v == "" {
		return false
	}
	_, err := strconv.ParseUint(v, 10, 32)
	return err == nil
}
