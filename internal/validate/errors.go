// Package validate implements the integrity gates that must pass before and
// after canonical transcript resolution.
package validate

import (
	"fmt"
	"strings"
)

// Check names.
const (
	CheckDuplicateSymbol         = "duplicate-approved-symbol"
	CheckCancerGeneSplit         = "cancer-gene-split"
	CheckTranscriptMultipleGenes = "transcript-multiple-genes"
	CheckUnknownGeneSymbols      = "unknown-gene-symbols"
	CheckUnknownCancerGenes      = "unknown-cancer-genes"
	CheckAmbiguousSymbols        = "ambiguous-symbols"
	CheckExplanationMismatch     = "explanation-mismatch"
)

// maxListed caps how many offenders Error prints; Offenders keeps them all.
const maxListed = 10

// IntegrityError reports a failed integrity check with every offending entry.
type IntegrityError struct {
	Check     string
	Offenders []string // sorted
}

func (e *IntegrityError) Error() string {
	listed := e.Offenders
	more := ""
	if len(listed) > maxListed {
		more = fmt.Sprintf(", ... (%d more)", len(listed)-maxListed)
		listed = listed[:maxListed]
	}
	return fmt.Sprintf("integrity check %s failed for %d entries: %s%s",
		e.Check, len(e.Offenders), strings.Join(listed, "; "), more)
}

func newIntegrityError(check string, offenders []string) error {
	if len(offenders) == 0 {
		return nil
	}
	return &IntegrityError{Check: check, Offenders: offenders}
}
