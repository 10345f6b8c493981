package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/canonical-tx/internal/resolve"
)

// GeneRecord is a stored record together with the gene it belongs to.
type GeneRecord struct {
	Symbol               string
	EnsemblCanonicalGene string
	Record               resolve.Record
}

// recordKey is the primary key of canonical_transcripts.
type recordKey struct {
	symbol, perspective string
}

// WriteResolutions batch-inserts resolutions using the Appender API.
// A (symbol, perspective) pair already seen in the batch is skipped.
func (s *Store) WriteResolutions(ctx context.Context, resolutions []*resolve.Resolution) error {
	if len(resolutions) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "canonical_transcripts")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	seen := make(map[recordKey]bool)
	for _, res := range resolutions {
		for i, rec := range res.Records {
			k := recordKey{res.Symbol, rec.Perspective}
			if seen[k] {
				continue
			}
			seen[k] = true
			if err := appender.AppendRow(
				res.Symbol, rec.Perspective, int64(i),
				rec.TranscriptID, rec.Version, rec.Explanation,
				rec.State.String(), res.EnsemblCanonicalGene,
			); err != nil {
				return fmt.Errorf("append resolution: %w", err)
			}
		}
	}

	return appender.Flush()
}

// ClearResolutions removes all stored results.
func (s *Store) ClearResolutions() error {
	_, err := s.db.Exec("DELETE FROM canonical_transcripts")
	return err
}

const selectRecords = `SELECT
	hgnc_symbol, ensembl_canonical_gene, perspective,
	transcript_id, transcript_version, explanation, state
	FROM canonical_transcripts`

// LookupGene returns a gene's records in perspective order.
func (s *Store) LookupGene(symbol string) ([]GeneRecord, error) {
	rows, err := s.db.Query(selectRecords+` WHERE hgnc_symbol=? ORDER BY perspective_rank`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query gene: %w", err)
	}
	defer rows.Close()

	return scanGeneRecords(rows)
}

// SearchByTranscript returns every record that selected transcriptID
// (without version), ordered by symbol and perspective.
func (s *Store) SearchByTranscript(transcriptID string) ([]GeneRecord, error) {
	rows, err := s.db.Query(selectRecords+` WHERE transcript_id=? ORDER BY hgnc_symbol, perspective_rank`, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query by transcript: %w", err)
	}
	defer rows.Close()

	return scanGeneRecords(rows)
}

// CountByExplanation returns how many genes each explanation accounts for
// in one perspective. Unresolved genes are counted under "".
func (s *Store) CountByExplanation(perspective string) (map[string]int, error) {
	rows, err := s.db.Query(`SELECT explanation, count(*)
		FROM canonical_transcripts
		WHERE perspective=?
		GROUP BY explanation`, perspective)
	if err != nil {
		return nil, fmt.Errorf("count explanations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var expl string
		var n int64
		if err := rows.Scan(&expl, &n); err != nil {
			return nil, fmt.Errorf("scan explanation count: %w", err)
		}
		counts[expl] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate explanation counts: %w", err)
	}
	return counts, nil
}

// scanGeneRecords scans rows into GeneRecord slices.
func scanGeneRecords(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]GeneRecord, error) {
	var results []GeneRecord
	for rows.Next() {
		var gr GeneRecord
		var state string
		if err := rows.Scan(
			&gr.Symbol, &gr.EnsemblCanonicalGene, &gr.Record.Perspective,
			&gr.Record.TranscriptID, &gr.Record.Version, &gr.Record.Explanation, &state,
		); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		gr.Record.State = parseState(state)
		results = append(results, gr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	return results, nil
}

func parseState(s string) resolve.State {
	for _, st := range []resolve.State{
		resolve.ResolvedByOverride, resolve.ResolvedByGene,
		resolve.ResolvedBySymbol, resolve.NoTranscript,
	} {
		if st.String() == s {
			return st
		}
	}
	return resolve.Unresolved
}
