// Package postgres implements the cvrsource.Source interface against
// a Postgres-backed CVR store.
package postgres

import (
	"context"
	_ "embed" // needed for schema.sql embedding
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrcv/tabulator/ballot"
	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/rankings"
)

//go:embed schema.sql
var schema string

// Source holds the connection pool backing a cvrsource.Source.
type Source struct {
	pool *pgxpool.Pool
}

// New creates a connection pool against url. Connections are opened
// lazily; call Migrate before the first Load against a fresh database.
func New(ctx context.Context, url string) (*Source, error) {
	conf, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid connection url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	return &Source{pool: pool}, nil
}

// Migrate creates the cast_vote_record table if it does not exist.
func (s *Source) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes every pooled connection.
func (s *Source) Close() { s.pool.Close() }

// markedRank is the on-the-wire shape of one rankings jsonb entry.
type markedRank struct {
	Rank       int      `json:"rank"`
	Candidates []string `json:"candidates"`
}

// Insert stores one CVR row for contestID. Rankings are serialized as
// a jsonb array of {rank, candidates} entries.
func (s *Source) Insert(ctx context.Context, contestID string, cvr *ballot.CastVoteRecord) error {
	var marks []markedRank
	for _, rank := range cvr.Rankings.Ranks() {
		atRank := cvr.Rankings.AtRank(rank)
		names := make([]string, 0, atRank.Len())
		for _, c := range atRank.Sorted() {
			names = append(names, string(c))
		}
		marks = append(marks, markedRank{Rank: rank, Candidates: names})
	}
	raw, err := json.Marshal(marks)
	if err != nil {
		return fmt.Errorf("encoding rankings: %w", err)
	}

	const sql = `
	INSERT INTO cast_vote_record
		(contest_id, cvr_id, audit_id, precinct, precinct_portion, tabulator_id, batch_id, rankings)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (contest_id, cvr_id) DO UPDATE SET rankings = EXCLUDED.rankings;
	`
	_, err = s.pool.Exec(ctx, sql, contestID, cvr.ID, cvr.AuditID, cvr.Precinct, cvr.PrecinctPortion, cvr.TabulatorID, cvr.BatchID, raw)
	if err != nil {
		return fmt.Errorf("insert cast vote record: %w", err)
	}
	return nil
}

// Load returns every CVR row stored for contestID.
func (s *Source) Load(ctx context.Context, contestID string) ([]*ballot.CastVoteRecord, error) {
	const sql = `
	SELECT cvr_id, audit_id, precinct, precinct_portion, tabulator_id, batch_id, rankings
	FROM cast_vote_record
	WHERE contest_id = $1
	ORDER BY cvr_id;
	`
	rows, err := s.pool.Query(ctx, sql, contestID)
	if err != nil {
		return nil, fmt.Errorf("querying cast vote records: %w", err)
	}
	defer rows.Close()

	var out []*ballot.CastVoteRecord
	for rows.Next() {
		var (
			id, auditID, precinct, precinctPortion, tabulatorID, batchID string
			raw                                                          []byte
		)
		if err := rows.Scan(&id, &auditID, &precinct, &precinctPortion, &tabulatorID, &batchID, &raw); err != nil {
			return nil, fmt.Errorf("scanning cast vote record: %w", err)
		}

		var marks []markedRank
		if err := json.Unmarshal(raw, &marks); err != nil {
			return nil, fmt.Errorf("decoding rankings for %s: %w", id, err)
		}

		b := rankings.NewBuilder()
		for _, m := range marks {
			cands := make([]candidate.Candidate, len(m.Candidates))
			for i, c := range m.Candidates {
				cands[i] = candidate.Candidate(c)
			}
			b.Add(m.Rank, cands...)
		}

		cvr := ballot.New(id, b.Build())
		cvr.AuditID = auditID
		cvr.Precinct = precinct
		cvr.PrecinctPortion = precinctPortion
		cvr.TabulatorID = tabulatorID
		cvr.BatchID = batchID
		out = append(out, cvr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cast vote records: %w", err)
	}
	if len(out) == 0 {
		return nil, doesNotExistError{fmt.Errorf("contest %q has no stored cast vote records", contestID)}
	}
	return out, nil
}

type doesNotExistError struct {
	error
}

func (doesNotExistError) DoesNotExist() {}
