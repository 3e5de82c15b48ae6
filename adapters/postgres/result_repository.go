// Package postgres persists finished analyses in PostgreSQL. Structures
// are stored as JSONB alongside the scalar columns used for querying.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gophi/domain/core"
	"gophi/domain/phi"
	apperrors "gophi/internal/errors"
	"gophi/ports"
)

// Connect opens and pings a PostgreSQL connection
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect to postgres")
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS phi_results (
	id                    UUID PRIMARY KEY,
	subsystem_hash        TEXT NOT NULL,
	nodes                 JSONB NOT NULL,
	state                 JSONB NOT NULL,
	phi                   DOUBLE PRECISION NOT NULL,
	cut_from              JSONB NOT NULL,
	cut_to                JSONB NOT NULL,
	structure             JSONB NOT NULL,
	partitioned_structure JSONB NOT NULL,
	elapsed_ms            BIGINT NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_phi_results_subsystem ON phi_results (subsystem_hash);
`

// ResultRepositoryImpl implements ports.ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates the repository and ensures its schema
func NewResultRepository(db *sqlx.DB) (ports.ResultRepository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, apperrors.Wrap(err, "failed to create phi_results schema")
	}
	return &ResultRepositoryImpl{db: db}, nil
}

// SaveResult upserts one analysis result
func (r *ResultRepositoryImpl) SaveResult(ctx context.Context, result *phi.BigPhiResult) error {
	nodesJSON, _ := json.Marshal(result.Nodes)
	stateJSON, _ := json.Marshal(result.State)
	fromJSON, _ := json.Marshal(result.Cut.From)
	toJSON, _ := json.Marshal(result.Cut.To)
	structureJSON, err := json.Marshal(result.Structure)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode structure")
	}
	partedJSON, err := json.Marshal(result.PartitionedStructure)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode partitioned structure")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO phi_results (
			id, subsystem_hash, nodes, state, phi,
			cut_from, cut_to, structure, partitioned_structure, elapsed_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			phi = EXCLUDED.phi,
			cut_from = EXCLUDED.cut_from,
			cut_to = EXCLUDED.cut_to,
			structure = EXCLUDED.structure,
			partitioned_structure = EXCLUDED.partitioned_structure,
			elapsed_ms = EXCLUDED.elapsed_ms`,
		result.ID.String(), result.Subsystem.String(), nodesJSON, stateJSON, result.Phi,
		fromJSON, toJSON, structureJSON, partedJSON, result.Elapsed.Milliseconds())

	return err
}

// GetResult retrieves one result by ID
func (r *ResultRepositoryImpl) GetResult(ctx context.Context, id core.ResultID) (*phi.BigPhiResult, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, subsystem_hash, nodes, state, phi,
			   cut_from, cut_to, structure, partitioned_structure, elapsed_ms
		FROM phi_results
		WHERE id = $1
	`, id.String())
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("phi result " + id.String())
	}
	return result, err
}

// ListResults retrieves all results for a subsystem, newest first
func (r *ResultRepositoryImpl) ListResults(ctx context.Context, subsystem core.SubsystemHash) ([]*phi.BigPhiResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subsystem_hash, nodes, state, phi,
			   cut_from, cut_to, structure, partitioned_structure, elapsed_ms
		FROM phi_results
		WHERE subsystem_hash = $1
		ORDER BY created_at DESC
	`, subsystem.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*phi.BigPhiResult{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*phi.BigPhiResult, error) {
	var (
		result    phi.BigPhiResult
		id, hash  string
		elapsedMs int64

		nodesJSON, stateJSON, fromJSON, toJSON, structureJSON, partedJSON []byte
	)
	err := row.Scan(&id, &hash, &nodesJSON, &stateJSON, &result.Phi,
		&fromJSON, &toJSON, &structureJSON, &partedJSON, &elapsedMs)
	if err != nil {
		return nil, err
	}
	result.ID = core.ResultID(id)
	result.Subsystem = core.SubsystemHash(hash)
	result.Elapsed = time.Duration(elapsedMs) * time.Millisecond

	for _, field := range []struct {
		raw []byte
		out any
	}{
		{nodesJSON, &result.Nodes},
		{stateJSON, &result.State},
		{fromJSON, &result.Cut.From},
		{toJSON, &result.Cut.To},
		{structureJSON, &result.Structure},
		{partedJSON, &result.PartitionedStructure},
	} {
		if err := json.Unmarshal(field.raw, field.out); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode stored result")
		}
	}
	return &result, nil
}
