package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"causalsim/domain/core"
	"causalsim/domain/empirical"
	"causalsim/domain/study"
	"causalsim/internal/errors"
	"causalsim/ports"
)

// studyRepository implements the StudyRepository interface on Postgres.
type studyRepository struct {
	db *sqlx.DB
}

// NewStudyRepository creates a new study repository.
func NewStudyRepository(db *sqlx.DB) ports.StudyRepository {
	return &studyRepository{db: db}
}

// Connect opens and pings a Postgres connection.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the studies table if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS studies (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		policy TEXT NOT NULL,
		statistic TEXT NOT NULL,
		trials INT NOT NULL,
		missing INT NOT NULL,
		seed BIGINT NOT NULL,
		seeded BOOLEAN NOT NULL,
		units INT NOT NULL,
		runtime_ms BIGINT NOT NULL,
		fingerprint TEXT NOT NULL,
		dist_values JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to migrate studies table: %w", err)
	}
	return nil
}

// Save stores a completed study run.
func (r *studyRepository) Save(ctx context.Context, m *study.Manifest, dist *empirical.Distribution) error {
	valuesJSON, err := json.Marshal(dist.Values())
	if err != nil {
		return fmt.Errorf("failed to marshal distribution values: %w", err)
	}

	query := `INSERT INTO studies (
		id, kind, policy, statistic, trials, missing, seed, seeded, units,
		runtime_ms, fingerprint, dist_values, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)`

	_, err = r.db.ExecContext(ctx, query,
		m.StudyID, m.Kind, m.Policy, m.Statistic, m.Trials, m.Missing, m.Seed, m.Seeded,
		m.Units, m.RuntimeMs, m.Fingerprint, valuesJSON, m.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save study: %w", err)
	}
	return nil
}

// GetByID retrieves a study and its distribution.
func (r *studyRepository) GetByID(ctx context.Context, id core.StudyID) (*study.Manifest, *empirical.Distribution, error) {
	query := `SELECT
		id, kind, policy, statistic, trials, missing, seed, seeded, units,
		runtime_ms, fingerprint, dist_values, created_at
	FROM studies WHERE id = $1`

	var (
		m          study.Manifest
		valuesJSON []byte
		createdAt  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.StudyID, &m.Kind, &m.Policy, &m.Statistic, &m.Trials, &m.Missing, &m.Seed, &m.Seeded,
		&m.Units, &m.RuntimeMs, &m.Fingerprint, &valuesJSON, &createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, errors.NotFound("study " + id.String())
		}
		return nil, nil, fmt.Errorf("failed to get study: %w", err)
	}
	if createdAt.Valid {
		m.CreatedAt = core.NewTimestamp(createdAt.Time)
	}

	var values []float64
	if len(valuesJSON) > 0 {
		if err := json.Unmarshal(valuesJSON, &values); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal distribution values: %w", err)
		}
	}
	dist := empirical.Rehydrate(values, m.Missing, m.Seeded)
	return &m, dist, nil
}

// List returns recent study manifests, newest first.
func (r *studyRepository) List(ctx context.Context, limit, offset int) ([]*study.Manifest, error) {
	query := `SELECT
		id, kind, policy, statistic, trials, missing, seed, seeded, units,
		runtime_ms, fingerprint, created_at
	FROM studies
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query studies: %w", err)
	}
	defer rows.Close()

	var manifests []*study.Manifest
	for rows.Next() {
		var (
			m         study.Manifest
			createdAt sql.NullTime
		)
		err := rows.Scan(
			&m.StudyID, &m.Kind, &m.Policy, &m.Statistic, &m.Trials, &m.Missing, &m.Seed, &m.Seeded,
			&m.Units, &m.RuntimeMs, &m.Fingerprint, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study: %w", err)
		}
		if createdAt.Valid {
			m.CreatedAt = core.NewTimestamp(createdAt.Time)
		}
		manifests = append(manifests, &m)
	}
	return manifests, rows.Err()
}
