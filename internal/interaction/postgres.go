package interaction

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/symbiose/internal/db"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgresStore creates a PostgresStore on an existing pool. closeFn may be
// nil when the caller owns the pool.
func NewPostgresStore(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: closeFn}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS suggestion_interactions (
	id                BIGSERIAL PRIMARY KEY,
	user_id           BIGINT NOT NULL,
	target_company_id BIGINT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'new',
	last_score        INTEGER,
	distance_km       DOUBLE PRECISION,
	reasons           JSONB NOT NULL DEFAULT '[]'::jsonb,
	computed          JSONB,
	note              TEXT,
	note_updated_at   TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT suggestion_interactions_pair UNIQUE (user_id, target_company_id),
	CONSTRAINT suggestion_interactions_status CHECK (status IN ('new', 'saved', 'ignored', 'contacted'))
);

CREATE INDEX IF NOT EXISTS idx_suggestion_interactions_user ON suggestion_interactions(user_id);
`

const postgresColumns = `id, user_id, target_company_id, status, last_score, distance_km,
	reasons, computed, note, note_updated_at, created_at, updated_at`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate interactions")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, companyID int64) (*Interaction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresColumns+` FROM suggestion_interactions WHERE user_id = $1 AND target_company_id = $2`,
		userID, companyID,
	)
	it, err := scanPostgres(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get interaction %d/%d", userID, companyID)
	}
	return it, nil
}

func (s *PostgresStore) ListForUser(ctx context.Context, userID int64) ([]Interaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postgresColumns+` FROM suggestion_interactions WHERE user_id = $1 ORDER BY target_company_id`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list interactions for user %d", userID)
	}
	defer rows.Close()

	out := []Interaction{}
	for rows.Next() {
		it, err := scanPostgres(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan interaction")
		}
		out = append(out, *it)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list interactions iterate")
}

func (s *PostgresStore) Upsert(ctx context.Context, userID, companyID int64, in UpsertInput) (*Interaction, error) {
	reasonsJSON, err := encodeReasons(in.Reasons)
	if err != nil {
		return nil, err
	}
	computedJSON, err := encodeComputed(in.Metadata.Computed)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	row := s.pool.QueryRow(ctx, `
		INSERT INTO suggestion_interactions
			(user_id, target_company_id, status, last_score, distance_km, reasons, computed,
			 note, note_updated_at, created_at, updated_at)
		VALUES ($1, $2, 'new', $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (user_id, target_company_id) DO UPDATE SET
			last_score      = EXCLUDED.last_score,
			distance_km     = EXCLUDED.distance_km,
			reasons         = EXCLUDED.reasons,
			computed        = COALESCE(EXCLUDED.computed, suggestion_interactions.computed),
			note            = COALESCE(EXCLUDED.note, suggestion_interactions.note),
			note_updated_at = COALESCE(EXCLUDED.note_updated_at, suggestion_interactions.note_updated_at),
			updated_at      = EXCLUDED.updated_at
		RETURNING `+postgresColumns,
		userID, companyID, in.Score, in.DistanceKM, reasonsJSON, computedJSON,
		nullableNote(in.Metadata.Note), noteTimestamp(in.Metadata), now,
	)
	it, err := scanPostgres(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert interaction %d/%d", userID, companyID)
	}
	return it, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, userID, companyID int64, status Status, note string) (*Interaction, error) {
	now := time.Now().UTC()
	var noteAt *time.Time
	if note != "" {
		noteAt = &now
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO suggestion_interactions
			(user_id, target_company_id, status, note, note_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, target_company_id) DO UPDATE SET
			status          = EXCLUDED.status,
			note            = COALESCE(EXCLUDED.note, suggestion_interactions.note),
			note_updated_at = COALESCE(EXCLUDED.note_updated_at, suggestion_interactions.note_updated_at),
			updated_at      = EXCLUDED.updated_at
		RETURNING `+postgresColumns,
		userID, companyID, string(status), nullableNote(note), noteAt, now,
	)
	it, err := scanPostgres(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: set status %d/%d", userID, companyID)
	}
	return it, nil
}

func scanPostgres(row scannable) (*Interaction, error) {
	var (
		it       Interaction
		status   string
		reasons  []byte
		computed []byte
		note     *string
	)
	err := row.Scan(&it.ID, &it.UserID, &it.TargetCompanyID, &status, &it.LastScore, &it.DistanceKM,
		&reasons, &computed, &note, &it.Metadata.NoteUpdatedAt, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Status = Status(status)
	if it.Reasons, err = decodeReasons(reasons); err != nil {
		return nil, err
	}
	if it.Metadata.Computed, err = decodeComputed(computed); err != nil {
		return nil, err
	}
	if note != nil {
		it.Metadata.Note = *note
	}
	return &it, nil
}

func noteTimestamp(m Metadata) *time.Time {
	if m.Note == "" || m.NoteUpdatedAt == nil {
		return nil
	}
	t := m.NoteUpdatedAt.UTC()
	return &t
}
