package interaction

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // register driver
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas below are per connection and SQLite has a single writer.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS suggestion_interactions (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id           INTEGER NOT NULL,
	target_company_id INTEGER NOT NULL,
	status            TEXT NOT NULL DEFAULT 'new',
	last_score        INTEGER,
	distance_km       REAL,
	reasons           TEXT NOT NULL DEFAULT '[]',
	computed          TEXT,
	note              TEXT,
	note_updated_at   DATETIME,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL,
	UNIQUE (user_id, target_company_id)
);

CREATE INDEX IF NOT EXISTS idx_suggestion_interactions_user ON suggestion_interactions(user_id);
`

const sqliteColumns = `id, user_id, target_company_id, status, last_score, distance_km,
	reasons, computed, note, note_updated_at, created_at, updated_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, userID, companyID int64) (*Interaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM suggestion_interactions WHERE user_id = ? AND target_company_id = ?`,
		userID, companyID,
	)
	it, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get interaction %d/%d", userID, companyID)
	}
	return it, nil
}

func (s *SQLiteStore) ListForUser(ctx context.Context, userID int64) ([]Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM suggestion_interactions WHERE user_id = ? ORDER BY target_company_id`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list interactions for user %d", userID)
	}
	defer rows.Close()

	out := []Interaction{}
	for rows.Next() {
		it, err := scanSQLite(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan interaction")
		}
		out = append(out, *it)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list interactions iterate")
}

func (s *SQLiteStore) Upsert(ctx context.Context, userID, companyID int64, in UpsertInput) (*Interaction, error) {
	reasonsJSON, err := encodeReasons(in.Reasons)
	if err != nil {
		return nil, err
	}
	computedJSON, err := encodeComputed(in.Metadata.Computed)
	if err != nil {
		return nil, err
	}
	var computed any
	if computedJSON != nil {
		computed = string(computedJSON)
	}
	now := formatTime(time.Now())

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO suggestion_interactions
			(user_id, target_company_id, status, last_score, distance_km, reasons, computed,
			 note, note_updated_at, created_at, updated_at)
		VALUES (?, ?, 'new', ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, target_company_id) DO UPDATE SET
			last_score      = excluded.last_score,
			distance_km     = excluded.distance_km,
			reasons         = excluded.reasons,
			computed        = COALESCE(excluded.computed, suggestion_interactions.computed),
			note            = COALESCE(excluded.note, suggestion_interactions.note),
			note_updated_at = COALESCE(excluded.note_updated_at, suggestion_interactions.note_updated_at),
			updated_at      = excluded.updated_at
		RETURNING `+sqliteColumns,
		userID, companyID, in.Score, in.DistanceKM, string(reasonsJSON), computed,
		nullableNote(in.Metadata.Note), noteTime(in.Metadata), now, now,
	)
	it, err := scanSQLite(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert interaction %d/%d", userID, companyID)
	}
	return it, nil
}

func (s *SQLiteStore) SetStatus(ctx context.Context, userID, companyID int64, status Status, note string) (*Interaction, error) {
	now := formatTime(time.Now())
	var noteAt any
	if note != "" {
		noteAt = now
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO suggestion_interactions
			(user_id, target_company_id, status, note, note_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, target_company_id) DO UPDATE SET
			status          = excluded.status,
			note            = COALESCE(excluded.note, suggestion_interactions.note),
			note_updated_at = COALESCE(excluded.note_updated_at, suggestion_interactions.note_updated_at),
			updated_at      = excluded.updated_at
		RETURNING `+sqliteColumns,
		userID, companyID, string(status), nullableNote(note), noteAt, now, now,
	)
	it, err := scanSQLite(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: set status %d/%d", userID, companyID)
	}
	return it, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLite(row scannable) (*Interaction, error) {
	var (
		it        Interaction
		status    string
		lastScore sql.NullInt64
		distance  sql.NullFloat64
		reasons   string
		computed  sql.NullString
		note      sql.NullString
		noteAt    sqliteTime
		created   sqliteTime
		updated   sqliteTime
	)
	err := row.Scan(&it.ID, &it.UserID, &it.TargetCompanyID, &status, &lastScore, &distance,
		&reasons, &computed, &note, &noteAt, &created, &updated)
	if err != nil {
		return nil, err
	}

	it.Status = Status(status)
	it.CreatedAt = created.Time
	it.UpdatedAt = updated.Time
	if lastScore.Valid {
		v := int(lastScore.Int64)
		it.LastScore = &v
	}
	if distance.Valid {
		v := distance.Float64
		it.DistanceKM = &v
	}
	if it.Reasons, err = decodeReasons([]byte(reasons)); err != nil {
		return nil, err
	}
	if computed.Valid {
		if it.Metadata.Computed, err = decodeComputed([]byte(computed.String)); err != nil {
			return nil, err
		}
	}
	if note.Valid {
		it.Metadata.Note = note.String
	}
	if noteAt.Valid {
		t := noteAt.Time
		it.Metadata.NoteUpdatedAt = &t
	}
	return &it, nil
}

func noteTime(m Metadata) any {
	if m.Note == "" || m.NoteUpdatedAt == nil {
		return nil
	}
	return formatTime(*m.NoteUpdatedAt)
}

// Timestamps are stored as RFC 3339 text.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// sqliteTime scans a timestamp column whether the driver hands back text or
// an already-parsed time.
type sqliteTime struct {
	Time  time.Time
	Valid bool
}

func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = sqliteTime{}
		return nil
	case time.Time:
		*t = sqliteTime{Time: v.UTC(), Valid: true}
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return eris.Errorf("sqlite: unsupported timestamp type %T", src)
	}
}

func (t *sqliteTime) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = sqliteTime{Time: parsed.UTC(), Valid: true}
			return nil
		}
	}
	return eris.Errorf("sqlite: unparseable timestamp %q", s)
}
