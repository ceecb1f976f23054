package artifact

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/battery-health/core/prediction"
)

// DefaultName is the row key used when none is configured.
const DefaultName = "battery_health"

// SQLiteStore persists the artifact as a blob in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	name string
}

// NewSQLiteStore opens or creates the database and ensures schema. Artifacts
// are keyed by name so several models can share one database.
func NewSQLiteStore(path, name string) (*SQLiteStore, error) {
	if name == "" {
		name = DefaultName
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS model_artifacts (
        name TEXT PRIMARY KEY,
        data BLOB NOT NULL,
        updated INTEGER NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, name: name}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM model_artifacts WHERE name = ?`, s.name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prediction.ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save inserts or replaces the artifact.
func (s *SQLiteStore) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO model_artifacts (name, data, updated)
        VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            data = excluded.data,
            updated = excluded.updated`,
		s.name, data, time.Now().Unix())
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM model_artifacts WHERE name = ?`, s.name)
	return err
}

// Updated returns when the artifact was last saved.
func (s *SQLiteStore) Updated(ctx context.Context) (time.Time, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, `SELECT updated FROM model_artifacts WHERE name = ?`, s.name).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, prediction.ErrArtifactNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(ts, 0).UTC(), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
