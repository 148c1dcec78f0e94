// Package sqlite keeps the save slot in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tatianab/island-adventure/internal/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS save_slot (
	slot        INTEGER PRIMARY KEY CHECK (slot = 1),
	version     INTEGER NOT NULL,
	session_id  TEXT NOT NULL,
	scene_state TEXT NOT NULL,
	saved_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS save_items (
	position    INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL
);
`

// Store is a single save slot backed by SQLite.
type Store struct {
	path  string
	sqlDB *sql.DB
}

// Open opens the database at path and creates the tables if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	sqlDB, err := sql.Open("sqlite", cleanPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{path: cleanPath, sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save replaces the save slot with rec.
func (s *Store) Save(ctx context.Context, rec models.SaveRecord) (err error) {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO save_slot (slot, version, session_id, scene_state, saved_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		    version = excluded.version,
		    session_id = excluded.session_id,
		    scene_state = excluded.scene_state,
		    saved_at = excluded.saved_at`,
		models.SaveVersion,
		rec.SessionID,
		string(rec.Scene),
		rec.SavedAt.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("write save slot: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM save_items`); err != nil {
		return fmt.Errorf("clear save items: %w", err)
	}
	for i, it := range rec.Player.Inventory.List() {
		if _, err = tx.ExecContext(
			ctx,
			`INSERT INTO save_items (position, name, description) VALUES (?, ?, ?)`,
			i, it.Name, it.Description,
		); err != nil {
			return fmt.Errorf("write save item %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load reads the save slot. Every failure is a *models.LoadError.
func (s *Store) Load(ctx context.Context) (models.SaveRecord, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return models.SaveRecord{}, &models.LoadError{Source: s.source(), Err: err}
	}
	return rec, nil
}

func (s *Store) load(ctx context.Context) (models.SaveRecord, error) {
	if s == nil || s.sqlDB == nil {
		return models.SaveRecord{}, fmt.Errorf("storage is not configured")
	}

	var (
		rec     models.SaveRecord
		version int
		scene   string
		savedAt int64
	)
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT version, session_id, scene_state, saved_at FROM save_slot WHERE slot = 1`,
	)
	if err := row.Scan(&version, &rec.SessionID, &scene, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SaveRecord{}, models.ErrNoSave
		}
		return models.SaveRecord{}, fmt.Errorf("read save slot: %w", err)
	}
	if version != models.SaveVersion {
		return models.SaveRecord{}, fmt.Errorf("unsupported save version %d", version)
	}
	if scene == "" {
		return models.SaveRecord{}, errors.New("save has no scene state")
	}
	rec.Scene = models.SceneState(scene)
	rec.SavedAt = time.UnixMilli(savedAt).UTC()

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name, description FROM save_items ORDER BY position`)
	if err != nil {
		return models.SaveRecord{}, fmt.Errorf("read save items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.Name, &it.Description); err != nil {
			return models.SaveRecord{}, fmt.Errorf("scan save item: %w", err)
		}
		rec.Player.Inventory.Add(it)
	}
	if err := rows.Err(); err != nil {
		return models.SaveRecord{}, fmt.Errorf("read save items: %w", err)
	}
	return rec, nil
}

func (s *Store) source() string {
	if s == nil {
		return "sqlite"
	}
	return s.path
}
