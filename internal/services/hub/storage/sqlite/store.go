package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/rfidhub/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/rfidhub/internal/services/hub/storage"
	"github.com/louisbranch/rfidhub/internal/services/hub/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides a SQLite-backed tag store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) a SQLite store at path and applies the
// embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// TagExists reports whether tag has an exact match in rfid_tags.
func (s *Store) TagExists(ctx context.Context, tag string) (bool, error) {
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	var found int
	err := s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM rfid_tags WHERE rfid = ? LIMIT 1", tag).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query rfid tag: %w", err)
	}
	return true, nil
}

// AssignTag records tag as assigned. Assigning an existing tag is a no-op.
func (s *Store) AssignTag(ctx context.Context, tag string, assignedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(tag) == "" {
		return fmt.Errorf("rfid tag is required")
	}
	if assignedAt.IsZero() {
		assignedAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT OR IGNORE INTO rfid_tags (rfid, assigned_at) VALUES (?, ?)",
		tag, assignedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert rfid tag: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
