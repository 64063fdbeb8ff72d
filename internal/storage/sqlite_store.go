package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

// prefsRowID pins the single preferences row; there is exactly one
// board configuration per database.
const prefsRowID = 1

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SavePrefs(ctx context.Context, prefs BoardPrefs) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO board_prefs (id, sources, window_hours, min_severity, sort_key, sort_dir, group_by_day, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sources = excluded.sources,
			window_hours = excluded.window_hours,
			min_severity = excluded.min_severity,
			sort_key = excluded.sort_key,
			sort_dir = excluded.sort_dir,
			group_by_day = excluded.group_by_day,
			updated_at = excluded.updated_at`,
		prefsRowID, strings.Join(prefs.Sources, ","), prefs.WindowHours, prefs.MinSeverity,
		prefs.SortKey, prefs.SortDir, boolInt(prefs.GroupByDay), mustTime(prefs.UpdatedAt),
	)
	return err
}

func (s *SQLiteStore) LoadPrefs(ctx context.Context) (BoardPrefs, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sources, window_hours, min_severity, sort_key, sort_dir, group_by_day, updated_at
		FROM board_prefs WHERE id = ?`, prefsRowID)

	var (
		sources    string
		groupByDay int
		updatedAt  string
		prefs      BoardPrefs
	)
	err := row.Scan(&sources, &prefs.WindowHours, &prefs.MinSeverity, &prefs.SortKey, &prefs.SortDir, &groupByDay, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BoardPrefs{}, ErrNotFound
		}
		return BoardPrefs{}, err
	}
	if sources != "" {
		prefs.Sources = strings.Split(sources, ",")
	}
	prefs.GroupByDay = groupByDay != 0
	prefs.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return BoardPrefs{}, err
	}
	return prefs, nil
}

func (s *SQLiteStore) InsertNotification(ctx context.Context, in Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, kind, message, event_id, created_at, read_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		in.ID, in.Kind, in.Message, in.EventID, mustTime(in.CreatedAt), nullTime(in.ReadAt),
	)
	return err
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, message, event_id, created_at, read_at
		FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n         Notification
			createdAt string
			readAt    sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.Kind, &n.Message, &n.EventID, &createdAt, &readAt); err != nil {
			return nil, err
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			at, err := parseTime(readAt.String)
			if err != nil {
				return nil, err
			}
			n.ReadAt = &at
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL`,
		mustTime(time.Now().UTC()), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM notifications WHERE id = ?`, id)
		if err := row.Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (s *SQLiteStore) UnreadNotificationCount(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM notifications WHERE read_at IS NULL`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func mustTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return mustTime(*t)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", raw, err)
	}
	return t, nil
}
