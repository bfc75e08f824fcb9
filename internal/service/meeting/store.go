package meeting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	model "github.com/zhouzirui/agentdesk/backend/internal/model/meeting"
)

var (
	ErrTitleRequired    = errors.New("meeting title is required")
	ErrInvalidStartTime = errors.New("start time must use the YYYY-MM-DD HH:MM format")
)

const schema = `
CREATE TABLE IF NOT EXISTS meetings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	start_time  TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS ix_meetings_title ON meetings (title);
`

// OpenDatabase opens (creating if needed) the sqlite database at path.
func OpenDatabase(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// SQLiteStore implements meeting.Store on database/sql.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore migrates the schema and returns the store.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate meetings schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for read-only collaborators.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func validateStartTime(v string) error {
	if _, err := time.Parse(model.StartTimeLayout, v); err != nil {
		return ErrInvalidStartTime
	}
	return nil
}

// Create inserts a meeting.
func (s *SQLiteStore) Create(ctx context.Context, title, startTime, description string) (model.Meeting, error) {
	title = strings.TrimSpace(title)
	startTime = strings.TrimSpace(startTime)
	if title == "" {
		return model.Meeting{}, ErrTitleRequired
	}
	if err := validateStartTime(startTime); err != nil {
		return model.Meeting{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (title, start_time, description) VALUES (?, ?, ?)`,
		title, startTime, description)
	if err != nil {
		return model.Meeting{}, fmt.Errorf("failed to create meeting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Meeting{}, fmt.Errorf("failed to create meeting: %w", err)
	}

	return model.Meeting{ID: id, Title: title, StartTime: startTime, Description: description}, nil
}

// List returns all meetings ordered by start time.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Meeting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_time, description FROM meetings ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve meetings: %w", err)
	}
	return scanMeetings(rows)
}

// Get returns one meeting or model.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (model.Meeting, error) {
	var m model.Meeting
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, start_time, description FROM meetings WHERE id = ?`, id).
		Scan(&m.ID, &m.Title, &m.StartTime, &m.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Meeting{}, model.ErrNotFound
	}
	if err != nil {
		return model.Meeting{}, fmt.Errorf("failed to retrieve meeting: %w", err)
	}
	return m, nil
}

// Update applies patch. Empty title or start time values are ignored.
func (s *SQLiteStore) Update(ctx context.Context, id int64, patch model.Patch) (model.Meeting, error) {
	var (
		sets []string
		args []any
	)
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*patch.Title))
	}
	if patch.StartTime != nil && strings.TrimSpace(*patch.StartTime) != "" {
		start := strings.TrimSpace(*patch.StartTime)
		if err := validateStartTime(start); err != nil {
			return model.Meeting{}, err
		}
		sets = append(sets, "start_time = ?")
		args = append(args, start)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}

	if len(sets) == 0 {
		return s.Get(ctx, id)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE meetings SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return model.Meeting{}, fmt.Errorf("failed to update meeting: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Meeting{}, model.ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes a meeting and reports whether it existed.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete meeting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete meeting: %w", err)
	}
	return n > 0, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search matches query case-insensitively against title and description.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]model.Meeting, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_time, description FROM meetings
		 WHERE lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\'
		 ORDER BY start_time, id`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search meetings: %w", err)
	}
	return scanMeetings(rows)
}

// Count returns the number of meetings.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meetings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count meetings: %w", err)
	}
	return n, nil
}

func scanMeetings(rows *sql.Rows) ([]model.Meeting, error) {
	defer rows.Close()

	meetings := make([]model.Meeting, 0)
	for rows.Next() {
		var m model.Meeting
		if err := rows.Scan(&m.ID, &m.Title, &m.StartTime, &m.Description); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return meetings, nil
}

var _ model.Store = (*SQLiteStore)(nil)
