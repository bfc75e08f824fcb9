package sqlquery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agentdesk/backend/internal/service/classifier"
)

const maxRenderedRows = 50

const tableDescription = `meetings(
  id INTEGER PRIMARY KEY,
  title TEXT,
  start_time TEXT, -- format YYYY-MM-DD HH:MM
  description TEXT
)`

var (
	ErrEmptyStatement    = errors.New("model produced no SQL statement")
	ErrNotSelect         = errors.New("only a single SELECT statement is allowed")
	ErrMultiStatement    = errors.New("multiple SQL statements are not allowed")
	ErrMissingClassifier = errors.New("classifier is required")
	ErrMissingDatabase   = errors.New("database handle is required")

	fencePattern     = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	forbiddenPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|attach|detach|pragma|vacuum|reindex)\b`)
	literalPattern   = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// Result is the rendered output of a structured query.
type Result struct {
	Output string
	SQL    string
}

// Executor answers natural-language questions about meetings by generating and
// running a read-only SQL statement.
type Executor struct {
	db         *sql.DB
	classifier classifier.Classifier
	now        func() time.Time
}

// New probes the database and returns a ready executor.
func New(ctx context.Context, db *sql.DB, cls classifier.Classifier) (*Executor, error) {
	if db == nil {
		return nil, ErrMissingDatabase
	}
	if cls == nil {
		return nil, ErrMissingClassifier
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meetings`).Scan(&n); err != nil {
		return nil, fmt.Errorf("meetings table probe failed: %w", err)
	}

	return &Executor{db: db, classifier: cls, now: time.Now}, nil
}

// Execute runs nlQuery with a budget of timeoutSeconds (minimum one second).
func (e *Executor) Execute(ctx context.Context, nlQuery string, timeoutSeconds int) (Result, error) {
	if timeoutSeconds < 1 {
		timeoutSeconds = 1
	}
	return e.ExecuteWithin(ctx, nlQuery, time.Duration(timeoutSeconds)*time.Second)
}

// ExecuteWithin is Execute with an arbitrary budget.
func (e *Executor) ExecuteWithin(ctx context.Context, nlQuery string, budget time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	completion, err := e.classifier.Complete(ctx, e.buildPrompt(nlQuery))
	if err != nil {
		return Result{}, classify(ctx, "", err)
	}

	statement, err := extractStatement(completion)
	if err != nil {
		return Result{}, &Error{Kind: KindInvalidQuery, SQL: statement, Err: err}
	}

	log.Debug().Str("component", "sqlquery").Str("sql", statement).Msg("executing generated statement")

	output, err := e.run(ctx, statement)
	if err != nil {
		return Result{}, classify(ctx, statement, err)
	}
	return Result{Output: output, SQL: statement}, nil
}

func (e *Executor) buildPrompt(nlQuery string) string {
	return fmt.Sprintf(
		"You are a SQLite expert. The database has one table:\n\n%s\n\n"+
			"Current local time: %s.\n\n"+
			"Write a single read-only SQLite SELECT statement that answers this question: %s\n\n"+
			"Reply with only the SQL statement.",
		tableDescription, e.now().Format("2006-01-02 15:04"), nlQuery)
}

// extractStatement strips code fences and enforces a single SELECT statement.
func extractStatement(completion string) (string, error) {
	statement := strings.TrimSpace(completion)
	if m := fencePattern.FindStringSubmatch(statement); m != nil {
		statement = strings.TrimSpace(m[1])
	}
	statement = strings.TrimSpace(strings.TrimRight(statement, "; \n\t"))

	if statement == "" {
		return "", ErrEmptyStatement
	}
	bare := literalPattern.ReplaceAllString(statement, "''")
	if strings.Contains(bare, ";") {
		return statement, ErrMultiStatement
	}

	lower := strings.ToLower(statement)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return statement, ErrNotSelect
	}
	if forbiddenPattern.MatchString(bare) {
		return statement, ErrNotSelect
	}
	return statement, nil
}

func (e *Executor) run(ctx context.Context, statement string) (string, error) {
	rows, err := e.db.QueryContext(ctx, statement)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var (
		lines []string
		total int
	)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}

		total++
		if total > maxRenderedRows {
			continue
		}
		lines = append(lines, renderRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if total > maxRenderedRows {
		lines = append(lines, fmt.Sprintf("... (%d more rows)", total-maxRenderedRows))
	}
	return strings.Join(lines, "\n"), nil
}

func renderRow(columns []string, values []any) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + ": " + renderValue(values[i])
	}
	return strings.Join(parts, ", ")
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04")
	default:
		return fmt.Sprint(val)
	}
}
