package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zhouzirui/agentdesk/backend/internal/service/sqlquery"
)

// Fixed responses of the database worker.
const (
	DBUnavailable   = "Database service unavailable. Please try another query type."
	DBInvalidQuery  = "Please provide a valid query about meetings."
	DBTimedOut      = "Database query timed out. Please try a simpler query."
	DBNoMeetings    = "No meetings found matching your query."
	DBSyntaxHint    = "Query syntax error. Try asking: 'List all meetings' or 'Show meetings tomorrow'"
	DBConnection    = "Database connection failed. Please try again later."
	minQueryLength  = 3
	maxErrorExcerpt = 100
)

// DefaultQueryTimeout is the budget given to a structured query.
const DefaultQueryTimeout = 10 * time.Second

var errGuardTimeout = errors.New("structured query exceeded its time budget")

// Executor runs a natural-language question against the meeting database.
type Executor interface {
	Execute(ctx context.Context, nlQuery string, timeoutSeconds int) (sqlquery.Result, error)
}

type prefixRule struct {
	keywords []string
	prefix   string
}

var prefixRules = []prefixRule{
	{keywords: []string{"list", "show", "all", "get"}, prefix: "Meetings found:\n"},
	{keywords: []string{"count", "how many"}, prefix: "Meeting count:\n"},
	{keywords: []string{"search", "find"}, prefix: "Search results:\n"},
}

// Database answers questions about existing meetings through the structured query executor.
type Database struct {
	executor Executor
	timeout  time.Duration
}

// NewDatabase returns the database worker. A nil executor means the executor failed to
// initialize; the worker then answers every query with DBUnavailable.
func NewDatabase(executor Executor, timeout time.Duration) *Database {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Database{executor: executor, timeout: timeout}
}

// Name implements Worker.
func (d *Database) Name() string { return NameDatabase }

// Available reports whether the executor was initialized.
func (d *Database) Available() bool {
	return d.executor != nil
}

// Handle implements Worker.
func (d *Database) Handle(ctx context.Context, query string) string {
	return protect(NameDatabase, d.failure, func() string {
		if d.executor == nil {
			return DBUnavailable
		}

		query = strings.TrimSpace(query)
		if utf8.RuneCountInString(query) < minQueryLength {
			return DBInvalidQuery
		}

		res, err := d.execute(ctx, query)
		if err != nil {
			return d.failure(err)
		}

		output := strings.TrimSpace(res.Output)
		switch strings.ToLower(output) {
		case "", "none", "no results":
			return DBNoMeetings
		}

		return prefixFor(query) + output
	})
}

// execute bounds the executor call; a call still running at the deadline is abandoned.
func (d *Database) execute(ctx context.Context, query string) (sqlquery.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		res sqlquery.Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &PanicError{Value: r}}
			}
		}()
		res, err := d.executor.Execute(ctx, query, int(math.Ceil(d.timeout.Seconds())))
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return sqlquery.Result{}, errGuardTimeout
		}
		return sqlquery.Result{}, ctx.Err()
	}
}

// failure maps an executor error onto the ordered failure taxonomy; first match wins.
func (d *Database) failure(err error) string {
	logFailure(NameDatabase, err)

	if errors.Is(err, errGuardTimeout) || errors.Is(err, context.DeadlineExceeded) || sqlquery.IsKind(err, sqlquery.KindTimeout) {
		return DBTimedOut
	}

	var qe *sqlquery.Error
	if errors.As(err, &qe) && qe.Kind == sqlquery.KindInvalidQuery {
		return fmt.Sprintf("Invalid query format: %v. Please rephrase your question.", qe.Err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "syntax"):
		return DBSyntaxHint
	case strings.Contains(msg, "connection"):
		return DBConnection
	default:
		return "Query processing error. Please rephrase: " + truncate(err.Error(), maxErrorExcerpt)
	}
}

func prefixFor(query string) string {
	lower := strings.ToLower(query)
	for _, rule := range prefixRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.prefix
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
