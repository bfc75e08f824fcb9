package sqlquery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed structured query.
type Kind string

const (
	KindTimeout      Kind = "timeout"
	KindConnection   Kind = "connection"
	KindSyntax       Kind = "syntax"
	KindInvalidQuery Kind = "invalid query"
	KindExecution    Kind = "execution"
)

// Error is returned by Executor.Execute. Its message always carries the kind keyword.
type Error struct {
	Kind Kind
	SQL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Kind == k
}

func classify(ctx context.Context, statement string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, SQL: statement, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "syntax"):
		return &Error{Kind: KindSyntax, SQL: statement, Err: err}
	case errors.Is(err, sql.ErrConnDone),
		strings.Contains(msg, "database is closed"),
		strings.Contains(msg, "unable to open database"),
		strings.Contains(msg, "connection"):
		return &Error{Kind: KindConnection, SQL: statement, Err: err}
	case strings.Contains(msg, "no such column"),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such function"):
		return &Error{Kind: KindInvalidQuery, SQL: statement, Err: err}
	default:
		return &Error{Kind: KindExecution, SQL: statement, Err: err}
	}
}
