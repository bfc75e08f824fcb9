package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyQuery is returned when a session is opened without query text.
var ErrEmptyQuery = errors.New("query is required")

// Session is the per-request record threaded through the dispatch pipeline.
// It is never shared between requests and never persisted.
type Session struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Category  string    `json:"category,omitempty"`
	Response  string    `json:"response"`
	Worker    string    `json:"worker,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	responded bool
}

// New opens a session for query. The query is kept as received.
func New(query string) (*Session, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return &Session{
		ID:        uuid.NewString(),
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Respond records the final response. Only the first call wins.
func (s *Session) Respond(worker, response string) bool {
	if s.responded {
		return false
	}
	s.Worker = worker
	s.Response = response
	s.responded = true
	return true
}

// Responded reports whether a worker already produced the response.
func (s *Session) Responded() bool {
	return s.responded
}
