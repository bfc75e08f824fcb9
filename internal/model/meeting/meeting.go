package meeting

import (
	"context"
	"errors"
)

// StartTimeLayout is the textual layout start times are stored with.
const StartTimeLayout = "2006-01-02 15:04"

// ErrNotFound is returned when a meeting id does not exist.
var ErrNotFound = errors.New("meeting not found")

// Meeting is a scheduled meeting record.
type Meeting struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	StartTime   string `json:"start_time" yaml:"start_time"`
	Description string `json:"description" yaml:"description"`
}

// Patch carries the fields of an update; nil fields are left untouched.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Store exposes meeting persistence to handlers and tools.
type Store interface {
	Create(ctx context.Context, title, startTime, description string) (Meeting, error)
	List(ctx context.Context) ([]Meeting, error)
	Get(ctx context.Context, id int64) (Meeting, error)
	Update(ctx context.Context, id int64, patch Patch) (Meeting, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, query string) ([]Meeting, error)
	Count(ctx context.Context) (int, error)
}
