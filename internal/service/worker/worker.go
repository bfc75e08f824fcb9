// Package worker holds the category handlers that produce the final response text.
// A worker never returns an error: every failure becomes a descriptive response.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Worker names, recorded on the session of the request they answered.
const (
	NameWeather   = "weather"
	NameDocQA     = "doc_qa"
	NameScheduler = "scheduler"
	NameDatabase  = "database"
)

// Worker answers a query routed to its category.
type Worker interface {
	Name() string
	Handle(ctx context.Context, query string) string
}

// PanicError wraps a value recovered from a panicking worker.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// protect runs fn and turns a panic into onFailure's response.
func protect(name string, onFailure func(error) string, fn func() string) (resp string) {
	defer func() {
		if r := recover(); r != nil {
			err := &PanicError{Value: r}
			log.Error().Str("component", "worker").Str("worker", name).Err(err).Msg("worker panicked")
			resp = onFailure(err)
		}
	}()
	return fn()
}

func logFailure(name string, err error) {
	log.Warn().Str("component", "worker").Str("worker", name).Err(err).Msg("worker failure normalized into response")
}
