// Package classifiertest provides a scripted Classifier for tests.
package classifiertest

import (
	"context"
	"strings"
	"sync"
)

// Rule answers every prompt containing Match.
type Rule struct {
	Match string
	Reply string
	Err   error
}

// Stub is a deterministic Classifier. Rules are evaluated in order;
// prompts matching no rule get Default / DefaultErr.
type Stub struct {
	Rules      []Rule
	Default    string
	DefaultErr error

	mu    sync.Mutex
	calls []string
}

// Complete implements classifier.Classifier.
func (s *Stub) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, prompt)
	s.mu.Unlock()

	for _, r := range s.Rules {
		if strings.Contains(prompt, r.Match) {
			return r.Reply, r.Err
		}
	}
	return s.Default, s.DefaultErr
}

// Calls returns the prompts received so far.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns how many prompts were received.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
