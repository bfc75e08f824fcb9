package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/agentdesk/backend/internal/service/classifier"
	"github.com/zhouzirui/agentdesk/backend/internal/service/weather"
)

// Scheduler advises whether the weather suits an outdoor meeting. It never books anything.
type Scheduler struct {
	classifier classifier.Classifier
	lookup     weather.Lookup
}

// NewScheduler returns the scheduling worker.
func NewScheduler(cls classifier.Classifier, lookup weather.Lookup) *Scheduler {
	return &Scheduler{classifier: cls, lookup: lookup}
}

// Name implements Worker.
func (s *Scheduler) Name() string { return NameScheduler }

// Handle implements Worker.
func (s *Scheduler) Handle(ctx context.Context, query string) string {
	return protect(NameScheduler, s.failure, func() string {
		city, err := extractCity(ctx, s.classifier, query)
		if err != nil {
			return s.failure(err)
		}

		report, err := s.lookup.Fetch(ctx, city)
		if err != nil {
			return s.failure(err)
		}

		decision, err := s.classifier.Complete(ctx, outdoorDecisionPrompt(report))
		if err != nil {
			return s.failure(err)
		}

		if strings.Contains(strings.ToLower(decision), "yes") {
			return fmt.Sprintf("Good weather (%s). Meeting can be scheduled!", report)
		}
		return fmt.Sprintf("Bad weather (%s). Meeting not recommended for outdoors.", report)
	})
}

func (s *Scheduler) failure(err error) string {
	logFailure(NameScheduler, err)
	return fmt.Sprintf("Scheduling error: %v", err)
}
