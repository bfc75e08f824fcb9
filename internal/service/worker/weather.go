package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/agentdesk/backend/internal/service/classifier"
	"github.com/zhouzirui/agentdesk/backend/internal/service/weather"
)

// Weather answers current-weather questions for the city named in the query.
type Weather struct {
	classifier classifier.Classifier
	lookup     weather.Lookup
}

// NewWeather returns the weather worker.
func NewWeather(cls classifier.Classifier, lookup weather.Lookup) *Weather {
	return &Weather{classifier: cls, lookup: lookup}
}

// Name implements Worker.
func (w *Weather) Name() string { return NameWeather }

// Handle implements Worker.
func (w *Weather) Handle(ctx context.Context, query string) string {
	return protect(NameWeather, w.failure, func() string {
		city, err := extractCity(ctx, w.classifier, query)
		if err != nil {
			return w.failure(err)
		}

		report, err := w.lookup.Fetch(ctx, city)
		if err != nil {
			return w.failure(err)
		}
		return report
	})
}

func (w *Weather) failure(err error) string {
	logFailure(NameWeather, err)
	return fmt.Sprintf("Weather service unavailable: %v", err)
}

func extractCity(ctx context.Context, cls classifier.Classifier, query string) (string, error) {
	city, err := cls.Complete(ctx, cityPrompt(query))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(city), nil
}
