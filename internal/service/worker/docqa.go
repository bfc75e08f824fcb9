package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/agentdesk/backend/internal/service/classifier"
	"github.com/zhouzirui/agentdesk/backend/internal/service/search"
)

// DefaultTopK is how many chunks the document worker retrieves.
const DefaultTopK = 3

// DocumentSearch returns the texts of the chunks most similar to text.
// It returns nothing when no document has been ingested yet.
type DocumentSearch interface {
	Query(ctx context.Context, text string, k int) ([]string, error)
}

// DocQA answers from ingested documents when they are relevant and falls back to web search.
type DocQA struct {
	classifier classifier.Classifier
	documents  DocumentSearch
	web        search.Searcher
	topK       int
}

// NewDocQA returns the document worker. documents may be nil, which always falls back to web search.
func NewDocQA(cls classifier.Classifier, documents DocumentSearch, web search.Searcher, topK int) *DocQA {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &DocQA{classifier: cls, documents: documents, web: web, topK: topK}
}

// Name implements Worker.
func (d *DocQA) Name() string { return NameDocQA }

// Handle implements Worker.
func (d *DocQA) Handle(ctx context.Context, query string) string {
	return protect(NameDocQA, d.failure, func() string {
		contextText, err := d.retrieve(ctx, query)
		if err != nil {
			return d.failure(err)
		}

		if contextText != "" {
			verdict, err := d.classifier.Complete(ctx, contextCheckPrompt(contextText, query))
			if err != nil {
				return d.failure(err)
			}
			if strings.Contains(strings.ToLower(verdict), "yes") {
				answer, err := d.classifier.Complete(ctx, answerPrompt(contextText, query))
				if err != nil {
					return d.failure(err)
				}
				return answer
			}
		}

		result, err := d.web.Search(ctx, query)
		if err != nil {
			return d.failure(err)
		}
		return result
	})
}

func (d *DocQA) retrieve(ctx context.Context, query string) (string, error) {
	if d.documents == nil {
		return "", nil
	}
	chunks, err := d.documents.Query(ctx, query, d.topK)
	if err != nil {
		return "", err
	}
	return strings.Join(chunks, "\n"), nil
}

func (d *DocQA) failure(err error) string {
	logFailure(NameDocQA, err)
	return fmt.Sprintf("Document QA failed: %v", err)
}
