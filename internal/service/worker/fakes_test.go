package worker

import (
	"context"
	"sync"

	"github.com/zhouzirui/agentdesk/backend/internal/service/sqlquery"
)

type fakeLookup struct {
	report string
	err    error

	mu     sync.Mutex
	cities []string
}

func (f *fakeLookup) Fetch(_ context.Context, city string) (string, error) {
	f.mu.Lock()
	f.cities = append(f.cities, city)
	f.mu.Unlock()
	return f.report, f.err
}

type fakeSearcher struct {
	result string
	err    error
	panics bool
	calls  int
}

func (f *fakeSearcher) Search(_ context.Context, query string) (string, error) {
	f.calls++
	if f.panics {
		panic("search backend exploded")
	}
	return f.result, f.err
}

type fakeDocuments struct {
	chunks []string
	err    error
	k      int
}

func (f *fakeDocuments) Query(_ context.Context, _ string, k int) ([]string, error) {
	f.k = k
	return f.chunks, f.err
}

type fakeExecutor struct {
	fn func(ctx context.Context, query string, timeoutSeconds int) (sqlquery.Result, error)

	mu      sync.Mutex
	calls   int
	queries []string
	budgets []int
}

func (f *fakeExecutor) Execute(ctx context.Context, query string, timeoutSeconds int) (sqlquery.Result, error) {
	f.mu.Lock()
	f.calls++
	f.queries = append(f.queries, query)
	f.budgets = append(f.budgets, timeoutSeconds)
	f.mu.Unlock()
	return f.fn(ctx, query, timeoutSeconds)
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func returning(output string) *fakeExecutor {
	return &fakeExecutor{fn: func(context.Context, string, int) (sqlquery.Result, error) {
		return sqlquery.Result{Output: output}, nil
	}}
}

func failing(err error) *fakeExecutor {
	return &fakeExecutor{fn: func(context.Context, string, int) (sqlquery.Result, error) {
		return sqlquery.Result{}, err
	}}
}
