package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agentdesk/backend/internal/model/session"
	"github.com/zhouzirui/agentdesk/backend/internal/service/worker"
)

const nodeRouter = "router"

// Workers 汇总四个类别处理器。
type Workers struct {
	Weather   worker.Worker
	DocQA     worker.Worker
	Scheduler worker.Worker
	Database  worker.Worker
}

func (w Workers) byName() (map[string]worker.Worker, error) {
	all := map[string]worker.Worker{
		worker.NameWeather:   w.Weather,
		worker.NameDocQA:     w.DocQA,
		worker.NameScheduler: w.Scheduler,
		worker.NameDatabase:  w.Database,
	}
	for name, wk := range all {
		if wk == nil {
			return nil, fmt.Errorf("worker %q is required", name)
		}
	}
	return all, nil
}

// Engine 将一次请求依次送过 router 节点和恰好一个 worker 节点。
type Engine struct {
	router  *Router
	workers map[string]worker.Worker
	graph   compose.Runnable[*session.Session, *session.Session]
}

// NewEngine 编译分发图：START -> router -> (分支) worker -> END。
func NewEngine(ctx context.Context, router *Router, workers Workers) (*Engine, error) {
	if router == nil {
		return nil, errors.New("router is required")
	}
	byName, err := workers.byName()
	if err != nil {
		return nil, err
	}

	e := &Engine{router: router, workers: byName}

	g := compose.NewGraph[*session.Session, *session.Session]()
	if err := g.AddLambdaNode(nodeRouter, compose.InvokableLambda(e.classifyNode)); err != nil {
		return nil, fmt.Errorf("add router node: %w", err)
	}

	endNodes := make(map[string]bool, len(byName))
	for name, wk := range byName {
		if err := g.AddLambdaNode(name, compose.InvokableLambda(e.workerNode(wk))); err != nil {
			return nil, fmt.Errorf("add %s node: %w", name, err)
		}
		if err := g.AddEdge(name, compose.END); err != nil {
			return nil, fmt.Errorf("link %s node: %w", name, err)
		}
		endNodes[name] = true
	}

	if err := g.AddEdge(compose.START, nodeRouter); err != nil {
		return nil, fmt.Errorf("link router node: %w", err)
	}
	branch := compose.NewGraphBranch(func(_ context.Context, s *session.Session) (string, error) {
		return SelectWorker(s.Category), nil
	}, endNodes)
	if err := g.AddBranch(nodeRouter, branch); err != nil {
		return nil, fmt.Errorf("add dispatch branch: %w", err)
	}

	runnable, err := g.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dispatch graph: %w", err)
	}
	e.graph = runnable
	return e, nil
}

func (e *Engine) classifyNode(ctx context.Context, s *session.Session) (*session.Session, error) {
	s.Category = e.router.Classify(ctx, s.Query)
	return s, nil
}

func (e *Engine) workerNode(wk worker.Worker) func(context.Context, *session.Session) (*session.Session, error) {
	return func(ctx context.Context, s *session.Session) (*session.Session, error) {
		s.Respond(wk.Name(), handleSafely(ctx, wk, s.Query))
		return s, nil
	}
}

// handleSafely 兜底 worker 内部未处理的 panic。
func handleSafely(ctx context.Context, wk worker.Worker, query string) (resp string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "dispatch").Str("worker", wk.Name()).Interface("panic", r).Msg("worker panicked")
			resp = fmt.Sprintf("Worker execution failed: %v", r)
		}
	}()
	return wk.Handle(ctx, query)
}

// Dispatch 为 query 开启会话并返回填好响应的会话。
// 只有空查询会返回错误，其余失败都已被规整为响应文本。
func (e *Engine) Dispatch(ctx context.Context, query string) (*session.Session, error) {
	s, err := session.New(query)
	if err != nil {
		return nil, err
	}

	out, err := e.graph.Invoke(ctx, s)
	if err == nil && out != nil && out.Responded() {
		e.logDispatch(out)
		return out, nil
	}

	// 图执行异常时直接走一遍顺序分发，保证仍有响应。
	log.Error().Str("component", "dispatch").Err(err).Str("session", s.ID).Msg("dispatch graph failed, running direct dispatch")
	e.dispatchDirect(ctx, s)
	e.logDispatch(s)
	return s, nil
}

func (e *Engine) dispatchDirect(ctx context.Context, s *session.Session) {
	if s.Category == "" {
		s.Category = e.router.Classify(ctx, s.Query)
	}
	if !s.Responded() {
		wk := e.workers[SelectWorker(s.Category)]
		s.Respond(wk.Name(), handleSafely(ctx, wk, s.Query))
	}
}

func (e *Engine) logDispatch(s *session.Session) {
	log.Info().
		Str("component", "dispatch").
		Str("session", s.ID).
		Str("category", s.Category).
		Str("worker", s.Worker).
		Int("response_len", len(s.Response)).
		Msg("query dispatched")
}

// Answer 是只关心响应文本的便捷入口。
func (e *Engine) Answer(ctx context.Context, query string) (string, error) {
	s, err := e.Dispatch(ctx, query)
	if err != nil {
		return "", err
	}
	return s.Response, nil
}
