// Package app assembles the collaborators, workers and dispatch engine from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agentdesk/backend/internal/config"
	"github.com/zhouzirui/agentdesk/backend/internal/handler"
	"github.com/zhouzirui/agentdesk/backend/internal/service/classifier"
	"github.com/zhouzirui/agentdesk/backend/internal/service/dispatch"
	"github.com/zhouzirui/agentdesk/backend/internal/service/docindex"
	meetingService "github.com/zhouzirui/agentdesk/backend/internal/service/meeting"
	"github.com/zhouzirui/agentdesk/backend/internal/service/search"
	"github.com/zhouzirui/agentdesk/backend/internal/service/sqlquery"
	"github.com/zhouzirui/agentdesk/backend/internal/service/weather"
	"github.com/zhouzirui/agentdesk/backend/internal/service/worker"
)

// App 持有进程级的协作方。可选协作方初始化失败时保持为 nil，服务以降级模式运行。
type App struct {
	Config *config.Config

	Classifier     classifier.Classifier
	hasModel       bool
	DB             *sql.DB
	Meetings       *meetingService.SQLiteStore
	Executor       *sqlquery.Executor
	Documents      *docindex.Store
	Weather        weather.Lookup
	Redis          *redis.Client
	Search         search.Searcher
	Engine         *dispatch.Engine
	DatabaseWorker *worker.Database
}

// New 按配置初始化所有组件。只有文档索引参数非法或分发图编译失败会返回错误。
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	a.initClassifier(ctx)
	a.initDatabase(ctx)
	a.initWeather(ctx)
	a.Search = search.NewDuckDuckGo(cfg.Search)

	docs, err := docindex.NewStore(docindex.Options{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		TopK:         cfg.RAG.TopK,
		EmbeddingDim: cfg.RAG.EmbeddingDim,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Documents = docs

	// 显式区分 nil 指针与 nil 接口，执行器缺失时 worker 进入永久降级状态。
	var exec worker.Executor
	if a.Executor != nil {
		exec = a.Executor
	}
	a.DatabaseWorker = worker.NewDatabase(exec, time.Duration(cfg.Database.QueryTimeoutSeconds)*time.Second)

	engine, err := dispatch.NewEngine(ctx, dispatch.NewRouter(a.Classifier), dispatch.Workers{
		Weather:   worker.NewWeather(a.Classifier, a.Weather),
		DocQA:     worker.NewDocQA(a.Classifier, a.Documents, a.Search, cfg.RAG.TopK),
		Scheduler: worker.NewScheduler(a.Classifier, a.Weather),
		Database:  a.DatabaseWorker,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Engine = engine
	return a, nil
}

func (a *App) initClassifier(ctx context.Context) {
	a.Classifier = classifier.Unavailable()

	if !a.Config.AI.Enabled() {
		log.Warn().Str("component", "app").Msg("Ark 凭证未配置，路由将回退到 DB_QUERY")
		return
	}

	chatModel, err := a.Config.AI.NewChatModel(ctx)
	if err != nil {
		log.Warn().Str("component", "app").Err(err).Msg("failed to create chat model, continuing without classifier")
		return
	}
	gw, err := classifier.NewGateway(ctx, chatModel)
	if err != nil {
		log.Warn().Str("component", "app").Err(err).Msg("failed to build classifier gateway, continuing without classifier")
		return
	}

	a.Classifier = gw
	a.hasModel = true
	log.Info().Str("component", "app").Str("model", a.Config.AI.Model).Msg("classifier gateway initialized")
}

func (a *App) initDatabase(ctx context.Context) {
	db, err := meetingService.OpenDatabase(ctx, a.Config.Database.Path)
	if err != nil {
		log.Warn().Str("component", "app").Err(err).Str("path", a.Config.Database.Path).Msg("meeting database unavailable")
		return
	}
	a.DB = db

	store, err := meetingService.NewSQLiteStore(ctx, db)
	if err != nil {
		log.Warn().Str("component", "app").Err(err).Msg("meeting store unavailable")
		return
	}
	a.Meetings = store

	if !a.hasModel {
		log.Warn().Str("component", "app").Msg("structured query executor disabled: no classifier")
		return
	}
	exec, err := sqlquery.New(ctx, db, a.Classifier)
	if err != nil {
		log.Warn().Str("component", "app").Err(err).Msg("structured query executor setup failed")
		return
	}
	a.Executor = exec
	log.Info().Str("component", "app").Msg("structured query executor initialized")
}

func (a *App) initWeather(ctx context.Context) {
	var lookup weather.Lookup = weather.NewClient(a.Config.Weather)

	if a.Config.Redis.Enabled() {
		client, err := weather.NewRedisClient(ctx, a.Config.Redis.URL)
		if err != nil {
			log.Warn().Str("component", "app").Err(err).Msg("redis unavailable, weather cache disabled")
		} else {
			a.Redis = client
			lookup = weather.NewCachedLookup(lookup, client, a.Config.Weather.CacheTTL)
			log.Info().Str("component", "app").Dur("ttl", a.Config.Weather.CacheTTL).Msg("weather cache enabled")
		}
	}
	a.Weather = lookup
}

// Status 汇报协作方可用性。
func (a *App) Status() handler.Status {
	return handler.Status{
		Classifier:      a.hasModel,
		StructuredQuery: a.Executor != nil,
		DocumentIndex:   a.Documents != nil && a.Documents.Ready(),
		MeetingStore:    a.Meetings != nil,
		WeatherCache:    a.Redis != nil,
	}
}

// HandlerDeps 返回 HTTP 路由需要的依赖。
func (a *App) HandlerDeps() handler.Deps {
	deps := handler.Deps{
		Dispatcher:     a.Engine,
		Ingester:       a.Documents,
		UploadMaxBytes: a.Config.Server.UploadMaxBytes,
		Status:         a.Status,
	}
	if a.Meetings != nil {
		deps.Meetings = a.Meetings
	}
	return deps
}

// Close 释放数据库与 Redis 连接。
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
