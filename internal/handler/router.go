package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/agentdesk/backend/internal/handler/meetings"
	"github.com/zhouzirui/agentdesk/backend/internal/handler/query"
	"github.com/zhouzirui/agentdesk/backend/internal/handler/upload"
	"github.com/zhouzirui/agentdesk/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/agentdesk/backend/internal/middleware"
	"github.com/zhouzirui/agentdesk/backend/internal/model/meeting"
	"github.com/zhouzirui/agentdesk/backend/pkg/utils"
)

// Status 描述各协作方是否可用，用于健康检查。
type Status struct {
	Classifier      bool `json:"classifier"`
	StructuredQuery bool `json:"structuredQuery"`
	DocumentIndex   bool `json:"documentIndex"`
	MeetingStore    bool `json:"meetingStore"`
	WeatherCache    bool `json:"weatherCache"`
}

// Deps 汇总路由需要的服务，缺失的服务对应接口返回 503。
type Deps struct {
	Dispatcher     query.Dispatcher
	Ingester       upload.Ingester
	Meetings       meeting.Store
	UploadMaxBytes int64
	Status         func() Status
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	queryHandler := query.New(deps.Dispatcher)
	wsHandler := ws.New(deps.Dispatcher)
	uploadHandler := upload.New(deps.Ingester, deps.UploadMaxBytes)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			status := Status{}
			if deps.Status != nil {
				status = deps.Status()
			}
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":       "ok",
				"dependencies": status,
			})
		})

		queryHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
		uploadHandler.RegisterRoutes(api)

		// 会议存储不可用时不注册 CRUD 路由
		if deps.Meetings != nil {
			meetings.New(deps.Meetings).RegisterRoutes(api)
		} else {
			unavailable := func(w http.ResponseWriter, r *http.Request) {
				utils.RespondError(w, http.StatusServiceUnavailable, "meeting store unavailable")
			}
			api.HandleFunc("/meetings", unavailable)
			api.HandleFunc("/meetings/*", unavailable)
		}
	})

	return r
}
