package query

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/agentdesk/backend/internal/model/session"
	"github.com/zhouzirui/agentdesk/backend/pkg/utils"
)

// Dispatcher 将查询分发给某个 worker 并返回会话。
type Dispatcher interface {
	Dispatch(ctx context.Context, query string) (*session.Session, error)
}

// Handler 查询接口的HTTP处理器
type Handler struct {
	dispatcher Dispatcher
}

// New 创建查询处理器
func New(dispatcher Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// RegisterRoutes 注册查询相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/stream", h.handleStream)
}

// Response 同步查询的响应体
type Response struct {
	Response  string `json:"response"`
	Category  string `json:"category"`
	Worker    string `json:"worker"`
	SessionID string `json:"sessionId"`
}

// handleChat 处理一次同步查询
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}

	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, ok := h.dispatch(r.Context(), w, payload.Query)
	if !ok {
		return
	}

	utils.RespondJSON(w, http.StatusOK, Response{
		Response:  s.Response,
		Category:  s.Category,
		Worker:    s.Worker,
		SessionID: s.ID,
	})
}

// handleStream 以SSE形式返回分发过程：start、category、message、end。
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		utils.RespondError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	s, ok := h.dispatch(r.Context(), w, query)
	if !ok {
		return
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "start", map[string]string{"sessionId": s.ID})
	utils.SendSSEEvent(w, flusher, "category", map[string]string{"sessionId": s.ID, "category": s.Category, "worker": s.Worker})
	utils.SendSSEEvent(w, flusher, "message", map[string]string{"sessionId": s.ID, "content": s.Response})
	utils.SendSSEEvent(w, flusher, "end", map[string]any{"sessionId": s.ID, "finished": true})
}

func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, query string) (*session.Session, bool) {
	if h.dispatcher == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "dispatcher unavailable")
		return nil, false
	}

	s, err := h.dispatcher.Dispatch(ctx, query)
	if errors.Is(err, session.ErrEmptyQuery) {
		utils.RespondError(w, http.StatusBadRequest, "query is required")
		return nil, false
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return s, true
}
