package meetings

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agentdesk/backend/internal/model/meeting"
	meetingService "github.com/zhouzirui/agentdesk/backend/internal/service/meeting"
	"github.com/zhouzirui/agentdesk/backend/pkg/utils"
)

// Handler 会议记录的HTTP处理器
type Handler struct {
	store meeting.Store
}

// New 创建会议处理器
func New(store meeting.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册会议相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/meetings", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/search", h.handleSearch)
		r.Get("/count", h.handleCount)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

type createRequest struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	Description string `json:"description"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.store.Create(r.Context(), payload.Title, payload.StartTime, payload.Description)
	if err != nil {
		h.storeError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		utils.RespondError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	list, err := h.store.Search(r.Context(), q)
	if err != nil {
		h.internalError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Count(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	m, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch meeting.Patch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.storeError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if !deleted {
		utils.RespondError(w, http.StatusNotFound, meeting.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "invalid meeting id")
		return 0, false
	}
	return id, true
}

// storeError 将存储层的哨兵错误映射为HTTP状态码
func (h *Handler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, meeting.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, meetingService.ErrTitleRequired), errors.Is(err, meetingService.ErrInvalidStartTime):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.internalError(w, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error().Str("component", "meetings").Err(err).Msg("meeting store failure")
	utils.RespondError(w, http.StatusInternalServerError, "meeting store failure")
}
