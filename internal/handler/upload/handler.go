package upload

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agentdesk/backend/internal/service/docindex"
	"github.com/zhouzirui/agentdesk/backend/pkg/utils"
)

// Ingester 将上传的文档写入检索索引并返回状态文本。
type Ingester interface {
	Ingest(ctx context.Context, name string, r io.Reader) (string, error)
}

// Handler 文档上传处理器
type Handler struct {
	ingester Ingester
	maxBytes int64
}

// New 创建上传处理器
func New(ingester Ingester, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Handler{ingester: ingester, maxBytes: maxBytes}
}

// RegisterRoutes 注册上传路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.handleUpload)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.ingester == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "document ingestion unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	msg, err := h.ingester.Ingest(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, docindex.ErrUnsupportedFormat):
		utils.RespondError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case errors.Is(err, docindex.ErrUnreadableDocument):
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, docindex.ErrEmptyDocument):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Str("component", "upload").Err(err).Str("file", header.Filename).Msg("ingestion failed")
		utils.RespondError(w, http.StatusInternalServerError, "document processing failed")
		return
	}

	log.Info().Str("component", "upload").Str("file", header.Filename).Int64("bytes", header.Size).Msg("document ingested")
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": msg})
}
