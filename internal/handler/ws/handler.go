package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agentdesk/backend/internal/model/session"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Dispatcher 将查询分发给某个 worker 并返回会话。
type Dispatcher interface {
	Dispatch(ctx context.Context, query string) (*session.Session, error)
}

// Handler WebSocket查询处理器
type Handler struct {
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
}

// New 创建WebSocket处理器
func New(dispatcher Dispatcher) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type  string `json:"type"`
	Query string `json:"query"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接，每条 query 消息对应一次独立分发。
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		http.Error(w, "dispatcher unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("component", "websocket").Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	log.Info().Str("component", "websocket").Str("remote", r.RemoteAddr).Msg("new connection")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{Type: "connected"})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Str("component", "websocket").Err(err).Msg("read error")
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handleMessage(ctx, conn, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, msg *inboundMessage) {
	switch msg.Type {
	case "query":
		s, err := h.dispatcher.Dispatch(ctx, msg.Query)
		if errors.Is(err, session.ErrEmptyQuery) {
			h.sendError(conn, "query is required")
			return
		}
		if err != nil {
			h.sendError(conn, err.Error())
			return
		}
		h.send(conn, outgoingMessage{
			Type:      "response",
			SessionID: s.ID,
			Data: map[string]string{
				"response": s.Response,
				"category": s.Category,
				"worker":   s.Worker,
			},
		})
	case "ping":
		h.send(conn, outgoingMessage{Type: "pong"})
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Str("component", "websocket").Err(err).Str("type", msg.Type).Msg("write failed")
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outgoingMessage{Type: "error", Data: map[string]string{"message": message}})
}

// pingLoop 定期发送ping消息；WriteControl 可与其它写操作并发调用。
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
