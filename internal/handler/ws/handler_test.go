package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/agentdesk/backend/internal/model/session"
)

type echoDispatcher struct{}

func (echoDispatcher) Dispatch(_ context.Context, query string) (*session.Session, error) {
	s, err := session.New(query)
	if err != nil {
		return nil, err
	}
	s.Category = "DB_QUERY"
	s.Respond("database", "Meetings found:\n"+query)
	return s, nil
}

func dial(t *testing.T) *websocket.Conn {
	t.Helper()

	r := chi.NewRouter()
	New(echoDispatcher{}).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello outgoingMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello err: %v", err)
	}
	if hello.Type != "connected" {
		t.Fatalf("unexpected greeting: %+v", hello)
	}
	return conn
}

func TestWebSocketQueryRoundTrip(t *testing.T) {
	conn := dial(t)

	if err := conn.WriteJSON(inboundMessage{Type: "query", Query: "list all meetings"}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	var resp struct {
		Type      string            `json:"type"`
		SessionID string            `json:"sessionId"`
		Data      map[string]string `json:"data"`
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read err: %v", err)
	}

	if resp.Type != "response" || resp.SessionID == "" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if resp.Data["response"] != "Meetings found:\nlist all meetings" || resp.Data["category"] != "DB_QUERY" {
		t.Fatalf("unexpected data: %+v", resp.Data)
	}
}

func TestWebSocketErrors(t *testing.T) {
	conn := dial(t)

	for _, msg := range []inboundMessage{{Type: "query", Query: " "}, {Type: "audio"}} {
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write err: %v", err)
		}

		var resp struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read err: %v", err)
		}
		if resp.Type != "error" || resp.Data["message"] == "" {
			t.Fatalf("expected error for %+v, got %+v", msg, resp)
		}
	}
}
