package query

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/agentdesk/backend/internal/model/session"
)

type fakeDispatcher struct {
	queries []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, query string) (*session.Session, error) {
	f.queries = append(f.queries, query)
	s, err := session.New(query)
	if err != nil {
		return nil, err
	}
	s.Category = "WEATHER"
	s.Respond("weather", "Weather in Paris: clear sky, Temp: 20.0°C")
	return s, nil
}

func newServer(d Dispatcher) http.Handler {
	r := chi.NewRouter()
	New(d).RegisterRoutes(r)
	return r
}

func TestHandleChat(t *testing.T) {
	d := &fakeDispatcher{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"What's the weather in Paris?"}`))

	newServer(d).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if resp.Response != "Weather in Paris: clear sky, Temp: 20.0°C" {
		t.Fatalf("unexpected response: %q", resp.Response)
	}
	if resp.Category != "WEATHER" || resp.Worker != "weather" || resp.SessionID == "" {
		t.Fatalf("unexpected metadata: %+v", resp)
	}
	if len(d.queries) != 1 || d.queries[0] != "What's the weather in Paris?" {
		t.Fatalf("unexpected dispatched queries: %v", d.queries)
	}
}

func TestHandleChatRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"invalid json": `{"query":`,
		"empty query":  `{"query":"   "}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))

			newServer(&fakeDispatcher{}).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandleChatWithoutDispatcher(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"hi there"}`))

	newServer(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandleStreamEmitsEventsInOrder(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/stream?query=weather+in+Paris", nil)

	newServer(&fakeDispatcher{}).ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", ct)
	}

	body := rec.Body.String()
	var events []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}

	want := []string{"start", "category", "message", "end"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected events: %v", events)
	}
	if !strings.Contains(body, "Weather in Paris") {
		t.Fatalf("response missing from stream: %s", body)
	}
}

func TestHandleStreamRequiresQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/stream", nil)

	newServer(&fakeDispatcher{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
