package upload

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/agentdesk/backend/internal/service/docindex"
)

func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("CreateFormFile err: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close err: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func newServer(t *testing.T, maxBytes int64) (http.Handler, *docindex.Store) {
	t.Helper()

	store, err := docindex.NewStore(docindex.Options{ChunkSize: 200, ChunkOverlap: 20, TopK: 3, EmbeddingDim: 64})
	if err != nil {
		t.Fatalf("NewStore err: %v", err)
	}

	r := chi.NewRouter()
	New(store, maxBytes).RegisterRoutes(r)
	return r, store
}

func TestUploadIngestsDocument(t *testing.T) {
	srv, store := newServer(t, 1<<20)
	body, ct := multipartBody(t, "file", "policy.txt", "Remote work is allowed on Fridays.")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if resp["message"] != docindex.StatusProcessed {
		t.Fatalf("unexpected message: %q", resp["message"])
	}
	if !store.Ready() {
		t.Fatal("expected index to be built")
	}
}

func TestUploadRejections(t *testing.T) {
	cases := []struct {
		name    string
		field   string
		file    string
		content string
		max     int64
		want    int
	}{
		{name: "unsupported", field: "file", file: "resume.docx", content: "PK", max: 1 << 20, want: http.StatusUnsupportedMediaType},
		{name: "corrupt pdf", field: "file", file: "resume.pdf", content: "%PDF-1.4", max: 1 << 20, want: http.StatusUnprocessableEntity},
		{name: "empty", field: "file", file: "blank.txt", content: "   ", max: 1 << 20, want: http.StatusBadRequest},
		{name: "missing field", field: "document", file: "a.txt", content: "text", max: 1 << 20, want: http.StatusBadRequest},
		{name: "too large", field: "file", file: "big.txt", content: strings.Repeat("a", 4096), max: 1024, want: http.StatusRequestEntityTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newServer(t, tc.max)
			body, ct := multipartBody(t, tc.field, tc.file, tc.content)

			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
