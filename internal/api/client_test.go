package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
)

type recordingNotifier struct {
	alerts []string
}

func (n *recordingNotifier) Alert(msg string)        { n.alerts = append(n.alerts, msg) }
func (n *recordingNotifier) Confirm(msg string) bool { return true }

func newTestClient(t *testing.T, r chi.Router) (*Client, *recordingNotifier) {
	t.Helper()
	if err := i18n.Init(i18n.DefaultLang); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	n := &recordingNotifier{}
	c, err := New(srv.URL, n, srv.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/api", &recordingNotifier{}, nil); err == nil {
		t.Fatal("expected error for relative base URL")
	}
}

func TestGenerate(t *testing.T) {
	r := chi.NewRouter()
	var got model.GenerateRequest
	r.Post("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"id": "abc123", "title": "LKPD Fotosintesis"})
	})
	c, n := newTestClient(t, r)

	resp, err := c.Generate(context.Background(), "Photosynthesis", model.LevelSD)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.ID != "abc123" || resp.Title != "LKPD Fotosintesis" {
		t.Errorf("unexpected response %+v", resp)
	}
	if got.Theme != "Photosynthesis" || got.Level != model.LevelSD {
		t.Errorf("unexpected request %+v", got)
	}
	if len(n.alerts) != 0 {
		t.Errorf("unexpected alerts %v", n.alerts)
	}
}

func TestStatusErrorIsReportedAndReturned(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/lkpd/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "LKPD tidak ditemukan."})
	})
	c, n := newTestClient(t, r)

	_, err := c.Worksheet(context.Background(), "nope")
	var rf *RequestFailed
	if !errors.As(err, &rf) {
		t.Fatalf("expected *RequestFailed, got %v", err)
	}
	if rf.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rf.Status)
	}
	if !strings.Contains(rf.Message, "HTTP 404") || !strings.Contains(rf.Message, "LKPD tidak ditemukan.") {
		t.Errorf("unexpected message %q", rf.Message)
	}
	if rf.Method != http.MethodGet || rf.Path != "/api/lkpd/nope" {
		t.Errorf("unexpected request info %s %s", rf.Method, rf.Path)
	}
	if len(n.alerts) != 1 || !strings.Contains(n.alerts[0], "HTTP 404") {
		t.Errorf("expected one alert with status, got %v", n.alerts)
	}
}

func TestTransportErrorIsReported(t *testing.T) {
	if err := i18n.Init(i18n.DefaultLang); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	n := &recordingNotifier{}
	c, err := New(base, n, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.AllIDs(context.Background())
	var rf *RequestFailed
	if !errors.As(err, &rf) {
		t.Fatalf("expected *RequestFailed, got %v", err)
	}
	if rf.Status != 0 {
		t.Errorf("expected no status, got %d", rf.Status)
	}
	if rf.Unwrap() == nil {
		t.Error("expected wrapped transport error")
	}
	if len(n.alerts) != 1 {
		t.Errorf("expected one alert, got %v", n.alerts)
	}
}

func TestDecodeErrorIsRequestFailed(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/all-ids", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	})
	c, n := newTestClient(t, r)

	_, err := c.AllIDs(context.Background())
	var rf *RequestFailed
	if !errors.As(err, &rf) {
		t.Fatalf("expected *RequestFailed, got %v", err)
	}
	if rf.Status != http.StatusOK {
		t.Errorf("expected status 200, got %d", rf.Status)
	}
	if len(n.alerts) != 1 {
		t.Errorf("expected one alert, got %v", n.alerts)
	}
}

func TestAllIDsKeepsServerOrder(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/all-ids", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ids": []string{"zz", "aa", "mm"}})
	})
	c, _ := newTestClient(t, r)

	ids, err := c.AllIDs(context.Background())
	if err != nil {
		t.Fatalf("AllIDs: %v", err)
	}
	if strings.Join(ids, ",") != "zz,aa,mm" {
		t.Errorf("unexpected order %v", ids)
	}
}

func TestAnswers(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantRows int
	}{
		{"rows", `[{"name":"Budi","avg":90,"status":"Tinggi","total_questions":5}]`, 1},
		{"empty", `[]`, 0},
		{"null", `null`, 0},
		{"not a list", `{"detail":"x"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/api/answers/{id}", func(w http.ResponseWriter, r *http.Request) {
				if chi.URLParam(r, "id") != "abc123" {
					t.Errorf("unexpected id %q", chi.URLParam(r, "id"))
				}
				w.Write([]byte(tt.body))
			})
			c, n := newTestClient(t, r)

			rows, err := c.Answers(context.Background(), "abc123")
			if err != nil {
				t.Fatalf("Answers: %v", err)
			}
			if len(rows) != tt.wantRows {
				t.Errorf("expected %d rows, got %d", tt.wantRows, len(rows))
			}
			if len(n.alerts) != 0 {
				t.Errorf("unexpected alerts %v", n.alerts)
			}
		})
	}
}

func TestSubmit(t *testing.T) {
	r := chi.NewRouter()
	var got model.Submission
	r.Post("/api/submit", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Jawaban tersimpan",
			"result":  map[string]any{"name": "Ani", "score": 50, "max_score": 20},
		})
	})
	c, _ := newTestClient(t, r)

	ack, err := c.Submit(context.Background(), model.Submission{
		WorksheetID: "abc123",
		Name:        "Ani",
		Answers:     []model.Answer{{ID: "1", Type: model.TypeMultipleChoice, Response: "A", Key: "A", Weight: 10}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ack.Message != "Jawaban tersimpan" || ack.Result == nil || ack.Result.Score != 50 {
		t.Errorf("unexpected ack %+v", ack)
	}
	if got.WorksheetID != "abc123" || len(got.Answers) != 1 || got.Answers[0].Response != "A" {
		t.Errorf("unexpected submission %+v", got)
	}
}

func TestURLBuilders(t *testing.T) {
	c, err := New("http://localhost:8000/", &recordingNotifier{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"csv", c.ExportURL("abc123", model.ExportCSV), "http://localhost:8000/api/export/abc123"},
		{"xlsx", c.ExportURL("abc123", model.ExportXLSX), "http://localhost:8000/api/export-xlsx/abc123"},
		{"escaped", c.ExportURL("a/b c", model.ExportCSV), "http://localhost:8000/api/export/a%2Fb%20c"},
		{"student", c.StudentURL("abc123"), "http://localhost:8000/student.html?id=abc123"},
		{"student escaped", c.StudentURL("a&b"), "http://localhost:8000/student.html?id=a%26b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestURLKeepsBasePath(t *testing.T) {
	c, err := New("http://host/sari", &recordingNotifier{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.URL("/api/all-ids"); got != "http://host/sari/api/all-ids" {
		t.Errorf("URL = %s", got)
	}
}
