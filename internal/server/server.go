// Package server is a reference backend for the worksheet endpoints: it
// generates worksheets through an LLM, stores them with their submissions in
// SQLite, scores submissions and exports recaps.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/store"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "SARI API"

const idAttempts = 5

var validate = validator.New()

var errNoLLM = errors.New("no LLM configured")

// LLM is the generation and feedback backend.
type LLM interface {
	GenerateWorksheet(ctx context.Context, theme, level string) (model.Worksheet, error)
	Feedback(ctx context.Context, name, theme string, score float64) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
	llm   LLM
	now   func() time.Time
	newID func() string
}

// New creates a new Handler. l may be nil, in which case generation fails
// and submissions get the fallback feedback.
func New(s *store.Store, l LLM) *Handler {
	return &Handler{
		store: s,
		llm:   l,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString()[:8] },
	}
}

// Router returns the full HTTP handler: request logging, panic recovery,
// CORS for any origin, the localizer for lang and all routes.
func (h *Handler) Router(lang string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(i18n.Middleware(lang))
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/", h.handleTeacherPage)
	r.Post("/", h.handleTeacherGenerate)
	r.Get("/student.html", h.handleStudentPage)
	r.Post("/student.html", h.handleStudentSubmit)
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", h.handleGenerate)
		r.Get("/lkpd/{id}", h.handleGetWorksheet)
		r.Post("/submit", h.handleSubmit)
		r.Get("/answers/{id}", h.handleAnswers)
		r.Get("/export/{id}", h.handleExportCSV)
		r.Get("/export-xlsx/{id}", h.handleExportXLSX)
		r.Get("/all-ids", h.handleAllIDs)
		r.Get("/models", h.handleModels)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	version, err := h.store.Ping()
	if err != nil {
		slog.Error("database ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "service": ServiceName})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": ServiceName, "schema": version})
}

// generateBody also accepts the Indonesian field names.
type generateBody struct {
	Theme      string `json:"theme"`
	Tema       string `json:"tema"`
	Level      string `json:"level"`
	Tingkat    string `json:"tingkat"`
	Difficulty string `json:"difficulty"`
}

func (b generateBody) request() model.GenerateRequest {
	return model.GenerateRequest{
		Theme: strings.TrimSpace(firstNonEmpty(b.Theme, b.Tema)),
		Level: model.Level(strings.TrimSpace(firstNonEmpty(b.Level, b.Tingkat, b.Difficulty))),
	}
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ThemeLevelRequired"))
		return
	}
	req := body.request()
	if err := validate.Var(req.Theme, "required"); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ThemeLevelRequired"))
		return
	}
	if err := validate.Var(string(req.Level), "required"); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ThemeLevelRequired"))
		return
	}
	ws, err := h.createWorksheet(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, i18n.Td(r.Context(), "GenerateError", map[string]any{"Error": err.Error()}))
		return
	}
	writeJSON(w, http.StatusOK, model.GenerateResponse{Worksheet: ws})
}

// createWorksheet generates a worksheet for req, gives it a free id, stamps
// theme, difficulty and creation time, and stores it.
func (h *Handler) createWorksheet(ctx context.Context, req model.GenerateRequest) (model.Worksheet, error) {
	if h.llm == nil {
		return model.Worksheet{}, errNoLLM
	}
	ws, err := h.llm.GenerateWorksheet(ctx, req.Theme, string(req.Level))
	if err != nil {
		slog.Error("generate worksheet", "theme", req.Theme, "level", req.Level, "error", err)
		return model.Worksheet{}, err
	}

	id, err := h.freshID()
	if err != nil {
		return model.Worksheet{}, err
	}
	ws.ID = id
	ws.Theme = req.Theme
	ws.Difficulty = string(req.Level)
	ws.GeneratedAt = h.now().Format("2006-01-02T15:04:05")
	if err := h.store.SaveWorksheet(ws); err != nil {
		slog.Error("save worksheet", "id", id, "error", err)
		return model.Worksheet{}, err
	}

	slog.Info("worksheet created", "id", id, "theme", ws.Theme, "level", ws.Difficulty, "questions", len(ws.Questions))
	return ws, nil
}

func (h *Handler) freshID() (string, error) {
	for range idAttempts {
		id := h.newID()
		existing, err := h.store.GetWorksheet(id)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
	}
	return "", errors.New("no free worksheet id")
}

func (h *Handler) handleGetWorksheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ws, err := h.store.GetWorksheet(id)
	if err != nil {
		slog.Error("get worksheet", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ws == nil {
		writeError(w, http.StatusNotFound, i18n.T(r.Context(), "WorksheetNotFound"))
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "SubmitFieldsRequired"))
		return
	}
	sub.WorksheetID = strings.TrimSpace(sub.WorksheetID)
	sub.Name = strings.TrimSpace(sub.Name)
	if err := validate.Struct(sub); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "SubmitFieldsRequired"))
		return
	}

	ws, err := h.store.GetWorksheet(sub.WorksheetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, i18n.Td(ctx, "SubmitError", map[string]any{"Error": err.Error()}))
		return
	}
	if ws == nil {
		writeError(w, http.StatusNotFound, i18n.T(ctx, "WorksheetNotFound"))
		return
	}

	ack, err := h.record(ctx, *ws, sub)
	if err != nil {
		writeError(w, http.StatusInternalServerError, i18n.Td(ctx, "SubmitError", map[string]any{"Error": err.Error()}))
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// record scores sub against ws, asks for feedback and stores the submission.
func (h *Handler) record(ctx context.Context, ws model.Worksheet, sub model.Submission) (model.SubmitAck, error) {
	score, maxScore := Score(ws, sub.Answers)
	result := model.SubmitResult{Name: sub.Name, Score: score, MaxScore: maxScore}
	result.Feedback, result.ComputedBy = h.feedback(ctx, sub.Name, ws.Theme, score)

	_, err := h.store.AddSubmission(store.SubmissionRecord{
		WorksheetID: sub.WorksheetID,
		Name:        sub.Name,
		Score:       result.Score,
		MaxScore:    result.MaxScore,
		Feedback:    result.Feedback,
		ComputedBy:  result.ComputedBy,
		Answers:     sub.Answers,
		SubmittedAt: h.now(),
	})
	if err != nil {
		slog.Error("store submission", "id", sub.WorksheetID, "name", sub.Name, "error", err)
		return model.SubmitAck{}, err
	}

	slog.Info("submission stored", "id", sub.WorksheetID, "name", sub.Name, "score", score)
	return model.SubmitAck{Message: i18n.T(ctx, "AnswersSaved"), Result: &result}, nil
}

// feedback returns the LLM feedback text, or the fallback text and the
// "fallback" marker when the LLM is missing or fails.
func (h *Handler) feedback(ctx context.Context, name, theme string, score float64) (string, string) {
	if h.llm != nil {
		text, err := h.llm.Feedback(ctx, name, theme, score)
		if err == nil && text != "" {
			return text, ""
		}
		slog.Warn("feedback unavailable", "name", name, "error", err)
	}
	return i18n.T(ctx, "FeedbackFallback"), "fallback"
}

// Score compares each question's key with the answer given for its id
// (trimmed, case-insensitive; a missing answer counts as "") and returns the matched weight as a percentage
// of the total weight, rounded to two decimals, together with the total.
func Score(w model.Worksheet, answers []model.Answer) (float64, float64) {
	given := make(map[model.QuestionID]string, len(answers))
	for _, a := range answers {
		if _, ok := given[a.ID]; !ok {
			given[a.ID] = a.Response
		}
	}

	var total, maxScore float64
	for _, q := range w.Questions {
		maxScore += q.Score
		if strings.EqualFold(strings.TrimSpace(given[q.ID]), strings.TrimSpace(q.Answer)) {
			total += q.Score
		}
	}
	if maxScore <= 0 {
		return 0, maxScore
	}
	return math.Round(total/maxScore*100*100) / 100, maxScore
}

func (h *Handler) handleAnswers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.store.Recap(id)
	if err != nil {
		slog.Error("recap", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleAllIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListWorksheetIDs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, i18n.Td(r.Context(), "ListError", map[string]any{"Error": err.Error()}))
		return
	}
	writeJSON(w, http.StatusOK, model.IDList{IDs: ids})
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "no LLM configured"})
		return
	}
	ids, err := h.llm.ListModels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "models": ids})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
