package server

//go:generate templ generate -path views

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/server/views"
	"github.com/sari-edu/sari/internal/student"
	"github.com/sari-edu/sari/internal/teacher"
)

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("failed to render page", "path", r.URL.Path, "error", err)
	}
}

// handleTeacherPage shows the teacher page on the tab named by ?tab=. The
// recap tab loads the recap of ?id= when one is given.
func (h *Handler) handleTeacherPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := teacher.View{ActiveTab: teacher.TabGenerate}

	switch teacher.Tab(q.Get("tab")) {
	case teacher.TabList:
		v.ActiveTab = teacher.TabList
		ids, err := h.store.ListWorksheetIDs()
		if err != nil {
			slog.Error("list worksheets", "error", err)
			http.Error(w, i18n.Td(r.Context(), "ListError", map[string]any{"Error": err.Error()}), http.StatusInternalServerError)
			return
		}
		v.List = teacher.ListPanel{State: teacher.PanelEmpty}
		if len(ids) > 0 {
			v.List = teacher.ListPanel{State: teacher.PanelReady, IDs: ids}
		}
	case teacher.TabRecap:
		v.ActiveTab = teacher.TabRecap
		panel, err := h.recapPanel(strings.TrimSpace(q.Get("id")))
		if err != nil {
			slog.Error("recap", "id", q.Get("id"), "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		v.Recap = panel
	}

	h.renderPage(w, r, http.StatusOK, views.TeacherPage(v, model.Levels))
}

func (h *Handler) recapPanel(id string) (teacher.RecapPanel, error) {
	if id == "" {
		return teacher.RecapPanel{}, nil
	}
	entries, err := h.store.Recap(id)
	if err != nil {
		return teacher.RecapPanel{}, err
	}
	if len(entries) == 0 {
		return teacher.RecapPanel{State: teacher.PanelEmpty, WorksheetID: id}, nil
	}
	rows := make([]teacher.RecapRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, teacher.RecapRow{RecapRow: e.RecapRow, StatusClass: teacher.StatusClass(e.Status)})
	}
	return teacher.RecapPanel{State: teacher.PanelReady, WorksheetID: id, Rows: rows, ExportVisible: true}, nil
}

// handleTeacherGenerate creates a worksheet from the generate form and shows
// its id on the generate tab.
func (h *Handler) handleTeacherGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := teacher.View{ActiveTab: teacher.TabGenerate}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := model.GenerateRequest{
		Theme: strings.TrimSpace(r.PostForm.Get("theme")),
		Level: model.Level(strings.TrimSpace(r.PostForm.Get("level"))),
	}
	if err := validate.Struct(req); err != nil {
		v.Result = teacher.ResultPanel{State: teacher.PanelError, Message: i18n.T(ctx, "ThemeLevelRequired")}
		h.renderPage(w, r, http.StatusBadRequest, views.TeacherPage(v, model.Levels))
		return
	}

	ws, err := h.createWorksheet(ctx, req)
	if err != nil {
		v.Result = teacher.ResultPanel{State: teacher.PanelError, Message: i18n.T(ctx, "GenerateFailed")}
		h.renderPage(w, r, http.StatusInternalServerError, views.TeacherPage(v, model.Levels))
		return
	}
	v.Result = teacher.ResultPanel{State: teacher.PanelReady, WorksheetID: ws.ID}
	h.renderPage(w, r, http.StatusOK, views.TeacherPage(v, model.Levels))
}

// handleStudentPage shows the entry form, or the worksheet form when ?id=
// names a stored worksheet. ?name= pre-fills the student name.
func (h *Handler) handleStudentPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	d := views.StudentPageData{
		EntryID: strings.TrimSpace(q.Get("id")),
		Name:    strings.TrimSpace(q.Get("name")),
	}
	if d.EntryID == "" {
		h.renderPage(w, r, http.StatusOK, views.StudentPage(d))
		return
	}

	ws, ok := h.pageWorksheet(w, r, &d)
	if !ok {
		return
	}
	form := student.BuildForm(*ws, nil, i18n.T(ctx, "AnswerPlaceholder"))
	d.Form = &form
	h.renderPage(w, r, http.StatusOK, views.StudentPage(d))
}

// handleStudentSubmit scores the posted worksheet form and shows the result.
// Fields left out of the form are submitted as empty answers.
func (h *Handler) handleStudentSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d := views.StudentPageData{
		EntryID: strings.TrimSpace(r.PostForm.Get("lkpd_id")),
		Name:    strings.TrimSpace(r.PostForm.Get("name")),
	}
	if d.EntryID == "" {
		d.Error = i18n.T(ctx, "SubmitFieldsRequired")
		h.renderPage(w, r, http.StatusBadRequest, views.StudentPage(d))
		return
	}
	ws, ok := h.pageWorksheet(w, r, &d)
	if !ok {
		return
	}

	values := make(student.FormValues, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	sub := model.Submission{WorksheetID: d.EntryID, Name: d.Name, Answers: student.AssembleAnswers(*ws, values)}
	if err := validate.Struct(sub); err != nil {
		d.Error = i18n.T(ctx, "SubmitFieldsRequired")
		h.renderForm(w, r, http.StatusBadRequest, d, *ws, values)
		return
	}

	ack, err := h.record(ctx, *ws, sub)
	if err != nil {
		d.Error = i18n.T(ctx, "SubmitFailed")
		h.renderForm(w, r, http.StatusInternalServerError, d, *ws, values)
		return
	}
	d.Ack = &ack
	h.renderPage(w, r, http.StatusOK, views.StudentPage(d))
}

// pageWorksheet loads d.EntryID. When it is missing it renders the entry
// page with a not-found message and reports false.
func (h *Handler) pageWorksheet(w http.ResponseWriter, r *http.Request, d *views.StudentPageData) (*model.Worksheet, bool) {
	ws, err := h.store.GetWorksheet(d.EntryID)
	if err != nil {
		slog.Error("get worksheet", "id", d.EntryID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if ws == nil {
		d.Error = i18n.T(r.Context(), "WorksheetNotFound")
		h.renderPage(w, r, http.StatusNotFound, views.StudentPage(*d))
		return nil, false
	}
	return ws, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, d views.StudentPageData, ws model.Worksheet, values student.FormValues) {
	form := student.BuildForm(ws, values, i18n.T(r.Context(), "AnswerPlaceholder"))
	d.Form = &form
	h.renderPage(w, r, status, views.StudentPage(d))
}
