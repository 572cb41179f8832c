package teacher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sari-edu/sari/internal/api"
	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
)

type fakeService struct {
	mu sync.Mutex

	generateCalls int
	genTheme      string
	genLevel      model.Level
	genID         string
	genErr        error
	// genHook runs inside Generate before it returns.
	genHook func(call int)

	listCalls int
	ids       []string
	listErr   error

	answerCalls int
	answersFor  string
	rows        []model.RecapRow
	answersErr  error
}

func (s *fakeService) Generate(ctx context.Context, theme string, level model.Level) (model.GenerateResponse, error) {
	s.mu.Lock()
	s.generateCalls++
	call := s.generateCalls
	s.genTheme, s.genLevel = theme, level
	hook := s.genHook
	s.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	if s.genErr != nil {
		return model.GenerateResponse{}, s.genErr
	}
	return model.GenerateResponse{Worksheet: model.Worksheet{ID: s.genID}}, nil
}

func (s *fakeService) AllIDs(ctx context.Context) ([]string, error) {
	s.listCalls++
	return s.ids, s.listErr
}

func (s *fakeService) Answers(ctx context.Context, id string) ([]model.RecapRow, error) {
	s.answerCalls++
	s.answersFor = id
	return s.rows, s.answersErr
}

func (s *fakeService) ExportURL(id string, format model.ExportFormat) string {
	if format == model.ExportXLSX {
		return "/api/export-xlsx/" + id
	}
	return "/api/export/" + id
}

func (s *fakeService) StudentURL(id string) string {
	return "/student.html?id=" + id
}

type recordingNotifier struct {
	alerts []string
}

func (n *recordingNotifier) Alert(msg string)        { n.alerts = append(n.alerts, msg) }
func (n *recordingNotifier) Confirm(msg string) bool { return true }

type recordingNavigator struct {
	opened    []string
	navigated []string
}

func (n *recordingNavigator) Open(u string) error {
	n.opened = append(n.opened, u)
	return nil
}

func (n *recordingNavigator) Navigate(u string) error {
	n.navigated = append(n.navigated, u)
	return nil
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

type fixture struct {
	ctx    context.Context
	svc    *fakeService
	notify *recordingNotifier
	nav    *recordingNavigator
	clip   *fakeClipboard
	c      *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if err := i18n.Init(i18n.DefaultLang); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	f := &fixture{
		ctx:    context.Background(),
		svc:    &fakeService{},
		notify: &recordingNotifier{},
		nav:    &recordingNavigator{},
		clip:   &fakeClipboard{},
	}
	f.c = New(f.svc, f.notify, f.nav, f.clip)
	return f
}

func TestInitialView(t *testing.T) {
	f := newFixture(t)
	v := f.c.View()
	if v.ActiveTab != TabGenerate {
		t.Errorf("expected first tab active, got %q", v.ActiveTab)
	}
	for _, tab := range Tabs {
		if v.PanelVisible(tab) != (tab == TabGenerate) {
			t.Errorf("tab %q visibility wrong", tab)
		}
	}
	if f.c.CurrentID() != "" {
		t.Error("expected no current id")
	}
}

func TestShowTab(t *testing.T) {
	f := newFixture(t)
	f.svc.ids = []string{"a1"}

	if err := f.c.ShowTab(f.ctx, TabRecap); err != nil {
		t.Fatalf("ShowTab(recap): %v", err)
	}
	v := f.c.View()
	if !v.PanelVisible(TabRecap) || !v.Highlighted(TabRecap) || v.PanelVisible(TabGenerate) {
		t.Errorf("unexpected view after recap: %+v", v)
	}
	if f.svc.listCalls != 0 {
		t.Errorf("recap tab should not load the list")
	}

	if err := f.c.ShowTab(f.ctx, TabList); err != nil {
		t.Fatalf("ShowTab(list): %v", err)
	}
	if f.svc.listCalls != 1 {
		t.Errorf("expected list reload, got %d calls", f.svc.listCalls)
	}
	if err := f.c.ShowTab(f.ctx, TabList); err != nil {
		t.Fatalf("ShowTab(list): %v", err)
	}
	if f.svc.listCalls != 2 {
		t.Errorf("expected a reload on every selection, got %d calls", f.svc.listCalls)
	}

	err := f.c.ShowTab(f.ctx, "settings")
	if !errors.Is(err, ErrUnknownTab) {
		t.Errorf("expected ErrUnknownTab, got %v", err)
	}
	if f.c.View().ActiveTab != TabList {
		t.Error("unknown tab must not change the active tab")
	}
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name    string
		theme   string
		level   model.Level
		wantMsg string
	}{
		{"empty theme", "", model.LevelSD, "ThemeRequired"},
		{"whitespace theme", "   \t\n", model.LevelSMP, "ThemeRequired"},
		{"empty theme and bad level", " ", "XX", "ThemeRequired"},
		{"unknown level", "Fotosintesis", "kuliah", "LevelInvalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.c.Generate(f.ctx, tt.theme, tt.level)
			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if f.svc.generateCalls != 0 {
				t.Errorf("expected no network call, got %d", f.svc.generateCalls)
			}
			if len(f.notify.alerts) != 1 {
				t.Fatalf("expected one warning, got %v", f.notify.alerts)
			}
			want := i18n.Td(f.ctx, tt.wantMsg, map[string]any{"Level": tt.level})
			if f.notify.alerts[0] != want {
				t.Errorf("expected %q, got %q", want, f.notify.alerts[0])
			}
			if f.c.View().Result.State != PanelIdle {
				t.Error("validation failure must not touch the result area")
			}
		})
	}
}

func TestGenerateSuccess(t *testing.T) {
	f := newFixture(t)
	f.svc.genID = "abc123"
	f.svc.genHook = func(int) {
		if st := f.c.View().Result.State; st != PanelLoading {
			t.Errorf("expected loading while pending, got %v", st)
		}
	}

	id, err := f.c.Generate(f.ctx, "  Photosynthesis ", model.LevelSD)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if id != "abc123" {
		t.Errorf("expected id abc123, got %q", id)
	}
	if f.svc.generateCalls != 1 {
		t.Errorf("expected exactly one call, got %d", f.svc.generateCalls)
	}
	if f.svc.genTheme != "Photosynthesis" || f.svc.genLevel != model.LevelSD {
		t.Errorf("unexpected request %q %q", f.svc.genTheme, f.svc.genLevel)
	}
	res := f.c.View().Result
	if res.State != PanelReady || res.WorksheetID != "abc123" {
		t.Errorf("unexpected result panel %+v", res)
	}

	f.c.CopyID(f.ctx, res.WorksheetID)
	if f.clip.text != "abc123" {
		t.Errorf("expected copied id, got %q", f.clip.text)
	}
	if err := f.c.OpenStudent(res.WorksheetID); err != nil {
		t.Fatalf("OpenStudent: %v", err)
	}
	if len(f.nav.opened) != 1 || f.nav.opened[0] != "/student.html?id=abc123" {
		t.Errorf("unexpected opened %v", f.nav.opened)
	}
	if f.svc.generateCalls != 1 {
		t.Errorf("actions must not repeat the request, got %d calls", f.svc.generateCalls)
	}
}

func TestGenerateFailureShowsInlineError(t *testing.T) {
	f := newFixture(t)
	f.svc.genErr = &api.RequestFailed{Status: 500, Message: "HTTP 500"}

	_, err := f.c.Generate(f.ctx, "Fotosintesis", model.LevelSMA)
	var rf *api.RequestFailed
	if !errors.As(err, &rf) {
		t.Fatalf("expected RequestFailed, got %v", err)
	}
	res := f.c.View().Result
	if res.State != PanelError || res.Message != i18n.T(f.ctx, "GenerateFailed") {
		t.Errorf("unexpected result panel %+v", res)
	}

	f.svc.genErr = nil
	f.svc.genID = "ok1"
	if _, err := f.c.Generate(f.ctx, "Fotosintesis", model.LevelSMA); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.c.View().Result.WorksheetID != "ok1" {
		t.Error("expected retry to succeed")
	}
}

func TestGenerateEmptyIDIsFailure(t *testing.T) {
	f := newFixture(t)
	if _, err := f.c.Generate(f.ctx, "Fotosintesis", model.LevelSD); err == nil {
		t.Fatal("expected error for missing id")
	}
	if f.c.View().Result.State != PanelError {
		t.Error("expected error panel")
	}
}

func TestGenerateLatestRequestWins(t *testing.T) {
	f := newFixture(t)
	f.svc.genID = "first"

	// The first request resolves only after a second one was issued and resolved.
	f.svc.genHook = func(call int) {
		if call != 1 {
			return
		}
		f.svc.mu.Lock()
		f.svc.genHook = nil
		f.svc.genID = "second"
		f.svc.mu.Unlock()
		if _, err := f.c.Generate(f.ctx, "B", model.LevelSD); err != nil {
			t.Errorf("second Generate: %v", err)
		}
		f.svc.mu.Lock()
		f.svc.genID = "first"
		f.svc.mu.Unlock()
	}

	id, err := f.c.Generate(f.ctx, "A", model.LevelSD)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if id != "first" {
		t.Errorf("caller still gets its own response, got %q", id)
	}
	if got := f.c.View().Result.WorksheetID; got != "second" {
		t.Errorf("expected result area to show the latest issued request, got %q", got)
	}
}

func TestLoadList(t *testing.T) {
	f := newFixture(t)

	if err := f.c.LoadList(f.ctx); err != nil {
		t.Fatalf("LoadList: %v", err)
	}
	if st := f.c.View().List.State; st != PanelEmpty {
		t.Errorf("expected empty state, got %v", st)
	}
	if len(f.c.View().List.IDs) != 0 {
		t.Error("empty state must have no entries")
	}

	f.svc.ids = []string{"zz", "aa", "mm"}
	if err := f.c.LoadList(f.ctx); err != nil {
		t.Fatalf("LoadList: %v", err)
	}
	list := f.c.View().List
	if list.State != PanelReady || len(list.IDs) != 3 || list.IDs[0] != "zz" || list.IDs[2] != "mm" {
		t.Errorf("unexpected list %+v", list)
	}

	f.svc.listErr = &api.RequestFailed{Message: "HTTP 500"}
	if err := f.c.LoadList(f.ctx); err == nil {
		t.Fatal("expected error")
	}
	list = f.c.View().List
	if list.State != PanelReady || len(list.IDs) != 3 {
		t.Errorf("failure must keep the previous list, got %+v", list)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"Tinggi", ClassTinggi},
		{"Cukup", ClassCukup},
		{"Bimbingan", ClassBimbingan},
		{"Perlu Bimbingan", ClassBimbingan},
		{"Unknown", ClassBimbingan},
		{"", ClassBimbingan},
		{"tinggi", ClassBimbingan},
		{" Cukup", ClassBimbingan},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := StatusClass(tt.status); got != tt.want {
				t.Errorf("StatusClass(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestLoadRecapValidation(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"", "   "} {
		err := f.c.LoadRecap(f.ctx, id)
		if !errors.Is(err, model.ErrValidation) {
			t.Errorf("LoadRecap(%q): expected ErrValidation, got %v", id, err)
		}
	}
	if f.svc.answerCalls != 0 {
		t.Errorf("expected no network call, got %d", f.svc.answerCalls)
	}
	if len(f.notify.alerts) != 2 || f.notify.alerts[0] != i18n.T(f.ctx, "RecapIDRequired") {
		t.Errorf("unexpected alerts %v", f.notify.alerts)
	}
}

func TestLoadRecapEmpty(t *testing.T) {
	f := newFixture(t)
	if err := f.c.LoadRecap(f.ctx, "abc123"); err != nil {
		t.Fatalf("LoadRecap: %v", err)
	}
	recap := f.c.View().Recap
	if recap.State != PanelEmpty || recap.ExportVisible || len(recap.Rows) != 0 {
		t.Errorf("unexpected recap %+v", recap)
	}
	if f.c.CurrentID() != "" {
		t.Error("empty recap must not set the export target")
	}
}

func TestLoadRecapRows(t *testing.T) {
	f := newFixture(t)
	f.svc.rows = []model.RecapRow{
		{Name: "Ani", Avg: 90, Status: "Tinggi", TotalQuestions: 5},
		{Name: "Budi", Avg: 70, Status: "Cukup", TotalQuestions: 5},
		{Name: "Citra", Avg: 40, Status: "Perlu Bimbingan", TotalQuestions: 5},
	}

	if err := f.c.LoadRecap(f.ctx, " abc123 "); err != nil {
		t.Fatalf("LoadRecap: %v", err)
	}
	if f.svc.answersFor != "abc123" {
		t.Errorf("expected trimmed id, got %q", f.svc.answersFor)
	}
	recap := f.c.View().Recap
	if recap.State != PanelReady || !recap.ExportVisible || len(recap.Rows) != 3 {
		t.Fatalf("unexpected recap %+v", recap)
	}
	wantClasses := []string{ClassTinggi, ClassCukup, ClassBimbingan}
	for i, w := range wantClasses {
		if recap.Rows[i].StatusClass != w {
			t.Errorf("row %d: expected %s, got %s", i, w, recap.Rows[i].StatusClass)
		}
	}
	if f.c.CurrentID() != "abc123" {
		t.Errorf("expected current id abc123, got %q", f.c.CurrentID())
	}

	// A failing reload keeps the table and the export target.
	f.svc.answersErr = &api.RequestFailed{Message: "HTTP 502"}
	if err := f.c.LoadRecap(f.ctx, "other"); err == nil {
		t.Fatal("expected error")
	}
	recap = f.c.View().Recap
	if recap.WorksheetID != "abc123" || len(recap.Rows) != 3 || !recap.ExportVisible {
		t.Errorf("failure must keep the previous recap, got %+v", recap)
	}
	if f.c.CurrentID() != "abc123" {
		t.Error("failure must not change the export target")
	}
}

func TestExportGate(t *testing.T) {
	f := newFixture(t)

	for _, export := range []func(context.Context) error{f.c.DownloadCSV, f.c.DownloadXLSX} {
		if err := export(f.ctx); !errors.Is(err, ErrNoRecap) {
			t.Errorf("expected ErrNoRecap, got %v", err)
		}
	}
	if len(f.nav.navigated) != 0 {
		t.Errorf("expected no navigation, got %v", f.nav.navigated)
	}
	if len(f.notify.alerts) != 2 || f.notify.alerts[0] != i18n.T(f.ctx, "ViewRecapFirst") {
		t.Errorf("unexpected alerts %v", f.notify.alerts)
	}

	f.svc.rows = []model.RecapRow{{Name: "Ani", Avg: 90, Status: "Tinggi", TotalQuestions: 5}}
	if err := f.c.LoadRecap(f.ctx, "X"); err != nil {
		t.Fatalf("LoadRecap: %v", err)
	}
	if err := f.c.DownloadCSV(f.ctx); err != nil {
		t.Fatalf("DownloadCSV: %v", err)
	}
	if err := f.c.DownloadXLSX(f.ctx); err != nil {
		t.Fatalf("DownloadXLSX: %v", err)
	}
	want := []string{"/api/export/X", "/api/export-xlsx/X"}
	if len(f.nav.navigated) != 2 || f.nav.navigated[0] != want[0] || f.nav.navigated[1] != want[1] {
		t.Errorf("expected %v, got %v", want, f.nav.navigated)
	}
}
