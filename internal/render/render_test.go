package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/student"
	"github.com/sari-edu/sari/internal/teacher"
)

func setup(t *testing.T) context.Context {
	t.Helper()
	if err := i18n.Init(i18n.DefaultLang); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	return context.Background()
}

func TestTeacherPanels(t *testing.T) {
	ctx := setup(t)

	tests := []struct {
		name    string
		view    teacher.View
		want    []string
		notWant []string
	}{
		{
			name:    "generate ready",
			view:    teacher.View{ActiveTab: teacher.TabGenerate, Result: teacher.ResultPanel{State: teacher.PanelReady, WorksheetID: "abc123"}},
			want:    []string{"[generate]", "ID: abc123", "[Copy]", "[Lihat LKPD]"},
			notWant: []string{"[list]"},
		},
		{
			name: "generate failed",
			view: teacher.View{ActiveTab: teacher.TabGenerate, Result: teacher.ResultPanel{State: teacher.PanelError, Message: "gagal"}},
			want: []string{"gagal"},
		},
		{
			name: "empty list",
			view: teacher.View{ActiveTab: teacher.TabList, List: teacher.ListPanel{State: teacher.PanelEmpty}},
			want: []string{"[list]", "Belum ada LKPD."},
		},
		{
			name: "list",
			view: teacher.View{ActiveTab: teacher.TabList, List: teacher.ListPanel{State: teacher.PanelReady, IDs: []string{"b", "a"}}},
			want: []string{"2 LKPD", "- b\n- a\n"},
		},
		{
			name: "empty recap",
			view: teacher.View{ActiveTab: teacher.TabRecap, Recap: teacher.RecapPanel{State: teacher.PanelEmpty}},
			want: []string{"Belum ada jawaban siswa."},
		},
		{
			name: "recap",
			view: teacher.View{ActiveTab: teacher.TabRecap, Recap: teacher.RecapPanel{
				State:       teacher.PanelReady,
				WorksheetID: "abc123",
				Rows: []teacher.RecapRow{
					{RecapRow: model.RecapRow{Name: "Ani", Avg: 92.5, Status: "Tinggi", TotalQuestions: 5}, StatusClass: teacher.ClassTinggi},
				},
				ExportVisible: true,
			}},
			want: []string{"Nama", "Jumlah Soal", "Ani", "92.5", "Tinggi (status-tinggi)", "[csv] [xlsx] abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Teacher(ctx, &buf, tt.view); err != nil {
				t.Fatalf("Teacher: %v", err)
			}
			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestForm(t *testing.T) {
	w := model.Worksheet{
		Title: "LKPD Air", Theme: "Air", Difficulty: "SD",
		Questions: []model.Question{
			{ID: "1", Type: model.TypeMultipleChoice, Text: "Pilih", Options: model.Options{{Key: "A", Text: "x"}, {Key: "B", Text: "y"}}},
			{ID: "2", Type: model.TypeEssay, Text: "Jelaskan"},
		},
	}
	form := student.BuildForm(w, student.FormValues{"q1": "B"}, "Tulis jawaban di sini...")

	var buf bytes.Buffer
	if err := Form(&buf, form); err != nil {
		t.Fatalf("Form: %v", err)
	}
	out := buf.String()
	for _, s := range []string{"LKPD Air\nAir | SD", "1. [PG] Pilih", "  ( ) A. x\n  (x) B. y", "2. [Essay] Jelaskan", "  > Tulis jawaban di sini..."} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestStudentSubmitted(t *testing.T) {
	ctx := setup(t)
	v := student.View{
		Stage: student.StageSubmitted,
		Submit: student.SubmitPanel{
			State:   student.SubmitSucceeded,
			Message: "Jawaban tersimpan",
			Result:  &model.SubmitResult{Score: 66.67, Feedback: "Bagus."},
		},
	}
	var buf bytes.Buffer
	if err := Student(ctx, &buf, v); err != nil {
		t.Fatalf("Student: %v", err)
	}
	want := "Jawaban tersimpan\nNilai: 66.67\nBagus.\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestStudentEntry(t *testing.T) {
	ctx := setup(t)
	var buf bytes.Buffer
	if err := Student(ctx, &buf, student.View{EntryID: "abc123"}); err != nil {
		t.Fatalf("Student: %v", err)
	}
	if !strings.Contains(buf.String(), "ID: abc123") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("closed") }

func TestRecapWriteError(t *testing.T) {
	ctx := setup(t)
	p := teacher.RecapPanel{
		State: teacher.PanelReady,
		Rows:  []teacher.RecapRow{{RecapRow: model.RecapRow{Name: "Ani", Avg: 70, Status: "Cukup"}, StatusClass: teacher.ClassCukup}},
	}
	if err := Recap(ctx, failWriter{}, p); err == nil {
		t.Fatal("expected write error")
	}
}
