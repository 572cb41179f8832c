package student

import (
	"testing"

	"github.com/sari-edu/sari/internal/model"
)

func mixedWorksheet() model.Worksheet {
	return model.Worksheet{
		Title:      "LKPD Fotosintesis",
		Theme:      "Photosynthesis",
		Difficulty: "SD",
		Questions: []model.Question{
			{ID: "q1", Type: model.TypeMultipleChoice, Text: "Pick one", Options: model.Options{{Key: "A", Text: "x"}, {Key: "B", Text: "y"}}, Answer: "A", Score: 10},
			{ID: "q2", Type: model.TypeEssay, Text: "Explain", Answer: "klorofil", Score: 20},
			{ID: "3", Type: "IS", Text: "Short answer", Answer: "daun", Score: 5},
			{ID: "4", Type: model.TypeMultipleChoice, Text: "Pick again", Options: model.Options{{Key: "C", Text: "c"}, {Key: "A", Text: "a"}, {Key: "B", Text: "b"}}, Answer: "C", Score: 10},
		},
	}
}

func TestBuildForm(t *testing.T) {
	w := mixedWorksheet()
	form := BuildForm(w, FormValues{"qq1": "B", "qq2": "draft", "q4": "Z"}, "Tulis jawaban di sini...")

	if form.Title != w.Title || form.Theme != w.Theme || form.Difficulty != w.Difficulty {
		t.Errorf("unexpected header %+v", form)
	}
	if len(form.Fields) != len(w.Questions) {
		t.Fatalf("expected %d fields, got %d", len(w.Questions), len(form.Fields))
	}

	tests := []struct {
		idx      int
		number   int
		name     string
		kind     model.InputKind
		heading  string
		labels   []string
		selected string
		value    string
	}{
		{0, 1, "qq1", model.InputChoice, "1. [PG] Pick one", []string{"A. x", "B. y"}, "B", ""},
		{1, 2, "qq2", model.InputText, "2. [Essay] Explain", nil, "", "draft"},
		{2, 3, "q3", model.InputText, "3. [IS] Short answer", nil, "", ""},
		{3, 4, "q4", model.InputChoice, "4. [PG] Pick again", []string{"C. c", "A. a", "B. b"}, "", ""},
	}

	for _, tt := range tests {
		f := form.Fields[tt.idx]
		t.Run(tt.name, func(t *testing.T) {
			if f.Number != tt.number || f.Name != tt.name || f.Kind != tt.kind {
				t.Errorf("unexpected field %+v", f)
			}
			if f.Heading() != tt.heading {
				t.Errorf("Heading() = %q, want %q", f.Heading(), tt.heading)
			}
			if !f.Required {
				t.Error("every field is required")
			}
			if len(f.Choices) != len(tt.labels) {
				t.Fatalf("expected %d choices, got %d", len(tt.labels), len(f.Choices))
			}
			selected := 0
			for i, ch := range f.Choices {
				if ch.Label != tt.labels[i] {
					t.Errorf("choice %d: expected %q, got %q", i, tt.labels[i], ch.Label)
				}
				if ch.Selected {
					selected++
					if ch.Value != tt.selected {
						t.Errorf("wrong choice selected: %q", ch.Value)
					}
				}
			}
			if tt.selected != "" && selected != 1 {
				t.Errorf("expected exactly one selected choice, got %d", selected)
			}
			if tt.selected == "" && selected != 0 {
				t.Errorf("expected no selected choice, got %d", selected)
			}
			if f.Kind == model.InputText {
				if f.Value != tt.value {
					t.Errorf("expected value %q, got %q", tt.value, f.Value)
				}
				if f.Placeholder == "" {
					t.Error("text field needs a placeholder")
				}
			}
		})
	}
}

func TestAssembleAnswers(t *testing.T) {
	w := mixedWorksheet()

	tests := []struct {
		name   string
		values FormValues
		want   []string
	}{
		{"nothing answered", nil, []string{"", "", "", ""}},
		{"partial", FormValues{"qq1": "A", "q4": "B"}, []string{"A", "", "", "B"}},
		{"all answered", FormValues{"qq1": "B", "qq2": "cahaya", "q3": "daun", "q4": "C"}, []string{"B", "cahaya", "daun", "C"}},
		{"unknown fields ignored", FormValues{"q99": "x", "qq2": "ok"}, []string{"", "ok", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssembleAnswers(w, tt.values)
			if len(got) != len(w.Questions) {
				t.Fatalf("expected %d answers, got %d", len(w.Questions), len(got))
			}
			for i, q := range w.Questions {
				a := got[i]
				if a.ID != q.ID || a.Type != q.Type || a.Question != q.Text || a.Key != q.Answer || a.Weight != q.Score {
					t.Errorf("answer %d not copied from question: %+v", i, a)
				}
				if a.Response != tt.want[i] {
					t.Errorf("answer %d: expected %q, got %q", i, tt.want[i], a.Response)
				}
			}
		})
	}
}

func TestAssembleAnswersEmptyWorksheet(t *testing.T) {
	got := AssembleAnswers(model.Worksheet{}, FormValues{"q1": "A"})
	if len(got) != 0 {
		t.Errorf("expected no answers, got %d", len(got))
	}
}
