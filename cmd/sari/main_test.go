package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"

	appI18n "github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/student"
	"github.com/sari-edu/sari/internal/ui"
)

func testForm() student.Form {
	w := model.Worksheet{
		Questions: []model.Question{
			{ID: "1", Type: model.TypeMultipleChoice, Text: "Pilih", Options: model.Options{{Key: "A", Text: "x"}, {Key: "B", Text: "y"}}},
			{ID: "2", Type: model.TypeEssay, Text: "Jelaskan"},
		},
	}
	return student.BuildForm(w, nil, "Tulis jawaban di sini...")
}

func optionlessForm() student.Form {
	w := model.Worksheet{
		Questions: []model.Question{
			{ID: "1", Type: model.TypeMultipleChoice, Text: "Pilih"},
			{ID: "2", Type: model.TypeEssay, Text: "Jelaskan"},
		},
	}
	return student.BuildForm(w, nil, "Tulis jawaban di sini...")
}

func TestFillForm(t *testing.T) {
	if err := appI18n.Init(appI18n.DefaultLang); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}

	tests := []struct {
		name    string
		form    func() student.Form
		input   string
		want    student.FormValues
		wantErr bool
		alerts  []string
		prompt  string
	}{
		{
			name:   "answers in order",
			input:  "b\nKarena air menguap.\n",
			want:   student.FormValues{"q1": "B", "q2": "Karena air menguap."},
			prompt: "Pilih (A/B): ",
		},
		{
			name:   "unknown choice is asked again",
			input:  "Z\n\nA\n  jawab  \n",
			want:   student.FormValues{"q1": "A", "q2": "jawab"},
			alerts: []string{"Pilihan tidak dikenal: Z"},
			prompt: "Pilih (A/B): ",
		},
		{
			name:  "choice without options is left unanswered",
			form:  optionlessForm,
			input: "jawab\n",
			want:  student.FormValues{"q2": "jawab"},
		},
		{
			name:    "input ends early",
			input:   "A\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := ui.NewTerminal(strings.NewReader(tt.input), &out)
			form := testForm
			if tt.form != nil {
				form = tt.form
			}
			got, err := fillForm(context.Background(), term, &out, form())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("fillForm: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
			for _, a := range tt.alerts {
				if !strings.Contains(out.String(), a) {
					t.Errorf("output missing %q:\n%s", a, out.String())
				}
			}
			if tt.prompt != "" && !strings.Contains(out.String(), tt.prompt) {
				t.Errorf("prompt %q missing:\n%s", tt.prompt, out.String())
			}
		})
	}
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	for _, path := range [][]string{
		{"teacher", "generate"},
		{"teacher", "list"},
		{"teacher", "recap"},
		{"student"},
		{"serve"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Errorf("find %v: %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("find %v resolved to %q", path, cmd.Name())
		}
	}

	if f := root.PersistentFlags().Lookup("api-url"); f == nil || f.DefValue != "http://localhost:8000" {
		t.Errorf("unexpected api-url flag %+v", f)
	}
}

func TestNewLLM(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	t.Run("disabled", func(t *testing.T) {
		v := viper.New()
		v.Set("no-llm", true)
		l, err := newLLM(context.Background(), v)
		if err != nil {
			t.Fatalf("newLLM: %v", err)
		}
		if l != nil {
			t.Errorf("expected a nil LLM, got %T", l)
		}
	})

	t.Run("endpoint down", func(t *testing.T) {
		v := viper.New()
		v.Set("llm-url", down.URL+"/v1")
		v.Set("llm-key", "test")
		v.Set("llm-model", "test-model")
		if _, err := newLLM(context.Background(), v); err == nil || !strings.Contains(err.Error(), "LLM health check") {
			t.Errorf("expected health check error, got %v", err)
		}
	})
}
