package model

import (
	"encoding/json"
	"testing"
)

func TestOptionsKeepServerOrder(t *testing.T) {
	var q Question
	data := `{"id":"1","type":"PG","question":"?","options":{"D":"d","B":"b","A":"a","C":"c"},"answer":"B","score":10}`
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := []string{"D", "B", "A", "C"}
	if len(q.Options) != len(want) {
		t.Fatalf("expected %d options, got %d", len(want), len(q.Options))
	}
	for i, k := range want {
		if q.Options[i].Key != k {
			t.Errorf("option %d: expected key %q, got %q", i, k, q.Options[i].Key)
		}
	}

	out, err := json.Marshal(q.Options)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"D":"d","B":"b","A":"a","C":"c"}` {
		t.Errorf("unexpected encoding %s", out)
	}
}

func TestOptionsEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantKeys []string
		wantErr  bool
	}{
		{"null", `null`, nil, false},
		{"empty", `{}`, nil, false},
		{"null text skipped", `{"A":"x","B":null}`, []string{"A"}, false},
		{"duplicate key keeps first position", `{"A":"x","B":"y","A":"z"}`, []string{"A", "B"}, false},
		{"array rejected", `["A","B"]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Options
			err := json.Unmarshal([]byte(tt.data), &o)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if len(o) != len(tt.wantKeys) {
				t.Fatalf("expected %d options, got %d", len(tt.wantKeys), len(o))
			}
			for i, k := range tt.wantKeys {
				if o[i].Key != k {
					t.Errorf("option %d: expected %q, got %q", i, k, o[i].Key)
				}
			}
		})
	}

	var o Options
	if err := json.Unmarshal([]byte(`{"A":"x","A":"z"}`), &o); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if o[0].Text != "z" {
		t.Errorf("expected last text to win, got %q", o[0].Text)
	}
}

func TestQuestionIDAcceptsNumbers(t *testing.T) {
	var qs []Question
	if err := json.Unmarshal([]byte(`[{"id":3,"type":"PG"},{"id":"q2","type":"Essay"}]`), &qs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if qs[0].ID != "3" {
		t.Errorf("expected id 3, got %q", qs[0].ID)
	}
	if qs[1].ID != "q2" {
		t.Errorf("expected id q2, got %q", qs[1].ID)
	}
}

func TestQuestionInput(t *testing.T) {
	tests := []struct {
		typ  QuestionType
		want InputKind
	}{
		{TypeMultipleChoice, InputChoice},
		{TypeEssay, InputText},
		{"IS", InputText},
		{"pg", InputText},
		{"", InputText},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			got := Question{Type: tt.typ}.Input()
			if got != tt.want {
				t.Errorf("Input() = %v, want %v", got, tt.want)
			}
		})
	}
}
