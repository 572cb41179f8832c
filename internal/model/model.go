package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Level is the difficulty tier a worksheet is generated for.
type Level string

const (
	// LevelSD is elementary school.
	LevelSD Level = "SD"
	// LevelSMP is junior high school.
	LevelSMP Level = "SMP"
	// LevelSMA is senior high school.
	LevelSMA Level = "SMA"
)

// Levels lists the selectable tiers in presentation order. The first is the default.
var Levels = []Level{LevelSD, LevelSMP, LevelSMA}

// QuestionType is the type tag carried by a question.
type QuestionType string

const (
	// TypeMultipleChoice ("pilihan ganda") has a keyed option set.
	TypeMultipleChoice QuestionType = "PG"
	// TypeEssay is an open-ended question.
	TypeEssay QuestionType = "Essay"
)

// InputKind is the closed set of inputs a question can be answered with.
type InputKind int

const (
	InputChoice InputKind = iota
	InputText
)

func (k InputKind) String() string {
	switch k {
	case InputChoice:
		return "choice"
	case InputText:
		return "text"
	}
	return "InputKind(" + strconv.Itoa(int(k)) + ")"
}

// Option is one multiple-choice option.
type Option struct {
	Key  string
	Text string
}

// Options keeps the options of a question in the order the server sent them.
// JSON objects are decoded token by token so the key order survives.
type Options []Option

// UnmarshalJSON decodes a JSON object (or null) preserving key order.
// Duplicate keys keep the first position and the last text.
func (o *Options) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("options: expected object, got %v", tok)
	}
	var out Options
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("options: unexpected key %v", tok)
		}
		var text *string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("options[%s]: %w", key, err)
		}
		if text == nil {
			continue
		}
		if i, seen := index[key]; seen {
			out[i].Text = *text
			continue
		}
		index[key] = len(out)
		out = append(out, Option{Key: key, Text: *text})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

// MarshalJSON encodes the options as a JSON object in their stored order.
func (o Options) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// QuestionID is a question identifier. Generated worksheets sometimes carry
// numeric ids, so numbers are accepted and kept in their decimal form.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// Question is one item of a worksheet.
type Question struct {
	ID      QuestionID   `json:"id"`
	Type    QuestionType `json:"type"`
	Text    string       `json:"question"`
	Options Options      `json:"options,omitempty"`
	Answer  string       `json:"answer"`
	Score   float64      `json:"score"`
}

// Input reports how the question is answered. PG is a choice; every other
// type tag, known or not, is answered as free text.
func (q Question) Input() InputKind {
	switch q.Type {
	case TypeMultipleChoice:
		return InputChoice
	default:
		return InputText
	}
}

// Worksheet is an LKPD as served by the worksheet endpoint.
type Worksheet struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Theme       string     `json:"theme"`
	Difficulty  string     `json:"difficulty"`
	GeneratedAt string     `json:"generated_at,omitempty"`
	Questions   []Question `json:"questions"`
}

// GenerateRequest is the body of the generation endpoint.
type GenerateRequest struct {
	Theme string `json:"theme" validate:"required"`
	Level Level  `json:"level" validate:"required,oneof=SD SMP SMA"`
}

// GenerateResponse is returned by the generation endpoint: the new id plus
// the generated worksheet.
type GenerateResponse struct {
	Worksheet
}

// IDList is returned by the listing endpoint.
type IDList struct {
	IDs []string `json:"ids"`
}
