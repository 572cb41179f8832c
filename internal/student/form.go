package student

import (
	"fmt"

	"github.com/sari-edu/sari/internal/model"
)

// FormValues holds the submitted form, keyed by field name.
type FormValues map[string]string

// FieldName is the form field name of a question.
func FieldName(id model.QuestionID) string {
	return "q" + string(id)
}

// Choice is one selectable option of a choice field.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Field is the rendered block of one question.
type Field struct {
	// Number is the 1-based position in the worksheet.
	Number     int
	Name       string
	QuestionID model.QuestionID
	Tag        model.QuestionType
	Prompt     string
	Kind       model.InputKind
	// Choices is set for choice fields: one per option, in option order.
	// Exactly one may be selected.
	Choices     []Choice
	Value       string
	Placeholder string
	Required    bool
}

// Heading is the block title, "N. [type] question".
func (f Field) Heading() string {
	return fmt.Sprintf("%d. [%s] %s", f.Number, f.Tag, f.Prompt)
}

// Form is the view-model of a loaded worksheet.
type Form struct {
	Title      string
	Theme      string
	Difficulty string
	Fields     []Field
}

// BuildForm turns a worksheet and any values entered so far into the form
// to show. It has no side effects.
func BuildForm(w model.Worksheet, values FormValues, placeholder string) Form {
	form := Form{
		Title:      w.Title,
		Theme:      w.Theme,
		Difficulty: w.Difficulty,
		Fields:     make([]Field, 0, len(w.Questions)),
	}
	for i, q := range w.Questions {
		name := FieldName(q.ID)
		f := Field{
			Number:     i + 1,
			Name:       name,
			QuestionID: q.ID,
			Tag:        q.Type,
			Prompt:     q.Text,
			Kind:       q.Input(),
			Required:   true,
		}
		switch f.Kind {
		case model.InputChoice:
			for _, opt := range q.Options {
				f.Choices = append(f.Choices, Choice{
					Value:    opt.Key,
					Label:    opt.Key + ". " + opt.Text,
					Selected: values[name] == opt.Key,
				})
			}
		case model.InputText:
			f.Value = values[name]
			f.Placeholder = placeholder
		default:
			panic(fmt.Sprintf("student: unhandled input kind %v", f.Kind))
		}
		form.Fields = append(form.Fields, f)
	}
	return form
}

// AssembleAnswers builds exactly one answer per worksheet question, in
// worksheet order. A question with no value gets an empty response.
// Everything except the response is copied from the worksheet.
func AssembleAnswers(w model.Worksheet, values FormValues) []model.Answer {
	answers := make([]model.Answer, 0, len(w.Questions))
	for _, q := range w.Questions {
		answers = append(answers, model.Answer{
			ID:       q.ID,
			Type:     q.Type,
			Question: q.Text,
			Response: values[FieldName(q.ID)],
			Key:      q.Answer,
			Weight:   q.Score,
		})
	}
	return answers
}
