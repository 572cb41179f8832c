package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var Default embed.FS

// MinQuestions is the least number of questions a generated worksheet asks for.
const MinQuestions = 5

const maxFieldRunes = 200

var tagRegex = regexp.MustCompile(`(?i)</?\s*[a-z][a-z0-9-]*\b[^>]*>`)

var (
	loadOnce         sync.Once
	loadErr          error
	generateTemplate *template.Template
	feedbackTemplate *template.Template
)

// GenerateData holds template data for worksheet generation prompts.
type GenerateData struct {
	Theme        string
	Level        string
	MinQuestions int
}

// FeedbackData holds template data for feedback prompts.
type FeedbackData struct {
	Name  string
	Theme string
	Score float64
}

// Load loads prompt templates from fsys, which must hold
// templates/generate.txt and templates/feedback.txt.
// Templates are loaded only once; later calls return the first result.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		generateTemplate, loadErr = parse(fsys, "templates/generate.txt")
		if loadErr != nil {
			return
		}
		feedbackTemplate, loadErr = parse(fsys, "templates/feedback.txt")
	})
	return loadErr
}

func parse(fsys fs.FS, name string) (*template.Template, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.New("failed to read prompt file " + name + ": " + err.Error())
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, errors.New("failed to parse prompt template " + name + ": " + err.Error())
	}
	return tmpl, nil
}

// BuildGeneratePrompt builds the prompt asking for a worksheet on theme at level.
func BuildGeneratePrompt(theme, level string) (string, error) {
	if generateTemplate == nil {
		return "", notLoaded()
	}
	data := GenerateData{
		Theme:        sanitize(theme),
		Level:        sanitize(level),
		MinQuestions: MinQuestions,
	}
	var buf bytes.Buffer
	if err := generateTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildFeedbackPrompt builds the prompt asking for feedback on a student's score.
func BuildFeedbackPrompt(name, theme string, score float64) (string, error) {
	if feedbackTemplate == nil {
		return "", notLoaded()
	}
	data := FeedbackData{
		Name:  sanitize(name),
		Theme: sanitize(theme),
		Score: score,
	}
	var buf bytes.Buffer
	if err := feedbackTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func notLoaded() error {
	if loadErr != nil {
		return fmt.Errorf("templates load failed: %w", loadErr)
	}
	return errors.New("templates not initialized: call Load first")
}

// sanitize strips markup-like tags and quotes from user text and bounds its
// length before it is placed into a prompt.
func sanitize(s string) string {
	s = tagRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxFieldRunes {
		s = string([]rune(s)[:maxFieldRunes])
	}
	return s
}
