package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sari-edu/sari/internal/llm/prompts"
	"github.com/sari-edu/sari/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 2 * time.Second
	defaultScore      = 10
)

// ErrNoJSON is returned when a generation response holds no JSON object.
var ErrNoJSON = errors.New("LLM output contains no JSON object")

var jsonBlockRegex = regexp.MustCompile(`\{[\s\S]*\}`)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string

	// MaxAttempts bounds the calls made for one completion.
	MaxAttempts int
	// RetryDelay is the pause between attempts; up to one second of jitter
	// is added to it.
	RetryDelay time.Duration
}

// New creates a new LLM client and loads the prompt templates.
func New(baseURL, apiKey, modelName string) (*Client, error) {
	if err := prompts.Load(prompts.Default); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		MaxAttempts: defaultAttempts,
		RetryDelay:  defaultRetryDelay,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// GenerateWorksheet asks the LLM for a worksheet on theme at level. The
// returned worksheet has every question's id, score and answer filled in;
// its id, theme and difficulty are left for the caller to set.
func (c *Client) GenerateWorksheet(ctx context.Context, theme, level string) (model.Worksheet, error) {
	prompt, err := prompts.BuildGeneratePrompt(theme, level)
	if err != nil {
		return model.Worksheet{}, fmt.Errorf("build generate prompt: %w", err)
	}

	raw, err := c.complete(ctx, prompt, 0.7, true)
	if err != nil {
		return model.Worksheet{}, err
	}

	w, err := ParseWorksheet(raw)
	if err != nil {
		return model.Worksheet{}, err
	}
	if w.Title == "" {
		w.Title = "LKPD: " + theme
	}
	slog.Info("worksheet generated", "theme", theme, "level", level, "questions", len(w.Questions))
	return w, nil
}

// Feedback asks the LLM for a short feedback text on a student's score.
func (c *Client) Feedback(ctx context.Context, name, theme string, score float64) (string, error) {
	prompt, err := prompts.BuildFeedbackPrompt(name, theme, score)
	if err != nil {
		return "", fmt.Errorf("build feedback prompt: %w", err)
	}
	text, err := c.complete(ctx, prompt, 0.3, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ListModels returns the ids of the models the endpoint serves.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Ping checks that the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

// complete sends a single-message chat completion, retrying failed and empty
// responses up to MaxAttempts times.
func (c *Client) complete(ctx context.Context, prompt string, temperature float32, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	attempts := max(c.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("LLM API call: %w", err)
		case len(resp.Choices) == 0:
			lastErr = errors.New("LLM returned no choices")
		case strings.TrimSpace(resp.Choices[0].Message.Content) == "":
			lastErr = errors.New("LLM returned an empty response")
		default:
			raw := resp.Choices[0].Message.Content
			slog.Debug("LLM response", "raw", raw)
			return raw, nil
		}

		slog.Warn("LLM call failed", "attempt", attempt, "of", attempts, "error", lastErr)
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, c.backoff()); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("LLM failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) backoff() time.Duration {
	if c.RetryDelay <= 0 {
		return 0
	}
	return c.RetryDelay + rand.N(time.Second)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type rawQuestion struct {
	ID      *model.QuestionID  `json:"id"`
	Type    model.QuestionType `json:"type"`
	Text    string             `json:"question"`
	Options model.Options      `json:"options"`
	Answer  *string            `json:"answer"`
	Key     *string            `json:"kunci"`
	Score   *float64           `json:"score"`
	Weight  *float64           `json:"bobot"`
}

type rawWorksheet struct {
	Title     string        `json:"title"`
	Questions []rawQuestion `json:"questions"`
}

// ParseWorksheet extracts the outermost JSON object from raw LLM output and
// normalizes its questions: a missing id becomes the 1-based position, a
// missing score falls back to "bobot" then 10, and a missing answer falls
// back to "kunci" then "".
func ParseWorksheet(raw string) (model.Worksheet, error) {
	block := jsonBlockRegex.FindString(raw)
	if block == "" {
		return model.Worksheet{}, ErrNoJSON
	}

	var rw rawWorksheet
	if err := json.Unmarshal([]byte(block), &rw); err != nil {
		return model.Worksheet{}, fmt.Errorf("parse LLM worksheet: %w (raw: %.500s)", err, raw)
	}

	w := model.Worksheet{
		Title:     rw.Title,
		Questions: make([]model.Question, 0, len(rw.Questions)),
	}
	for i, rq := range rw.Questions {
		q := model.Question{
			ID:      model.QuestionID(strconv.Itoa(i + 1)),
			Type:    rq.Type,
			Text:    rq.Text,
			Options: rq.Options,
			Score:   defaultScore,
		}
		if rq.ID != nil && *rq.ID != "" {
			q.ID = *rq.ID
		}
		switch {
		case rq.Score != nil:
			q.Score = *rq.Score
		case rq.Weight != nil:
			q.Score = *rq.Weight
		}
		switch {
		case rq.Answer != nil:
			q.Answer = *rq.Answer
		case rq.Key != nil:
			q.Answer = *rq.Key
		}
		w.Questions = append(w.Questions, q)
	}
	return w, nil
}
