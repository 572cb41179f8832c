package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sari-edu/sari/internal/model"
)

// Generate asks the service to create a worksheet.
func (c *Client) Generate(ctx context.Context, theme string, level model.Level) (model.GenerateResponse, error) {
	var resp model.GenerateResponse
	err := c.Do(ctx, http.MethodPost, "/api/generate", model.GenerateRequest{Theme: theme, Level: level}, &resp)
	return resp, err
}

// AllIDs lists every worksheet id in server order.
func (c *Client) AllIDs(ctx context.Context) ([]string, error) {
	var resp model.IDList
	if err := c.Do(ctx, http.MethodGet, "/api/all-ids", nil, &resp); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

// Worksheet fetches one worksheet.
func (c *Client) Worksheet(ctx context.Context, id string) (model.Worksheet, error) {
	var w model.Worksheet
	err := c.Do(ctx, http.MethodGet, "/api/lkpd/"+url.PathEscape(id), nil, &w)
	return w, err
}

// Answers fetches the recap rows of a worksheet. A body that is not a JSON
// array is treated as an empty recap.
func (c *Client) Answers(ctx context.Context, id string) ([]model.RecapRow, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/api/answers/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	var rows []model.RecapRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		slog.Debug("recap body is not a list", "id", id, "error", err)
		return nil, nil
	}
	return rows, nil
}

// Submit sends a student's answers.
func (c *Client) Submit(ctx context.Context, sub model.Submission) (model.SubmitAck, error) {
	var ack model.SubmitAck
	err := c.Do(ctx, http.MethodPost, "/api/submit", sub, &ack)
	return ack, err
}

// ExportURL is the download location of a worksheet's recap in the given format.
func (c *Client) ExportURL(id string, format model.ExportFormat) string {
	p := "/api/export/"
	if format == model.ExportXLSX {
		p = "/api/export-xlsx/"
	}
	return c.URL(p + url.PathEscape(id))
}

// StudentURL is the student page pre-filled with a worksheet id.
func (c *Client) StudentURL(id string) string {
	return c.URL("/student.html?" + url.Values{"id": {id}}.Encode())
}
