package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/sari-edu/sari/internal/i18n"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportRows returns the header and one row per submission, or nil when the
// worksheet has no submissions.
func (h *Handler) exportRows(ctx context.Context, id string) ([][]string, error) {
	entries, err := h.store.Recap(id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{
		i18n.T(ctx, "ColName"),
		i18n.T(ctx, "ColScorePercent"),
		i18n.T(ctx, "ColStatus"),
		i18n.T(ctx, "ColSubmittedAt"),
		i18n.T(ctx, "ColFeedback"),
	})
	for _, e := range entries {
		rows = append(rows, []string{
			e.Name,
			strconv.FormatFloat(e.Score, 'f', -1, 64),
			e.Status,
			e.SubmittedAt,
			e.Feedback,
		})
	}
	return rows, nil
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, ok := h.exportOrFail(w, r, id)
	if !ok {
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		slog.Error("encode csv", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	attachment(w, "text/csv", fmt.Sprintf("rekap_%s.csv", id))
	w.Write(buf.Bytes())
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, ok := h.exportOrFail(w, r, id)
	if !ok {
		return
	}

	buf, err := recapWorkbook(i18n.T(r.Context(), "RecapSheet"), rows)
	if err != nil {
		slog.Error("encode xlsx", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	attachment(w, xlsxContentType, fmt.Sprintf("rekap_%s.xlsx", id))
	w.Write(buf.Bytes())
}

func (h *Handler) exportOrFail(w http.ResponseWriter, r *http.Request, id string) ([][]string, bool) {
	rows, err := h.exportRows(r.Context(), id)
	if err != nil {
		slog.Error("export", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if rows == nil {
		writeError(w, http.StatusNotFound, i18n.T(r.Context(), "NoAnswersForExport"))
		return nil, false
	}
	return rows, true
}

// recapWorkbook writes rows into a single-sheet workbook. The score column
// is stored as a number.
func recapWorkbook(sheet string, rows [][]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if i > 0 {
			if score, err := strconv.ParseFloat(row[1], 64); err == nil {
				cells[1] = score
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f.WriteToBuffer()
}
