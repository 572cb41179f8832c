// Package render writes the teacher and student view-models as plain text
// for the terminal front end.
package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/student"
	"github.com/sari-edu/sari/internal/teacher"
)

// Teacher writes the sidebar and the active panel of v.
func Teacher(ctx context.Context, w io.Writer, v teacher.View) error {
	var names []string
	for _, tab := range teacher.Tabs {
		if v.Highlighted(tab) {
			names = append(names, "["+string(tab)+"]")
		} else {
			names = append(names, " "+string(tab)+" ")
		}
	}
	if _, err := fmt.Fprintf(w, "%s  %s\n\n", i18n.T(ctx, "AppTitle"), strings.Join(names, " ")); err != nil {
		return err
	}

	switch {
	case v.PanelVisible(teacher.TabGenerate):
		return Result(ctx, w, v.Result)
	case v.PanelVisible(teacher.TabList):
		return List(ctx, w, v.List)
	case v.PanelVisible(teacher.TabRecap):
		return Recap(ctx, w, v.Recap)
	}
	return nil
}

// Result writes the generate panel.
func Result(ctx context.Context, w io.Writer, p teacher.ResultPanel) error {
	var err error
	switch p.State {
	case teacher.PanelReady:
		_, err = fmt.Fprintf(w, "ID: %s\n  [%s] [%s]\n", p.WorksheetID, i18n.T(ctx, "ActionCopy"), i18n.T(ctx, "ActionOpen"))
	case teacher.PanelIdle:
	default:
		_, err = fmt.Fprintln(w, p.Message)
	}
	return err
}

// List writes the worksheet list, one id per line.
func List(ctx context.Context, w io.Writer, p teacher.ListPanel) error {
	var err error
	switch p.State {
	case teacher.PanelLoading:
		_, err = fmt.Fprintln(w, i18n.T(ctx, "ListLoading"))
	case teacher.PanelEmpty:
		_, err = fmt.Fprintln(w, i18n.T(ctx, "NoWorksheets"))
	case teacher.PanelReady:
		if _, err = fmt.Fprintln(w, i18n.Tp(ctx, "WorksheetCount", len(p.IDs))); err != nil {
			return err
		}
		for _, id := range p.IDs {
			if _, err = fmt.Fprintf(w, "- %s\n", id); err != nil {
				return err
			}
		}
	}
	return err
}

// Recap writes the recap table. Status cells carry their class in brackets.
func Recap(ctx context.Context, w io.Writer, p teacher.RecapPanel) error {
	switch p.State {
	case teacher.PanelLoading:
		_, err := fmt.Fprintln(w, i18n.T(ctx, "RecapLoading"))
		return err
	case teacher.PanelEmpty:
		_, err := fmt.Fprintln(w, i18n.T(ctx, "NoAnswers"))
		return err
	case teacher.PanelReady:
	default:
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		i18n.T(ctx, "ColName"), i18n.T(ctx, "ColScore"), i18n.T(ctx, "ColStatus"), i18n.T(ctx, "ColQuestions")); err != nil {
		return err
	}
	for _, r := range p.Rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%d\n", r.Name, formatScore(r.Avg), r.Status, r.StatusClass, r.TotalQuestions); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if p.ExportVisible {
		_, err := fmt.Fprintf(w, "\n[csv] [xlsx] %s\n", p.WorksheetID)
		return err
	}
	return nil
}

// Form writes the worksheet header and every question block of f.
func Form(w io.Writer, f student.Form) error {
	if err := FormHeader(w, f); err != nil {
		return err
	}
	for _, field := range f.Fields {
		if err := Field(w, field); err != nil {
			return err
		}
	}
	return nil
}

// FormHeader writes the worksheet title line and its theme and level.
func FormHeader(w io.Writer, f student.Form) error {
	_, err := fmt.Fprintf(w, "%s\n%s | %s\n\n", f.Title, f.Theme, f.Difficulty)
	return err
}

// Field writes one question block: the heading, then either the options
// (the selected one marked) or the current text with its placeholder.
func Field(w io.Writer, f student.Field) error {
	if _, err := fmt.Fprintln(w, f.Heading()); err != nil {
		return err
	}
	switch f.Kind {
	case model.InputChoice:
		for _, ch := range f.Choices {
			mark := " "
			if ch.Selected {
				mark = "x"
			}
			if _, err := fmt.Fprintf(w, "  (%s) %s\n", mark, ch.Label); err != nil {
				return err
			}
		}
	case model.InputText:
		text := f.Value
		if text == "" {
			text = f.Placeholder
		}
		if _, err := fmt.Fprintf(w, "  > %s\n", text); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Student writes the part of the student page v is on.
func Student(ctx context.Context, w io.Writer, v student.View) error {
	switch v.Stage {
	case student.StageEntry:
		_, err := fmt.Fprintf(w, "%s\nID: %s\n", i18n.T(ctx, "AppTitle"), v.EntryID)
		return err
	case student.StageWorksheet:
		if err := Form(w, v.Form); err != nil {
			return err
		}
	}
	return Submit(ctx, w, v.Submit)
}

// Submit writes the submission result area.
func Submit(ctx context.Context, w io.Writer, p student.SubmitPanel) error {
	if p.State == student.SubmitIdle {
		return nil
	}
	if _, err := fmt.Fprintln(w, p.Message); err != nil {
		return err
	}
	if p.Result == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w, i18n.Td(ctx, "ScoreLine", map[string]any{"Score": formatScore(p.Result.Score)})); err != nil {
		return err
	}
	if p.Result.Feedback != "" {
		_, err := fmt.Fprintln(w, p.Result.Feedback)
		return err
	}
	return nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
