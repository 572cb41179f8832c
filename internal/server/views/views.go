// Package views holds the HTML pages of the worksheet service.
package views

import (
	"net/url"
	"strconv"

	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/student"
	"github.com/sari-edu/sari/internal/teacher"
)

// StudentPageData is what the student page shows: the entry form until a
// worksheet is loaded, then its form, then the submission result.
type StudentPageData struct {
	EntryID string
	Name    string
	Form    *student.Form
	Ack     *model.SubmitAck
	Error   string
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func studentLink(id string) string {
	return "/student.html?id=" + url.QueryEscape(id)
}

func recapLink(id string) string {
	return "/?tab=recap&id=" + url.QueryEscape(id)
}

func tabLink(tab teacher.Tab) string {
	return "/?tab=" + string(tab)
}

func exportLink(id string, format model.ExportFormat) string {
	if format == model.ExportXLSX {
		return "/api/export-xlsx/" + url.PathEscape(id)
	}
	return "/api/export/" + url.PathEscape(id)
}

func tabLabel(tab teacher.Tab) string {
	switch tab {
	case teacher.TabList:
		return "TabList"
	case teacher.TabRecap:
		return "TabRecap"
	default:
		return "TabGenerate"
	}
}
