package teacher

import "github.com/sari-edu/sari/internal/model"

// Tab names a panel of the teacher page.
type Tab string

const (
	TabGenerate Tab = "generate"
	TabList     Tab = "list"
	TabRecap    Tab = "recap"
)

// Tabs lists the panels in sidebar order. The first is active initially.
var Tabs = []Tab{TabGenerate, TabList, TabRecap}

// PanelState is the display state of a result area.
type PanelState int

const (
	PanelIdle PanelState = iota
	PanelLoading
	PanelReady
	PanelEmpty
	PanelError
)

func (s PanelState) String() string {
	switch s {
	case PanelIdle:
		return "idle"
	case PanelLoading:
		return "loading"
	case PanelReady:
		return "ready"
	case PanelEmpty:
		return "empty"
	case PanelError:
		return "error"
	}
	return "unknown"
}

// Status cell classes of the recap table.
const (
	ClassTinggi    = "status-tinggi"
	ClassCukup     = "status-cukup"
	ClassBimbingan = "status-bimbingan"
)

// StatusClass maps a recap status to its style class. Only the exact strings
// "Tinggi" and "Cukup" have their own class; every other value, including
// unknown ones and the empty string, gets ClassBimbingan.
func StatusClass(status string) string {
	switch status {
	case model.StatusTinggi:
		return ClassTinggi
	case model.StatusCukup:
		return ClassCukup
	default:
		return ClassBimbingan
	}
}

// ResultPanel is the generate tab's result area.
type ResultPanel struct {
	State PanelState
	// WorksheetID is set when State is PanelReady. The panel then offers
	// copying the id and opening the student view for it.
	WorksheetID string
	Message     string
}

// ListPanel is the worksheet list.
type ListPanel struct {
	State PanelState
	IDs   []string
}

// RecapRow is one rendered recap line.
type RecapRow struct {
	model.RecapRow
	StatusClass string
}

// RecapPanel is the recap table with its export controls.
type RecapPanel struct {
	State         PanelState
	WorksheetID   string
	Rows          []RecapRow
	ExportVisible bool
}

// View is a snapshot of everything the teacher page shows.
type View struct {
	ActiveTab Tab
	Result    ResultPanel
	List      ListPanel
	Recap     RecapPanel
}

// PanelVisible reports whether tab's panel is shown. Exactly one is.
func (v View) PanelVisible(tab Tab) bool {
	return v.ActiveTab == tab
}

// Highlighted reports whether tab's sidebar entry is highlighted.
func (v View) Highlighted(tab Tab) bool {
	return v.ActiveTab == tab
}

func (v View) clone() View {
	out := v
	out.List.IDs = append([]string(nil), v.List.IDs...)
	out.Recap.Rows = append([]RecapRow(nil), v.Recap.Rows...)
	return out
}

func recapRows(rows []model.RecapRow) []RecapRow {
	out := make([]RecapRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, RecapRow{RecapRow: r, StatusClass: StatusClass(r.Status)})
	}
	return out
}
