// Package teacher implements the teacher page: tab navigation, worksheet
// generation, the worksheet list, the recap table and export downloads.
package teacher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/ui"
)

var (
	// ErrUnknownTab is returned by ShowTab for a tab that does not exist.
	ErrUnknownTab = errors.New("unknown tab")
	// ErrNoRecap is returned by the export actions before a recap was loaded.
	ErrNoRecap = errors.New("no recap loaded")
)

var validate = validator.New()

// Service is the part of the worksheet service the teacher page uses.
type Service interface {
	Generate(ctx context.Context, theme string, level model.Level) (model.GenerateResponse, error)
	AllIDs(ctx context.Context) ([]string, error)
	Answers(ctx context.Context, id string) ([]model.RecapRow, error)
	ExportURL(id string, format model.ExportFormat) string
	StudentURL(id string) string
}

// Controller holds the state of one teacher page.
//
// Each of generate, list and recap keeps a request token: a response only
// updates its panel when no newer request of the same kind has been issued.
// The lock is never held across a service call.
type Controller struct {
	svc    Service
	notify ui.Notifier
	nav    ui.Navigator
	clip   ui.Clipboard

	mu         sync.Mutex
	view       View
	genToken   uint64
	listToken  uint64
	recapToken uint64
	// currentID is the worksheet whose recap was last loaded successfully.
	// Only LoadRecap writes it; the export actions read it.
	currentID string
}

// New creates a teacher controller showing the first tab.
func New(svc Service, n ui.Notifier, nav ui.Navigator, clip ui.Clipboard) *Controller {
	return &Controller{
		svc:    svc,
		notify: n,
		nav:    nav,
		clip:   clip,
		view:   View{ActiveTab: Tabs[0]},
	}
}

// View returns a snapshot of the page state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// CurrentID returns the worksheet id the export actions will use, or "".
func (c *Controller) CurrentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// ShowTab makes tab the only visible panel. Showing the list tab reloads the list.
func (c *Controller) ShowTab(ctx context.Context, tab Tab) error {
	if !slices.Contains(Tabs, tab) {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	c.mu.Lock()
	c.view.ActiveTab = tab
	c.mu.Unlock()

	if tab == TabList {
		return c.LoadList(ctx)
	}
	return nil
}

// Generate requests a new worksheet for theme and level and returns its id.
func (c *Controller) Generate(ctx context.Context, theme string, level model.Level) (string, error) {
	req := model.GenerateRequest{Theme: strings.TrimSpace(theme), Level: level}
	if err := validate.Struct(req); err != nil {
		c.notify.Alert(generateWarning(ctx, err, level))
		return "", fmt.Errorf("generate: %w", model.ErrValidation)
	}

	c.mu.Lock()
	c.genToken++
	token := c.genToken
	c.view.Result = ResultPanel{State: PanelLoading, Message: i18n.T(ctx, "Generating")}
	c.mu.Unlock()

	resp, err := c.svc.Generate(ctx, req.Theme, req.Level)
	if err == nil && resp.ID == "" {
		err = errors.New("response carries no worksheet id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.genToken {
		slog.Debug("dropping superseded generate response", "token", token, "latest", c.genToken)
	} else if err != nil {
		c.view.Result = ResultPanel{State: PanelError, Message: i18n.T(ctx, "GenerateFailed")}
	} else {
		c.view.Result = ResultPanel{State: PanelReady, WorksheetID: resp.ID}
	}
	if err != nil {
		return "", fmt.Errorf("generate worksheet: %w", err)
	}
	slog.Info("worksheet generated", "id", resp.ID, "theme", req.Theme, "level", req.Level)
	return resp.ID, nil
}

func generateWarning(ctx context.Context, err error, level model.Level) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Theme" {
				return i18n.T(ctx, "ThemeRequired")
			}
		}
	}
	return i18n.Td(ctx, "LevelInvalid", map[string]any{"Level": level})
}

// OpenStudent opens the student view for id in a new browsing context.
func (c *Controller) OpenStudent(id string) error {
	if err := c.nav.Open(c.svc.StudentURL(id)); err != nil {
		return fmt.Errorf("open student view: %w", err)
	}
	return nil
}

// CopyID copies a worksheet id to the clipboard.
func (c *Controller) CopyID(ctx context.Context, id string) {
	ui.CopyToClipboard(ctx, c.clip, c.notify, id)
}

// LoadList reloads the worksheet list. On failure the previous list stays.
func (c *Controller) LoadList(ctx context.Context) error {
	c.mu.Lock()
	c.listToken++
	token := c.listToken
	prev := c.view.List
	c.view.List = ListPanel{State: PanelLoading}
	c.mu.Unlock()

	ids, err := c.svc.AllIDs(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.listToken {
		return err
	}
	switch {
	case err != nil:
		c.view.List = prev
		return fmt.Errorf("load worksheet list: %w", err)
	case len(ids) == 0:
		c.view.List = ListPanel{State: PanelEmpty}
	default:
		c.view.List = ListPanel{State: PanelReady, IDs: ids}
	}
	return nil
}

// LoadRecap loads the recap of worksheet id. A non-empty recap shows the
// export controls and makes id the export target.
func (c *Controller) LoadRecap(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := validate.Var(id, "required"); err != nil {
		c.notify.Alert(i18n.T(ctx, "RecapIDRequired"))
		return fmt.Errorf("load recap: %w", model.ErrValidation)
	}

	c.mu.Lock()
	c.recapToken++
	token := c.recapToken
	prev := c.view.Recap
	c.view.Recap = RecapPanel{State: PanelLoading, WorksheetID: id, ExportVisible: prev.ExportVisible}
	c.mu.Unlock()

	rows, err := c.svc.Answers(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.recapToken {
		return err
	}
	switch {
	case err != nil:
		c.view.Recap = prev
		return fmt.Errorf("load recap %s: %w", id, err)
	case len(rows) == 0:
		c.view.Recap = RecapPanel{State: PanelEmpty, WorksheetID: id}
	default:
		c.view.Recap = RecapPanel{
			State:         PanelReady,
			WorksheetID:   id,
			Rows:          recapRows(rows),
			ExportVisible: true,
		}
		c.currentID = id
	}
	return nil
}

// DownloadCSV sends the browsing context to the CSV export of the current recap.
func (c *Controller) DownloadCSV(ctx context.Context) error {
	return c.export(ctx, model.ExportCSV)
}

// DownloadXLSX sends the browsing context to the spreadsheet export of the current recap.
func (c *Controller) DownloadXLSX(ctx context.Context) error {
	return c.export(ctx, model.ExportXLSX)
}

func (c *Controller) export(ctx context.Context, format model.ExportFormat) error {
	id := c.CurrentID()
	if id == "" {
		c.notify.Alert(i18n.T(ctx, "ViewRecapFirst"))
		return ErrNoRecap
	}
	u := c.svc.ExportURL(id, format)
	slog.Info("exporting recap", "id", id, "format", format)
	if err := c.nav.Navigate(u); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	return nil
}
