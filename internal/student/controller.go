// Package student implements the student page: load a worksheet by id under
// a claimed name, show its form, and submit the answers.
package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/ui"
)

var (
	ErrNoSession        = errors.New("no worksheet loaded")
	ErrAlreadySubmitted = errors.New("answers already submitted")
	ErrSubmitInProgress = errors.New("submission in progress")
	// ErrDeclined is returned when the student does not confirm a submission.
	ErrDeclined = errors.New("submission not confirmed")
)

var validate = validator.New()

// Service is the part of the worksheet service the student page uses.
type Service interface {
	Worksheet(ctx context.Context, id string) (model.Worksheet, error)
	Submit(ctx context.Context, sub model.Submission) (model.SubmitAck, error)
}

// Session binds a loaded worksheet to the id it was loaded by and the name
// the student claimed. Neither is checked against anything.
type Session struct {
	WorksheetID string
	StudentName string
	Worksheet   model.Worksheet
}

// Submission assembles the submit body from the form values.
func (s *Session) Submission(values FormValues) model.Submission {
	return model.Submission{
		WorksheetID: s.WorksheetID,
		Name:        s.StudentName,
		Answers:     AssembleAnswers(s.Worksheet, values),
	}
}

// Stage is which section of the page is shown.
type Stage int

const (
	// StageEntry shows the id/name form.
	StageEntry Stage = iota
	// StageWorksheet shows the loaded worksheet. There is no way back to entry.
	StageWorksheet
	// StageSubmitted shows the submission acknowledgment.
	StageSubmitted
)

// SubmitState is the state of the submission result area.
type SubmitState int

const (
	SubmitIdle SubmitState = iota
	SubmitSending
	SubmitSucceeded
	SubmitFailed
)

// SubmitPanel is the submission result area.
type SubmitPanel struct {
	State   SubmitState
	Message string
	Result  *model.SubmitResult
}

// View is a snapshot of the student page.
type View struct {
	Stage Stage
	// EntryID pre-fills the id input of the entry form.
	EntryID string
	Form    Form
	Submit  SubmitPanel
}

type loadInput struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
}

// Controller holds the state of one student page.
type Controller struct {
	svc    Service
	notify ui.Notifier

	mu        sync.Mutex
	session   *Session
	view      View
	sending   bool
	submitted bool
}

// New creates a student controller on the entry stage.
func New(svc Service, n ui.Notifier) *Controller {
	return &Controller{svc: svc, notify: n}
}

// Prefill reads the worksheet id from a student URL query (id=...).
func (c *Controller) Prefill(rawQuery string) {
	q, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		slog.Debug("ignoring malformed query", "query", rawQuery, "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.EntryID = q.Get("id")
}

// View returns a snapshot of the page state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view
	v.Form.Fields = append([]Field(nil), c.view.Form.Fields...)
	return v
}

// Session returns the live session, if any.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Load fetches worksheet id for the student name and replaces the session.
// On failure the page is left as it was.
func (c *Controller) Load(ctx context.Context, id, name string) error {
	in := loadInput{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)}
	if err := validate.Struct(in); err != nil {
		c.notify.Alert(i18n.T(ctx, "LoadRequired"))
		return fmt.Errorf("load worksheet: %w", model.ErrValidation)
	}

	w, err := c.svc.Worksheet(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("load worksheet %s: %w", in.ID, err)
	}

	sess := &Session{WorksheetID: in.ID, StudentName: in.Name, Worksheet: w}
	form := BuildForm(w, nil, i18n.T(ctx, "AnswerPlaceholder"))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	c.submitted = false
	c.view = View{Stage: StageWorksheet, EntryID: in.ID, Form: form}
	slog.Info("worksheet loaded", "id", in.ID, "student", in.Name, "questions", len(w.Questions))
	return nil
}

// Submit asks for confirmation and sends one answer per question of the
// session's worksheet. After a successful submission the page accepts no
// further submissions for this session.
func (c *Controller) Submit(ctx context.Context, values FormValues) (model.SubmitAck, error) {
	if err := c.checkSubmittable(ctx); err != nil {
		return model.SubmitAck{}, err
	}
	if !c.notify.Confirm(i18n.T(ctx, "SubmitConfirm")) {
		return model.SubmitAck{}, ErrDeclined
	}

	c.mu.Lock()
	if msgID, err := c.blockedLocked(); err != nil {
		c.mu.Unlock()
		c.notify.Alert(i18n.T(ctx, msgID))
		return model.SubmitAck{}, err
	}
	sess := c.session
	c.sending = true
	c.view.Submit = SubmitPanel{State: SubmitSending, Message: i18n.T(ctx, "Submitting")}
	c.mu.Unlock()

	ack, err := c.svc.Submit(ctx, sess.Submission(values))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if c.session != sess {
		// A different worksheet was loaded meanwhile; its page is not ours to change.
		if err != nil {
			return model.SubmitAck{}, fmt.Errorf("submit answers: %w", err)
		}
		return ack, nil
	}
	if err != nil {
		c.view.Submit = SubmitPanel{State: SubmitFailed, Message: i18n.T(ctx, "SubmitFailed")}
		return model.SubmitAck{}, fmt.Errorf("submit answers: %w", err)
	}

	c.submitted = true
	msg := ack.Message
	if msg == "" {
		msg = i18n.T(ctx, "SubmitSucceeded")
	}
	c.view.Stage = StageSubmitted
	c.view.Submit = SubmitPanel{State: SubmitSucceeded, Message: msg, Result: ack.Result}
	slog.Info("answers submitted", "id", sess.WorksheetID, "student", sess.StudentName)
	return ack, nil
}

func (c *Controller) checkSubmittable(ctx context.Context) error {
	c.mu.Lock()
	msgID, err := c.blockedLocked()
	c.mu.Unlock()
	if err != nil {
		c.notify.Alert(i18n.T(ctx, msgID))
	}
	return err
}

// blockedLocked reports why no submission can start now, with the message
// to show for it.
func (c *Controller) blockedLocked() (string, error) {
	switch {
	case c.session == nil:
		return "NoWorksheetLoaded", ErrNoSession
	case c.submitted:
		return "AlreadySubmitted", ErrAlreadySubmitted
	case c.sending:
		return "SubmitInProgress", ErrSubmitInProgress
	}
	return "", nil
}
