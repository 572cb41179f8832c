package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sari-edu/sari/internal/api"
	"github.com/sari-edu/sari/internal/i18n"
	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/render"
	"github.com/sari-edu/sari/internal/student"
	"github.com/sari-edu/sari/internal/ui"
)

func studentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student [ID]",
		Short: "Answer a worksheet",
		Long: `Load a worksheet by id, answer it question by question, and submit.
The id can also be taken from a student link passed with --url.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStudent,
	}
	f := cmd.Flags()
	f.StringP("name", "n", "", "Student name")
	f.String("url", "", "Student link shared by the teacher (…?id=ID)")
	f.BoolP("yes", "y", false, "Submit without asking for confirmation")
	return cmd
}

func runStudent(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	term := ui.NewTerminal(os.Stdin, os.Stdout)
	term.AssumeYes = v.GetBool("yes")

	client, err := newClient(v, term)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, v)
	defer cancel()

	ctl := student.New(client, term)
	if link := v.GetString("url"); link != "" {
		u, err := url.Parse(link)
		if err != nil {
			return fmt.Errorf("parse student link: %w", err)
		}
		ctl.Prefill(u.RawQuery)
	}

	id := ctl.View().EntryID
	if len(args) == 1 {
		id = args[0]
	}
	if err := render.Student(ctx, os.Stdout, ctl.View()); err != nil {
		return err
	}
	if id == "" {
		if id, err = term.ReadLine(i18n.T(ctx, "PromptWorksheetID")); err != nil {
			return fmt.Errorf("read worksheet id: %w", err)
		}
	}
	name := v.GetString("name")
	if name == "" {
		if name, err = term.ReadLine(i18n.T(ctx, "PromptName")); err != nil {
			return fmt.Errorf("read name: %w", err)
		}
	}

	if err := ctl.Load(ctx, id, name); err != nil {
		return err
	}
	view := ctl.View()
	if err := render.FormHeader(os.Stdout, view.Form); err != nil {
		return err
	}
	values, err := fillForm(ctx, term, os.Stdout, view.Form)
	if err != nil {
		return err
	}

	for {
		_, err := ctl.Submit(ctx, values)
		if err := render.Student(ctx, os.Stdout, ctl.View()); err != nil {
			return err
		}
		var reqErr *api.RequestFailed
		if err == nil || !errors.As(err, &reqErr) || term.AssumeYes {
			return err
		}
		// Submit asks again, so declining there ends the loop.
	}
}

// lineReader is the part of the terminal the form prompts use.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Alert(msg string)
}

// fillForm shows each question of form and reads its answer. Choice fields
// accept an option key in any case; every field with something to answer
// must be answered. A choice field without options is left unanswered.
func fillForm(ctx context.Context, in lineReader, out io.Writer, form student.Form) (student.FormValues, error) {
	values := make(student.FormValues, len(form.Fields))
	for _, f := range form.Fields {
		if err := render.Field(out, f); err != nil {
			return nil, err
		}
		if f.Kind == model.InputChoice && len(f.Choices) == 0 {
			// Nothing to pick; the answer goes in empty.
			continue
		}
		prompt := i18n.T(ctx, "PromptText")
		if f.Kind == model.InputChoice {
			keys := make([]string, len(f.Choices))
			for i, ch := range f.Choices {
				keys[i] = ch.Value
			}
			prompt = i18n.Td(ctx, "PromptChoice", map[string]any{"Keys": strings.Join(keys, "/")})
		}

		for {
			line, err := in.ReadLine(prompt)
			if err != nil {
				return nil, fmt.Errorf("read answer %d: %w", f.Number, err)
			}
			answer, ok := parseAnswer(f, line)
			if !ok {
				if strings.TrimSpace(line) != "" {
					in.Alert(i18n.Td(ctx, "InvalidChoice", map[string]any{"Value": strings.TrimSpace(line)}))
				}
				continue
			}
			values[f.Name] = answer
			break
		}
	}
	return values, nil
}

func parseAnswer(f student.Field, line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if f.Kind != model.InputChoice {
		return line, true
	}
	for _, ch := range f.Choices {
		if strings.EqualFold(ch.Value, line) {
			return ch.Value, true
		}
	}
	return "", false
}
