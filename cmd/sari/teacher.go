package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sari-edu/sari/internal/model"
	"github.com/sari-edu/sari/internal/render"
	"github.com/sari-edu/sari/internal/teacher"
	"github.com/sari-edu/sari/internal/ui"
)

func teacherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Short: "Generate worksheets and review student results",
	}
	cmd.AddCommand(generateCmd(), listCmd(), recapCmd())
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a worksheet with AI",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.StringP("theme", "t", "", "Worksheet theme")
	f.String("level", string(model.Levels[0]), "School level (SD, SMP, SMA)")
	f.Bool("copy", false, "Copy the new worksheet id to the clipboard")
	f.Bool("open", false, "Open the student view of the new worksheet in the browser")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all worksheet ids",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func recapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recap ID",
		Short: "Show the student results of a worksheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecap,
	}
	f := cmd.Flags()
	f.String("export", "", "Also download the recap (csv, xlsx)")
	f.StringP("out", "o", ".", "Directory to save exports into")
	return cmd
}

// teacherPage wires a teacher controller to the terminal.
type teacherPage struct {
	ctl    *teacher.Controller
	ctx    context.Context
	cancel context.CancelFunc
}

func newTeacherPage(cmd *cobra.Command) (*teacherPage, error) {
	v := viperForCmd(cmd)
	term := ui.NewTerminal(os.Stdin, os.Stdout)
	client, err := newClient(v, term)
	if err != nil {
		return nil, err
	}
	nav := ui.Browser{Downloader: &ui.Downloader{Dir: v.GetString("out")}}
	ctx, cancel := commandContext(cmd, v)
	return &teacherPage{
		ctl:    teacher.New(client, term, nav, ui.SystemClipboard{}),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (p *teacherPage) show() error {
	return render.Teacher(p.ctx, os.Stdout, p.ctl.View())
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	p, err := newTeacherPage(cmd)
	if err != nil {
		return err
	}
	defer p.cancel()
	v := viperForCmd(cmd)

	level := model.Level(strings.ToUpper(strings.TrimSpace(v.GetString("level"))))
	id, genErr := p.ctl.Generate(p.ctx, v.GetString("theme"), level)
	if err := p.show(); err != nil {
		return err
	}
	if genErr != nil {
		return genErr
	}

	if v.GetBool("copy") {
		p.ctl.CopyID(p.ctx, id)
	}
	if v.GetBool("open") {
		if err := p.ctl.OpenStudent(id); err != nil {
			return err
		}
	}
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	p, err := newTeacherPage(cmd)
	if err != nil {
		return err
	}
	defer p.cancel()

	if err := p.ctl.ShowTab(p.ctx, teacher.TabList); err != nil {
		return err
	}
	return p.show()
}

func runRecap(cmd *cobra.Command, args []string) error {
	p, err := newTeacherPage(cmd)
	if err != nil {
		return err
	}
	defer p.cancel()
	v := viperForCmd(cmd)

	if err := p.ctl.ShowTab(p.ctx, teacher.TabRecap); err != nil {
		return err
	}
	if err := p.ctl.LoadRecap(p.ctx, args[0]); err != nil {
		return err
	}
	if err := p.show(); err != nil {
		return err
	}

	switch format := model.ExportFormat(strings.ToLower(v.GetString("export"))); format {
	case "":
		return nil
	case model.ExportCSV:
		return p.ctl.DownloadCSV(p.ctx)
	case model.ExportXLSX:
		return p.ctl.DownloadXLSX(p.ctx)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
