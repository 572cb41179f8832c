package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
)

// Terminal is a Notifier on a line-oriented terminal.
type Terminal struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
	// AssumeYes answers every confirmation with yes without reading input.
	AssumeYes bool
}

// NewTerminal creates a Terminal reading answers from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Alert prints msg on its own line.
func (t *Terminal) Alert(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, msg)
}

// Confirm prints msg and reads a y/n answer. Anything other than an explicit
// yes, including end of input, is a no.
func (t *Terminal) Confirm(msg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.AssumeYes {
		fmt.Fprintf(t.out, "%s [y/N] y\n", msg)
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N] ", msg)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "ya":
		return true
	}
	return false
}

// ReadLine prints prompt and returns the next input line without its newline.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard unsupported on this system")
	}
	return clipboard.WriteAll(text)
}
