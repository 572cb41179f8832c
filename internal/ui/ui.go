// Package ui holds the collaborators that stand in for the browsing context:
// blocking notifications, navigation and the system clipboard.
package ui

import (
	"context"
	"log/slog"

	"github.com/sari-edu/sari/internal/i18n"
)

// Notifier shows blocking, dismissible messages to the user.
type Notifier interface {
	Alert(msg string)
	// Confirm asks a yes/no question and reports the answer.
	Confirm(msg string) bool
}

// Navigator moves between pages.
type Navigator interface {
	// Open shows url in a new browsing context.
	Open(url string) error
	// Navigate replaces the current browsing context with url.
	Navigate(url string) error
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// CopyToClipboard copies text and confirms it to the user. Clipboard errors
// are logged only; the confirmation is shown either way.
func CopyToClipboard(ctx context.Context, cb Clipboard, n Notifier, text string) {
	if err := cb.WriteAll(text); err != nil {
		slog.Warn("clipboard write failed", "error", err)
	}
	n.Alert(i18n.T(ctx, "Copied"))
}
