package picker

import (
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/whiskers-bm/internal/host"
)

// ErrNeedsHost is returned for actions only the launcher can perform.
var ErrNeedsHost = errors.New("action needs the launcher")

// Run shows the picker on out and returns the chosen result.
func Run(source Source, query string, in io.Reader, out io.Writer) (host.Result, bool, error) {
	final, err := tea.NewProgram(New(source, query), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return host.Result{}, false, err
	}
	r, ok := final.(Picker).Selected()
	return r, ok, nil
}

// Handler performs the side effects of a chosen result.
type Handler struct {
	Open      func(url string) error
	Copy      func(text string) error // defaults to the system clipboard
	Extension func(action string, args []string) error
}

// Perform runs r's action and returns a short status line.
func Perform(r host.Result, h Handler) (string, error) {
	copyText := h.Copy
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	switch r.Action.Type {
	case host.ActionOpenURL:
		if h.Open == nil {
			return "", fmt.Errorf("%w: open-url", ErrNeedsHost)
		}
		if err := h.Open(r.Action.URL); err != nil {
			return "", err
		}
		return "Opened " + r.Action.URL, nil

	case host.ActionCopy:
		if err := copyText(r.Action.Text); err != nil {
			return "", fmt.Errorf("copy to clipboard: %w", err)
		}
		return "Copied " + r.Action.Text, nil

	case host.ActionExtension:
		if h.Extension == nil || r.Action.Extension == nil {
			return "", fmt.Errorf("%w: extension", ErrNeedsHost)
		}
		if err := h.Extension(r.Action.Extension.Action, r.Action.Extension.Args); err != nil {
			return "", err
		}
		return "Ran " + Describe(r.Action), nil

	case host.ActionForm:
		return "", fmt.Errorf("%w: %s", ErrNeedsHost, Describe(r.Action))

	default:
		return "Nothing to do", nil
	}
}
