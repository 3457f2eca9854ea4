// Package picker is a terminal stand-in for the launcher: it renders the
// results for a query as it is typed and reports the chosen item.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/whiskers-bm/internal/host"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// Source produces the results for a query.
type Source func(query string) []host.Result

// Picker is a simple TUI over a Source.
type Picker struct {
	source    Source
	input     textinput.Model
	keys      KeyMap
	results   []host.Result
	cursor    int
	selected  bool
	cancelled bool
	width     int
	height    int
}

// New creates a Picker showing the results for query.
func New(source Source, query string) Picker {
	input := textinput.New()
	input.Prompt = "bm> "
	input.Placeholder = "search, e <name> to edit, d <name> to delete"
	input.SetValue(query)
	input.Focus()

	return Picker{
		source:  source,
		input:   input,
		keys:    DefaultKeyMap(),
		results: source(query),
		width:   80,
		height:  24,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			p.cancelled = true
			return p, tea.Quit

		case key.Matches(msg, p.keys.Select):
			if len(p.results) == 0 {
				return p, nil
			}
			p.selected = true
			return p, tea.Quit

		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.results)-1 {
				p.cursor++
			}
			return p, nil

		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil
		}
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != before {
		p.results = p.source(p.input.Value())
		p.cursor = 0
	}
	return p, cmd
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(p.input.View())
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d results", len(p.results))))
	b.WriteString("\n\n")

	// Two lines per item plus header and footer
	visible := len(p.results)
	if limit := (p.height - 6) / 2; limit > 0 && visible > limit {
		visible = limit
	}
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}

	for i := start; i < start+visible && i < len(p.results); i++ {
		r := p.results[i]
		cursor := "  "
		style := normalStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedStyle
		}

		b.WriteString(fmt.Sprintf("%s%s\n", cursor, style.Render(r.Label)))
		b.WriteString(fmt.Sprintf("   %s\n", actionStyle.Render(Describe(r.Action))))
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render("↑/↓: move  Enter: run  Esc: cancel"))

	return b.String()
}

// Selected returns the chosen result, if any.
func (p Picker) Selected() (host.Result, bool) {
	if p.cancelled || !p.selected || p.cursor >= len(p.results) {
		return host.Result{}, false
	}
	return p.results[p.cursor], true
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}

// Query returns the current query text.
func (p Picker) Query() string {
	return p.input.Value()
}

// Describe renders an action as a one-line summary.
func Describe(a host.Action) string {
	switch a.Type {
	case host.ActionOpenURL:
		return "open " + a.URL
	case host.ActionCopy:
		return "copy " + a.Text
	case host.ActionExtension:
		if a.Extension == nil {
			return "extension"
		}
		if len(a.Extension.Args) == 0 {
			return a.Extension.Action
		}
		return fmt.Sprintf("%s %s", a.Extension.Action, strings.Join(a.Extension.Args, " "))
	case host.ActionForm:
		if a.Form == nil {
			return "form"
		}
		return fmt.Sprintf("form %q (%d fields)", a.Form.Title, len(a.Form.Fields))
	default:
		return "nothing"
	}
}
