// Package query turns raw launcher search text into a result mode.
package query

import (
	"strings"
	"unicode"
)

// Mode selects which result set to build.
type Mode int

const (
	ModeDefault Mode = iota // empty text: creation actions only
	ModeSearch              // open/copy results
	ModeEdit                // edit forms
	ModeDelete              // destructive actions
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeSearch:
		return "search"
	case ModeEdit:
		return "edit"
	case ModeDelete:
		return "delete"
	}
	return "unknown"
}

// keywords maps reserved first words to their mode.
var keywords = map[string]Mode{
	"e":      ModeEdit,
	"edit":   ModeEdit,
	"d":      ModeDelete,
	"delete": ModeDelete,
}

// Routed is the outcome of routing raw search text.
type Routed struct {
	Mode      Mode
	Remainder string
}

// Route splits raw text on its first whitespace and checks the first word
// against the reserved keywords. Only an exact keyword switches mode; any
// other first word leaves the whole text as the search remainder.
func Route(raw string) Routed {
	if raw == "" {
		return Routed{Mode: ModeDefault}
	}

	idx := strings.IndexFunc(raw, unicode.IsSpace)
	if idx < 0 {
		return Routed{Mode: ModeSearch, Remainder: raw}
	}

	first := strings.ToLower(strings.TrimSpace(raw[:idx]))
	if mode, ok := keywords[first]; ok {
		return Routed{Mode: mode, Remainder: strings.TrimSpace(raw[idx:])}
	}

	return Routed{Mode: ModeSearch, Remainder: raw}
}
