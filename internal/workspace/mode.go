package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zjrosen/canvas/internal/decompose"
)

// ErrUnknownMode is returned by ParseMode for names it does not know.
var ErrUnknownMode = errors.New("unknown mode")

// Mode is one of the workspace surfaces. Exactly one is active at a time.
type Mode int

const (
	Code Mode = iota
	Execute
	EmbeddedIDE
	FantasyConsole
	Markdown
	NotebookView
	Terminal
	Preview
	JSONView
	Diagram
	Table
	Diff
)

var modeNames = [...]string{
	Code:           "code",
	Execute:        "execute",
	EmbeddedIDE:    "ide",
	FantasyConsole: "console",
	Markdown:       "markdown",
	NotebookView:   "notebook",
	Terminal:       "terminal",
	Preview:        "preview",
	JSONView:       "json",
	Diagram:        "diagram",
	Table:          "table",
	Diff:           "diff",
}

var modeTitles = [...]string{
	Code:           "Code",
	Execute:        "Execute",
	EmbeddedIDE:    "IDE",
	FantasyConsole: "Console",
	Markdown:       "Markdown",
	NotebookView:   "Notebook",
	Terminal:       "Terminal",
	Preview:        "Preview",
	JSONView:       "JSON",
	Diagram:        "Diagram",
	Table:          "Table",
	Diff:           "Diff",
}

// String is the canonical lower-case name accepted by ParseMode.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Title is the label shown on the tab bar.
func (m Mode) Title() string {
	if m < 0 || int(m) >= len(modeTitles) {
		return m.String()
	}
	return modeTitles[m]
}

// Next is the following mode in tab order, wrapping around.
func (m Mode) Next() Mode { return Mode((int(m) + 1) % len(modeNames)) }

// Prev is the preceding mode in tab order, wrapping around.
func (m Mode) Prev() Mode { return Mode((int(m) + len(modeNames) - 1) % len(modeNames)) }

// Modes lists every mode in tab order.
func Modes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

var modeAliases = map[string]Mode{
	"editor":         Code,
	"source":         Code,
	"exec":           Execute,
	"run":            Execute,
	"embedded":       EmbeddedIDE,
	"embeddedide":    EmbeddedIDE,
	"arduino":        EmbeddedIDE,
	"esp32":          EmbeddedIDE,
	"hardware":       EmbeddedIDE,
	"fantasyconsole": FantasyConsole,
	"tic":            FantasyConsole,
	"tic80":          FantasyConsole,
	"game":           FantasyConsole,
	"md":             Markdown,
	"notebookview":   NotebookView,
	"ipynb":          NotebookView,
	"shell":          Terminal,
	"term":           Terminal,
	"html":           Preview,
	"jsonview":       JSONView,
	"mermaid":        Diagram,
	"csv":            Table,
}

// ParseMode accepts canonical names and aliases, ignoring case and any
// '-', '_' or space.
func ParseMode(s string) (Mode, error) {
	key := strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || r == ' ' {
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	for i, name := range modeNames {
		if key == name {
			return Mode(i), nil
		}
	}
	if m, ok := modeAliases[key]; ok {
		return m, nil
	}
	return Code, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

var (
	sketchRe   = regexp.MustCompile(`(?m)^\s*void\s+(?:setup|loop)\s*\(`)
	cartRe     = regexp.MustCompile(`(?m)^\s*function\s+TIC\s*\(`)
	diagramRe  = regexp.MustCompile(`^(?:graph|flowchart|sequenceDiagram|classDiagram|stateDiagram|erDiagram|journey|gantt|pie)\b`)
	mdHeadRe   = regexp.MustCompile(`(?m)^#{1,6}[ \t]+\S`)
	fenceStart = "```"
)

// InferMode guesses a mode for content loaded without one.
func InferMode(content string) Mode {
	trimmed := strings.TrimSpace(content)
	switch {
	case sketchRe.MatchString(content):
		return EmbeddedIDE
	case cartRe.MatchString(content):
		return FantasyConsole
	case (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && json.Valid([]byte(trimmed)):
		return JSONView
	case diagramRe.MatchString(firstDiagramLine(trimmed)):
		return Diagram
	case mdHeadRe.MatchString(content):
		return Markdown
	}
	return Code
}

// firstDiagramLine is the first line after an optional opening fence.
func firstDiagramLine(s string) string {
	first, rest, _ := strings.Cut(s, "\n")
	if strings.HasPrefix(first, fenceStart) {
		first, _, _ = strings.Cut(strings.TrimSpace(rest), "\n")
	}
	return strings.TrimSpace(first)
}

// KindFor is the decomposition rule set for a mode.
func KindFor(m Mode) decompose.Rules {
	switch m {
	case Code, Execute, EmbeddedIDE, Terminal, NotebookView:
		return decompose.Code
	case FantasyConsole:
		return decompose.Script
	case JSONView:
		return decompose.JSON
	case Diagram:
		return decompose.Diagram
	case Markdown, Preview:
		return decompose.Markdown
	}
	return decompose.Full
}

// DefaultLanguage is the language assumed for content loaded into m.
func DefaultLanguage(m Mode) string {
	switch m {
	case EmbeddedIDE:
		return "arduino"
	case FantasyConsole:
		return "lua"
	case JSONView:
		return "json"
	case Markdown, Preview, NotebookView:
		return "markdown"
	case Diagram:
		return "mermaid"
	case Table:
		return "csv"
	}
	return ""
}
