// Package decompose splits workspace content into named instances
// (functions, JSON items, diagrams, document sections) for the instance
// selector. Decompose never fails: content it cannot split comes back as a
// single full instance.
package decompose

import (
	"strings"

	"github.com/zjrosen/canvas/internal/log"
)

// Rules selects how content is split.
type Rules int

const (
	Full Rules = iota
	Code
	Script
	JSON
	Diagram
	Markdown
)

func (r Rules) String() string {
	switch r {
	case Code:
		return "code"
	case Script:
		return "script"
	case JSON:
		return "json"
	case Diagram:
		return "diagram"
	case Markdown:
		return "markdown"
	default:
		return "full"
	}
}

// Kind labels what an instance is.
type Kind string

const (
	KindFull     Kind = "full"
	KindFunction Kind = "function"
	KindSection  Kind = "section"
	KindItem     Kind = "item"
	KindKey      Kind = "key"
	KindBlock    Kind = "block"
	KindDiagram  Kind = "diagram"
	KindHeading  Kind = "heading"
	KindPreamble Kind = "preamble"
)

// Instance is one selectable part of the content. Span holds the byte
// offsets [start, end) of Content within the decomposed text, so that an
// edited instance can be written back.
type Instance struct {
	Name    string
	Content string
	Kind    Kind
	Span    *[2]int
}

// FullName is the name of the fallback instance.
const FullName = "full"

func full(content string) []Instance {
	return []Instance{{Name: FullName, Content: content, Kind: KindFull, Span: &[2]int{0, len(content)}}}
}

func part(content, name string, kind Kind, start, end int) Instance {
	return Instance{Name: name, Content: content[start:end], Kind: kind, Span: &[2]int{start, end}}
}

// Decompose splits content by rules. The result always holds at least one
// instance.
func Decompose(content string, rules Rules) []Instance {
	var out []Instance
	switch rules {
	case Code:
		out = splitCode(content)
	case Script:
		out = splitScript(content)
		if len(out) == 0 {
			out = splitCode(content)
		}
	case JSON:
		out = splitJSON(content)
	case Diagram:
		out = splitDiagram(content)
	case Markdown:
		out = splitMarkdown(content)
	}
	if len(out) == 0 {
		out = full(content)
	}
	log.Debug(log.CatDecompose, "decomposed", "rules", rules, "instances", len(out))
	return out
}

// Splice replaces the span of inst within content with text.
func Splice(content string, inst Instance, text string) string {
	if inst.Span == nil {
		return text
	}
	start, end := inst.Span[0], inst.Span[1]
	if start < 0 || end > len(content) || start > end {
		return content
	}
	var b strings.Builder
	b.Grow(len(content) - (end - start) + len(text))
	b.WriteString(content[:start])
	b.WriteString(text)
	b.WriteString(content[end:])
	return b.String()
}

// lineStart returns the offset of the start of the line containing i.
func lineStart(s string, i int) int {
	return strings.LastIndexByte(s[:i], '\n') + 1
}

// lines yields each line with its start offset; text excludes the newline.
func lines(s string, fn func(start int, text string)) {
	start := 0
	for start <= len(s) {
		nl := strings.IndexByte(s[start:], '\n')
		if nl < 0 {
			if start < len(s) {
				fn(start, s[start:])
			}
			return
		}
		fn(start, s[start:start+nl])
		start += nl + 1
	}
}
