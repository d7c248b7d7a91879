package workspace

import (
	"strings"

	"github.com/zjrosen/canvas/internal/runlog"
)

// Buffer is the content shared by every mode. Text is the current content,
// Original the text as last loaded.
type Buffer struct {
	Text     string
	Original string
	Language string
}

// Dirty reports whether Text differs from what was loaded.
func (b Buffer) Dirty() bool { return b.Text != b.Original }

// LogLine is a user-visible log entry from the workspace or a runtime.
type LogLine = runlog.Line

var extensions = map[string]string{
	"arduino":    ".ino",
	"ino":        ".ino",
	"cpp":        ".ino",
	"c":          ".ino",
	"lua":        ".lua",
	"python":     ".py",
	"py":         ".py",
	"javascript": ".js",
	"js":         ".js",
	"json":       ".json",
	"markdown":   ".md",
	"md":         ".md",
	"mermaid":    ".mmd",
	"csv":        ".csv",
}

// Extension maps a language to an export file extension, ".txt" when
// unknown.
func Extension(language string) string {
	if ext, ok := extensions[strings.ToLower(language)]; ok {
		return ext
	}
	return ".txt"
}
