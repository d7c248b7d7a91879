package app

import (
	"path/filepath"
	"strings"

	"github.com/zjrosen/canvas/internal/workspace"
)

var pathModes = map[string]workspace.Mode{
	".ino":   workspace.EmbeddedIDE,
	".ipynb": workspace.NotebookView,
	".csv":   workspace.Table,
	".tsv":   workspace.Table,
	".mmd":   workspace.Diagram,
	".md":    workspace.Markdown,
	".json":  workspace.JSONView,
}

var pathLanguages = map[string]string{
	".ino":  "arduino",
	".lua":  "lua",
	".py":   "python",
	".js":   "javascript",
	".sh":   "bash",
	".json": "json",
	".md":   "markdown",
	".mmd":  "mermaid",
	".csv":  "csv",
}

// ModeForPath is the mode implied by a file extension, for files whose
// content alone would be inferred as something else (a notebook is JSON).
func ModeForPath(path string) (workspace.Mode, bool) {
	m, ok := pathModes[strings.ToLower(filepath.Ext(path))]
	return m, ok
}

// LanguageForPath is the buffer language implied by a file extension, ""
// when unknown.
func LanguageForPath(path string) string {
	return pathLanguages[strings.ToLower(filepath.Ext(path))]
}
