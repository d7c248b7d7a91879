package viewer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/canvas/internal/decompose"
	"github.com/zjrosen/canvas/internal/ui/diffview"
	"github.com/zjrosen/canvas/internal/ui/highlight"
	"github.com/zjrosen/canvas/internal/ui/markdown"
	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/workspace"
)

// Preview renders the buffer as markdown. Plain text renders as paragraphs.
func Preview(md *markdown.Renderer) RenderFunc {
	return func(buf workspace.Buffer, width int) (string, string) {
		if strings.TrimSpace(buf.Text) == "" {
			return styles.HintStyle.Render("Nothing to preview"), ""
		}
		if err := md.SetWidth(width); err != nil {
			return buf.Text, "render error"
		}
		out, err := md.Render(buf.Text)
		if err != nil {
			return buf.Text, "render error"
		}
		return out, "markdown"
	}
}

// JSON pretty-prints and highlights the buffer. Invalid JSON is shown as
// typed under the parse error.
func JSON(h *highlight.Highlighter) RenderFunc {
	return func(buf workspace.Buffer, _ int) (string, string) {
		if strings.TrimSpace(buf.Text) == "" {
			return styles.HintStyle.Render("Empty document"), ""
		}
		var out bytes.Buffer
		if err := json.Indent(&out, []byte(buf.Text), "", "  "); err != nil {
			head := styles.ErrorStyle.Render("invalid JSON: " + err.Error())
			return head + "\n\n" + h.Highlight(buf.Text, "json"), "invalid JSON"
		}
		return h.Highlight(out.String(), "json"), jsonSummary(buf.Text)
	}
}

// jsonSummary counts top-level items or keys.
func jsonSummary(text string) string {
	insts := decompose.Decompose(text, decompose.JSON)
	if len(insts) == 1 && insts[0].Kind == decompose.KindFull {
		return "json"
	}
	noun := "keys"
	if insts[0].Kind == decompose.KindItem {
		noun = "items"
	}
	return fmt.Sprintf("%d %s", len(insts), noun)
}

// Diff compares the buffer with the content as loaded. The controller saves
// before every switch, so edits made in other modes are included.
func Diff() RenderFunc {
	return func(buf workspace.Buffer, _ int) (string, string) {
		if !buf.Dirty() {
			return styles.HintStyle.Render("No changes since load"), "clean"
		}
		lines, stats := diffview.Compute(buf.Original, buf.Text)
		return diffview.Render(lines), stats.String()
	}
}

// notebook is the subset of the ipynb format the viewer reads.
type notebook struct {
	Cells    []cell `json:"cells"`
	Metadata struct {
		LanguageInfo struct {
			Name string `json:"name"`
		} `json:"language_info"`
	} `json:"metadata"`
}

type cell struct {
	Type    string    `json:"cell_type"`
	Source  multiline `json:"source"`
	Outputs []struct {
		Text multiline `json:"text"`
		Data struct {
			Plain multiline `json:"text/plain"`
		} `json:"data"`
	} `json:"outputs"`
}

// multiline accepts both a string and the list-of-lines form.
type multiline string

func (m *multiline) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = multiline(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	*m = multiline(strings.Join(parts, ""))
	return nil
}

var (
	cellLabelStyle  = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	cellOutputStyle = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
)

// Notebook renders ipynb JSON cell by cell: markdown through glamour, code
// highlighted with its outputs below. Anything else is read as a markdown
// notebook whose fenced blocks are the code cells.
func Notebook(md *markdown.Renderer, h *highlight.Highlighter) RenderFunc {
	return func(buf workspace.Buffer, width int) (string, string) {
		var nb notebook
		if err := json.Unmarshal([]byte(buf.Text), &nb); err != nil || len(nb.Cells) == 0 {
			view, status := Preview(md)(buf, width)
			if status == "markdown" {
				status = fmt.Sprintf("%d code cells", countFences(buf.Text))
			}
			return view, status
		}
		lang := nb.Metadata.LanguageInfo.Name
		if lang == "" {
			lang = "python"
		}
		_ = md.SetWidth(width)

		var b strings.Builder
		code := 0
		for i, c := range nb.Cells {
			if i > 0 {
				b.WriteString("\n")
			}
			src := string(c.Source)
			switch c.Type {
			case "code":
				code++
				b.WriteString(cellLabelStyle.Render(fmt.Sprintf("In [%d]:", code)) + "\n")
				b.WriteString(h.Highlight(src, lang) + "\n")
				for _, o := range c.Outputs {
					text := string(o.Text)
					if text == "" {
						text = string(o.Data.Plain)
					}
					if text != "" {
						b.WriteString(cellOutputStyle.Render(strings.TrimRight(text, "\n")) + "\n")
					}
				}
			case "markdown":
				out, err := md.Render(src)
				if err != nil {
					out = src
				}
				b.WriteString(strings.Trim(out, "\n") + "\n")
			default:
				b.WriteString(src + "\n")
			}
		}
		return b.String(), fmt.Sprintf("%d cells", len(nb.Cells))
	}
}

func countFences(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			n++
		}
	}
	return n / 2
}
