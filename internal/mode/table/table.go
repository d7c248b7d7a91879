// Package table is the Table surface: CSV, TSV or a JSON array of objects
// shown as a scrollable grid.
package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/workspace"
)

const (
	minColumnWidth = 3
	maxColumnWidth = 30
)

// ErrNotTabular is returned by Parse for JSON that is not an array of
// objects.
var ErrNotTabular = errors.New("JSON is not an array of objects")

// Data is a parsed grid. Every row has len(Columns) cells.
type Data struct {
	Columns []string
	Rows    [][]string
}

// Parse reads text as a JSON array of objects when it starts with '[',
// otherwise as CSV (or TSV when the header has tabs and no commas). The
// first CSV record is the header.
func Parse(text string) (Data, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Data{}, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		return parseJSON(trimmed)
	}
	return parseCSV(text)
}

func parseCSV(text string) (Data, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, _, _ := strings.Cut(text, "\n")
	if strings.Contains(header, "\t") && !strings.Contains(header, ",") {
		r.Comma = '\t'
	}

	var d Data
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Data{}, fmt.Errorf("parsing CSV: %w", err)
		}
		if d.Columns == nil {
			d.Columns = rec
			continue
		}
		d.Rows = append(d.Rows, rec)
	}
	d.normalize()
	return d, nil
}

func parseJSON(text string) (Data, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return Data{}, fmt.Errorf("parsing JSON: %w", err)
	}

	var d Data
	index := map[string]int{}
	var records []map[string]string
	for _, raw := range items {
		rec, keys, err := objectFields(raw)
		if err != nil {
			return Data{}, err
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(d.Columns)
				d.Columns = append(d.Columns, k)
			}
		}
		records = append(records, rec)
	}
	for _, rec := range records {
		row := make([]string, len(d.Columns))
		for k, v := range rec {
			row[index[k]] = v
		}
		d.Rows = append(d.Rows, row)
	}
	return d, nil
}

// objectFields decodes one object keeping its key order. Scalars are shown
// as-is, nested values as compact JSON.
func objectFields(raw json.RawMessage) (map[string]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, ErrNotTabular
	}
	fields := map[string]string{}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("parsing JSON: %w", err)
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("parsing JSON: %w", err)
		}
		if _, dup := fields[key]; !dup {
			keys = append(keys, key)
		}
		fields[key] = cellText(v)
	}
	return fields, keys, nil
}

func cellText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if string(v) == "null" {
		return ""
	}
	var b bytes.Buffer
	if err := json.Compact(&b, v); err != nil {
		return string(v)
	}
	return b.String()
}

// normalize pads or cuts rows to the header width; the grid indexes every
// cell by column.
func (d *Data) normalize() {
	for i, row := range d.Rows {
		switch {
		case len(row) < len(d.Columns):
			d.Rows[i] = append(row, make([]string, len(d.Columns)-len(row))...)
		case len(row) > len(d.Columns):
			d.Rows[i] = row[:len(d.Columns)]
		}
	}
}

// Widths sizes each column to its widest cell within the bounds.
func (d Data) Widths() []int {
	widths := make([]int, len(d.Columns))
	for i, c := range d.Columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range d.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for i := range widths {
		widths[i] = min(max(widths[i], minColumnWidth), maxColumnWidth)
	}
	return widths
}

// Table renders the buffer as a grid.
type Table struct {
	grid   table.Model
	data   Data
	err    error
	width  int
	height int
}

var (
	_ mode.Surface        = (*Table)(nil)
	_ mode.StatusReporter = (*Table)(nil)
	_ workspace.Renderer  = (*Table)(nil)
)

func New() *Table {
	t := table.New(table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = s.Header.BorderForeground(styles.BorderDefaultColor).Bold(true)
	s.Selected = s.Selected.Foreground(styles.TabActiveFgColor).Background(styles.TabActiveBgColor)
	t.SetStyles(s)
	return &Table{grid: t}
}

func (t *Table) Init() tea.Cmd { return nil }

func (t *Table) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	t.grid, cmd = t.grid.Update(msg)
	return cmd
}

// Render parses buf. A parse failure keeps the message for View and an
// empty grid.
func (t *Table) Render(buf workspace.Buffer) {
	d, err := Parse(buf.Text)
	t.err = err
	if err != nil {
		log.Debug(log.CatUI, "table parse failed", "error", err)
		d = Data{}
	}
	t.data = d

	// Rows must be cleared before the columns shrink.
	t.grid.SetRows(nil)
	cols := make([]table.Column, len(d.Columns))
	for i, w := range d.Widths() {
		cols[i] = table.Column{Title: d.Columns[i], Width: w}
	}
	t.grid.SetColumns(cols)
	rows := make([]table.Row, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = table.Row(r)
	}
	t.grid.SetRows(rows)
	t.grid.SetCursor(0)
}

func (t *Table) SetSize(width, height int) {
	t.width, t.height = width, height
	t.grid.SetWidth(width)
	t.grid.SetHeight(height)
}

func (t *Table) View() string {
	switch {
	case t.err != nil:
		return styles.ErrorStyle.Render(t.err.Error())
	case len(t.data.Columns) == 0:
		return styles.HintStyle.Render("No rows")
	}
	return t.grid.View()
}

// Status summarises the grid, e.g. "12 rows × 3 cols".
func (t *Table) Status() string {
	if t.err != nil {
		return "parse error"
	}
	if len(t.data.Columns) == 0 {
		return ""
	}
	return fmt.Sprintf("%d rows × %d cols", len(t.data.Rows), len(t.data.Columns))
}

// Data is the parsed grid.
func (t *Table) Data() Data { return t.data }

// Cursor is the selected row.
func (t *Table) Cursor() int { return t.grid.Cursor() }
