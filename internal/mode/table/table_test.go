package table

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/workspace"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Data
	}{
		{
			name: "csv",
			text: "pin,mode\n13,OUTPUT\n2,INPUT\n",
			want: Data{Columns: []string{"pin", "mode"}, Rows: [][]string{{"13", "OUTPUT"}, {"2", "INPUT"}}},
		},
		{
			name: "ragged csv is padded and cut",
			text: "a,b\n1\n1,2,3\n",
			want: Data{Columns: []string{"a", "b"}, Rows: [][]string{{"1", ""}, {"1", "2"}}},
		},
		{
			name: "tsv",
			text: "a\tb\n1\t2\n",
			want: Data{Columns: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}},
		},
		{
			name: "quoted csv",
			text: "name,note\nled,\"on, then off\"\n",
			want: Data{Columns: []string{"name", "note"}, Rows: [][]string{{"led", "on, then off"}}},
		},
		{
			name: "json keeps first-seen key order",
			text: `[{"z":1,"a":"x"},{"a":"y","extra":[1, 2],"n":null}]`,
			want: Data{
				Columns: []string{"z", "a", "extra", "n"},
				Rows:    [][]string{{"1", "x", "", ""}, {"", "y", "[1,2]", ""}},
			},
		},
		{name: "empty", text: "  \n", want: Data{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(`[1, 2]`)
	require.ErrorIs(t, err, ErrNotTabular)

	_, err = Parse(`[{"a":`)
	require.ErrorContains(t, err, "parsing JSON")
}

func TestWidths(t *testing.T) {
	d := Data{
		Columns: []string{"a", "name"},
		Rows:    [][]string{{"日本", "x"}, {"", strings.Repeat("x", 40)}},
	}
	require.Equal(t, []int{4, 30}, d.Widths())
}

func TestTable_Render(t *testing.T) {
	tb := New()
	tb.SetSize(40, 6)
	tb.Render(workspace.Buffer{Text: "pin,mode\n13,OUTPUT\n2,INPUT\n"})

	require.Equal(t, "2 rows × 2 cols", tb.Status())
	view := ansi.Strip(tb.View())
	require.Contains(t, view, "pin")
	require.Contains(t, view, "OUTPUT")

	tb.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, tb.Cursor())

	// Narrower data after wider data must not index past the new columns.
	tb.Render(workspace.Buffer{Text: "only\n1\n"})
	require.Equal(t, "1 rows × 1 cols", tb.Status())
	require.Zero(t, tb.Cursor())
}

func TestTable_RenderError(t *testing.T) {
	tb := New()
	tb.SetSize(40, 6)
	tb.Render(workspace.Buffer{Text: `[1]`})
	require.Equal(t, "parse error", tb.Status())
	require.Contains(t, ansi.Strip(tb.View()), ErrNotTabular.Error())

	tb.Render(workspace.Buffer{})
	require.Empty(t, tb.Status())
	require.Contains(t, ansi.Strip(tb.View()), "No rows")
}
