package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zjrosen/canvas/internal/decompose"
	"github.com/zjrosen/canvas/internal/workspace"
)

func newDecomposeCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "decompose [file]",
		Short: "List the instances a file splits into",
		Long: `Split a file the way its mode's instance selector does and list the
instances: functions, JSON items, diagrams or sections.

Examples:
  canvas decompose blink.ino
  canvas decompose notes.md --json | jq '.[].name'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			m, err := resolveMode(o.mode, src)
			if err != nil {
				return err
			}
			insts := decompose.Decompose(src.text, workspace.KindFor(m))

			if asJSON {
				out := make([]instanceJSON, len(insts))
				for i, inst := range insts {
					out[i] = instanceJSON{Name: inst.Name, Kind: inst.Kind, Content: inst.Content, Span: inst.Span}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tKIND\tSPAN")
			for _, inst := range insts {
				span := "-"
				if inst.Span != nil {
					span = fmt.Sprintf("%d-%d", inst.Span[0], inst.Span[1])
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", inst.Name, inst.Kind, span)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print instances as JSON")
	return cmd
}

type instanceJSON struct {
	Name    string         `json:"name"`
	Kind    decompose.Kind `json:"kind"`
	Content string         `json:"content"`
	Span    *[2]int        `json:"span,omitempty"`
}
