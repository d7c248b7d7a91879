package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/canvas/internal/transpile"
	"github.com/zjrosen/canvas/internal/workspace"
)

func newTranspileCmd(o *options) *cobra.Command {
	var (
		dialect string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "transpile [file]",
		Short: "Print the host script a sketch or cartridge runs as",
		Long: `Transpile a microcontroller sketch or a fantasy console cartridge and
print the resulting host script. Warnings go to stderr.

The dialect follows the file's mode unless --dialect is given.

Examples:
  canvas transpile blink.ino
  canvas transpile --dialect script cart.lua
  canvas transpile blink.ino --json | jq .entryPoints`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			d := transpile.Dialect(dialect)
			if d == "" {
				if d, err = dialectFor(o.mode, src); err != nil {
					return err
				}
			}
			tr, err := transpile.For(d)
			if err != nil {
				return err
			}
			prog, err := tr.Transpile(src.text)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(programJSON{
					Dialect:     prog.Dialect,
					Source:      prog.Source,
					EntryPoints: prog.EntryPoints,
					Warnings:    prog.Warnings,
					Metadata:    prog.Metadata,
				})
			}
			for _, w := range prog.Warnings {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), prog.Source)
			return err
		},
	}
	cmd.Flags().StringVarP(&dialect, "dialect", "d", "", "embedded or script")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the program as JSON")
	return cmd
}

type programJSON struct {
	Dialect     transpile.Dialect     `json:"dialect"`
	Source      string                `json:"source"`
	EntryPoints transpile.EntryPoints `json:"entryPoints"`
	Warnings    []string              `json:"warnings"`
	Metadata    map[string]string     `json:"metadata,omitempty"`
}

// dialectFor maps the modes that run code to their source dialect.
func dialectFor(flag string, src source) (transpile.Dialect, error) {
	m, err := resolveMode(flag, src)
	if err != nil {
		return "", err
	}
	switch m {
	case workspace.EmbeddedIDE:
		return transpile.DialectEmbedded, nil
	case workspace.FantasyConsole:
		return transpile.DialectScript, nil
	}
	return "", fmt.Errorf("%s mode has no transpiler", m.Title())
}
