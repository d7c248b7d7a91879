package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/canvas/internal/services"
)

// ExitError carries a non-zero exit code from the execution service.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

func newExecCmd(o *options) *cobra.Command {
	var (
		language string
		stream   bool
		docker   bool
	)
	cmd := &cobra.Command{
		Use:   "exec [file]",
		Short: "Run code in the execution service",
		Long: `Send code to the execution service configured as services.exec_url and
print its output. With --stream output is printed as it arrives.

Examples:
  canvas exec script.py
  canvas exec --language javascript --stream main.js`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := o.cfg.Services
			if sc.ExecURL == "" {
				return errors.New("no execution service configured (services.exec_url)")
			}
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			if language == "" {
				language = sc.Language
			}
			if !cmd.Flags().Changed("docker") {
				docker = sc.UseDocker
			}
			client := services.NewExecClient(sc.ExecURL, sc.ExecutePath, sc.StreamPath, sc.Timeout, nil)
			req := services.ExecRequest{Code: src.text, Language: language, UseDocker: docker}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			if !stream {
				resp, err := client.Execute(cmd.Context(), req)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(out, resp.Stdout)
				_, _ = fmt.Fprint(errOut, resp.Stderr)
				return exitResult(resp.ExitCode, resp.Error)
			}

			done, err := client.Stream(cmd.Context(), req, func(ev services.StreamEvent) error {
				switch ev.Type {
				case services.StreamStdout:
					_, _ = fmt.Fprintln(out, ev.Text)
				case services.StreamStderr:
					_, _ = fmt.Fprintln(errOut, ev.Text)
				}
				return nil
			})
			if err != nil {
				return err
			}
			return exitResult(done.ExitCode, done.Error)
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "language of the code (default services.language)")
	cmd.Flags().BoolVarP(&stream, "stream", "s", false, "print output as it arrives")
	cmd.Flags().BoolVar(&docker, "docker", false, "run inside a container")
	return cmd
}

func exitResult(code int, msg string) error {
	if msg != "" {
		return errors.New(msg)
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
