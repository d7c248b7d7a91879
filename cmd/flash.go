package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/zjrosen/canvas/internal/app"
	"github.com/zjrosen/canvas/internal/runlog"
)

func newFlashCmd(o *options) *cobra.Command {
	var board, port string
	cmd := &cobra.Command{
		Use:   "flash [file]",
		Short: "Compile and upload a sketch through the build service",
		Long: `Send a sketch to the build service configured as services.build_url,
which compiles it for the board and uploads it to the device on port.
The sketch is sent as written, not transpiled.

Examples:
  canvas flash blink.ino --board uno --port /dev/ttyACM0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.cfg.Services.BuildURL == "" {
				return errors.New("no build service configured (services.build_url)")
			}
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			cfg := o.cfg
			if board != "" {
				cfg.Embedded.Board = board
			}
			if port == "" {
				port = cfg.Embedded.Port
			}

			broker := runlog.NewBroker()
			printed := printLog(broker, cmd.OutOrStdout())
			defer func() {
				broker.Close()
				<-printed
			}()
			svc, err := app.NewServices(&cfg, nil, broker)
			if err != nil {
				return err
			}
			return svc.Sim.Flash(cmd.Context(), src.text, port)
		},
	}
	cmd.Flags().StringVarP(&board, "board", "b", "", "board id (uno, nano, esp32-devkit, ...)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "serial port of the device")
	return cmd
}
