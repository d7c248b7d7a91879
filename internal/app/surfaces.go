package app

import (
	"fmt"
	"net/http"

	"github.com/benbjohnson/clock"

	"github.com/zjrosen/canvas/internal/config"
	"github.com/zjrosen/canvas/internal/console"
	"github.com/zjrosen/canvas/internal/hwsim"
	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/mode/diagram"
	"github.com/zjrosen/canvas/internal/mode/editor"
	"github.com/zjrosen/canvas/internal/mode/execute"
	"github.com/zjrosen/canvas/internal/mode/fantasy"
	"github.com/zjrosen/canvas/internal/mode/ide"
	"github.com/zjrosen/canvas/internal/mode/table"
	"github.com/zjrosen/canvas/internal/mode/terminal"
	"github.com/zjrosen/canvas/internal/mode/viewer"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/services"
	"github.com/zjrosen/canvas/internal/transpile"
	"github.com/zjrosen/canvas/internal/ui/highlight"
	"github.com/zjrosen/canvas/internal/ui/markdown"
	"github.com/zjrosen/canvas/internal/workspace"
)

// NewServices builds the runtimes, service clients and renderers shared by
// the surfaces. Service clients are left nil when their URL is not
// configured.
func NewServices(cfg *config.Config, clk clock.Clock, broker *runlog.Broker) (mode.Services, error) {
	if clk == nil {
		clk = clock.New()
	}
	if broker == nil {
		broker = runlog.NewBroker()
	}
	hc := &http.Client{}

	var flasher hwsim.Flasher
	if cfg.Services.BuildURL != "" {
		flasher = services.NewBuildClient(cfg.Services.BuildURL, cfg.Services.FlashPath, cfg.Services.Timeout, hc)
	}
	var exec *services.ExecClient
	if cfg.Services.ExecURL != "" {
		exec = services.NewExecClient(cfg.Services.ExecURL, cfg.Services.ExecutePath, cfg.Services.StreamPath, cfg.Services.Timeout, hc)
	}

	md, err := markdown.New(80, cfg.UI.MarkdownStyle)
	if err != nil {
		return mode.Services{}, fmt.Errorf("markdown renderer: %w", err)
	}

	return mode.Services{
		Config: cfg,
		Log:    broker,
		Clock:  clk,
		Sim: hwsim.New(hwsim.Options{
			Board:         cfg.Embedded.Board,
			TimeScale:     cfg.Embedded.TimeScale,
			MaxIterations: cfg.Embedded.MaxIterations,
			StepBudget:    cfg.Embedded.StepBudget,
			Clock:         clk,
			Log:           broker,
			Flasher:       flasher,
		}),
		Console: console.New(console.Options{
			FPS:           cfg.Console.FPS,
			StepBudget:    cfg.Console.FrameBudget,
			FrameDeadline: cfg.Console.FrameDeadline,
			HoldFrames:    cfg.Console.HoldFrames,
			Clock:         clk,
			Log:           broker,
		}),
		Exec:      exec,
		Markdown:  md,
		Highlight: highlight.New(cfg.UI.HighlightStyle),
	}, nil
}

// Hosts pairs the run-capable modes with their runtimes.
func Hosts(svc mode.Services) map[workspace.Mode]workspace.RuntimeHost {
	hosts := map[workspace.Mode]workspace.RuntimeHost{}
	if svc.Sim != nil {
		hosts[workspace.EmbeddedIDE] = workspace.RuntimeHost{Dialect: transpile.DialectEmbedded, Runtime: svc.Sim}
	}
	if svc.Console != nil {
		hosts[workspace.FantasyConsole] = workspace.RuntimeHost{Dialect: transpile.DialectScript, Runtime: svc.Console}
	}
	return hosts
}

// RegisterSurfaces adds the base surface of every mode to r, then a plugin
// logging each surface built. language reads the buffer's declared
// language; it must not be called while the controller holds its lock.
func RegisterSurfaces(r *workspace.Registry, svc mode.Services, language func() string) error {
	cfg := svc.Config
	preview := viewer.Preview(svc.Markdown)

	bases := map[workspace.Mode]workspace.Factory{
		workspace.Code: func(workspace.Mode) workspace.Surface {
			return editor.New(editor.Options{LineNumbers: true})
		},
		workspace.Markdown: func(workspace.Mode) workspace.Surface {
			return editor.New(editor.Options{
				Language:    "markdown",
				Placeholder: "# Title",
				Preview: func(text string, width int) string {
					view, _ := preview(workspace.Buffer{Text: text}, width)
					return view
				},
			})
		},
		workspace.Diagram: func(workspace.Mode) workspace.Surface {
			return diagram.New(svc.Highlight)
		},
		workspace.Execute: func(workspace.Mode) workspace.Surface {
			return execute.New(execute.Options{
				Exec:           svc.Exec,
				Log:            svc.Log,
				Clock:          svc.Clock,
				Language:       cfg.Services.Language,
				UseDocker:      cfg.Services.UseDocker,
				BufferLanguage: language,
			})
		},
		workspace.Terminal: func(workspace.Mode) workspace.Surface {
			return terminal.New(terminal.Options{
				Exec:      svc.Exec,
				Log:       svc.Log,
				Clock:     svc.Clock,
				UseDocker: cfg.Services.UseDocker,
			})
		},
		workspace.EmbeddedIDE: func(workspace.Mode) workspace.Surface {
			return ide.New(svc.Sim, cfg.Embedded.Port)
		},
		workspace.FantasyConsole: func(workspace.Mode) workspace.Surface {
			return fantasy.New(svc.Console, fantasy.Options{PixelScale: cfg.Console.PixelScale})
		},
		workspace.Preview: func(workspace.Mode) workspace.Surface {
			return viewer.New("preview", preview)
		},
		workspace.JSONView: func(workspace.Mode) workspace.Surface {
			return viewer.New("json", viewer.JSON(svc.Highlight))
		},
		workspace.NotebookView: func(workspace.Mode) workspace.Surface {
			return viewer.New("notebook", viewer.Notebook(svc.Markdown, svc.Highlight))
		},
		workspace.Diff: func(workspace.Mode) workspace.Surface {
			return viewer.New("diff", viewer.Diff())
		},
		workspace.Table: func(workspace.Mode) workspace.Surface {
			return table.New()
		},
	}

	for _, m := range workspace.Modes() {
		f, ok := bases[m]
		if !ok {
			continue
		}
		if err := r.Register(workspace.Base(m, m.String(), f)); err != nil {
			return err
		}
		if err := r.Register(workspace.Plugin{Mode: m, Name: "debug-log", Wrap: logBuilt}); err != nil {
			return err
		}
	}
	return nil
}

func logBuilt(next workspace.Factory) workspace.Factory {
	return func(m workspace.Mode) workspace.Surface {
		s := next(m)
		log.Debug(log.CatMode, "surface built", "mode", m, "surface", fmt.Sprintf("%T", s))
		return s
	}
}
