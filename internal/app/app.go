// Package app contains the root application model.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/canvas/internal/config"
	"github.com/zjrosen/canvas/internal/keys"
	"github.com/zjrosen/canvas/internal/log"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/mode/shared"
	"github.com/zjrosen/canvas/internal/pubsub"
	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/ui/logpane"
	"github.com/zjrosen/canvas/internal/ui/styles"
	"github.com/zjrosen/canvas/internal/ui/toaster"
	"github.com/zjrosen/canvas/internal/watcher"
	"github.com/zjrosen/canvas/internal/workspace"
)

// settleMsg ends the wait between installing a surface and restoring the
// buffer into it. seq drops ticks of superseded switches.
type settleMsg struct{ seq int }

// Options configures New.
type Options struct {
	Config config.Config
	// Path is the opened file. It is watched when auto reload is on and
	// read again on ctrl+l.
	Path    string
	Content string
	// Mode is the declared mode of Content; nil infers one.
	Mode      *workspace.Mode
	Tracer    trace.Tracer
	Clipboard shared.Clipboard
	Clock     clock.Clock
	// Debug mirrors the debug log into the log pane.
	Debug bool
}

// Model is the root application state.
type Model struct {
	cfg       config.Config
	ctrl      *workspace.Controller
	services  mode.Services
	clipboard shared.Clipboard
	path      string

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int

	// Centralized toaster, owned by the app rather than the surfaces.
	toaster toaster.Model

	logPane     logpane.Model
	showLog     bool
	logFocused  bool
	logListener *pubsub.ContinuousListener[runlog.Line]
	debugListen *log.LogListener

	help     help.Model
	selector selector

	settleSeq int

	watcherHandle   *watcher.Watcher
	watcherListener *pubsub.ContinuousListener[watcher.Event]
}

// New builds the services, the surface registry and the controller, then
// loads opts.Content.
func New(opts Options) (Model, error) {
	cfg := opts.Config
	ctx, cancel := context.WithCancel(context.Background())

	broker := runlog.NewBroker()
	svc, err := NewServices(&cfg, opts.Clock, broker)
	if err != nil {
		cancel()
		return Model{}, err
	}

	m := Model{
		cfg:         cfg,
		services:    svc,
		clipboard:   opts.Clipboard,
		path:        opts.Path,
		ctx:         ctx,
		cancel:      cancel,
		toaster:     toaster.New(),
		logPane:     logpane.New(0),
		showLog:     cfg.UI.ShowLog,
		logListener: pubsub.NewContinuousListener(ctx, broker),
		help:        help.New(),
		selector:    newSelector(),
	}
	if m.clipboard == nil {
		m.clipboard = shared.SystemClipboard{}
	}
	if opts.Debug {
		m.debugListen = log.NewListener(ctx)
	}

	// The controller does not exist yet when surfaces are registered;
	// surfaces only read the language after construction.
	var ctrl *workspace.Controller
	registry := workspace.NewRegistry()
	language := func() string { return ctrl.Buffer().Language }
	if err := RegisterSurfaces(registry, svc, language); err != nil {
		cancel()
		return Model{}, err
	}
	if err := registry.Resolve(); err != nil {
		cancel()
		return Model{}, err
	}

	initial, err := workspace.ParseMode(cfg.Workspace.DefaultMode)
	if err != nil {
		log.Warn(log.CatConfig, "unknown default mode, using code", "mode", cfg.Workspace.DefaultMode)
		initial = workspace.Code
	}
	ctrl = workspace.New(workspace.Config{
		Registry:    registry,
		SettleDelay: cfg.Workspace.SettleDelay,
		StopGrace:   cfg.Workspace.StopGrace,
		Log:         broker,
		Clock:       svc.Clock,
		Hosts:       Hosts(svc),
		Tracer:      opts.Tracer,
		Initial:     initial,
	})
	m.ctrl = ctrl

	if opts.Content != "" || opts.Mode != nil {
		declared := opts.Mode
		if declared == nil && opts.Path != "" {
			if pm, ok := ModeForPath(opts.Path); ok {
				declared = &pm
			}
		}
		if err := ctrl.LoadContent(opts.Content, declared); err != nil {
			cancel()
			return Model{}, err
		}
		if lang := LanguageForPath(opts.Path); lang != "" {
			ctrl.SetLanguage(lang)
		}
	}

	if cfg.Workspace.AutoReload && opts.Path != "" {
		m.startWatcher(opts.Path)
	}
	return m, nil
}

// startWatcher reloads path on change. Failures are logged and ignored; the
// file can still be reloaded by hand.
func (m *Model) startWatcher(path string) {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		log.Warn(log.CatWatcher, "file watcher unavailable", "path", path, "error", err)
		return
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		log.Warn(log.CatWatcher, "file watcher unavailable", "path", path, "error", err)
		return
	}
	m.watcherHandle = w
	m.watcherListener = pubsub.NewContinuousListener(m.ctx, w.Broker())
}

// Controller is the workspace behind the model.
func (m Model) Controller() *workspace.Controller { return m.ctrl }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.logListener.Listen()}
	if s, ok := m.surface(); ok {
		cmds = append(cmds, s.Init())
	}
	if m.ctrl.PendingRestore() {
		cmds = append(cmds, m.settleTick())
	}
	if m.watcherListener != nil {
		cmds = append(cmds, m.watcherListener.Listen())
	}
	if m.debugListen != nil {
		cmds = append(cmds, m.debugListen.Listen())
	}
	return tea.Batch(cmds...)
}

func (m Model) surface() (mode.Surface, bool) {
	s, ok := m.ctrl.Surface().(mode.Surface)
	return s, ok
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case settleMsg:
		if msg.seq == m.settleSeq && m.ctrl.PendingRestore() {
			m.ctrl.RestoreContent()
			log.Debug(log.CatMode, "content restored", "mode", m.ctrl.Active())
		}
		return m, nil

	case pubsub.Event[runlog.Line]:
		m.logPane = m.logPane.Append(msg.Payload)
		return m, m.logListener.Listen()

	case log.LogEvent:
		m.logPane = m.logPane.Append(runlog.Line{Time: m.services.Clock.Now(), Level: runlog.Info, Source: "debug", Text: msg.Payload})
		return m, m.debugListen.Listen()

	case pubsub.Event[watcher.Event]:
		cmd := m.load(msg.Payload.Content, "Reloaded "+filepath.Base(msg.Payload.Path))
		return m, tea.Batch(cmd, m.watcherListener.Listen())

	case mode.ResultMsg:
		cmd := m.showResult(msg)
		return m, cmd

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
			if cmd, ok := m.handleClick(msg); ok {
				return m, cmd
			}
		}

	case tea.KeyMsg:
		if cmd, ok := m.handleKey(msg); ok {
			return m, cmd
		}
	}

	// Everything else belongs to the active surface.
	if s, ok := m.surface(); ok {
		return m, s.Update(msg)
	}
	return m, nil
}

// handleKey runs the global bindings. ok is false when the key is left to
// the surface.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, keys.Workspace.Quit) {
		return tea.Quit, true
	}
	if m.selector.focused {
		return m.handleSelectorKey(msg), true
	}

	switch {
	case key.Matches(msg, keys.Workspace.NextMode):
		return m.switchTo(m.ctrl.Active().Next()), true
	case key.Matches(msg, keys.Workspace.PrevMode):
		return m.switchTo(m.ctrl.Active().Prev()), true
	case key.Matches(msg, keys.Workspace.Run):
		return m.run(), true
	case key.Matches(msg, keys.Workspace.Stop):
		m.stop()
		return nil, true
	case key.Matches(msg, keys.Workspace.Flash):
		return m.flash(), true
	case key.Matches(msg, keys.Workspace.Decompose):
		m.selector = m.selector.open(m.ctrl.RequestDecomposition())
		m.layout()
		return nil, true
	case key.Matches(msg, keys.Workspace.Yank):
		return m.yank(), true
	case key.Matches(msg, keys.Workspace.Export):
		return m.export(), true
	case key.Matches(msg, keys.Workspace.Reload):
		return m.reload(), true
	case key.Matches(msg, keys.Workspace.ToggleLog):
		m.showLog = !m.showLog
		m.logFocused = false
		m.layout()
		return nil, true
	case key.Matches(msg, keys.Workspace.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return nil, true
	case key.Matches(msg, keys.Workspace.Escape) && m.showLog:
		m.logFocused = !m.logFocused
		if s, ok := m.ctrl.Surface().(mode.Focusable); ok {
			if m.logFocused {
				s.Blur()
				return nil, true
			}
			return s.Focus(), true
		}
		return nil, true
	}

	if m.logFocused {
		var cmd tea.Cmd
		m.logPane, cmd = m.logPane.Update(msg)
		return cmd, true
	}
	return nil, false
}

// switchTo moves the workspace to target and prepares the new surface.
func (m *Model) switchTo(target workspace.Mode) tea.Cmd {
	if target == m.ctrl.Active() {
		m.ctrl.Save()
		return nil
	}
	if err := m.ctrl.SwitchMode(target); err != nil {
		return m.toast(err.Error(), toaster.StyleError)
	}
	m.selector = newSelector()
	m.logFocused = false
	m.layout()

	var cmds []tea.Cmd
	if s, ok := m.surface(); ok {
		cmds = append(cmds, s.Init())
	}
	if m.ctrl.PendingRestore() {
		m.settleSeq++
		cmds = append(cmds, m.settleTick())
	}
	return tea.Batch(cmds...)
}

func (m Model) settleTick() tea.Cmd {
	seq := m.settleSeq
	return tea.Tick(m.ctrl.SettleDelay(), func(time.Time) tea.Msg { return settleMsg{seq: seq} })
}

// run hands the buffer to the surface when it runs things itself, and to
// the workspace runtime otherwise.
func (m *Model) run() tea.Cmd {
	if r, ok := m.ctrl.Surface().(mode.Runner); ok {
		m.ctrl.Save()
		return r.Run(m.ctx, m.ctrl.Buffer().Text)
	}
	err := m.ctrl.Run(m.ctx)
	switch {
	case errors.Is(err, workspace.ErrBusy):
		return m.toast("Already running, "+keys.Workspace.Stop.Help().Key+" stops it", toaster.StyleWarn)
	case err != nil:
		return m.toast(err.Error(), toaster.StyleError)
	}
	return nil
}

func (m *Model) stop() {
	if s, ok := m.ctrl.Surface().(mode.Stopper); ok {
		s.StopRun()
		return
	}
	m.ctrl.Stop()
}

func (m *Model) flash() tea.Cmd {
	f, ok := m.ctrl.Surface().(mode.Flasher)
	if !ok {
		return m.toast("Flashing needs IDE mode", toaster.StyleInfo)
	}
	m.ctrl.Save()
	return f.Flash(m.ctx, m.ctrl.Buffer().Text)
}

func (m *Model) yank() tea.Cmd {
	m.ctrl.Save()
	text := m.ctrl.Buffer().Text
	if err := m.clipboard.Copy(text); err != nil {
		return m.toast("Copy failed: "+err.Error(), toaster.StyleError)
	}
	return m.toast(fmt.Sprintf("Copied %d lines", strings.Count(text, "\n")+1), toaster.StyleSuccess)
}

func (m *Model) export() tea.Cmd {
	path, err := m.ctrl.Export(m.cfg.Workspace.ExportDir)
	if err != nil {
		return m.toast(err.Error(), toaster.StyleError)
	}
	return m.toast("Exported "+path, toaster.StyleSuccess)
}

// reload reads the opened file again, keeping the active mode.
func (m *Model) reload() tea.Cmd {
	if m.path == "" {
		return m.toast("No file to reload", toaster.StyleInfo)
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		return m.toast(err.Error(), toaster.StyleError)
	}
	return m.load(string(data), "Reloaded "+filepath.Base(m.path))
}

// load replaces the buffer in the active mode, keeping its language.
func (m *Model) load(text, notice string) tea.Cmd {
	active := m.ctrl.Active()
	lang := m.ctrl.Buffer().Language
	if err := m.ctrl.LoadContent(text, &active); err != nil {
		return m.toast(err.Error(), toaster.StyleError)
	}
	m.ctrl.SetLanguage(lang)
	m.selector = newSelector()
	m.layout()
	return m.toast(notice, toaster.StyleInfo)
}

func (m *Model) showResult(res mode.ResultMsg) tea.Cmd {
	switch {
	case res.Err != nil:
		return m.toast(res.Err.Error(), toaster.StyleError)
	case res.Text != "":
		return m.toast(res.Text, toaster.StyleSuccess)
	}
	return nil
}

func (m *Model) toast(text string, style toaster.Style) tea.Cmd {
	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.Show(text, style, toaster.DefaultDuration)
	return cmd
}

func (m *Model) handleClick(msg tea.MouseMsg) (tea.Cmd, bool) {
	for _, md := range workspace.Modes() {
		if z := zone.Get(tabZoneID(md)); z != nil && z.InBounds(msg) {
			return m.switchTo(md), true
		}
	}
	for i := range m.selector.items {
		if z := zone.Get(chipZoneID(i)); z != nil && z.InBounds(msg) {
			m.selector.cursor = i
			return m.choose(i), true
		}
	}
	return nil, false
}

// layout sizes the surface and the log pane from the window.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	paneH, logH := m.heights()
	if logH > 0 {
		m.logPane = m.logPane.SetSize(max(m.width-2, 1), max(logH-2, 1))
	}
	if s, ok := m.surface(); ok {
		s.SetSize(max(m.width-2, 1), max(paneH-2, 1))
	}
}

// heights splits the rows left after the tab bar, selector and help.
func (m Model) heights() (pane, logH int) {
	used := 1 + lipgloss.Height(m.help.View(keys.Workspace))
	if m.selector.visible() {
		used++
	}
	if m.showLog {
		logH = min(max(m.height/4, 5), 12)
	}
	pane = max(m.height-used-logH, 3)
	return pane, logH
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width <= 0 {
		return ""
	}
	paneH, logH := m.heights()

	parts := []string{m.tabBar()}
	if m.selector.visible() {
		parts = append(parts, m.selector.view(m.width))
	}
	parts = append(parts, m.surfacePane(paneH))
	if logH > 0 {
		parts = append(parts, styles.Pane(styles.PaneConfig{
			Content: m.logPane.View(),
			Width:   m.width,
			Height:  logH,
			Title:   "Log",
			Status:  m.logStatus(),
			Footer:  logFooter(m.logFocused),
			Focused: m.logFocused,
		}))
	}
	parts = append(parts, m.help.View(keys.Workspace))
	view := strings.Join(parts, "\n")

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	return zone.Scan(view)
}

// logStatus counts the lines shown and any the pane was too slow to take.
func (m Model) logStatus() string {
	status := fmt.Sprintf("%d lines", len(m.logPane.Lines()))
	if n := m.services.Log.Dropped(); n > 0 {
		status += fmt.Sprintf(" · %d dropped", n)
	}
	return status
}

func logFooter(focused bool) string {
	if focused {
		return "c clear · e/w/i level · esc back"
	}
	return ""
}

func (m Model) surfacePane(height int) string {
	active := m.ctrl.Active()
	title := active.Title()
	if inst, ok := m.ctrl.Selected(); ok {
		title += " · " + inst.Name
	}

	var content, status string
	if s, ok := m.surface(); ok {
		content = s.View()
	} else {
		content = styles.HintStyle.Render("No surface for " + active.Title())
	}
	if r, ok := m.ctrl.Surface().(mode.StatusReporter); ok {
		status = r.Status()
	}

	buf := m.ctrl.Buffer()
	footer := fmt.Sprintf("%d lines", strings.Count(buf.Text, "\n")+1)
	if buf.Language != "" {
		footer += " · " + buf.Language
	}
	if buf.Dirty() {
		footer += " · modified"
	}
	return styles.Pane(styles.PaneConfig{
		Content: content,
		Width:   m.width,
		Height:  height,
		Title:   title,
		Status:  status,
		Footer:  footer,
		Focused: !m.logFocused && !m.selector.focused,
	})
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	m.cancel()
	m.ctrl.Close()
	m.services.Log.Close()
	if m.watcherHandle != nil {
		if err := m.watcherHandle.Stop(); err != nil {
			return err
		}
	}
	return nil
}
