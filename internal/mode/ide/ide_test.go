package ide

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/hwsim"
	"github.com/zjrosen/canvas/internal/mode"
	"github.com/zjrosen/canvas/internal/services"
)

type fakeFlasher struct {
	got  services.FlashRequest
	resp services.FlashResponse
}

func (f *fakeFlasher) Flash(_ context.Context, req services.FlashRequest) (services.FlashResponse, error) {
	f.got = req
	return f.resp, nil
}

func newIDE(t *testing.T, opts hwsim.Options) (*IDE, *hwsim.Runtime) {
	t.Helper()
	sim := hwsim.New(opts)
	i := New(sim, "/dev/ttyUSB0")
	t.Cleanup(i.Teardown)
	i.SetSize(80, 24)
	return i, sim
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "ctrl+w":
		return tea.KeyMsg{Type: tea.KeyCtrlW}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew_ShowsBoardPins(t *testing.T) {
	i, _ := newIDE(t, hwsim.Options{Board: "uno"})
	snap := i.Snapshot()
	require.Equal(t, "uno", snap.Board)
	require.Equal(t, hwsim.Idle, snap.State)
	require.Len(t, snap.Pins, 20)
	require.Equal(t, "uno · idle", i.Status())
}

func TestPins_ToggleInput(t *testing.T) {
	i, sim := newIDE(t, hwsim.Options{Board: "uno"})

	i.Update(keyMsg("ctrl+w"))
	i.Update(keyMsg("j"))
	i.Update(keyMsg("j"))
	require.Equal(t, 2, i.Cursor())
	require.Nil(t, i.Update(keyMsg("enter")))
	require.Equal(t, hwsim.High, sim.Pins()[2].Value)

	i.Update(keyMsg("enter"))
	require.Equal(t, hwsim.Low, sim.Pins()[2].Value)

	i.Update(keyMsg("k"))
	i.Update(keyMsg("k"))
	i.Update(keyMsg("k"))
	require.Zero(t, i.Cursor())
}

func TestPins_OutputRefusesToggle(t *testing.T) {
	i, _ := newIDE(t, hwsim.Options{Board: "uno"})
	snap := i.Snapshot()
	snap.Pins[0].Mode = hwsim.Output
	i.Update(snapshotMsg{owner: i, snap: snap})

	i.Update(keyMsg("ctrl+w"))
	res := i.Update(keyMsg("enter"))().(mode.ResultMsg)
	require.EqualError(t, res.Err, "pin 0 is an output")
}

func TestPins_KeysGoToEditorUntilFocused(t *testing.T) {
	i, _ := newIDE(t, hwsim.Options{Board: "uno"})
	i.Focus()
	i.SetText("")
	i.Update(keyMsg("j"))
	require.Zero(t, i.Cursor())
	require.Equal(t, "j", i.Text())
}

func TestNextBoard(t *testing.T) {
	i, sim := newIDE(t, hwsim.Options{Board: "uno"})
	i.Update(keyMsg("ctrl+w"))
	i.Update(keyMsg("j"))

	res := i.Update(keyMsg("b"))().(mode.ResultMsg)
	require.NoError(t, res.Err)
	require.Equal(t, "ESP32 DevKit", res.Text)
	require.Equal(t, "esp32-devkit", sim.Board().ID)
	require.Equal(t, "esp32-devkit", i.Snapshot().Board)
	require.Zero(t, i.Cursor())

	i.Update(keyMsg("b"))
	require.Equal(t, "nano", sim.Board().ID)
}

func TestListen_DeliversSnapshots(t *testing.T) {
	i, sim := newIDE(t, hwsim.Options{Board: "uno"})
	cmd := i.listen()
	require.True(t, sim.SetInput("13", hwsim.High))

	msg := cmd()
	require.IsType(t, snapshotMsg{}, msg)
	require.NotNil(t, i.Update(msg), "handling a snapshot listens again")
	require.Equal(t, hwsim.High, i.Snapshot().Pins[13].Value)
}

func TestListen_DropsOtherOwners(t *testing.T) {
	i, _ := newIDE(t, hwsim.Options{Board: "uno"})
	other, _ := newIDE(t, hwsim.Options{Board: "nano"})
	require.Nil(t, i.Update(snapshotMsg{owner: other, snap: other.Snapshot()}))
	require.Equal(t, "uno", i.Snapshot().Board)
}

func TestTeardown_EndsListening(t *testing.T) {
	i, _ := newIDE(t, hwsim.Options{})
	cmd := i.listen()
	i.Teardown()
	require.Nil(t, cmd())
}

func TestFlash(t *testing.T) {
	f := &fakeFlasher{resp: services.FlashResponse{Stdout: "ok"}}
	i, _ := newIDE(t, hwsim.Options{Board: "uno", Flasher: f})

	res := i.Flash(context.Background(), "void setup() {}")().(mode.ResultMsg)
	require.NoError(t, res.Err)
	require.Equal(t, "flash", res.Source)
	require.Equal(t, services.FlashRequest{Code: "void setup() {}", BoardFQBN: "arduino:avr:uno", Port: "/dev/ttyUSB0"}, f.got)

	f.resp = services.FlashResponse{Error: "port busy"}
	res = i.Flash(context.Background(), "x")().(mode.ResultMsg)
	require.EqualError(t, res.Err, "port busy")
}

func TestRenderPins(t *testing.T) {
	pins := []hwsim.Pin{
		{ID: "13", Mode: hwsim.Output, Value: hwsim.High, Kind: hwsim.Digital},
		{ID: "9", Mode: hwsim.Output, Value: hwsim.High, Kind: hwsim.PWM, Duty: 128},
		{ID: "A0", Mode: hwsim.InputPullup, Value: hwsim.Low, Kind: hwsim.Analog},
	}
	rows := strings.Split(ansi.Strip(RenderPins(pins, 0, true, 10)), "\n")
	require.Equal(t, []string{
		"> ● 13   OUTPUT  HIGH",
		"  ● 9    OUTPUT  PWM 128",
		"  ○ A0   PULLUP  LOW",
	}, rows)

	rows = strings.Split(ansi.Strip(RenderPins(pins, 2, true, 2)), "\n")
	require.Len(t, rows, 2)
	require.True(t, strings.HasPrefix(rows[1], "> ○ A0"))
}
