package console

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/canvas/internal/runlog"
	"github.com/zjrosen/canvas/internal/transpile"
)

func cart(t *testing.T, src string) transpile.Program {
	t.Helper()
	prog, err := transpile.NewScript().Transpile(src)
	require.NoError(t, err)
	require.Empty(t, prog.Warnings)
	return prog
}

func newTestRuntime(t *testing.T, opts Options) (*Runtime, func() []string) {
	t.Helper()
	b := runlog.NewBroker()
	opts.Log = b
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := b.Subscribe(ctx)
	var texts []string
	drain := func() []string {
		for {
			select {
			case ev := <-ch:
				texts = append(texts, ev.Payload.Text)
			default:
				return texts
			}
		}
	}
	return New(opts), drain
}

func TestRuntime_BtnpOnlyOnPressEdge(t *testing.T) {
	r, lines := newTestRuntime(t, Options{})
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, cart(t, "function TIC() trace(btnp(0)) end")))

	held := []bool{true, true, true, false}
	for _, down := range held {
		r.SetButton(BtnUp, down)
		require.NoError(t, r.Step(ctx))
	}
	require.Equal(t, []string{"true", "false", "false", "false"}, lines())
	require.Equal(t, uint64(4), r.Frame().Tick)
}

func TestRuntime_BtnReflectsLevel(t *testing.T) {
	r, lines := newTestRuntime(t, Options{})
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, cart(t, "function TIC() trace(tostring(btn(4)) .. \" \" .. btn()) end")))

	r.SetButton(BtnA, true)
	r.SetButton(BtnRight, true)
	require.NoError(t, r.Step(ctx))
	r.SetButton(BtnA, false)
	require.NoError(t, r.Step(ctx))
	require.Equal(t, []string{"true 24", "false 8"}, lines())
}

func TestRuntime_TapHoldsForHoldFrames(t *testing.T) {
	r, lines := newTestRuntime(t, Options{HoldFrames: 2})
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, cart(t, "function TIC() trace(btn(5)) end")))

	require.True(t, r.Key("x"))
	require.False(t, r.Key("q"))
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Step(ctx))
	}
	require.Equal(t, []string{"true", "true", "false"}, lines())
}

func TestFrameState_Repeat(t *testing.T) {
	f := FrameState{Buttons: [NumButtons]bool{true}}
	var got []bool
	for held := 1; held <= 8; held++ {
		f.Held[0] = held
		f.Prev[0] = held > 1
		got = append(got, f.Repeat(0, 3, 2))
	}
	require.Equal(t, []bool{true, false, false, true, false, true, false, true}, got)
}

func TestKeyButton(t *testing.T) {
	tests := map[string]int{
		"up": BtnUp, "w": BtnUp, "down": BtnDown, "s": BtnDown,
		"left": BtnLeft, "a": BtnLeft, "right": BtnRight, "d": BtnRight,
		"z": BtnA, "j": BtnA, "x": BtnB, "k": BtnB,
		"c": BtnX, "u": BtnX, "v": BtnY, "I": BtnY,
	}
	for key, want := range tests {
		got, ok := KeyButton(key)
		require.True(t, ok, key)
		require.Equal(t, want, got, key)
	}
	_, ok := KeyButton("enter")
	require.False(t, ok)
}

func TestRuntime_MissingTICBeforeFirstFrame(t *testing.T) {
	r, lines := newTestRuntime(t, Options{})
	prog := cart(t, "function BOOT() trace(\"boot\") end")

	require.ErrorIs(t, r.Load(context.Background(), prog), ErrNoEntryPoint)
	require.ErrorIs(t, r.Step(context.Background()), ErrNotLoaded)
	require.ErrorIs(t, r.Run(context.Background(), prog), ErrNoEntryPoint)
	require.Equal(t, Idle, r.State())
	require.NotContains(t, lines(), "boot")
}

func TestRuntime_BootRunsOnceBeforeFrames(t *testing.T) {
	r, lines := newTestRuntime(t, Options{})
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, cart(t, "n = 0\nfunction BOOT() n = 10 end\nfunction TIC() n = n + 1 trace(n) end")))
	require.NoError(t, r.Step(ctx))
	require.NoError(t, r.Step(ctx))
	require.Equal(t, []string{"11", "12"}, lines())
}

func TestRuntime_Drawing(t *testing.T) {
	r, lines := newTestRuntime(t, Options{})
	ctx := context.Background()
	src := `
function TIC()
  cls(1)
  pix(3, 4, 12)
  rect(10, 10, 2, 2, 5)
  line(0, 20, 3, 20, 7)
  circ(50, 50, 2, 9)
  trace(pix(3, 4))
  trace(print("AB", 100, 100, 4))
end`
	require.NoError(t, r.Load(ctx, cart(t, src)))
	require.NoError(t, r.Step(ctx))

	px := r.Pixels()
	at := func(x, y int) uint8 { return px[y*Width+x] }
	require.Equal(t, uint8(1), at(0, 0))
	require.Equal(t, uint8(12), at(3, 4))
	require.Equal(t, uint8(5), at(11, 11))
	require.Equal(t, uint8(1), at(12, 12))
	for x := 0; x <= 3; x++ {
		require.Equal(t, uint8(7), at(x, 20))
	}
	require.Equal(t, uint8(9), at(52, 50))
	require.Equal(t, uint8(1), at(52, 52))
	// "A" has its apex in the middle column.
	require.Equal(t, uint8(4), at(101, 100))
	require.Equal(t, []string{"12", "8"}, lines())
}

func TestScreen_ClipsAndWrapsColours(t *testing.T) {
	var s Screen
	s.Set(-1, 0, 3)
	s.Set(Width, Height, 3)
	s.Set(0, 0, 17)
	s.Set(1, 0, -1)
	require.Equal(t, 1, s.At(0, 0))
	require.Equal(t, 15, s.At(1, 0))
	require.Equal(t, 0, s.At(-5, -5))

	s.RectB(0, 10, 3, 3, 2)
	require.Equal(t, 2, s.At(0, 10))
	require.Equal(t, 2, s.At(2, 12))
	require.Equal(t, 0, s.At(1, 11))

	s.CircB(100, 100, 3, 6)
	require.Equal(t, 6, s.At(103, 100))
	require.Equal(t, 6, s.At(100, 97))
	require.Equal(t, 0, s.At(100, 100))
}

func TestScreen_HugeShapesAreClipped(t *testing.T) {
	var s Screen
	s.Rect(-5, -5, 1<<62, 1<<62, 3)
	require.Equal(t, 3, s.At(0, 0))
	require.Equal(t, 3, s.At(Width-1, Height-1))

	s.Line(-1<<40, 7, 1<<40, 7, 4)
	require.Equal(t, 4, s.At(0, 7))
	require.Equal(t, 4, s.At(Width-1, 7))
	require.Equal(t, 3, s.At(0, 8))

	s.CircB(0, 0, 100, 7)
	require.Equal(t, 7, s.At(100, 0))
	require.Equal(t, 7, s.At(0, 100))

	// An outline around the whole raster touches nothing.
	s.CircB(120, 68, 1<<50, 9)
	for _, v := range s.Pix {
		require.NotEqual(t, uint8(9), v)
	}
}

func TestRuntime_HugeShapesFinishWithinFrame(t *testing.T) {
	r, _ := newTestRuntime(t, Options{FrameDeadline: 50 * time.Millisecond})
	ctx := context.Background()
	src := `
function TIC()
  rect(0, 0, 2000000000, 2000000000, 3)
  rectb(-2000000000, -2000000000, 4000000000, 4000000000, 6)
  spr(0, 0, 0, -1, 1000000, 0, 0, 1000000, 1000000)
  circ(0, 0, 1000000, 1)
  circb(120, 68, 1000000000, 2)
  line(-2000000000, 5, 2000000000, 5, 4)
end`
	require.NoError(t, r.Load(ctx, cart(t, src)))

	done := make(chan error, 1)
	go func() { done <- r.Step(ctx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("frame with huge shapes did not finish")
	}

	px := r.Pixels()
	require.Equal(t, uint8(1), px[Width*Height-1])
	require.Equal(t, uint8(4), px[5*Width+10])
}

func TestRuntime_StepRefusedWhileRunning(t *testing.T) {
	r, _ := newTestRuntime(t, Options{})
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), cart(t, "function TIC() end")) }()

	require.Eventually(t, r.Running, 5*time.Second, time.Millisecond)
	require.ErrorIs(t, r.Step(context.Background()), ErrBusy)
	r.Stop()
	require.NoError(t, <-done)
	require.NoError(t, r.Step(context.Background()))
}

func TestRuntime_Sprites(t *testing.T) {
	r, _ := newTestRuntime(t, Options{})
	ctx := context.Background()
	prog := cart(t, "function TIC()\n  cls(0)\n  spr(1, 0, 0)\n  spr(1, 20, 0, -1, 1, 1)\n  spr(1, 40, 0, -1, 2)\n  spr(1, 60, 0, 12)\nend")
	prog.Sprites = map[int]string{1: "c" + strings.Repeat("0", 62) + "3"}
	require.NoError(t, r.Load(ctx, prog))
	require.NoError(t, r.Step(ctx))

	px := r.Pixels()
	at := func(x, y int) uint8 { return px[y*Width+x] }
	require.Equal(t, uint8(12), at(0, 0))
	require.Equal(t, uint8(3), at(7, 7))
	require.Equal(t, uint8(12), at(27, 0), "flipped horizontally")
	require.Equal(t, uint8(12), at(41, 1), "scaled by two")
	require.Equal(t, uint8(3), at(55, 15))
	require.Equal(t, uint8(0), at(60, 0), "colour key skipped")
}

func TestSheet_Rotate(t *testing.T) {
	sh := NewSheet(map[int]string{0: "5"})
	var s Screen
	s.Sprite(sh, 0, 0, 0, SpriteOpts{ColorKey: 0, Rotate: 1})
	require.Equal(t, 5, s.At(7, 0))
}

func TestRuntime_LuaLibrary(t *testing.T) {
	r, lines := newTestRuntime(t, Options{Seed: 3})
	ctx := context.Background()
	src := `
function TIC()
  local t = {}
  table.insert(t, "b")
  table.insert(t, 1, "a")
  table.insert(t, "c")
  trace(table.concat(t, ","))
  trace(table.remove(t, 1))
  trace(#t)
  trace(string.format("%03d|%s|%.2f|%x", 7, "x", 1.5, 255))
  trace(string.sub("hello", 2, -2))
  local d = math.random(1, 6)
  trace(d >= 1 and d <= 6)
  trace(math.floor(math.pi))
  trace(type(t) .. " " .. type(nil) .. " " .. tostring(nil))
end`
	require.NoError(t, r.Load(ctx, cart(t, src)))
	require.NoError(t, r.Step(ctx))
	require.Equal(t, []string{"a,b,c", "a", "2", "007|x|1.50|ff", "ell", "true", "3", "table nil nil"}, lines())
}

func TestRuntime_TablesCountFromOne(t *testing.T) {
	r, lines := newTestRuntime(t, Options{})
	ctx := context.Background()
	src := `
function TIC()
  local t = {10, 20, 30}
  for i, v in ipairs(t) do trace(i .. "=" .. v .. " t[i]=" .. tostring(t[i])) end
  for i = 1, #t do trace(t[i]) end
  t[#t + 1] = 40
  trace(#t .. " " .. t[4] .. " " .. tostring(t[0]))
  trace(table.concat(t, ","))
  trace(2 ^ 10)
  trace(-2 ^ 2)
end`
	require.NoError(t, r.Load(ctx, cart(t, src)))
	require.NoError(t, r.Step(ctx))
	require.Equal(t, []string{
		"1=10 t[i]=10", "2=20 t[i]=20", "3=30 t[i]=30",
		"10", "20", "30",
		"4 40 nil",
		"10,20,30,40",
		"1024", "-4",
	}, lines())
}

func TestLuaFormat_LimitsWidthAndPrecision(t *testing.T) {
	got, err := luaFormat("%5.2f|%-3d|%02x", args{3.14159, 7.0, 10.0})
	require.NoError(t, err)
	require.Equal(t, " 3.14|7  |0a", got)

	for _, format := range []string{"%999999999d", "%.100f", "%123s"} {
		_, err := luaFormat(format, args{1.0})
		require.ErrorContains(t, err, "invalid conversion", format)
	}
}

func TestRuntime_FrameErrorHalts(t *testing.T) {
	r, lines := newTestRuntime(t, Options{})
	prog := cart(t, "f = 0\nfunction TIC()\n  f = f + 1\n  if f == 3 then boom() end\nend")

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), prog) }()
	select {
	case err := <-done:
		require.ErrorContains(t, err, "TIC()")
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not halt")
	}
	require.Equal(t, Halted, r.State())
	require.Equal(t, uint64(3), r.Frame().Tick)
	require.Contains(t, lines(), "Console halted")
}

func TestRuntime_StopEndsLoop(t *testing.T) {
	r, _ := newTestRuntime(t, Options{})
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), cart(t, "function TIC() cls(2) end")) }()

	require.Eventually(t, func() bool { return r.Frame().Tick >= 2 }, 5*time.Second, time.Millisecond)
	require.ErrorIs(t, r.Run(context.Background(), cart(t, "function TIC() end")), ErrBusy)
	r.Stop()
	require.NoError(t, <-done)
	require.Equal(t, Idle, r.State())
	require.Equal(t, uint8(2), r.Pixels()[0])
}

func TestRuntime_FrameDeadline(t *testing.T) {
	r, _ := newTestRuntime(t, Options{FrameDeadline: 20 * time.Millisecond})
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, cart(t, "function TIC() while true do end end")))
	err := r.Step(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, Halted, r.State())
}

func TestRuntime_StepBudget(t *testing.T) {
	r, _ := newTestRuntime(t, Options{StepBudget: 1000})
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, cart(t, "function TIC() while true do end end")))
	require.ErrorContains(t, r.Step(ctx), "step budget exceeded")
}
