package workspace

// Surface is what a mode initializer builds. The controller probes it for
// the optional capabilities below; a nil surface shows no content.
type Surface any

// TextAccessor is implemented by surfaces whose edits are saved back into
// the buffer.
type TextAccessor interface {
	Text() string
}

// TextSetter is implemented by surfaces with a settable text area.
type TextSetter interface {
	SetText(text string)
}

// Renderer is implemented by surfaces that display the buffer without
// editing it.
type Renderer interface {
	Render(buf Buffer)
}

// Teardowner releases what a surface holds (listeners, timers) before the
// controller drops it.
type Teardowner interface {
	Teardown()
}

// Factory builds a fresh surface for a mode.
type Factory func(mode Mode) Surface
