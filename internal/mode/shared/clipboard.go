// Package shared provides utilities shared between mode surfaces.
package shared

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/x/ansi"
)

// Clipboard defines the interface for clipboard operations.
type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard copies through the OS clipboard tools. Over SSH or inside
// a multiplexer the remote side has no usable clipboard, so the text is sent
// to the local terminal as an OSC 52 sequence instead.
type SystemClipboard struct {
	// Out receives OSC 52 sequences. Nil means os.Stdout.
	Out io.Writer
}

// Copy copies text to the clipboard.
func (c SystemClipboard) Copy(text string) error {
	if !ShouldUseOSC52() {
		if err := clipboard.WriteAll(text); err == nil {
			return nil
		}
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := io.WriteString(out, ansi.SetSystemClipboard(text))
	return err
}

// ShouldUseOSC52 reports whether the session is remote or multiplexed.
func ShouldUseOSC52() bool {
	for _, v := range []string{"SSH_TTY", "SSH_CLIENT", "SSH_CONNECTION", "TMUX", "STY"} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// MemoryClipboard records copies for tests.
type MemoryClipboard struct {
	Copied []string
	Err    error
}

// Copy records text, or returns Err when set.
func (m *MemoryClipboard) Copy(text string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Copied = append(m.Copied, text)
	return nil
}
