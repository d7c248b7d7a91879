package shared

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearRemoteEnv(t *testing.T) {
	for _, v := range []string{"SSH_TTY", "SSH_CLIENT", "SSH_CONNECTION", "TMUX", "STY"} {
		t.Setenv(v, "")
	}
}

func TestShouldUseOSC52(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected bool
	}{
		{name: "no env vars set", envVars: map[string]string{}, expected: false},
		{name: "SSH_TTY set", envVars: map[string]string{"SSH_TTY": "/dev/pts/0"}, expected: true},
		{name: "SSH_CONNECTION set", envVars: map[string]string{"SSH_CONNECTION": "1.2.3.4 5 6.7.8.9 22"}, expected: true},
		{name: "TMUX set", envVars: map[string]string{"TMUX": "/tmp/tmux-1000/default,1,0"}, expected: true},
		{name: "STY set", envVars: map[string]string{"STY": "1234.pts-0"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearRemoteEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			require.Equal(t, tt.expected, ShouldUseOSC52())
		})
	}
}

func TestSystemClipboard_OSC52OverSSH(t *testing.T) {
	clearRemoteEnv(t)
	t.Setenv("SSH_TTY", "/dev/pts/3")

	var out bytes.Buffer
	require.NoError(t, SystemClipboard{Out: &out}.Copy("void loop() {}"))
	require.Contains(t, out.String(), base64.StdEncoding.EncodeToString([]byte("void loop() {}")))
	require.Contains(t, out.String(), "\x1b]52;c;")
}

func TestMemoryClipboard(t *testing.T) {
	c := &MemoryClipboard{}
	require.NoError(t, c.Copy("a"))
	require.Equal(t, []string{"a"}, c.Copied)

	c.Err = errors.New("no display")
	require.Error(t, c.Copy("b"))
	require.Len(t, c.Copied, 1)
}
