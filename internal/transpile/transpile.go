// Package transpile rewrites the two user-facing source dialects into host
// script. Both translators are best-effort and tolerant: constructs they do
// not recognise pass through unchanged and problems are reported as
// warnings on the resulting Program rather than as errors.
package transpile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Dialect names a source language accepted by a Transpiler.
type Dialect string

const (
	// DialectEmbedded is the C-like microcontroller sketch dialect.
	DialectEmbedded Dialect = "embedded"
	// DialectScript is the Lua-like fantasy console dialect.
	DialectScript Dialect = "script"
)

// ErrUnknownDialect is returned by For when no transpiler handles a dialect.
var ErrUnknownDialect = errors.New("unknown dialect")

// EntryPoints records which well-known functions the output defines.
type EntryPoints struct {
	Setup bool
	Loop  bool
	Boot  bool
	Tic   bool
}

// Program is the output of a transpile run. It is recomputed on every run
// and never mutated afterwards.
type Program struct {
	Source      string
	EntryPoints EntryPoints
	Dialect     Dialect
	Warnings    []string
	Metadata    map[string]string
	// Sprites maps a sprite index to its packed 4bpp hex data (64 digits
	// for an 8x8 tile).
	Sprites map[int]string
}

// Transpiler converts source into a host script Program.
type Transpiler interface {
	Dialect() Dialect
	Transpile(source string) (Program, error)
}

// For returns the transpiler for d.
func For(d Dialect) (Transpiler, error) {
	switch d {
	case DialectEmbedded:
		return NewEmbedded(), nil
	case DialectScript:
		return NewScript(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, d)
}

// markerFor is the comment prepended to the first line of transpiled output.
// It keeps line numbers intact and lets a second run return its input.
func markerFor(d Dialect) string {
	return "/* canvas:transpiled " + string(d) + " */ "
}

// IsTranspiled reports whether src already carries the output marker for d.
func IsTranspiled(src string, d Dialect) bool {
	return strings.HasPrefix(src, markerFor(d))
}

var (
	setupRe = regexp.MustCompile(`\bfunction\s+setup\s*\(`)
	loopRe  = regexp.MustCompile(`\bfunction\s+loop\s*\(`)
	bootRe  = regexp.MustCompile(`\bfunction\s+BOOT\s*\(`)
	ticRe   = regexp.MustCompile(`\bfunction\s+TIC\s*\(`)
)

func detectEntryPoints(out string) EntryPoints {
	return EntryPoints{
		Setup: setupRe.MatchString(out),
		Loop:  loopRe.MatchString(out),
		Boot:  bootRe.MatchString(out),
		Tic:   ticRe.MatchString(out),
	}
}

// warnings collects problems in encounter order, dropping exact repeats.
type warnings struct {
	list []string
	seen map[string]bool
}

func (w *warnings) addf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	if w.seen[msg] {
		return
	}
	w.seen[msg] = true
	w.list = append(w.list, msg)
}
