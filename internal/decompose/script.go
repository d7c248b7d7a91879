package decompose

import (
	"regexp"
	"strings"
)

var luaFuncRe = regexp.MustCompile(`(?m)^[ \t]*(?:local[ \t]+)?function[ \t]+([A-Za-z_][\w.:]*)[ \t]*\(`)

// splitScript finds Lua-style function definitions and closes each by
// keyword depth: function, if, do and repeat open; end and until close.
// for and while open through their do.
func splitScript(content string) []Instance {
	var out []Instance
	pos := 0
	for pos < len(content) {
		m := luaFuncRe.FindStringSubmatchIndex(content[pos:])
		if m == nil {
			break
		}
		start := pos + m[0]
		start += len(content[start:]) - len(strings.TrimLeft(content[start:], " \t"))
		name := content[pos+m[2] : pos+m[3]]
		end := matchEnd(content, strings.Index(content[start:], "function")+start+len("function"))
		out = append(out, part(content, name, KindFunction, start, end))
		pos = end
	}
	return out
}

var luaOpeners = map[string]int{"function": 1, "if": 1, "do": 1, "repeat": 1, "end": -1, "until": -1}

// matchEnd returns the offset just past the keyword that closes the block
// opened before i, skipping strings and comments.
func matchEnd(s string, i int) int {
	depth := 1
	for i < len(s) {
		c := s[i]
		switch {
		case strings.HasPrefix(s[i:], "--"):
			if lvl, ok := luaLongOpen(s, i+2); ok {
				i = luaLongClose(s, i+2, lvl)
				continue
			}
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return len(s)
			}
			i += nl + 1
		case c == '"' || c == '\'':
			i = skipQuoted(s, i, c) + 1
		case c == '[':
			if lvl, ok := luaLongOpen(s, i); ok {
				i = luaLongClose(s, i, lvl)
				continue
			}
			i++
		case isWordStart(c):
			j := i
			for j < len(s) && isWord(s[j]) {
				j++
			}
			word := s[i:j]
			if d, ok := luaOpeners[word]; ok {
				depth += d
				if depth == 0 {
					if word == "until" {
						return untilEnd(s, j)
					}
					return j
				}
			}
			i = j
		default:
			i++
		}
	}
	return len(s)
}

// untilEnd extends a repeat's closing "until cond" to the end of its line.
func untilEnd(s string, j int) int {
	if nl := strings.IndexByte(s[j:], '\n'); nl >= 0 {
		return j + nl
	}
	return len(s)
}

func luaLongOpen(s string, i int) (int, bool) {
	if i >= len(s) || s[i] != '[' {
		return 0, false
	}
	j := i + 1
	for j < len(s) && s[j] == '=' {
		j++
	}
	if j < len(s) && s[j] == '[' {
		return j - i - 1, true
	}
	return 0, false
}

func luaLongClose(s string, i, level int) int {
	closer := "]" + strings.Repeat("=", level) + "]"
	if k := strings.Index(s[i:], closer); k >= 0 {
		return i + k + len(closer)
	}
	return len(s)
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWord(c byte) bool { return isWordStart(c) || (c >= '0' && c <= '9') }
