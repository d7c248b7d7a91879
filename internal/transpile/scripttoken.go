package transpile

import "strings"

type stKind int

const (
	stSpace stKind = iota
	stNewline
	stComment     // -- line comment, text includes the dashes
	stLongComment // --[[ ... ]]
	stString
	stLongString // [[ ... ]]
	stNumber
	stName
	stOp
)

type stToken struct {
	kind stKind
	text string
	line int
}

func (t stToken) is(text string) bool {
	return (t.kind == stName || t.kind == stOp) && t.text == text
}

func (t stToken) blank() bool {
	return t.kind == stSpace || t.kind == stNewline
}

var scriptOps = []string{"...", "..", "==", "~=", "<=", ">=", "//", "::", "<<", ">>"}

// tokenizeScript splits Lua-like source into tokens, keeping whitespace and
// newlines so output can preserve the original layout. It never fails: an
// unterminated string or comment runs to the end of its line or input.
func tokenizeScript(src string, w *warnings) []stToken {
	var toks []stToken
	line := 1
	emit := func(k stKind, text string) {
		toks = append(toks, stToken{kind: k, text: text, line: line})
		line += strings.Count(text, "\n")
	}

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			emit(stNewline, "\n")
			i++

		case c == ' ' || c == '\t' || c == '\r':
			j := i
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\r') {
				j++
			}
			emit(stSpace, src[i:j])
			i = j

		case strings.HasPrefix(src[i:], "--"):
			if level, ok := longBracket(src, i+2); ok {
				end := closeLongBracket(src, i+2, level)
				if end < 0 {
					w.addf("line %d: unterminated block comment", line)
					end = len(src)
				}
				emit(stLongComment, src[i:end])
				i = end
				continue
			}
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				j = len(src) - i
			}
			emit(stComment, src[i:i+j])
			i += j

		case c == '[':
			if level, ok := longBracket(src, i); ok {
				end := closeLongBracket(src, i, level)
				if end < 0 {
					w.addf("line %d: unterminated long string", line)
					end = len(src)
				}
				emit(stLongString, src[i:end])
				i = end
				continue
			}
			emit(stOp, "[")
			i++

		case c == '"' || c == '\'':
			j := i + 1
			for j < len(src) && src[j] != c && src[j] != '\n' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) || src[j] != c {
				w.addf("line %d: unterminated string", line)
				emit(stString, src[i:min(j, len(src))]+string(c))
				i = min(j, len(src))
				continue
			}
			emit(stString, src[i:j+1])
			i = j + 1

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := i
			if c == '0' && i+1 < len(src) && (src[i+1] == 'x' || src[i+1] == 'X') {
				j += 2
				for j < len(src) && strings.IndexByte("0123456789abcdefABCDEF", src[j]) >= 0 {
					j++
				}
			} else {
				for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
					if src[j] == '.' && j+1 < len(src) && src[j+1] == '.' {
						break
					}
					j++
				}
				if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
					k := j + 1
					if k < len(src) && (src[k] == '+' || src[k] == '-') {
						k++
					}
					if k < len(src) && isDigit(src[k]) {
						j = k
						for j < len(src) && isDigit(src[j]) {
							j++
						}
					}
				}
			}
			emit(stNumber, src[i:j])
			i = j

		case isNameStart(c):
			j := i
			for j < len(src) && (isNameStart(src[j]) || isDigit(src[j])) {
				j++
			}
			emit(stName, src[i:j])
			i = j

		default:
			op := string(c)
			for _, o := range scriptOps {
				if strings.HasPrefix(src[i:], o) {
					op = o
					break
				}
			}
			emit(stOp, op)
			i += len(op)
		}
	}
	return toks
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// longBracket reports whether src[i:] opens a long bracket such as [[ or
// [==[ and returns its level.
func longBracket(src string, i int) (int, bool) {
	if i >= len(src) || src[i] != '[' {
		return 0, false
	}
	j := i + 1
	for j < len(src) && src[j] == '=' {
		j++
	}
	if j < len(src) && src[j] == '[' {
		return j - i - 1, true
	}
	return 0, false
}

// closeLongBracket returns the offset just past the matching close bracket,
// or -1.
func closeLongBracket(src string, open, level int) int {
	closer := "]" + strings.Repeat("=", level) + "]"
	start := open + level + 2
	if start > len(src) {
		return -1
	}
	k := strings.Index(src[start:], closer)
	if k < 0 {
		return -1
	}
	return start + k + len(closer)
}

// longBody returns the content between the brackets of a long string or
// comment token.
func longBody(text string) string {
	text = strings.TrimPrefix(text, "--")
	level, _ := longBracket(text, 0)
	body := text[level+2:]
	return strings.TrimSuffix(body, "]"+strings.Repeat("=", level)+"]")
}
