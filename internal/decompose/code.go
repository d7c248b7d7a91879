package decompose

import (
	"fmt"
	"regexp"
	"strings"
)

// headerRe is a permissive "keyword identifier (args) ... {" header: C and
// Arduino typed functions, JS function declarations and Go funcs with an
// optional receiver.
var headerRe = regexp.MustCompile(`(?m)^[ \t]*(?:(?:export|public|private|protected|static|async|inline|virtual|extern)\s+)*(?:func\s*(?:\([^)\n]*\)\s*)?|function\s*\*?\s*|[A-Za-z_][\w:<>,\*&\[\]]*(?:[ \t]+[A-Za-z_][\w:<>,\*&\[\]]*)*[ \t]+\**)([A-Za-z_]\w*)\s*\(([^)]*)\)[^{;\n]*\{`)

// Words that look like headers but open control blocks.
var notFunctions = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "else": true, "do": true, "sizeof": true, "with": true,
}

var delimiterRe = regexp.MustCompile(`(?m)^[ \t]*(?://+|#+|--+|;+|/\*+)?[ \t]*={3,}.*$`)

func splitCode(content string) []Instance {
	var out []Instance
	pos := 0
	for pos < len(content) {
		m := headerRe.FindStringSubmatchIndex(content[pos:])
		if m == nil {
			break
		}
		start, open := pos+m[0], pos+m[1]-1
		name := content[pos+m[2] : pos+m[3]]
		if notFunctions[name] {
			pos = pos + m[1]
			continue
		}
		start += len(content[start:]) - len(strings.TrimLeft(content[start:], " \t"))
		end := matchBrace(content, open)
		out = append(out, part(content, name, KindFunction, start, end))
		pos = end
	}
	if len(out) > 0 {
		return out
	}
	return splitSections(content)
}

// matchBrace returns the offset just past the brace closing the one at
// open, skipping strings and comments. Unbalanced input runs to the end.
func matchBrace(s string, open int) int {
	depth := 1
	for i := open + 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'', '`':
			i = skipQuoted(s, i, c)
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
					i += nl
				} else {
					return len(s)
				}
			} else if i+1 < len(s) && s[i+1] == '*' {
				if e := strings.Index(s[i+2:], "*/"); e >= 0 {
					i += e + 3
				} else {
					return len(s)
				}
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

// skipQuoted returns the offset of the closing quote of the literal opened
// at i, or the end of the line for an unterminated one.
func skipQuoted(s string, i int, q byte) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		case '\n':
			if q != '`' {
				return j
			}
		}
	}
	return len(s)
}

// splitSections cuts on delimiter comment lines of '=' characters. Fewer
// than two non-blank sections is no split.
func splitSections(content string) []Instance {
	locs := delimiterRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}
	var out []Instance
	start := 0
	add := func(end int) {
		if strings.TrimSpace(content[start:end]) != "" {
			out = append(out, part(content, fmt.Sprintf("Section %d", len(out)+1), KindSection, start, end))
		}
	}
	for _, loc := range locs {
		add(loc[0])
		start = loc[1]
		if start < len(content) && content[start] == '\n' {
			start++
		}
	}
	add(len(content))
	if len(out) < 2 {
		return nil
	}
	return out
}
