package transpile

import (
	"regexp"
	"strings"

	"github.com/zjrosen/canvas/internal/log"
)

// cTypes matches the scalar type names of the embedded dialect. Longer
// spellings come first so "unsigned long" wins over "unsigned".
const cTypes = `unsigned\s+long\s+long|unsigned\s+long|unsigned\s+int|unsigned\s+char|unsigned\s+short|unsigned|` +
	`long\s+long|long\s+int|long|int|short|float|double|char|bool|boolean|byte|word|String|size_t|u?int(?:8|16|32|64)_t`

var (
	includeRe = regexp.MustCompile(`^(\s*)#\s*include\b\s*(.*?)\s*$`)
	defineRe  = regexp.MustCompile(`^(\s*)#\s*define\s+([A-Za-z_]\w*)(?:\s+(.*?))?\s*$`)
	ppRe      = regexp.MustCompile(`^(\s*)(#.*?)\s*$`)

	sigRe   = regexp.MustCompile(`\b(?:(?:static|inline)\s+)*(void|` + cTypes + `)\s*[*&]?\s+([A-Za-z_]\w*)\s*\(([^()]*)\)\s*(\{|$)`)
	protoRe = regexp.MustCompile(`^(\s*)((?:(?:static|inline|extern)\s+)*(?:void|` + cTypes + `)\s*[*&]?\s+[A-Za-z_]\w*\s*\([^()]*\)\s*;)\s*$`)

	declRe     = regexp.MustCompile(`((?:\b(?:const|static|volatile)\s+)*)\b(` + cTypes + `)\b\s*[*&]?\s*([A-Za-z_]\w*)\s*(\[[^\]]*\])?\s*([=;,])`)
	castRe     = regexp.MustCompile(`\(\s*(?:const\s+)?(?:` + cTypes + `)\s*\*?\s*\)\s*`)
	intCallRe  = regexp.MustCompile(`\b(?:int|long|byte|word|short|unsigned)\s*\(`)
	realCallRe = regexp.MustCompile(`\b(?:float|double)\s*\(`)

	delayRe    = regexp.MustCompile(`\b(delay|delayMicroseconds)\s*\(`)
	constantRe = regexp.MustCompile(`\b(HIGH|LOW|OUTPUT|INPUT_PULLUP|INPUT)\b`)
	paramIdent = regexp.MustCompile(`([A-Za-z_]\w*)\s*$`)
)

// linePass is one rewrite applied to every line of the source. mask marks
// the bytes of the line that are code rather than string or comment text.
type linePass struct {
	name  string
	apply func(line string, mask []bool, lineNo int, w *warnings) string
}

// Embedded translates microcontroller sketches into host script.
type Embedded struct {
	passes []linePass
}

// NewEmbedded returns the embedded-dialect transpiler with its passes in
// their fixed order.
func NewEmbedded() *Embedded {
	return &Embedded{passes: []linePass{
		{name: "preprocessor", apply: rewritePreprocessor},
		{name: "declarations", apply: rewriteDeclarations},
		{name: "signatures", apply: rewriteSignatures},
		{name: "delays", apply: rewriteDelays},
		{name: "constants", apply: rewriteConstants},
	}}
}

func (e *Embedded) Dialect() Dialect { return DialectEmbedded }

// Passes lists the pass names in application order.
func (e *Embedded) Passes() []string {
	names := make([]string, len(e.passes))
	for i, p := range e.passes {
		names[i] = p.name
	}
	return names
}

// Transpile rewrites source. Output already carrying the marker is returned
// unchanged.
func (e *Embedded) Transpile(source string) (Program, error) {
	var w warnings
	out := source
	if !IsTranspiled(source, DialectEmbedded) {
		for _, p := range e.passes {
			out = runLinePass(out, p, &w)
		}
		out = markerFor(DialectEmbedded) + out
	}
	checkBraces(out, &w)

	prog := Program{
		Source:      out,
		EntryPoints: detectEntryPoints(out),
		Dialect:     DialectEmbedded,
		Warnings:    w.list,
		Metadata:    map[string]string{},
		Sprites:     map[int]string{},
	}
	log.Debug(log.CatTranspile, "Transpiled sketch",
		"bytes", len(out), "warnings", len(prog.Warnings),
		"setup", prog.EntryPoints.Setup, "loop", prog.EntryPoints.Loop)
	return prog, nil
}

func runLinePass(src string, p linePass, w *warnings) string {
	lines := strings.Split(src, "\n")
	var sc cScanner
	for i, line := range lines {
		lines[i] = p.apply(line, sc.mask(line), i+1, w)
	}
	return strings.Join(lines, "\n")
}

// cScanner classifies bytes of C-like source, carrying an open block
// comment from one line to the next.
type cScanner struct {
	inBlock bool
}

func (s *cScanner) mask(line string) []bool {
	m := make([]bool, len(line))
	i := 0
	for i < len(line) {
		if s.inBlock {
			end := strings.Index(line[i:], "*/")
			if end < 0 {
				return m
			}
			i += end + 2
			s.inBlock = false
			continue
		}
		c := line[i]
		switch {
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return m
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			s.inBlock = true
			i += 2
		case c == '"' || c == '\'' || c == '`':
			j := i + 1
			for j < len(line) && line[j] != c {
				if line[j] == '\\' {
					j++
				}
				j++
			}
			i = j + 1
		default:
			m[i] = true
			i++
		}
	}
	return m
}

func allCode(mask []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if !mask[i] {
			return false
		}
	}
	return true
}

// replaceInCode substitutes every match of re that lies entirely in code.
func replaceInCode(line string, mask []bool, re *regexp.Regexp, repl func(m []int) string) string {
	matches := re.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return line
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[0] == m[1] || !allCode(mask, m[0], m[1]) {
			continue
		}
		b.WriteString(line[last:m[0]])
		b.WriteString(repl(m))
		last = m[1]
	}
	b.WriteString(line[last:])
	return b.String()
}

func group(line string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return line[m[2*n]:m[2*n+1]]
}

func firstCode(line string, mask []bool) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			if mask[i] {
				return i
			}
			return -1
		}
	}
	return -1
}

func stripTrailingComment(s string) string {
	for _, tok := range []string{"//", "/*"} {
		if i := strings.Index(s, tok); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// Pass 1: includes become comment markers, object-like defines become
// constants, and other directives are commented out.
func rewritePreprocessor(line string, mask []bool, lineNo int, w *warnings) string {
	i := firstCode(line, mask)
	if i < 0 || line[i] != '#' {
		return line
	}
	if m := includeRe.FindStringSubmatch(line); m != nil {
		return m[1] + "// #include " + m[2]
	}
	if m := defineRe.FindStringSubmatch(line); m != nil {
		value := stripTrailingComment(m[3])
		if value == "" {
			value = "true"
		}
		return m[1] + "const " + m[2] + " = " + value + ";"
	}
	m := ppRe.FindStringSubmatch(line)
	w.addf("line %d: preprocessor directive ignored: %s", lineNo, m[2])
	return m[1] + "// " + m[2]
}

// Pass 2: typed declarations become let/const bindings. Function
// signatures and prototypes are left for pass 3.
func rewriteDeclarations(line string, mask []bool, _ int, _ *warnings) string {
	mask = protectSignatures(line, mask)

	// Brace initializers of array declarators become array literals.
	// The swap keeps byte offsets so the mask stays valid.
	buf := []byte(line)
	for _, m := range declRe.FindAllStringSubmatchIndex(line, -1) {
		if !allCode(mask, m[0], m[1]) || group(line, m, 4) == "" || group(line, m, 5) != "=" {
			continue
		}
		convertBraceInit(buf, mask, m[1])
	}
	line = string(buf)

	line = replaceInCode(line, mask, declRe, func(m []int) string {
		kw := "let"
		if strings.Contains(group(line, m, 1), "const") {
			kw = "const"
		}
		name := group(line, m, 3)
		isArray := group(line, m, 4) != ""
		switch rest := group(line, m, 5); {
		case rest == "=":
			return kw + " " + name + " ="
		case isArray:
			return kw + " " + name + " = []" + rest
		default:
			return kw + " " + name + rest
		}
	})

	mask = protectSignatures(line, (&cScanner{}).mask(line))
	line = replaceInCode(line, mask, castRe, func([]int) string { return "" })
	mask = protectSignatures(line, (&cScanner{}).mask(line))
	line = replaceInCode(line, mask, intCallRe, func([]int) string { return "Math.trunc(" })
	mask = protectSignatures(line, (&cScanner{}).mask(line))
	return replaceInCode(line, mask, realCallRe, func([]int) string { return "Number(" })
}

// protectSignatures returns a copy of mask with function headers cleared.
func protectSignatures(line string, mask []bool) []bool {
	out := append([]bool(nil), mask...)
	for _, re := range []*regexp.Regexp{sigRe, protoRe} {
		for _, m := range re.FindAllStringIndex(line, -1) {
			for i := m[0]; i < m[1]; i++ {
				out[i] = false
			}
		}
	}
	return out
}

// convertBraceInit turns the brace group starting after pos into brackets
// when it closes on the same line.
func convertBraceInit(buf []byte, mask []bool, pos int) {
	i := pos
	for i < len(buf) && (buf[i] == ' ' || buf[i] == '\t') {
		i++
	}
	if i >= len(buf) || buf[i] != '{' || !mask[i] {
		return
	}
	depth := 0
	var opens []int
	for j := i; j < len(buf); j++ {
		if !mask[j] {
			continue
		}
		switch buf[j] {
		case '{':
			depth++
			opens = append(opens, j)
		case '}':
			depth--
			opens = append(opens, j)
			if depth == 0 {
				for _, k := range opens {
					if buf[k] == '{' {
						buf[k] = '['
					} else {
						buf[k] = ']'
					}
				}
				return
			}
		}
	}
}

// Pass 3: function signatures become async host functions; prototypes are
// commented out.
func rewriteSignatures(line string, mask []bool, _ int, _ *warnings) string {
	if m := protoRe.FindStringSubmatchIndex(line); m != nil && allCode(mask, m[4], m[5]) {
		return group(line, m, 1) + "// prototype: " + group(line, m, 2)
	}
	return replaceInCode(line, mask, sigRe, func(m []int) string {
		name := group(line, m, 2)
		header := "async function " + name + "(" + strings.Join(paramNames(group(line, m, 3)), ", ") + ")"
		if group(line, m, 4) == "{" {
			header += " {"
		}
		return header
	})
}

func paramNames(params string) []string {
	var names []string
	for _, p := range strings.Split(params, ",") {
		p = strings.TrimSpace(p)
		if i := strings.Index(p, "="); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		if i := strings.Index(p, "["); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		if p == "" || p == "void" {
			continue
		}
		if m := paramIdent.FindStringSubmatch(p); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

// Pass 4: blocking delays are awaited.
func rewriteDelays(line string, mask []bool, _ int, _ *warnings) string {
	return replaceInCode(line, mask, delayRe, func(m []int) string {
		before := strings.TrimRight(line[:m[0]], " \t")
		text := line[m[0]:m[1]]
		if strings.HasSuffix(before, "await") || strings.HasSuffix(before, "function") || strings.HasSuffix(before, ".") {
			return text
		}
		return "await " + text
	})
}

// Pass 5: pin constants become the string literals the runtime uses.
func rewriteConstants(line string, mask []bool, _ int, _ *warnings) string {
	return replaceInCode(line, mask, constantRe, func(m []int) string {
		return `"` + group(line, m, 1) + `"`
	})
}

// checkBraces records a warning when code braces do not balance.
func checkBraces(src string, w *warnings) {
	var sc cScanner
	depth := 0
	for n, line := range strings.Split(src, "\n") {
		mask := sc.mask(line)
		for i := 0; i < len(line); i++ {
			if !mask[i] {
				continue
			}
			switch line[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth < 0 {
					w.addf("line %d: unmatched closing brace", n+1)
					depth = 0
				}
			}
		}
	}
	if depth > 0 {
		w.addf("%d unclosed block(s) at end of input", depth)
	}
}
