package transpile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zjrosen/canvas/internal/log"
)

var (
	metaLineRe = regexp.MustCompile(`^([A-Za-z_][\w-]*)\s*:\s*(.*?)\s*$`)
	tileLineRe = regexp.MustCompile(`^(\d{3}):([0-9a-fA-F]+)$`)
)

// Script translates the Lua-like console dialect into host script. It works
// on a token stream and closes blocks with an opener stack, so nested and
// single-line structures balance.
type Script struct{}

// NewScript returns the script-dialect transpiler.
func NewScript() *Script { return &Script{} }

func (s *Script) Dialect() Dialect { return DialectScript }

// Transpile rewrites source. Output already carrying the marker is returned
// unchanged.
func (s *Script) Transpile(source string) (Program, error) {
	prog := Program{
		Dialect:  DialectScript,
		Metadata: map[string]string{},
		Sprites:  map[int]string{},
	}
	if IsTranspiled(source, DialectScript) {
		prog.Source = source
		prog.EntryPoints = detectEntryPoints(source)
		return prog, nil
	}

	var w warnings
	toks := tokenizeScript(source, &w)
	collectHeader(toks, prog.Metadata, prog.Sprites)
	tr := &translator{toks: toks, st: &scriptState{w: &w}}
	prog.Source = markerFor(DialectScript) + tr.run()
	prog.EntryPoints = detectEntryPoints(prog.Source)
	prog.Warnings = w.list

	log.Debug(log.CatTranspile, "Transpiled script",
		"bytes", len(prog.Source), "warnings", len(prog.Warnings),
		"tic", prog.EntryPoints.Tic, "sprites", len(prog.Sprites))
	return prog, nil
}

// collectHeader lifts "-- key: value" lines that precede the first code
// token into meta, and tile data sections into sprites.
func collectHeader(toks []stToken, meta map[string]string, sprites map[int]string) {
	seenCode := false
	section := -1
	for _, t := range toks {
		switch t.kind {
		case stSpace, stNewline, stLongComment:
			continue
		case stComment:
		default:
			seenCode = true
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(t.text, "--"))
		switch body {
		case "<TILES>":
			section = 0
			continue
		case "<SPRITES>":
			section = 256
			continue
		case "</TILES>", "</SPRITES>":
			section = -1
			continue
		}
		if section >= 0 {
			if m := tileLineRe.FindStringSubmatch(body); m != nil {
				idx, _ := strconv.Atoi(m[1])
				sprites[section+idx] = strings.ToLower(m[2])
			}
			continue
		}
		if !seenCode {
			if m := metaLineRe.FindStringSubmatch(body); m != nil {
				meta[m[1]] = m[2]
			}
		}
	}
}

type scriptState struct {
	w   *warnings
	tmp int
}

func (s *scriptState) temp(prefix string) string {
	s.tmp++
	return fmt.Sprintf("__%s%d", prefix, s.tmp)
}

type opener struct {
	kind string
	line int
}

type translator struct {
	toks  []stToken
	pos   int
	out   []byte
	stack []opener
	st    *scriptState

	// await is "then" or "do" while an if/while condition is being copied.
	await string
	// depth is the paren/bracket nesting of copied tokens.
	depth      int
	untilOpen  bool
	untilDepth int
}

func (t *translator) run() string {
	for t.pos < len(t.toks) {
		t.step()
	}
	t.closeUntil()
	for len(t.stack) > 0 {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.st.w.addf("line %d: unclosed %s block", top.line, top.kind)
		t.write("\n}")
	}
	return string(t.out)
}

// sub translates a token range with a fresh block stack.
func (t *translator) sub(toks []stToken) string {
	s := &translator{toks: toks, st: t.st}
	return strings.TrimSpace(s.run())
}

func (t *translator) write(s string) { t.out = append(t.out, s...) }

// trimRight drops spaces already written, so a closing ") {" hugs the
// condition it ends.
func (t *translator) trimRight() {
	for len(t.out) > 0 && (t.out[len(t.out)-1] == ' ' || t.out[len(t.out)-1] == '\t') {
		t.out = t.out[:len(t.out)-1]
	}
}

// skipSpaces advances past space tokens following the current one.
func (t *translator) skipSpaces() {
	for t.pos+1 < len(t.toks) && t.toks[t.pos+1].kind == stSpace {
		t.pos++
	}
}

func (t *translator) push(kind string, line int) {
	t.stack = append(t.stack, opener{kind: kind, line: line})
}

func (t *translator) pop(tok stToken) bool {
	if len(t.stack) == 0 {
		t.st.w.addf("line %d: %s without an open block", tok.line, tok.text)
		return false
	}
	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	if tok.text == "until" && top.kind != "repeat" {
		t.st.w.addf("line %d: until closes %s opened at line %d", tok.line, top.kind, top.line)
	}
	if tok.text == "end" && top.kind == "repeat" {
		t.st.w.addf("line %d: end closes repeat opened at line %d", tok.line, top.line)
	}
	return true
}

func (t *translator) closeUntil() {
	if t.untilOpen {
		t.trimRight()
		t.write("))")
		t.untilOpen = false
	}
}

// next returns the index of the first non-blank token at or after i.
func (t *translator) next(i int) int {
	for i < len(t.toks) && t.toks[i].blank() {
		i++
	}
	return i
}

func (t *translator) at(i int) stToken {
	if i < len(t.toks) {
		return t.toks[i]
	}
	return stToken{kind: stSpace}
}

// matching returns the index of the token closing the group opened at i.
func (t *translator) matching(i int, open, close string) int {
	depth := 0
	for k := i; k < len(t.toks); k++ {
		switch {
		case t.toks[k].is(open):
			depth++
		case t.toks[k].is(close):
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

func (t *translator) step() {
	tok := t.toks[t.pos]
	switch tok.kind {
	case stNewline:
		if t.untilOpen && t.depth <= t.untilDepth {
			t.closeUntil()
		}
		t.write("\n")
	case stComment:
		t.write("//" + strings.TrimPrefix(tok.text, "--"))
	case stLongComment:
		t.write("/*" + strings.ReplaceAll(longBody(tok.text), "*/", "* /") + "*/")
	case stLongString:
		t.write(backtickString(strings.TrimPrefix(longBody(tok.text), "\n")))
	case stName:
		t.name(tok)
		return
	case stOp:
		t.op(tok)
		return
	default:
		t.write(tok.text)
	}
	t.pos++
}

func backtickString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	return "`" + s + "`"
}

func (t *translator) name(tok stToken) {
	switch tok.text {
	case "local":
		t.local()
		return
	case "function":
		t.function()
		return
	case "for":
		t.forLoop()
		return
	case "if":
		t.write("if (")
		t.push("if", tok.line)
		t.await = "then"
		t.skipSpaces()
	case "then":
		if t.await == "then" {
			t.trimRight()
			t.write(") {")
			t.await = ""
		} else {
			t.st.w.addf("line %d: then without if", tok.line)
		}
	case "elseif":
		if len(t.stack) == 0 || t.stack[len(t.stack)-1].kind != "if" {
			t.st.w.addf("line %d: elseif outside if", tok.line)
		}
		t.write("} else if (")
		t.await = "then"
		t.skipSpaces()
	case "else":
		t.write("} else {")
	case "while":
		t.write("while (")
		t.push("while", tok.line)
		t.await = "do"
		t.skipSpaces()
	case "do":
		if t.await == "do" {
			t.trimRight()
			t.write(") {")
			t.await = ""
		} else {
			t.write("{")
			t.push("do", tok.line)
		}
	case "repeat":
		t.write("do {")
		t.push("repeat", tok.line)
	case "until":
		t.pop(tok)
		t.write("} while (!(")
		t.untilOpen = true
		t.untilDepth = t.depth
		t.skipSpaces()
	case "end":
		if t.pop(tok) {
			t.write("}")
		} else {
			t.write("/* end */")
		}
	case "and":
		t.write("&&")
	case "or":
		t.write("||")
	case "not":
		t.write("!")
		t.skipSpaces()
	case "nil":
		t.write("null")
	case "goto":
		t.st.w.addf("line %d: goto is not supported", tok.line)
		t.write(tok.text)
	default:
		t.write(tok.text)
	}
	t.pos++
}

func (t *translator) op(tok stToken) {
	switch tok.text {
	case "..":
		t.write("+")
	case "~=":
		t.write("!=")
	case "//":
		t.st.w.addf("line %d: floor division approximated with /", tok.line)
		t.write("/")
	case "^":
		t.write("**")
	case "...":
		t.st.w.addf("line %d: varargs are not supported", tok.line)
		t.write("null")
	case "::":
		t.st.w.addf("line %d: labels are not supported", tok.line)
		t.write("//")
	case "#":
		t.length()
		return
	case "{":
		t.table()
		return
	case ":":
		if t.methodCall() {
			return
		}
		t.write(":")
	case "(", "[":
		t.depth++
		t.write(tok.text)
	case ")", "]":
		t.depth--
		t.write(tok.text)
	case ";":
		if t.untilOpen && t.depth <= t.untilDepth {
			t.closeUntil()
		}
		t.write(";")
	default:
		t.write(tok.text)
	}
	t.pos++
}

// methodCall rewrites obj:m(args) into obj.m(obj, args).
func (t *translator) methodCall() bool {
	if t.pos == 0 || t.toks[t.pos-1].kind != stName {
		return false
	}
	first := t.pos - 1
	for first >= 2 && t.toks[first-1].is(".") && t.toks[first-2].kind == stName {
		first -= 2
	}
	obj := joinText(t.toks[first:t.pos])
	m, paren := t.at(t.pos+1), t.at(t.pos+2)
	if m.kind != stName || !paren.is("(") {
		return false
	}
	t.write("." + m.text + "(" + obj)
	if !t.at(t.next(t.pos + 3)).is(")") {
		t.write(", ")
	}
	t.depth++
	t.pos += 3
	return true
}

func (t *translator) local() {
	line := t.toks[t.pos].line
	j := t.next(t.pos + 1)
	if t.at(j).is("function") {
		t.pos = j
		t.function()
		return
	}

	var names []string
	konst := false
	for {
		if t.at(j).kind != stName {
			break
		}
		names = append(names, t.at(j).text)
		j = t.next(j + 1)
		if t.at(j).is("<") {
			attr := t.at(t.next(j + 1))
			if attr.is("const") || attr.is("close") {
				konst = konst || attr.is("const")
				j = t.next(t.next(j+1) + 1)
				if t.at(j).is(">") {
					j = t.next(j + 1)
				}
			}
		}
		if !t.at(j).is(",") {
			break
		}
		j = t.next(j + 1)
	}
	if len(names) == 0 {
		t.st.w.addf("line %d: local without a name", line)
		t.write("let")
		t.pos++
		return
	}

	kw := "let "
	if konst {
		kw = "const "
	}
	if len(names) == 1 || !t.at(j).is("=") {
		// Single bindings flow through the normal token stream.
		t.write(kw + strings.Join(names, ", "))
		t.pos = t.lastNameEnd(j)
		return
	}

	end := t.statementEnd(j + 1)
	values := splitTopLevel(t.toks[j+1:end], ",")
	if len(values) > len(names) {
		t.st.w.addf("line %d: %d values assigned to %d names", line, len(values), len(names))
	}
	parts := make([]string, len(names))
	for i, n := range names {
		if i < len(values) {
			parts[i] = n + " = " + t.sub(values[i])
		} else {
			parts[i] = n
		}
	}
	t.write(kw + strings.Join(parts, ", "))
	t.pos = end
}

// lastNameEnd backs up from the lookahead index j to just past the last
// name or attribute token, so following whitespace is copied as-is.
func (t *translator) lastNameEnd(j int) int {
	k := j
	for k > t.pos && t.toks[k-1].blank() {
		k--
	}
	return k
}

// statementEnd returns the index that ends the expression starting at i:
// a newline or semicolon outside any group, unless the line ends with an
// operator that continues it.
func (t *translator) statementEnd(i int) int {
	depth, blocks := 0, 0
	last := stToken{kind: stSpace}
	for k := i; k < len(t.toks); k++ {
		tok := t.toks[k]
		switch {
		case tok.is("(") || tok.is("[") || tok.is("{"):
			depth++
		case tok.is(")") || tok.is("]") || tok.is("}"):
			depth--
		case tok.is("function") || tok.is("if") || tok.is("do") || tok.is("repeat"):
			blocks++
		case tok.is("end") || tok.is("until"):
			blocks--
		}
		if depth <= 0 && blocks <= 0 {
			if tok.is(";") {
				return k
			}
			if tok.kind == stNewline && !continues(last) {
				return k
			}
		}
		if !tok.blank() && tok.kind != stComment {
			last = tok
		}
	}
	return len(t.toks)
}

func continues(last stToken) bool {
	if last.kind == stSpace {
		return true
	}
	switch last.text {
	case ",", "=", "..", "+", "-", "*", "/", "//", "%", "^", "==", "~=", "<", ">", "<=", ">=", "and", "or", "not":
		return last.kind == stOp || last.kind == stName
	}
	return false
}

// splitTopLevel splits toks on sep tokens that are not nested in a group
// or block.
func splitTopLevel(toks []stToken, seps ...string) [][]stToken {
	var out [][]stToken
	depth, blocks, start := 0, 0, 0
	for k, tok := range toks {
		switch {
		case tok.is("(") || tok.is("[") || tok.is("{"):
			depth++
		case tok.is(")") || tok.is("]") || tok.is("}"):
			depth--
		case tok.is("function") || tok.is("if") || tok.is("do") || tok.is("repeat"):
			blocks++
		case tok.is("end") || tok.is("until"):
			blocks--
		}
		if depth == 0 && blocks == 0 {
			for _, s := range seps {
				if tok.is(s) {
					out = append(out, toks[start:k])
					start = k + 1
				}
			}
		}
	}
	return append(out, toks[start:])
}

func significant(toks []stToken) []stToken {
	var out []stToken
	for _, t := range toks {
		if !t.blank() && t.kind != stComment && t.kind != stLongComment {
			out = append(out, t)
		}
	}
	return out
}

func (t *translator) function() {
	start := t.toks[t.pos]
	j := t.next(t.pos + 1)

	var parts []string
	method := false
	if t.at(j).kind == stName {
		parts = append(parts, t.at(j).text)
		j++
		for {
			dot := t.at(j)
			if (dot.is(".") || dot.is(":")) && t.at(j+1).kind == stName {
				method = dot.is(":")
				parts = append(parts, t.at(j+1).text)
				j += 2
				if method {
					break
				}
				continue
			}
			break
		}
		j = t.next(j)
	}
	if !t.at(j).is("(") {
		t.st.w.addf("line %d: function without parameter list", start.line)
		t.write("function")
		t.pos++
		return
	}
	closeIdx := t.matching(j, "(", ")")
	if closeIdx < 0 {
		t.st.w.addf("line %d: unclosed parameter list", start.line)
		closeIdx = len(t.toks) - 1
	}

	var params []string
	if method {
		params = append(params, "self")
	}
	for _, p := range significant(t.toks[j+1 : closeIdx]) {
		switch {
		case p.kind == stName:
			params = append(params, p.text)
		case p.is("..."):
			t.st.w.addf("line %d: varargs are not supported", p.line)
		}
	}
	sig := "(" + strings.Join(params, ", ") + ") {"

	switch {
	case len(parts) == 0:
		t.write("function" + sig)
	case len(parts) == 1:
		t.write("function " + parts[0] + sig)
	default:
		t.write(strings.Join(parts, ".") + " = function" + sig)
	}
	t.push("function", start.line)
	t.pos = closeIdx + 1
}

func (t *translator) forLoop() {
	start := t.toks[t.pos]
	doIdx := -1
	depth := 0
	for k := t.pos + 1; k < len(t.toks); k++ {
		tok := t.toks[k]
		if tok.is("(") || tok.is("[") || tok.is("{") {
			depth++
		} else if tok.is(")") || tok.is("]") || tok.is("}") {
			depth--
		} else if depth == 0 && tok.is("do") {
			doIdx = k
			break
		}
	}
	if doIdx < 0 {
		t.st.w.addf("line %d: for without do", start.line)
		t.write("for")
		t.pos++
		return
	}
	header := t.toks[t.pos+1 : doIdx]
	sig := significant(header)

	var text string
	switch {
	case len(sig) >= 2 && sig[0].kind == stName && sig[1].is("="):
		text = t.numericFor(sig[0].text, header, start.line)
	default:
		text = t.genericFor(header, start.line)
	}
	t.write(text)
	t.push("for", start.line)
	t.pos = doIdx + 1
}

func (t *translator) numericFor(v string, header []stToken, line int) string {
	eq := 0
	for header[eq].kind != stOp || header[eq].text != "=" {
		eq++
	}
	exprs := splitTopLevel(header[eq+1:], ",")
	if len(exprs) < 2 || len(exprs) > 3 {
		t.st.w.addf("line %d: numeric for needs start, limit and optional step", line)
		return "for (;;) {"
	}
	from, limit := t.sub(exprs[0]), t.sub(exprs[1])
	if len(exprs) == 2 {
		return fmt.Sprintf("for (let %s = %s; %s <= %s; %s++) {", v, from, v, limit, v)
	}

	step := significant(exprs[2])
	stepText := t.sub(exprs[2])
	switch {
	case len(step) == 1 && step[0].kind == stNumber:
		if stepText == "1" {
			return fmt.Sprintf("for (let %s = %s; %s <= %s; %s++) {", v, from, v, limit, v)
		}
		return fmt.Sprintf("for (let %s = %s; %s <= %s; %s += %s) {", v, from, v, limit, v, stepText)
	case len(step) == 2 && step[0].is("-") && step[1].kind == stNumber:
		if step[1].text == "1" {
			return fmt.Sprintf("for (let %s = %s; %s >= %s; %s--) {", v, from, v, limit, v)
		}
		return fmt.Sprintf("for (let %s = %s; %s >= %s; %s -= %s) {", v, from, v, limit, v, step[1].text)
	}
	s := t.st.temp("step")
	return fmt.Sprintf("for (let %s = %s, %s = %s; %s > 0 ? %s <= %s : %s >= %s; %s += %s) {",
		v, from, s, stepText, s, v, limit, v, limit, v, s)
}

func (t *translator) genericFor(header []stToken, line int) string {
	inIdx := -1
	for k, tok := range header {
		if tok.is("in") {
			inIdx = k
			break
		}
	}
	if inIdx < 0 {
		t.st.w.addf("line %d: unrecognised for loop", line)
		return "while (false) {"
	}
	var names []string
	for _, tok := range significant(header[:inIdx]) {
		if tok.kind == stName {
			names = append(names, tok.text)
		}
	}
	iter := significant(header[inIdx+1:])
	if len(names) == 0 || len(iter) < 3 || iter[0].kind != stName || !iter[1].is("(") || !iter[len(iter)-1].is(")") ||
		(iter[0].text != "ipairs" && iter[0].text != "pairs") {
		t.st.w.addf("line %d: only ipairs and pairs loops are supported", line)
		return "while (false) {"
	}

	// Translate the argument list between the iterator's parentheses.
	open := -1
	for k := inIdx + 1; k < len(header); k++ {
		if header[k].is("(") {
			open = k
			break
		}
	}
	closeIdx := len(header) - 1
	for !header[closeIdx].is(")") {
		closeIdx--
	}
	subject := t.sub(header[open+1 : closeIdx])

	i := t.st.temp("i")
	list := t.st.temp("list")
	var b strings.Builder
	if iter[0].text == "ipairs" {
		fmt.Fprintf(&b, "for (let %s = 0, %s = ivalues(%s); %s < len(%s); %s++) {", i, list, subject, i, list, i)
		fmt.Fprintf(&b, " let %s = %s + 1;", names[0], i)
		if len(names) > 1 {
			fmt.Fprintf(&b, " let %s = %s[%s];", names[1], list, i)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "for (let %s = 0, %s = keys(%s); %s < len(%s); %s++) {", i, list, subject, i, list, i)
	fmt.Fprintf(&b, " let %s = %s[%s];", names[0], list, i)
	if len(names) > 1 {
		fmt.Fprintf(&b, " let %s = (%s)[%s];", names[1], subject, names[0])
	}
	return b.String()
}

// length rewrites #operand into ilen(operand), the sequence length.
func (t *translator) length() {
	tok := t.toks[t.pos]
	j := t.next(t.pos + 1)
	end := -1
	switch {
	case t.at(j).kind == stName:
		end = j + 1
		for end < len(t.toks) {
			nt := t.toks[end]
			switch {
			case nt.is(".") && t.at(end+1).kind == stName:
				end += 2
				continue
			case nt.is("["):
				if m := t.matching(end, "[", "]"); m > 0 {
					end = m + 1
					continue
				}
			case nt.is("("):
				if m := t.matching(end, "(", ")"); m > 0 {
					end = m + 1
					continue
				}
			}
			break
		}
	case t.at(j).is("("):
		if m := t.matching(j, "(", ")"); m > 0 {
			end = m + 1
		}
	case t.at(j).kind == stString:
		end = j + 1
	}
	if end < 0 {
		t.st.w.addf("line %d: length operator without operand", tok.line)
		t.write("#")
		t.pos++
		return
	}
	t.write("ilen(" + t.sub(t.toks[j:end]) + ")")
	t.pos = end
}

// table rewrites a table constructor into an object literal. Positional
// entries are keyed "1", "2", ... so indexing, # and ipairs all count
// from 1.
func (t *translator) table() {
	tok := t.toks[t.pos]
	end := t.matching(t.pos, "{", "}")
	if end < 0 {
		t.st.w.addf("line %d: unclosed table constructor", tok.line)
		t.write("{")
		t.pos++
		return
	}
	inner := t.toks[t.pos+1 : end]
	entries := splitTopLevel(inner, ",", ";")

	type entry struct {
		prefix, key, value, suffix string
		empty                      bool
	}
	var out []entry
	for _, e := range entries {
		lo, hi := 0, len(e)
		for lo < hi && e[lo].blank() {
			lo++
		}
		for hi > lo && e[hi-1].blank() {
			hi--
		}
		en := entry{prefix: joinText(e[:lo]), suffix: joinText(e[hi:])}
		body := e[lo:hi]
		if len(body) == 0 {
			en.empty = true
			out = append(out, en)
			continue
		}
		eqAt := -1
		switch {
		case body[0].kind == stName:
			if k := nextSignificant(body, 1); k < len(body) && body[k].is("=") {
				en.key = body[0].text
				eqAt = k
			}
		case body[0].is("["):
			closeIdx := -1
			depth := 0
			for k, bt := range body {
				if bt.is("[") {
					depth++
				} else if bt.is("]") {
					depth--
					if depth == 0 {
						closeIdx = k
						break
					}
				}
			}
			if closeIdx > 0 {
				if k := nextSignificant(body, closeIdx+1); k < len(body) && body[k].is("=") {
					en.key = tableKey(significant(body[1:closeIdx]), t.st.w, body[0].line)
					eqAt = k
				}
			}
		}
		if eqAt >= 0 {
			en.value = t.sub(body[eqAt+1:])
		} else {
			en.value = t.sub(body)
		}
		out = append(out, en)
	}

	var b strings.Builder
	b.WriteString("{")
	index := 0
	written := 0
	for _, en := range out {
		if en.empty {
			b.WriteString(en.prefix + en.suffix)
			continue
		}
		if written > 0 {
			b.WriteString(",")
		}
		b.WriteString(en.prefix)
		if en.key != "" {
			b.WriteString(en.key + ": ")
		} else {
			index++
			b.WriteString(strconv.Quote(strconv.Itoa(index)) + ": ")
		}
		b.WriteString(en.value)
		b.WriteString(en.suffix)
		written++
	}
	b.WriteString("}")
	t.write(b.String())
	t.pos = end + 1
}

func nextSignificant(toks []stToken, i int) int {
	for i < len(toks) && toks[i].blank() {
		i++
	}
	return i
}

func joinText(toks []stToken) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.text)
	}
	return b.String()
}

func tableKey(key []stToken, w *warnings, line int) string {
	if len(key) == 1 {
		switch key[0].kind {
		case stString:
			return key[0].text
		case stNumber:
			return strconv.Quote(key[0].text)
		case stName:
			w.addf("line %d: computed table key %s used by name", line, key[0].text)
			return strconv.Quote(key[0].text)
		}
	}
	w.addf("line %d: unsupported computed table key", line)
	return strconv.Quote(joinText(key))
}
