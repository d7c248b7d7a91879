package hostscript

import "fmt"

// Parse tokenizes and parses src into a Program.
func Parse(src string) (*Program, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	prog := &Program{}
	for !p.atEOF() {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, st)
	}
	return prog, nil
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) peekAt(off int) Token {
	if p.pos+off >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+off]
}

func (p *parser) atEOF() bool { return p.peek().Kind == TokEOF }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokEOF {
		p.pos++
	}
	return t
}

// prevLine is the line of the most recently consumed token.
func (p *parser) prevLine() int {
	if p.pos == 0 {
		return 1
	}
	return p.toks[p.pos-1].Line
}

// is reports whether the next token is the punctuator or keyword text.
func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.Kind == TokPunct || t.Kind == TokKeyword) && t.Text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) (Token, error) {
	if !p.is(text) {
		return Token{}, p.errorf("expected %q, found %s", text, describe(p.peek()))
	}
	return p.next(), nil
}

func (p *parser) errorf(format string, args ...any) error {
	t := p.peek()
	return &SyntaxError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func describe(t Token) string {
	switch t.Kind {
	case TokEOF:
		return "end of input"
	case TokString:
		return fmt.Sprintf("string %q", t.Str)
	default:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
}

func (p *parser) ident() (string, error) {
	t := p.peek()
	if t.Kind != TokIdent {
		return "", p.errorf("expected identifier, found %s", describe(t))
	}
	p.next()
	return t.Text, nil
}

// endStatement consumes an optional semicolon.
func (p *parser) endStatement() {
	p.accept(";")
}

func (p *parser) statement() (Stmt, error) {
	t := p.peek()
	line := t.Line

	if t.Kind == TokPunct {
		switch t.Text {
		case "{":
			return p.block()
		case ";":
			p.next()
			return &EmptyStmt{pos{line}}, nil
		}
	}

	if t.Kind == TokKeyword {
		switch t.Text {
		case "let", "const", "var":
			decl, err := p.varDecl()
			if err != nil {
				return nil, err
			}
			p.endStatement()
			return decl, nil
		case "async":
			if p.peekAt(1).Kind == TokKeyword && p.peekAt(1).Text == "function" {
				p.next()
				return p.funcDecl(true)
			}
		case "function":
			if p.peekAt(1).Kind == TokIdent {
				return p.funcDecl(false)
			}
		case "if":
			return p.ifStmt()
		case "while":
			p.next()
			cond, err := p.parenExpr()
			if err != nil {
				return nil, err
			}
			body, err := p.statement()
			if err != nil {
				return nil, err
			}
			return &WhileStmt{pos{line}, cond, body}, nil
		case "do":
			p.next()
			body, err := p.statement()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("while"); err != nil {
				return nil, err
			}
			cond, err := p.parenExpr()
			if err != nil {
				return nil, err
			}
			p.endStatement()
			return &DoWhileStmt{pos{line}, body, cond}, nil
		case "for":
			return p.forStmt()
		case "switch":
			return p.switchStmt()
		case "return":
			p.next()
			var value Expr
			if !p.is(";") && !p.is("}") && !p.atEOF() && p.peek().Line == line {
				v, err := p.expression()
				if err != nil {
					return nil, err
				}
				value = v
			}
			p.endStatement()
			return &ReturnStmt{pos{line}, value}, nil
		case "break":
			p.next()
			p.endStatement()
			return &BreakStmt{pos{line}}, nil
		case "continue":
			p.next()
			p.endStatement()
			return &ContinueStmt{pos{line}}, nil
		}
	}

	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.endStatement()
	return &ExprStmt{pos{line}, x}, nil
}

func (p *parser) block() (*Block, error) {
	open, err := p.expect("{")
	if err != nil {
		return nil, err
	}
	b := &Block{pos: pos{open.Line}}
	for !p.is("}") {
		if p.atEOF() {
			return nil, &SyntaxError{Line: open.Line, Col: open.Col, Msg: "unclosed block"}
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, st)
	}
	p.next()
	return b, nil
}

func (p *parser) varDecl() (*VarDecl, error) {
	kw := p.next()
	decl := &VarDecl{pos: pos{kw.Line}, Kind: kw.Text}
	for {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		var init Expr
		if p.accept("=") {
			init, err = p.assignment()
			if err != nil {
				return nil, err
			}
		}
		decl.Names = append(decl.Names, name)
		decl.Inits = append(decl.Inits, init)
		if !p.accept(",") {
			return decl, nil
		}
	}
}

func (p *parser) params() ([]string, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var params []string
	for !p.is(")") {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		params = append(params, name)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *parser) funcDecl(async bool) (Stmt, error) {
	kw := p.next() // function
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &FuncDecl{pos: pos{kw.Line}, Name: name, Params: params, Body: body, Async: async}, nil
}

func (p *parser) parenExpr() (Expr, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return x, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	kw := p.next()
	cond, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	var els Stmt
	if p.accept("else") {
		els, err = p.statement()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{pos{kw.Line}, cond, then, els}, nil
}

func (p *parser) forStmt() (Stmt, error) {
	kw := p.next()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	fs := &ForStmt{pos: pos{kw.Line}}

	if !p.is(";") {
		if p.is("let") || p.is("const") || p.is("var") {
			decl, err := p.varDecl()
			if err != nil {
				return nil, err
			}
			fs.Init = decl
		} else {
			x, err := p.expression()
			if err != nil {
				return nil, err
			}
			fs.Init = &ExprStmt{pos{kw.Line}, x}
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.is(";") {
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		fs.Cond = cond
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.is(")") {
		post, err := p.expression()
		if err != nil {
			return nil, err
		}
		fs.Post = post
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	fs.Body = body
	return fs, nil
}

func (p *parser) switchStmt() (Stmt, error) {
	kw := p.next()
	disc, err := p.parenExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	sw := &SwitchStmt{pos: pos{kw.Line}, Disc: disc}
	for !p.accept("}") {
		if p.atEOF() {
			return nil, p.errorf("unclosed switch")
		}
		var c SwitchCase
		switch {
		case p.accept("case"):
			test, err := p.expression()
			if err != nil {
				return nil, err
			}
			c.Test = test
		case p.accept("default"):
		default:
			return nil, p.errorf("expected case or default, found %s", describe(p.peek()))
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		for !p.is("case") && !p.is("default") && !p.is("}") {
			if p.atEOF() {
				return nil, p.errorf("unclosed switch")
			}
			st, err := p.statement()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, st)
		}
		sw.Cases = append(sw.Cases, c)
	}
	return sw, nil
}

// Expressions, lowest precedence first.

func (p *parser) expression() (Expr, error) {
	return p.assignment()
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

func (p *parser) assignment() (Expr, error) {
	left, err := p.conditional()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.Kind == TokPunct && assignOps[t.Text] {
		switch left.(type) {
		case *Ident, *MemberExpr, *IndexExpr:
		default:
			return nil, p.errorf("invalid assignment target")
		}
		p.next()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{pos{t.Line}, t.Text, left, value}, nil
	}
	return left, nil
}

func (p *parser) conditional() (Expr, error) {
	test, err := p.logicalOr()
	if err != nil {
		return nil, err
	}
	if !p.is("?") {
		return test, nil
	}
	q := p.next()
	a, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	b, err := p.assignment()
	if err != nil {
		return nil, err
	}
	return &CondExpr{pos{q.Line}, test, a, b}, nil
}

func (p *parser) logicalOr() (Expr, error) {
	left, err := p.logicalAnd()
	if err != nil {
		return nil, err
	}
	for p.is("||") {
		op := p.next()
		right, err := p.logicalAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{pos{op.Line}, "||", left, right}
	}
	return left, nil
}

func (p *parser) logicalAnd() (Expr, error) {
	left, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	for p.is("&&") {
		op := p.next()
		right, err := p.binary(0)
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{pos{op.Line}, "&&", left, right}
	}
	return left, nil
}

// binaryLevels lists the left-associative binary operators from lowest to
// highest precedence.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"==", "!=", "===", "!=="},
	{"<", "<=", ">", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) binary(level int) (Expr, error) {
	if level >= len(binaryLevels) {
		return p.unary()
	}
	left, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Kind != TokPunct || !contains(binaryLevels[level], t.Text) {
			return left, nil
		}
		p.next()
		right, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{pos{t.Line}, t.Text, left, right}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (p *parser) unary() (Expr, error) {
	t := p.peek()
	if t.Kind == TokPunct {
		switch t.Text {
		case "!", "-", "+", "~":
			p.next()
			x, err := p.unary()
			if err != nil {
				return nil, err
			}
			return &UnaryExpr{pos{t.Line}, t.Text, x}, nil
		case "++", "--":
			p.next()
			x, err := p.unary()
			if err != nil {
				return nil, err
			}
			return &UpdateExpr{pos{t.Line}, t.Text, true, x}, nil
		}
	}
	if t.Kind == TokKeyword && t.Text == "await" {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &AwaitExpr{pos{t.Line}, x}, nil
	}
	return p.power()
}

// power parses right-associative exponentiation. It binds tighter than a
// unary operator on its left, so -2 ** 2 is -(2 ** 2).
func (p *parser) power() (Expr, error) {
	x, err := p.postfix()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.Kind != TokPunct || t.Text != "**" {
		return x, nil
	}
	p.next()
	y, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{pos{t.Line}, t.Text, x, y}, nil
}

func (p *parser) postfix() (Expr, error) {
	x, err := p.call()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.Kind == TokPunct && (t.Text == "++" || t.Text == "--") && t.Line == p.prevLine() {
		p.next()
		return &UpdateExpr{pos{t.Line}, t.Text, false, x}, nil
	}
	return x, nil
}

func (p *parser) call() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.Kind == TokPunct && t.Text == ".":
			p.next()
			nt := p.next()
			if nt.Kind != TokIdent && nt.Kind != TokKeyword {
				return nil, &SyntaxError{Line: nt.Line, Col: nt.Col, Msg: "expected property name after '.'"}
			}
			x = &MemberExpr{pos{t.Line}, x, nt.Text}
		case t.Kind == TokPunct && t.Text == "[":
			p.next()
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{pos{t.Line}, x, idx}
		case t.Kind == TokPunct && t.Text == "(":
			p.next()
			var args []Expr
			for !p.is(")") {
				a, err := p.assignment()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !p.accept(",") {
					break
				}
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			x = &CallExpr{pos{t.Line}, x, args}
		default:
			return x, nil
		}
	}
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch t.Kind {
	case TokNumber:
		p.next()
		return &NumberLit{pos{t.Line}, t.Num}, nil
	case TokString:
		p.next()
		return &StringLit{pos{t.Line}, t.Str}, nil
	case TokIdent:
		p.next()
		return &Ident{pos{t.Line}, t.Text}, nil
	case TokKeyword:
		switch t.Text {
		case "true", "false":
			p.next()
			return &BoolLit{pos{t.Line}, t.Text == "true"}, nil
		case "null", "undefined":
			p.next()
			return &NullLit{pos{t.Line}}, nil
		case "async":
			if p.peekAt(1).Text == "function" {
				p.next()
				return p.funcLit()
			}
		case "function":
			return p.funcLit()
		}
	case TokPunct:
		switch t.Text {
		case "(":
			p.next()
			x, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return x, nil
		case "[":
			return p.arrayLit()
		case "{":
			return p.objectLit()
		}
	}
	return nil, p.errorf("unexpected %s", describe(t))
}

func (p *parser) funcLit() (Expr, error) {
	kw := p.next()
	if p.peek().Kind == TokIdent {
		p.next() // named function expressions bind nothing extra
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &FuncLit{pos{kw.Line}, params, body}, nil
}

func (p *parser) arrayLit() (Expr, error) {
	open := p.next()
	arr := &ArrayLit{pos: pos{open.Line}}
	for !p.is("]") {
		el, err := p.assignment()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, el)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *parser) objectLit() (Expr, error) {
	open := p.next()
	obj := &ObjectLit{pos: pos{open.Line}}
	for !p.is("}") {
		kt := p.next()
		var key string
		switch kt.Kind {
		case TokIdent, TokKeyword:
			key = kt.Text
		case TokString:
			key = kt.Str
		case TokNumber:
			key = formatNumber(kt.Num)
		default:
			return nil, &SyntaxError{Line: kt.Line, Col: kt.Col, Msg: "expected property key"}
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		v, err := p.assignment()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, v)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return obj, nil
}
