package hostscript

// Node is any AST node. Line is the 1-based source line it started on.
type Node interface {
	Line() int
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

type pos struct{ line int }

func (p pos) Line() int { return p.line }

// Program is a parsed script.
type Program struct {
	Body []Stmt
}

// Statements

type VarDecl struct {
	pos
	Kind  string // let, const, var
	Names []string
	Inits []Expr // nil entry when no initializer
}

type FuncDecl struct {
	pos
	Name   string
	Params []string
	Body   *Block
	Async  bool
}

type Block struct {
	pos
	Stmts []Stmt
}

type IfStmt struct {
	pos
	Cond Expr
	Then Stmt
	Else Stmt
}

type WhileStmt struct {
	pos
	Cond Expr
	Body Stmt
}

type DoWhileStmt struct {
	pos
	Body Stmt
	Cond Expr
}

type ForStmt struct {
	pos
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

type SwitchCase struct {
	Test Expr // nil for default
	Body []Stmt
}

type SwitchStmt struct {
	pos
	Disc  Expr
	Cases []SwitchCase
}

type ReturnStmt struct {
	pos
	Value Expr
}

type BreakStmt struct{ pos }

type ContinueStmt struct{ pos }

type ExprStmt struct {
	pos
	X Expr
}

type EmptyStmt struct{ pos }

func (*VarDecl) stmt()      {}
func (*FuncDecl) stmt()     {}
func (*Block) stmt()        {}
func (*IfStmt) stmt()       {}
func (*WhileStmt) stmt()    {}
func (*DoWhileStmt) stmt()  {}
func (*ForStmt) stmt()      {}
func (*SwitchStmt) stmt()   {}
func (*ReturnStmt) stmt()   {}
func (*BreakStmt) stmt()    {}
func (*ContinueStmt) stmt() {}
func (*ExprStmt) stmt()     {}
func (*EmptyStmt) stmt()    {}

// Expressions

type NumberLit struct {
	pos
	Value float64
}

type StringLit struct {
	pos
	Value string
}

type BoolLit struct {
	pos
	Value bool
}

type NullLit struct{ pos }

type Ident struct {
	pos
	Name string
}

type ArrayLit struct {
	pos
	Elems []Expr
}

type ObjectLit struct {
	pos
	Keys   []string
	Values []Expr
}

type FuncLit struct {
	pos
	Params []string
	Body   *Block
}

type MemberExpr struct {
	pos
	X    Expr
	Name string
}

type IndexExpr struct {
	pos
	X     Expr
	Index Expr
}

type CallExpr struct {
	pos
	Fn   Expr
	Args []Expr
}

type UnaryExpr struct {
	pos
	Op string
	X  Expr
}

type UpdateExpr struct {
	pos
	Op     string // ++ or --
	Prefix bool
	Target Expr
}

type BinaryExpr struct {
	pos
	Op   string
	L, R Expr
}

type LogicalExpr struct {
	pos
	Op   string // && or ||
	L, R Expr
}

type CondExpr struct {
	pos
	Test, A, B Expr
}

type AssignExpr struct {
	pos
	Op     string // = += -= ...
	Target Expr
	Value  Expr
}

type AwaitExpr struct {
	pos
	X Expr
}

func (*NumberLit) expr()   {}
func (*StringLit) expr()   {}
func (*BoolLit) expr()     {}
func (*NullLit) expr()     {}
func (*Ident) expr()       {}
func (*ArrayLit) expr()    {}
func (*ObjectLit) expr()   {}
func (*FuncLit) expr()     {}
func (*MemberExpr) expr()  {}
func (*IndexExpr) expr()   {}
func (*CallExpr) expr()    {}
func (*UnaryExpr) expr()   {}
func (*UpdateExpr) expr()  {}
func (*BinaryExpr) expr()  {}
func (*LogicalExpr) expr() {}
func (*CondExpr) expr()    {}
func (*AssignExpr) expr()  {}
func (*AwaitExpr) expr()   {}
