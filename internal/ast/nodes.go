package ast

import "strings"

// Node is the base interface for all AST nodes
type Node interface {
	Pos() (line, col int)
}

// Declaration nodes
type Declaration interface {
	Node
	declNode()
}

// Statement nodes
type Statement interface {
	Node
	stmtNode()
}

// Expression nodes
type Expression interface {
	Node
	exprNode()
}

// Pattern nodes
type Pattern interface {
	Node
	patternNode()
}

// Program is the root of a front-end produced tree: one plugin or writer
// plus any free-standing declarations.
type Program struct {
	Uses  []*UseDecl
	Decls []Declaration
}

func (p *Program) Pos() (int, int) {
	if len(p.Decls) > 0 {
		return p.Decls[0].Pos()
	}
	return 0, 0
}

// UseDecl records a `use` line. Uses are informational only.
type UseDecl struct {
	Path   string
	Line   int
	Column int
}

func (u *UseDecl) Pos() (int, int) { return u.Line, u.Column }

// --- Declarations ---

// PluginDecl represents `plugin Name { ... }` or `writer Name { ... }`.
type PluginDecl struct {
	Name     string
	IsWriter bool
	Items    []Declaration
	Line     int
	Column   int
}

func (p *PluginDecl) Pos() (int, int) { return p.Line, p.Column }
func (*PluginDecl) declNode()         {}

// StructDecl represents a struct declaration
type StructDecl struct {
	Name   string
	Fields []*FieldDecl
	Line   int
	Column int
}

func (s *StructDecl) Pos() (int, int) { return s.Line, s.Column }
func (*StructDecl) declNode()         {}

// FieldDecl represents a struct or variant field
type FieldDecl struct {
	Name   string
	Type   *TypeRef
	Line   int
	Column int
}

func (f *FieldDecl) Pos() (int, int) { return f.Line, f.Column }

// EnumDecl represents an enum declaration
type EnumDecl struct {
	Name     string
	Variants []*VariantDecl
	Line     int
	Column   int
}

func (e *EnumDecl) Pos() (int, int) { return e.Line, e.Column }
func (*EnumDecl) declNode()         {}

// VariantDecl represents one enum variant; Fields is empty for unit variants.
type VariantDecl struct {
	Name   string
	Fields []*FieldDecl
	Line   int
	Column int
}

func (v *VariantDecl) Pos() (int, int) { return v.Line, v.Column }

// FnDecl represents a function, visitor method or hook.
type FnDecl struct {
	Name       string
	IsPublic   bool
	Params     []*Param
	ReturnType *TypeRef
	Body       *Block
	Line       int
	Column     int
}

func (f *FnDecl) Pos() (int, int) { return f.Line, f.Column }
func (*FnDecl) declNode()         {}

// Param represents a function parameter
type Param struct {
	Name    string
	Type    *TypeRef
	Mutable bool
	Line    int
	Column  int
}

func (p *Param) Pos() (int, int) { return p.Line, p.Column }

// ImplDecl represents `impl Target { methods }`
type ImplDecl struct {
	Target  string
	Methods []*FnDecl
	Line    int
	Column  int
}

func (i *ImplDecl) Pos() (int, int) { return i.Line, i.Column }
func (*ImplDecl) declNode()         {}

// TypeRef represents a type reference
type TypeRef struct {
	Name     string
	TypeArgs []*TypeRef // e.g. []*TypeRef{{Name:"Str"}} for Option<Str>
	Line     int
	Column   int
}

func (t *TypeRef) Pos() (int, int) { return t.Line, t.Column }

// String renders the reference in source syntax, e.g. "Vec<Option<Str>>".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	if len(t.TypeArgs) == 0 {
		return t.Name
	}
	args := make([]string, len(t.TypeArgs))
	for i, a := range t.TypeArgs {
		args[i] = a.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// --- Statements ---

// Block represents a block of statements
type Block struct {
	Statements []Statement
	Line       int
	Column     int
}

func (b *Block) Pos() (int, int) { return b.Line, b.Column }

// LetStmt represents `let [mut] name[: T] = value;`
type LetStmt struct {
	Name    string
	Mutable bool
	Type    *TypeRef
	Value   Expression
	Line    int
	Column  int
}

func (l *LetStmt) Pos() (int, int) { return l.Line, l.Column }
func (*LetStmt) stmtNode()         {}

// AssignStmt represents `target = value;`
type AssignStmt struct {
	Target Expression
	Value  Expression
	Line   int
	Column int
}

func (a *AssignStmt) Pos() (int, int) { return a.Line, a.Column }
func (*AssignStmt) stmtNode()         {}

// ExprStmt wraps an expression used as a statement
type ExprStmt struct {
	Expr   Expression
	Line   int
	Column int
}

func (e *ExprStmt) Pos() (int, int) { return e.Line, e.Column }
func (*ExprStmt) stmtNode()         {}

// ReturnStmt represents a return statement
type ReturnStmt struct {
	Value  Expression // nil for bare return
	Line   int
	Column int
}

func (r *ReturnStmt) Pos() (int, int) { return r.Line, r.Column }
func (*ReturnStmt) stmtNode()         {}

// IfStmt represents `if cond {}` or, when Pattern is set, `if let P = cond {}`.
type IfStmt struct {
	Condition Expression
	Pattern   Pattern
	Then      *Block
	Else      *Block // nil if no else branch
	Line      int
	Column    int
}

func (i *IfStmt) Pos() (int, int) { return i.Line, i.Column }
func (*IfStmt) stmtNode()         {}

// MatchStmt represents a match over a scrutinee
type MatchStmt struct {
	Value  Expression
	Arms   []*MatchArm
	Line   int
	Column int
}

func (m *MatchStmt) Pos() (int, int) { return m.Line, m.Column }
func (*MatchStmt) stmtNode()         {}

// MatchArm represents a single arm of a match
type MatchArm struct {
	Pattern Pattern
	Guard   Expression // nil if unguarded
	Body    *Block
	Line    int
	Column  int
}

func (m *MatchArm) Pos() (int, int) { return m.Line, m.Column }

// WhileStmt represents a while loop
type WhileStmt struct {
	Condition Expression
	Body      *Block
	Line      int
	Column    int
}

func (w *WhileStmt) Pos() (int, int) { return w.Line, w.Column }
func (*WhileStmt) stmtNode()         {}

// ForStmt represents `for name in iter {}`
type ForStmt struct {
	Variable string
	Iterable Expression
	Body     *Block
	Line     int
	Column   int
}

func (f *ForStmt) Pos() (int, int) { return f.Line, f.Column }
func (*ForStmt) stmtNode()         {}

// BreakStmt represents break
type BreakStmt struct {
	Line   int
	Column int
}

func (b *BreakStmt) Pos() (int, int) { return b.Line, b.Column }
func (*BreakStmt) stmtNode()         {}

// ContinueStmt represents continue
type ContinueStmt struct {
	Line   int
	Column int
}

func (c *ContinueStmt) Pos() (int, int) { return c.Line, c.Column }
func (*ContinueStmt) stmtNode()         {}

// PropAssignStmt represents `node.__prop = value;`. Type is an optional
// annotation fixing the payload type explicitly.
type PropAssignStmt struct {
	Node     Expression
	Property string
	Value    Expression
	Type     *TypeRef
	Line     int
	Column   int
}

func (p *PropAssignStmt) Pos() (int, int) { return p.Line, p.Column }
func (*PropAssignStmt) stmtNode()         {}

// DeclStmt nests a declaration inside a block
type DeclStmt struct {
	Decl   Declaration
	Line   int
	Column int
}

func (d *DeclStmt) Pos() (int, int) { return d.Line, d.Column }
func (*DeclStmt) stmtNode()         {}

// --- Expressions ---

// Ident represents an identifier reference
type Ident struct {
	Name   string
	Line   int
	Column int
}

func (i *Ident) Pos() (int, int) { return i.Line, i.Column }
func (*Ident) exprNode()         {}

// SelfExpr represents the self keyword
type SelfExpr struct {
	Line   int
	Column int
}

func (s *SelfExpr) Pos() (int, int) { return s.Line, s.Column }
func (*SelfExpr) exprNode()         {}

// StringLit represents a string literal; Value is unquoted.
type StringLit struct {
	Value  string
	Line   int
	Column int
}

func (s *StringLit) Pos() (int, int) { return s.Line, s.Column }
func (*StringLit) exprNode()         {}

// IntLit represents an integer literal
type IntLit struct {
	Value  int64
	Line   int
	Column int
}

func (i *IntLit) Pos() (int, int) { return i.Line, i.Column }
func (*IntLit) exprNode()         {}

// FloatLit represents a float literal
type FloatLit struct {
	Value  string
	Line   int
	Column int
}

func (f *FloatLit) Pos() (int, int) { return f.Line, f.Column }
func (*FloatLit) exprNode()         {}

// BoolLit represents true or false
type BoolLit struct {
	Value  bool
	Line   int
	Column int
}

func (b *BoolLit) Pos() (int, int) { return b.Line, b.Column }
func (*BoolLit) exprNode()         {}

// NullLit is the designated absent value
type NullLit struct {
	Line   int
	Column int
}

func (n *NullLit) Pos() (int, int) { return n.Line, n.Column }
func (*NullLit) exprNode()         {}

// UnaryExpr represents a prefix operation
type UnaryExpr struct {
	Op      Op
	Operand Expression
	Line    int
	Column  int
}

func (u *UnaryExpr) Pos() (int, int) { return u.Line, u.Column }
func (*UnaryExpr) exprNode()         {}

// BinaryExpr represents an infix operation
type BinaryExpr struct {
	Left   Expression
	Op     Op
	Right  Expression
	Line   int
	Column int
}

func (b *BinaryExpr) Pos() (int, int) { return b.Line, b.Column }
func (*BinaryExpr) exprNode()         {}

// MemberExpr represents `object.field`
type MemberExpr struct {
	Object Expression
	Field  string
	Line   int
	Column int
}

func (m *MemberExpr) Pos() (int, int) { return m.Line, m.Column }
func (*MemberExpr) exprNode()         {}

// PathExpr represents a qualified path such as `Shape::Leaf`
type PathExpr struct {
	Segments []string
	Line     int
	Column   int
}

func (p *PathExpr) Pos() (int, int) { return p.Line, p.Column }
func (*PathExpr) exprNode()         {}

// String joins the segments with the source separator.
func (p *PathExpr) String() string { return strings.Join(p.Segments, "::") }

// CallExpr represents a call
type CallExpr struct {
	Callee Expression
	Args   []Expression
	Line   int
	Column int
}

func (c *CallExpr) Pos() (int, int) { return c.Line, c.Column }
func (*CallExpr) exprNode()         {}

// StructLit represents `Name { field: value, ... }`
type StructLit struct {
	Name   string
	Fields []*FieldInit
	Line   int
	Column int
}

func (s *StructLit) Pos() (int, int) { return s.Line, s.Column }
func (*StructLit) exprNode()         {}

// FieldInit is one `field: value` entry of a struct literal
type FieldInit struct {
	Name  string
	Value Expression
}

// ArrayLit represents `[a, b, c]`
type ArrayLit struct {
	Elements []Expression
	Line     int
	Column   int
}

func (a *ArrayLit) Pos() (int, int) { return a.Line, a.Column }
func (*ArrayLit) exprNode()         {}

// MatchesExpr represents the shape test `matches(value, Pattern)`
type MatchesExpr struct {
	Value   Expression
	Pattern Pattern
	Line    int
	Column  int
}

func (m *MatchesExpr) Pos() (int, int) { return m.Line, m.Column }
func (*MatchesExpr) exprNode()         {}

// PropAccessExpr represents a custom property read `node.__prop`.
// Reads are always presence-qualified.
type PropAccessExpr struct {
	Node     Expression
	Property string
	Line     int
	Column   int
}

func (p *PropAccessExpr) Pos() (int, int) { return p.Line, p.Column }
func (*PropAccessExpr) exprNode()         {}

// --- Patterns ---

// WildcardPattern represents `_`
type WildcardPattern struct {
	Line   int
	Column int
}

func (w *WildcardPattern) Pos() (int, int) { return w.Line, w.Column }
func (*WildcardPattern) patternNode()      {}

// BindingPattern binds the matched value to Name
type BindingPattern struct {
	Name   string
	Line   int
	Column int
}

func (b *BindingPattern) Pos() (int, int) { return b.Line, b.Column }
func (*BindingPattern) patternNode()      {}

// LiteralPattern matches a literal value
type LiteralPattern struct {
	Value  Expression // one of the literal expressions
	Line   int
	Column int
}

func (l *LiteralPattern) Pos() (int, int) { return l.Line, l.Column }
func (*LiteralPattern) patternNode()      {}

// VariantPattern matches `Path(sub, ...)`, e.g. `Expression::Identifier(id)`.
type VariantPattern struct {
	Path   []string
	Args   []Pattern
	Line   int
	Column int
}

func (v *VariantPattern) Pos() (int, int) { return v.Line, v.Column }
func (*VariantPattern) patternNode()      {}

// Name joins the path with the source separator.
func (v *VariantPattern) Name() string { return strings.Join(v.Path, "::") }
