package ir

// Program is the Decorated AST: the raw program shape with a metadata
// record on every node.
type Program struct {
	Uses    []string
	Decls   []Decl
	Backend string
}

// Decl is the interface for all declarations.
type Decl interface {
	declNode()
	Pos() Span
}

// Plugin is a plugin or writer with its items.
type Plugin struct {
	Name     string
	IsWriter bool
	Items    []Decl
	Meta     *PluginMeta
	Span     Span
}

// Struct is a struct declaration.
type Struct struct {
	Name   string
	Fields []*Field
	Span   Span
}

// Field is a struct field or enum variant field. Name is empty for
// positional fields.
type Field struct {
	Name   string
	Type   *Type
	Target string
}

// Enum is an enum declaration.
type Enum struct {
	Name     string
	Variants []*Variant
	Span     Span
}

// Variant is one enum variant.
type Variant struct {
	Name   string
	Fields []*Field
}

// Func is a function, plugin method, visitor or hook.
type Func struct {
	Name   string
	Public bool
	Params []*Param
	Return *Type
	// ReturnTarget is the target spelling of Return; empty for unit.
	ReturnTarget string
	Body         *Block
	Meta         *FuncMeta
	Span         Span
}

// Param is a function parameter.
type Param struct {
	Name    string
	Type    *Type
	Target  string
	Mutable bool
}

// Impl is an impl block.
type Impl struct {
	Target  string
	Methods []*Func
	Span    Span
}

func (*Plugin) declNode() {}
func (*Struct) declNode() {}
func (*Enum) declNode()   {}
func (*Func) declNode()   {}
func (*Impl) declNode()   {}

func (d *Plugin) Pos() Span { return d.Span }
func (d *Struct) Pos() Span { return d.Span }
func (d *Enum) Pos() Span   { return d.Span }
func (d *Func) Pos() Span   { return d.Span }
func (d *Impl) Pos() Span   { return d.Span }

// --- Statements ---

// Block is a statement list with an optional value-producing tail.
type Block struct {
	Stmts []Stmt
	Tail  Expr
}

// Stmt is the interface for all statements.
type Stmt interface {
	stmtNode()
	Pos() Span
}

// LetStmt binds a name.
type LetStmt struct {
	Name    string
	Mutable bool
	Type    *Type
	Target  string
	Value   Expr
	Span    Span
}

// AssignStmt stores a value into a place.
type AssignStmt struct {
	Target Expr
	Value  Expr
	Span   Span
}

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	X    Expr
	Span Span
}

// ReturnStmt returns from the enclosing function.
type ReturnStmt struct {
	Value Expr // nil for bare return
	Span  Span
}

// IfStmt is a boolean conditional.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else *Block
	Span Span
}

// IfLetStmt runs Then when Value matches Pattern.
type IfLetStmt struct {
	Pattern Pattern
	Value   Expr
	Then    *Block
	Else    *Block
	Span    Span
}

// WhileStmt loops while Cond holds.
type WhileStmt struct {
	Cond Expr
	Body *Block
	Span Span
}

// ForStmt iterates over Iter binding Var.
type ForStmt struct {
	Var  string
	Iter Expr
	Body *Block
	Span Span
}

// BreakStmt leaves the innermost loop.
type BreakStmt struct{ Span Span }

// ContinueStmt restarts the innermost loop.
type ContinueStmt struct{ Span Span }

// PropSetStmt attaches a custom property to a node, or removes it when
// Delete is set.
type PropSetStmt struct {
	Node   Expr
	Prop   *PropRef
	Value  Expr // nil when Delete
	Delete bool
	Span   Span
}

// DeclStmt is a declaration nested in a block.
type DeclStmt struct {
	Decl Decl
	Span Span
}

func (*LetStmt) stmtNode()      {}
func (*AssignStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode()   {}
func (*IfStmt) stmtNode()       {}
func (*IfLetStmt) stmtNode()    {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*PropSetStmt) stmtNode()  {}
func (*DeclStmt) stmtNode()     {}

func (s *LetStmt) Pos() Span      { return s.Span }
func (s *AssignStmt) Pos() Span   { return s.Span }
func (s *ExprStmt) Pos() Span     { return s.Span }
func (s *ReturnStmt) Pos() Span   { return s.Span }
func (s *IfStmt) Pos() Span       { return s.Span }
func (s *IfLetStmt) Pos() Span    { return s.Span }
func (s *WhileStmt) Pos() Span    { return s.Span }
func (s *ForStmt) Pos() Span      { return s.Span }
func (s *BreakStmt) Pos() Span    { return s.Span }
func (s *ContinueStmt) Pos() Span { return s.Span }
func (s *PropSetStmt) Pos() Span  { return s.Span }
func (s *DeclStmt) Pos() Span     { return s.Span }

// --- Expressions ---

// Expr is the interface for all expressions. Metadata returns the node's
// ExprMeta, nil when undecorated.
type Expr interface {
	exprNode()
	Metadata() *ExprMeta
}

// Ident references a binding.
type Ident struct {
	Name string
	Meta *ExprMeta
}

// SelfExpr is the plugin receiver.
type SelfExpr struct {
	Meta *ExprMeta
}

// LitKind distinguishes literal values.
type LitKind int

const (
	LitStr LitKind = iota
	LitInt
	LitFloat
	LitBool
	LitNull
)

// Lit is a literal. Value holds the unquoted text.
type Lit struct {
	Kind  LitKind
	Value string
	Meta  *ExprMeta
}

// UnaryExpr applies a prefix operator.
type UnaryExpr struct {
	Op   string
	X    Expr
	Meta *ExprMeta
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Meta  *ExprMeta
	Bin   *BinaryMeta
}

// MemberExpr reads a field.
type MemberExpr struct {
	Object Expr
	Field  string // source field name
	Meta   *ExprMeta
	FMeta  *FieldMeta
}

// PathExpr is a qualified path such as an enum variant.
type PathExpr struct {
	Segments []string
	Meta     *ExprMeta
}

// CallExpr calls a function, method or macro.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Meta   *ExprMeta
}

// StructLit constructs a struct.
type StructLit struct {
	Name   string
	Fields []*FieldValue
	Meta   *ExprMeta
}

// FieldValue is one struct literal field.
type FieldValue struct {
	Name  string
	Value Expr
}

// ArrayLit constructs a list.
type ArrayLit struct {
	Elems []Expr
	Meta  *ExprMeta
}

// MatchesExpr is a shape test before rewriting.
type MatchesExpr struct {
	X       Expr
	Pattern Pattern
	Meta    *ExprMeta
}

// MatchForm records how a match was produced.
type MatchForm int

const (
	MatchPlain       MatchForm = iota
	MatchConditional           // one level of an unwrapped member chain
	MatchShapeTest             // expanded shape test yielding bool
)

// MatchExpr selects the first arm whose pattern matches X. A match used
// as a statement is wrapped in an ExprStmt.
type MatchExpr struct {
	X    Expr
	Arms []*Arm
	Form MatchForm
	Meta *ExprMeta
}

// Arm is one match arm.
type Arm struct {
	Pattern Pattern
	Guard   Expr
	Body    *Block
}

// PropGetExpr reads a custom property; its type is Option<payload>.
type PropGetExpr struct {
	Node Expr
	Prop *PropRef
	Meta *ExprMeta
}

// DefaultExpr is the default value of Meta.Type.
type DefaultExpr struct {
	Meta *ExprMeta
}

// UnreachableExpr marks a path that cannot execute.
type UnreachableExpr struct {
	Meta *ExprMeta
}

func (*Ident) exprNode()           {}
func (*SelfExpr) exprNode()        {}
func (*Lit) exprNode()             {}
func (*UnaryExpr) exprNode()       {}
func (*BinaryExpr) exprNode()      {}
func (*MemberExpr) exprNode()      {}
func (*PathExpr) exprNode()        {}
func (*CallExpr) exprNode()        {}
func (*StructLit) exprNode()       {}
func (*ArrayLit) exprNode()        {}
func (*MatchesExpr) exprNode()     {}
func (*MatchExpr) exprNode()       {}
func (*PropGetExpr) exprNode()     {}
func (*DefaultExpr) exprNode()     {}
func (*UnreachableExpr) exprNode() {}

func (e *Ident) Metadata() *ExprMeta           { return e.Meta }
func (e *SelfExpr) Metadata() *ExprMeta        { return e.Meta }
func (e *Lit) Metadata() *ExprMeta             { return e.Meta }
func (e *UnaryExpr) Metadata() *ExprMeta       { return e.Meta }
func (e *BinaryExpr) Metadata() *ExprMeta      { return e.Meta }
func (e *MemberExpr) Metadata() *ExprMeta      { return e.Meta }
func (e *PathExpr) Metadata() *ExprMeta        { return e.Meta }
func (e *CallExpr) Metadata() *ExprMeta        { return e.Meta }
func (e *StructLit) Metadata() *ExprMeta       { return e.Meta }
func (e *ArrayLit) Metadata() *ExprMeta        { return e.Meta }
func (e *MatchesExpr) Metadata() *ExprMeta     { return e.Meta }
func (e *MatchExpr) Metadata() *ExprMeta       { return e.Meta }
func (e *PropGetExpr) Metadata() *ExprMeta     { return e.Meta }
func (e *DefaultExpr) Metadata() *ExprMeta     { return e.Meta }
func (e *UnreachableExpr) Metadata() *ExprMeta { return e.Meta }

// --- Patterns ---

// Pattern is the interface for all patterns.
type Pattern interface {
	patternNode()
	Metadata() *PatternMeta
}

// WildcardPattern matches anything.
type WildcardPattern struct {
	Meta *PatternMeta
}

// BindingPattern matches anything and binds it.
type BindingPattern struct {
	Name string
	Meta *PatternMeta
}

// LitPattern matches a literal.
type LitPattern struct {
	Value *Lit
	Meta  *PatternMeta
}

// VariantPattern matches a variant and its positional payload. Path is the
// source spelling; Meta.Path the target one.
type VariantPattern struct {
	Path []string
	Args []Pattern
	Meta *PatternMeta
}

func (*WildcardPattern) patternNode() {}
func (*BindingPattern) patternNode()  {}
func (*LitPattern) patternNode()      {}
func (*VariantPattern) patternNode()  {}

func (p *WildcardPattern) Metadata() *PatternMeta { return p.Meta }
func (p *BindingPattern) Metadata() *PatternMeta  { return p.Meta }
func (p *LitPattern) Metadata() *PatternMeta      { return p.Meta }
func (p *VariantPattern) Metadata() *PatternMeta  { return p.Meta }
