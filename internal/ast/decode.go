package ast

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
)

// The front-end hands over its tree as a YAML document. Every node is a
// mapping with a `kind` key; the remaining keys depend on the kind.
//
//	decls:
//	  - kind: plugin
//	    name: Marker
//	    items:
//	      - kind: fn
//	        name: visit_identifier
//	        params: [{name: node, type: Identifier, mut: true}]
//	        body:
//	          - kind: prop_assign
//	            node: {kind: ident, name: node}
//	            prop: __mark
//	            init: {kind: bool, value: true}
type wireProgram struct {
	Uses  []string    `yaml:"uses"`
	Decls []*wireNode `yaml:"decls"`
}

type wireNode struct {
	Kind string `yaml:"kind"`
	Line int    `yaml:"line"`
	Col  int    `yaml:"col"`

	Name     string      `yaml:"name"`
	Public   bool        `yaml:"pub"`
	Mut      bool        `yaml:"mut"`
	Type     string      `yaml:"type"`
	Returns  string      `yaml:"returns"`
	Target   string      `yaml:"target"`
	Op       string      `yaml:"op"`
	Field    string      `yaml:"field"`
	Prop     string      `yaml:"prop"`
	Var      string      `yaml:"var"`
	Path     []string    `yaml:"path"`
	Value    interface{} `yaml:"value"`
	Items    []*wireNode `yaml:"items"`
	Params   []*wireNode `yaml:"params"`
	Fields   []*wireNode `yaml:"fields"`
	Variants []*wireNode `yaml:"variants"`
	Methods  []*wireNode `yaml:"methods"`
	Body     []*wireNode `yaml:"body"`
	Then     []*wireNode `yaml:"then"`
	Else     []*wireNode `yaml:"else"`
	Arms     []*wireNode `yaml:"arms"`
	Args     []*wireNode `yaml:"args"`
	Elements []*wireNode `yaml:"elements"`
	Cond     *wireNode   `yaml:"cond"`
	Expr     *wireNode   `yaml:"expr"`
	Init     *wireNode   `yaml:"init"`
	Left     *wireNode   `yaml:"left"`
	Right    *wireNode   `yaml:"right"`
	Operand  *wireNode   `yaml:"operand"`
	Object   *wireNode   `yaml:"object"`
	Node     *wireNode   `yaml:"node"`
	Callee   *wireNode   `yaml:"callee"`
	Pattern  *wireNode   `yaml:"pattern"`
	Guard    *wireNode   `yaml:"guard"`
	Decl     *wireNode   `yaml:"decl"`
}

// DecodeFile reads a front-end dump from path.
func DecodeFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// Decode converts a YAML front-end dump into a Program.
func Decode(data []byte) (*Program, error) {
	var w wireProgram
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	d := &decoder{}
	prog := &Program{}
	for _, u := range w.Uses {
		prog.Uses = append(prog.Uses, &UseDecl{Path: u})
	}
	for _, n := range w.Decls {
		prog.Decls = append(prog.Decls, d.decl(n))
	}
	if len(d.errs) > 0 {
		return nil, d.errs[0]
	}
	return prog, nil
}

type decoder struct {
	errs []error
}

func (d *decoder) errorf(n *wireNode, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d.errs = append(d.errs, fmt.Errorf("%d:%d: %s", n.Line, n.Col, msg))
}

func (d *decoder) typeRef(n *wireNode, s string) *TypeRef {
	if s == "" {
		return nil
	}
	t, err := ParseType(s)
	if err != nil {
		d.errorf(n, "%v", err)
		return nil
	}
	t.Line, t.Column = n.Line, n.Col
	return t
}

func (d *decoder) decl(n *wireNode) Declaration {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case "plugin", "writer":
		p := &PluginDecl{Name: n.Name, IsWriter: n.Kind == "writer", Line: n.Line, Column: n.Col}
		for _, it := range n.Items {
			if decl := d.decl(it); decl != nil {
				p.Items = append(p.Items, decl)
			}
		}
		return p
	case "struct":
		return &StructDecl{Name: n.Name, Fields: d.fields(n.Fields), Line: n.Line, Column: n.Col}
	case "enum":
		e := &EnumDecl{Name: n.Name, Line: n.Line, Column: n.Col}
		for _, v := range n.Variants {
			e.Variants = append(e.Variants, &VariantDecl{
				Name: v.Name, Fields: d.fields(v.Fields), Line: v.Line, Column: v.Col,
			})
		}
		return e
	case "fn":
		return d.fn(n)
	case "impl":
		impl := &ImplDecl{Target: n.Target, Line: n.Line, Column: n.Col}
		for _, m := range n.Methods {
			impl.Methods = append(impl.Methods, d.fn(m))
		}
		return impl
	}
	d.errorf(n, "unknown declaration kind %q", n.Kind)
	return nil
}

func (d *decoder) fields(ns []*wireNode) []*FieldDecl {
	var out []*FieldDecl
	for _, f := range ns {
		out = append(out, &FieldDecl{Name: f.Name, Type: d.typeRef(f, f.Type), Line: f.Line, Column: f.Col})
	}
	return out
}

func (d *decoder) fn(n *wireNode) *FnDecl {
	fn := &FnDecl{
		Name:       n.Name,
		IsPublic:   n.Public,
		ReturnType: d.typeRef(n, n.Returns),
		Body:       d.block(n, n.Body),
		Line:       n.Line,
		Column:     n.Col,
	}
	for _, p := range n.Params {
		fn.Params = append(fn.Params, &Param{
			Name: p.Name, Type: d.typeRef(p, p.Type), Mutable: p.Mut, Line: p.Line, Column: p.Col,
		})
	}
	return fn
}

func (d *decoder) block(owner *wireNode, ns []*wireNode) *Block {
	b := &Block{Line: owner.Line, Column: owner.Col}
	for _, s := range ns {
		if stmt := d.stmt(s); stmt != nil {
			b.Statements = append(b.Statements, stmt)
		}
	}
	return b
}

func (d *decoder) stmt(n *wireNode) Statement {
	switch n.Kind {
	case "let":
		return &LetStmt{Name: n.Name, Mutable: n.Mut, Type: d.typeRef(n, n.Type), Value: d.expr(n.Init), Line: n.Line, Column: n.Col}
	case "assign":
		return &AssignStmt{Target: d.expr(n.Left), Value: d.expr(n.Right), Line: n.Line, Column: n.Col}
	case "expr":
		return &ExprStmt{Expr: d.expr(n.Expr), Line: n.Line, Column: n.Col}
	case "return":
		return &ReturnStmt{Value: d.expr(n.Expr), Line: n.Line, Column: n.Col}
	case "if":
		s := &IfStmt{Condition: d.expr(n.Cond), Then: d.block(n, n.Then), Line: n.Line, Column: n.Col}
		if n.Pattern != nil {
			s.Pattern = d.pattern(n.Pattern)
		}
		if n.Else != nil {
			s.Else = d.block(n, n.Else)
		}
		return s
	case "match":
		m := &MatchStmt{Value: d.expr(n.Expr), Line: n.Line, Column: n.Col}
		for _, a := range n.Arms {
			arm := &MatchArm{Pattern: d.pattern(a.Pattern), Body: d.block(a, a.Body), Line: a.Line, Column: a.Col}
			if a.Guard != nil {
				arm.Guard = d.expr(a.Guard)
			}
			m.Arms = append(m.Arms, arm)
		}
		return m
	case "while":
		return &WhileStmt{Condition: d.expr(n.Cond), Body: d.block(n, n.Body), Line: n.Line, Column: n.Col}
	case "for":
		return &ForStmt{Variable: n.Var, Iterable: d.expr(n.Expr), Body: d.block(n, n.Body), Line: n.Line, Column: n.Col}
	case "break":
		return &BreakStmt{Line: n.Line, Column: n.Col}
	case "continue":
		return &ContinueStmt{Line: n.Line, Column: n.Col}
	case "prop_assign":
		return &PropAssignStmt{
			Node: d.expr(n.Node), Property: n.Prop, Value: d.expr(n.Init),
			Type: d.typeRef(n, n.Type), Line: n.Line, Column: n.Col,
		}
	case "decl":
		return &DeclStmt{Decl: d.decl(n.Decl), Line: n.Line, Column: n.Col}
	}
	d.errorf(n, "unknown statement kind %q", n.Kind)
	return nil
}

func (d *decoder) expr(n *wireNode) Expression {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case "ident":
		return &Ident{Name: n.Name, Line: n.Line, Column: n.Col}
	case "self":
		return &SelfExpr{Line: n.Line, Column: n.Col}
	case "str":
		s, _ := n.Value.(string)
		return &StringLit{Value: s, Line: n.Line, Column: n.Col}
	case "int":
		v, ok := toInt64(n.Value)
		if !ok {
			d.errorf(n, "int literal: bad value %v", n.Value)
		}
		return &IntLit{Value: v, Line: n.Line, Column: n.Col}
	case "float":
		return &FloatLit{Value: floatText(n.Value), Line: n.Line, Column: n.Col}
	case "bool":
		b, _ := n.Value.(bool)
		return &BoolLit{Value: b, Line: n.Line, Column: n.Col}
	case "null":
		return &NullLit{Line: n.Line, Column: n.Col}
	case "unary":
		return &UnaryExpr{Op: d.op(n), Operand: d.expr(n.Operand), Line: n.Line, Column: n.Col}
	case "binary":
		return &BinaryExpr{Left: d.expr(n.Left), Op: d.op(n), Right: d.expr(n.Right), Line: n.Line, Column: n.Col}
	case "member":
		return &MemberExpr{Object: d.expr(n.Object), Field: n.Field, Line: n.Line, Column: n.Col}
	case "path":
		return &PathExpr{Segments: n.Path, Line: n.Line, Column: n.Col}
	case "call":
		c := &CallExpr{Callee: d.expr(n.Callee), Line: n.Line, Column: n.Col}
		for _, a := range n.Args {
			c.Args = append(c.Args, d.expr(a))
		}
		return c
	case "struct_lit":
		s := &StructLit{Name: n.Name, Line: n.Line, Column: n.Col}
		for _, f := range n.Fields {
			s.Fields = append(s.Fields, &FieldInit{Name: f.Name, Value: d.expr(f.Init)})
		}
		return s
	case "array":
		a := &ArrayLit{Line: n.Line, Column: n.Col}
		for _, e := range n.Elements {
			a.Elements = append(a.Elements, d.expr(e))
		}
		return a
	case "matches":
		return &MatchesExpr{Value: d.expr(n.Expr), Pattern: d.pattern(n.Pattern), Line: n.Line, Column: n.Col}
	case "prop":
		return &PropAccessExpr{Node: d.expr(n.Node), Property: n.Prop, Line: n.Line, Column: n.Col}
	}
	d.errorf(n, "unknown expression kind %q", n.Kind)
	return nil
}

func (d *decoder) op(n *wireNode) Op {
	op := Op(n.Op)
	if !op.Valid() {
		d.errorf(n, "unknown operator %q", n.Op)
	}
	return op
}

func (d *decoder) pattern(n *wireNode) Pattern {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case "_", "wildcard":
		return &WildcardPattern{Line: n.Line, Column: n.Col}
	case "bind":
		return &BindingPattern{Name: n.Name, Line: n.Line, Column: n.Col}
	case "lit":
		return &LiteralPattern{Value: d.expr(n.Expr), Line: n.Line, Column: n.Col}
	case "variant":
		v := &VariantPattern{Path: n.Path, Line: n.Line, Column: n.Col}
		for _, a := range n.Args {
			v.Args = append(v.Args, d.pattern(a))
		}
		return v
	}
	d.errorf(n, "unknown pattern kind %q", n.Kind)
	return nil
}

func toInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	case string:
		i, err := strconv.ParseInt(x, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func floatText(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
