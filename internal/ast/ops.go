package ast

// Op is a unary or binary operator as written in source.
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"

	OpEq  Op = "=="
	OpNeq Op = "!="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="

	OpAnd Op = "&&"
	OpOr  Op = "||"
	OpNot Op = "!"
)

var knownOps = map[Op]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true, OpMod: true,
	OpEq: true, OpNeq: true, OpLt: true, OpLe: true, OpGt: true, OpGe: true,
	OpAnd: true, OpOr: true, OpNot: true,
}

// Valid reports whether op is one of the known operators.
func (op Op) Valid() bool { return knownOps[op] }

// IsComparison reports whether op yields a boolean from two operands of the same type.
func (op Op) IsComparison() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsLogical reports whether op is && or ||.
func (op Op) IsLogical() bool { return op == OpAnd || op == OpOr }
