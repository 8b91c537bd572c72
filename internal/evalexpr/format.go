package evalexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders e back to source text such that re-parsing the result
// produces a structurally equal AST (the round-trip property tests exercise
// directly).
func Format(e Expr) string {
	var b strings.Builder
	format(&b, e)
	return b.String()
}

func format(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case Variable:
		b.WriteString(n.Name)
	case Path:
		b.WriteString(strings.Join(n.Segments, "::"))
	case Generic:
		format(b, n.Base)
		b.WriteByte('<')
		b.WriteString(strings.Join(n.Args, ", "))
		b.WriteByte('>')
	case FieldAccess:
		format(b, n.Base)
		b.WriteByte('.')
		b.WriteString(n.Field)
	case Index:
		format(b, n.Base)
		b.WriteByte('[')
		format(b, n.Index)
		b.WriteByte(']')
	case Deref:
		b.WriteByte('*')
		format(b, n.Base)
	case AddressOf:
		b.WriteByte('&')
		if n.Mutable {
			b.WriteString("mut ")
		}
		format(b, n.Base)
	case NumberLiteral:
		b.WriteString(strconv.FormatInt(n.Value, 10))
	case StringLiteral:
		b.WriteByte('"')
		b.WriteString(escapeString(n.Value))
		b.WriteByte('"')
	case Parenthesized:
		b.WriteByte('(')
		format(b, n.Inner)
		b.WriteByte(')')
	case MethodCall:
		format(b, n.Base)
		b.WriteByte('.')
		b.WriteString(n.Name)
		b.WriteByte('(')
		formatArgs(b, n.Args)
		b.WriteByte(')')
	case FunctionCall:
		format(b, n.Callee)
		b.WriteByte('(')
		formatArgs(b, n.Args)
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<unknown %T>", e)
	}
}

func formatArgs(b *strings.Builder, args []Expr) {
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, a)
	}
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
