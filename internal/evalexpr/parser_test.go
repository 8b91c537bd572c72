package evalexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Expr
	}{
		{
			name: "bare variable",
			expr: "x",
			want: Variable{Name: "x"},
		},
		{
			name: "decimal number",
			expr: "123",
			want: NumberLiteral{Value: 123},
		},
		{
			name: "hex number",
			expr: "0x2a",
			want: NumberLiteral{Value: 42},
		},
		{
			name: "string literal",
			expr: `"hi\n"`,
			want: StringLiteral{Value: "hi\n"},
		},
		{
			name: "path",
			expr: "std::collections::HashMap",
			want: Path{Segments: []string{"std", "collections", "HashMap"}},
		},
		{
			name: "field access",
			expr: "x.field",
			want: FieldAccess{Base: Variable{Name: "x"}, Field: "field"},
		},
		{
			name: "index",
			expr: "x[0]",
			want: Index{Base: Variable{Name: "x"}, Index: NumberLiteral{Value: 0}},
		},
		{
			name: "deref",
			expr: "*x",
			want: Deref{Base: Variable{Name: "x"}},
		},
		{
			name: "address of mut",
			expr: "&mut x",
			want: AddressOf{Base: Variable{Name: "x"}, Mutable: true},
		},
		{
			name: "method call no args",
			expr: "v.len()",
			want: MethodCall{Base: Variable{Name: "v"}, Name: "len"},
		},
		{
			name: "method call with args",
			expr: "v.get(0, 1)",
			want: MethodCall{Base: Variable{Name: "v"}, Name: "get", Args: []Expr{NumberLiteral{Value: 0}, NumberLiteral{Value: 1}}},
		},
		{
			name: "chained field and index",
			expr: "x.items[0].name",
			want: FieldAccess{
				Base: Index{
					Base:  FieldAccess{Base: Variable{Name: "x"}, Field: "items"},
					Index: NumberLiteral{Value: 0},
				},
				Field: "name",
			},
		},
		{
			name: "parenthesized",
			expr: "(x)",
			want: Parenthesized{Inner: Variable{Name: "x"}},
		},
		{
			name: "function call",
			expr: "foo(1, 2)",
			want: FunctionCall{Callee: Variable{Name: "foo"}, Args: []Expr{NumberLiteral{Value: 1}, NumberLiteral{Value: 2}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{"", "x.", "x[", "(x", `"unterminated`} {
		_, err := Parse(expr)
		assert.Error(t, err, expr)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	exprs := []string{
		"x",
		"x.field",
		"x[0]",
		"*x",
		`"hi there"`,
		"v.len()",
		"v.get(0, 1)",
		"x.items[0].name",
		"(x)",
		"foo(1, 2)",
		"std::collections::HashMap",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			e1, err := Parse(expr)
			require.NoError(t, err)
			reformatted := Format(e1)
			e2, err := Parse(reformatted)
			require.NoError(t, err)
			assert.Equal(t, e1, e2)
		})
	}
}
