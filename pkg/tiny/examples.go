package tiny

import "github.com/vito/tiny/pkg/ast"

// Example is a built-in sample program.
type Example struct {
	Name        string
	Description string
	Expr        ast.Expr
	Expected    int64
}

var Examples = []Example{
	{
		Name:        "sum",
		Description: "two constants added",
		Expr:        ast.Plus(ast.Cst(32), ast.Cst(13)),
		Expected:    45,
	},
	{
		Name:        "arith",
		Description: "a product of a sum and a product",
		Expr:        ast.Times(ast.Plus(ast.Cst(5), ast.Cst(2)), ast.Times(ast.Cst(5), ast.Cst(2))),
		Expected:    70,
	},
	{
		Name:        "lower",
		Description: "a sum of a sum and a product",
		Expr:        ast.Plus(ast.Plus(ast.Cst(5), ast.Cst(2)), ast.Times(ast.Cst(5), ast.Cst(2))),
		Expected:    17,
	},
	{
		Name:        "nested",
		Description: "a let whose bound expression refers to an outer let",
		Expr: ast.LetIn("x", ast.Cst(11),
			ast.LetIn("y", ast.Plus(ast.Var("x"), ast.Cst(45)),
				ast.Times(ast.Var("y"), ast.Cst(3)))),
		Expected: 168,
	},
	{
		Name:        "bound",
		Description: "a let whose bound expression is itself a let",
		Expr: ast.LetIn("y",
			ast.LetIn("x", ast.Cst(11), ast.Plus(ast.Var("x"), ast.Cst(45))),
			ast.Times(ast.Var("y"), ast.Cst(3))),
		Expected: 168,
	},
	{
		Name:        "shadow",
		Description: "an inner let hides an outer one of the same name",
		Expr:        ast.LetIn("x", ast.Cst(1), ast.LetIn("x", ast.Cst(2), ast.Var("x"))),
		Expected:    2,
	},
	{
		Name:        "outer",
		Description: "an outer binding read past an inner one",
		Expr:        ast.LetIn("x", ast.Cst(1), ast.LetIn("y", ast.Cst(2), ast.Var("x"))),
		Expected:    1,
	},
	{
		Name:        "product",
		Description: "two lets read on both sides of an operator",
		Expr: ast.LetIn("x", ast.Cst(3),
			ast.LetIn("y", ast.Cst(4),
				ast.Times(ast.Var("x"), ast.Var("y")))),
		Expected: 12,
	},
	{
		Name:        "scaled",
		Description: "a variable as the right operand below another operand",
		Expr: ast.LetIn("x", ast.Cst(2),
			ast.Plus(ast.Cst(1), ast.Times(ast.Cst(10), ast.Var("x")))),
		Expected: 21,
	},
	{
		Name:        "sequential",
		Description: "lets used side by side as operands",
		Expr: ast.Plus(
			ast.LetIn("a", ast.Cst(3), ast.Times(ast.Var("a"), ast.Var("a"))),
			ast.LetIn("b", ast.Cst(4), ast.Times(ast.Var("b"), ast.Var("b")))),
		Expected: 25,
	},
}

// LookupExample finds a built-in example by name.
func LookupExample(name string) (Example, bool) {
	for _, ex := range Examples {
		if ex.Name == name {
			return ex, true
		}
	}
	return Example{}, false
}
