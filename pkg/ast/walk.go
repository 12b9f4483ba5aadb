package ast

// Walk visits e and its children depth-first, left to right. If fn returns
// false the children of that node are skipped.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch e := e.(type) {
	case *BinaryOp:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case *Let:
		Walk(e.Bound, fn)
		Walk(e.Body, fn)
	}
}

// FreeVariables returns the names referenced by e that no enclosing Let
// binds, in order of first occurrence.
func FreeVariables(e Expr) []string {
	var free []string
	seen := map[string]bool{}
	var visit func(Expr, map[string]int)
	visit = func(e Expr, bound map[string]int) {
		switch e := e.(type) {
		case *Variable:
			if bound[e.Name] == 0 && !seen[e.Name] {
				seen[e.Name] = true
				free = append(free, e.Name)
			}
		case *BinaryOp:
			visit(e.Left, bound)
			visit(e.Right, bound)
		case *Let:
			visit(e.Bound, bound)
			bound[e.Name]++
			visit(e.Body, bound)
			bound[e.Name]--
		}
	}
	visit(e, map[string]int{})
	return free
}

// Depth returns the nesting depth of e; a leaf has depth 1.
func Depth(e Expr) int {
	switch e := e.(type) {
	case *BinaryOp:
		return 1 + max(Depth(e.Left), Depth(e.Right))
	case *Let:
		return 1 + max(Depth(e.Bound), Depth(e.Body))
	case nil:
		return 0
	default:
		return 1
	}
}
