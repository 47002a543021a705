// Package maporder detects slices built by ranging over a map and never
// sorted, which makes report output depend on map iteration order.
package maporder

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects appends inside map ranges whose target is not sorted
// later in the same function.
var Analyzer = &analysis.Analyzer{
	Name:     "maporder",
	Doc:      "detects slices filled in map iteration order and never sorted",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// sortFuncs are the package-level functions that establish an order. The
// slice is always the first argument.
var sortFuncs = map[string]map[string]bool{
	"sort":   {"Strings": true, "Ints": true, "Float64s": true, "Slice": true, "SliceStable": true, "Sort": true, "Stable": true},
	"slices": {"Sort": true, "SortFunc": true, "SortStableFunc": true},
}

func run(pass *analysis.Pass) (any, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.FuncDecl)(nil),
		(*ast.FuncLit)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch fn := n.(type) {
		case *ast.FuncDecl:
			body = fn.Body
		case *ast.FuncLit:
			body = fn.Body
		}
		if body == nil {
			return
		}

		sorted := sortedTargets(body)
		ast.Inspect(body, func(n ast.Node) bool {
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}
			rng, ok := n.(*ast.RangeStmt)
			if !ok || !isMap(pass, rng.X) {
				return true
			}
			for _, target := range appendTargets(rng.Body) {
				if !sorted[exprString(target)] {
					pass.Reportf(target.Pos(),
						"%s is filled in map iteration order and never sorted",
						exprString(target))
				}
			}
			return true
		})
	})

	return nil, nil
}

func isMap(pass *analysis.Pass, expr ast.Expr) bool {
	t := pass.TypesInfo.TypeOf(expr)
	if t == nil {
		return false
	}
	_, ok := t.Underlying().(*types.Map)
	return ok
}

// appendTargets returns the left-hand sides of x = append(x, ...) in block.
func appendTargets(block *ast.BlockStmt) []ast.Expr {
	var targets []ast.Expr
	ast.Inspect(block, func(n ast.Node) bool {
		if _, ok := n.(*ast.FuncLit); ok {
			return false
		}
		assign, ok := n.(*ast.AssignStmt)
		if !ok || len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
			return true
		}
		call, ok := assign.Rhs[0].(*ast.CallExpr)
		if !ok {
			return true
		}
		if fn, ok := call.Fun.(*ast.Ident); ok && fn.Name == "append" {
			targets = append(targets, assign.Lhs[0])
		}
		return true
	})
	return targets
}

// sortedTargets collects every expression passed to a sort function in block.
func sortedTargets(block *ast.BlockStmt) map[string]bool {
	sorted := make(map[string]bool)
	ast.Inspect(block, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		if funcs, found := sortFuncs[pkg.Name]; found && funcs[sel.Sel.Name] {
			sorted[exprString(call.Args[0])] = true
		}
		return true
	})
	return sorted
}

func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.IndexExpr:
		return exprString(e.X) + "[" + exprString(e.Index) + "]"
	case *ast.CallExpr:
		// sort.Sort(byName(list)) sorts list.
		if len(e.Args) == 1 {
			return exprString(e.Args[0])
		}
		return ""
	default:
		return ""
	}
}
