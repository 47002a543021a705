// Package loopcall detects store, index and model calls inside loops.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects per-item calls to external services that have a batch or
// whole-network form.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects store, index and model calls inside loops that should be batched",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// externalMethods maps per-item methods to the call that should replace them.
var externalMethods = map[string]string{
	// Embedder
	"Embed": "EmbedBatch",
	// ProfileIndex
	"Search": "a single Search with a larger limit",
	// Narrator takes every request at once
	"Narrate": "one Narrate call with all requests",
	// NetworkStore persists whole networks
	"SaveNetwork": "one SaveNetwork after all mutations",
	"LoadNetwork": "one LoadNetwork before the loop",
}

func run(pass *analysis.Pass) (any, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Nested loops report their own calls.
			switch n.(type) {
			case *ast.RangeStmt, *ast.ForStmt, *ast.FuncLit:
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			if batch, found := externalMethods[sel.Sel.Name]; found {
				pass.Reportf(call.Pos(),
					"potential N+1: %s called inside loop - use %s",
					sel.Sel.Name, batch)
			}
			return true
		})
	})

	return nil, nil
}
