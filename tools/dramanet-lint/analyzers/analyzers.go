// Package analyzers provides all custom static analyzers for dramanet.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/dramanet/tools/dramanet-lint/analyzers/loopcall"
	"github.com/ersonp/dramanet/tools/dramanet-lint/analyzers/maporder"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
		maporder.Analyzer,
	}
}
