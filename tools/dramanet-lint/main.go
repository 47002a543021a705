// dramanet-lint is a custom static analyzer for dramanet's engine and
// storage code.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/dramanet/tools/dramanet-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
