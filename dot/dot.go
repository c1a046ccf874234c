// Package dot renders reactive graph snapshots for Graphviz.
package dot

//go:generate qtc -file=graph.qtpl

import (
	"strings"

	"github.com/delaneyj/signalgraph/reactive"
)

func shapeOf(kind reactive.NodeKind) string {
	switch kind {
	case reactive.KindSignal:
		return "ellipse"
	case reactive.KindMemo:
		return "box"
	case reactive.KindEffect:
		return "hexagon"
	default:
		return "plaintext"
	}
}

var quoter = strings.NewReplacer(`"`, `\"`)

// quote wraps s as a DOT string. Backslash sequences such as \n are left for
// Graphviz to interpret.
func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}
