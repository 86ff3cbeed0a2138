package callgraph

import (
	"github.com/zboralski/lattice"
)

// BuildCallGraph constructs a lattice.Graph from declared methods and call
// edges. Declared methods become nodes in order, followed by callees that no
// input class declares. Repeated edges collapse to one; this view is for
// rendering only.
func BuildCallGraph(methods []Method, edges []CallEdge) *lattice.Graph {
	g := &lattice.Graph{}
	seen := make(map[string]bool, len(methods))
	addNode := func(id string) {
		if !seen[id] {
			seen[id] = true
			g.Nodes = append(g.Nodes, id)
		}
	}
	for _, m := range methods {
		addNode(m.ID())
	}
	type edgeKey struct{ from, to string }
	seenEdge := make(map[edgeKey]bool, len(edges))
	for _, e := range edges {
		addNode(e.Caller)
		addNode(e.Callee)
		k := edgeKey{e.Caller, e.Callee}
		if seenEdge[k] {
			continue
		}
		seenEdge[k] = true
		g.Edges = append(g.Edges, lattice.Edge{
			Caller: e.Caller,
			Callee: e.Callee,
		})
	}
	g.Dedup()
	return g
}
