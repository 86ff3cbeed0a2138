package main

import (
	"github.com/zboralski/lattice/render"

	"jcallgraph/internal/callgraph"
	"jcallgraph/internal/classfile"
)

// latticeCallGraphDOT renders the deduplicated method graph.
func latticeCallGraphDOT(methods []callgraph.Method, edges []callgraph.CallEdge, title string) string {
	return render.DOT(callgraph.BuildCallGraph(methods, edges), title)
}

// classCFGDOT renders one block per basic block of every method in cf,
// listing call sites by bytecode offset.
func classCFGDOT(cf *classfile.ClassFile) (string, error) {
	cg, err := callgraph.BuildClassCFG(cf)
	if err != nil {
		return "", err
	}
	name, err := cf.ClassName()
	if err != nil {
		return "", err
	}
	return render.DOTCFG(cg, name), nil
}
