package render

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"

	"jcallgraph/internal/bytecode"
	"jcallgraph/internal/callgraph"
)

type edgeKey struct {
	from, to string
	op       bytecode.Opcode
}

// countEdges collapses repeated caller/callee/opcode triples. Keys are
// returned in first-seen order.
func countEdges(edges []callgraph.CallEdge) ([]edgeKey, map[edgeKey]int) {
	counts := make(map[edgeKey]int)
	var keys []edgeKey
	for _, e := range edges {
		k := edgeKey{e.Caller, e.Callee, e.Opcode}
		if counts[k] == 0 {
			keys = append(keys, k)
		}
		counts[k]++
	}
	return keys, counts
}

// CallgraphDOT renders a method-level call graph as DOT. Methods declared by
// the input are clustered by class; callees outside the input are shown as
// plaintext nodes. maxNodes limits the number of declared methods rendered
// (0 = all).
func CallgraphDOT(methods []callgraph.Method, edges []callgraph.CallEdge, title string, t Theme, maxNodes int) string {
	keys, counts := countEdges(edges)

	// Identify methods that participate in edges.
	refNodes := make(map[string]bool)
	for _, k := range keys {
		refNodes[k.from] = true
		refNodes[k.to] = true
	}
	var render []callgraph.Method
	for _, m := range methods {
		if refNodes[m.ID()] {
			render = append(render, m)
		}
	}
	if maxNodes > 0 && len(render) > maxNodes {
		render = render[:maxNodes]
	}
	declared := make(map[string]bool, len(render))
	for _, m := range render {
		declared[m.ID()] = true
	}
	known := make(map[string]bool, len(methods))
	for _, m := range methods {
		known[m.ID()] = true
	}

	// External nodes: callees no input class declares, reachable from rendered methods.
	external := make(map[string]bool)
	var externalNames []string
	for _, k := range keys {
		if declared[k.from] && !known[k.to] && !external[k.to] {
			external[k.to] = true
			externalNames = append(externalNames, k.to)
		}
	}
	sort.Strings(externalNames)

	// Group rendered methods by class.
	byClass := make(map[string][]callgraph.Method)
	var classes []string
	for _, m := range render {
		if _, ok := byClass[m.Class]; !ok {
			classes = append(classes, m.Class)
		}
		byClass[m.Class] = append(byClass[m.Class], m)
	}
	sort.Strings(classes)

	var b strings.Builder
	writeHeader(&b, "callgraph", title, t)

	var singles []callgraph.Method
	for _, class := range classes {
		ms := byClass[class]
		if len(ms) < 2 {
			singles = append(singles, ms...)
			continue
		}
		fmt.Fprintf(&b, "  subgraph %s {\n", "cluster_"+dotID(class))
		fmt.Fprintf(&b, "    label=<<font point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.ClusterLabel, dotEscape(class))
		fmt.Fprintf(&b, "    style=dotted; color=%q; penwidth=0.3;\n", t.ClusterBorder)
		for _, m := range ms {
			label := truncLabel(stripOwner(m.ID(), class), 50)
			fmt.Fprintf(&b, "    %s [label=%q];\n", dotID(m.ID()), label)
		}
		b.WriteString("  }\n")
	}
	for _, m := range singles {
		fmt.Fprintf(&b, "  %s [label=%q];\n", dotID(m.ID()), truncLabel(m.ID(), 60))
	}
	b.WriteByte('\n')

	for _, name := range externalNames {
		fmt.Fprintf(&b, "  %s [label=%q, shape=plaintext, style=\"\", fillcolor=none, fontcolor=%q, fontsize=8];\n",
			dotID(name), truncLabel(name, 50), t.ExternalText)
	}
	b.WriteByte('\n')

	for _, k := range keys {
		if !declared[k.from] || !(declared[k.to] || external[k.to]) {
			continue
		}
		color := edgeColor(k.op, t)
		attrs := fmt.Sprintf("color=%q, style=%q", color, edgeStyle(k.op))
		if n := counts[k]; n > 1 {
			attrs += fmt.Sprintf(", penwidth=%.1f", 0.5+float64(n)*0.1)
			if n > 2 {
				attrs += fmt.Sprintf(", label=<<font point-size=\"7\" color=\"%s\">%dx</font>>", color, n)
			}
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(k.from), dotID(k.to), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}

// CallgraphStats summarizes a set of methods and edges.
type CallgraphStats struct {
	Classes       int            `json:"classes"`
	Methods       int            `json:"methods"`
	Edges         int            `json:"edges"`
	UniqueEdges   int            `json:"unique_edges"`
	ExternalCalls int            `json:"external_calls"`
	ByOpcode      map[string]int `json:"by_opcode"`
	TopCallers    []NameCount    `json:"top_callers"`
	TopCallees    []NameCount    `json:"top_callees"`
	TopClasses    []NameCount    `json:"top_classes"` // by declared method count
}

// NameCount pairs a name with a count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ComputeStats computes call graph statistics.
func ComputeStats(methods []callgraph.Method, edges []callgraph.CallEdge) CallgraphStats {
	stats := CallgraphStats{
		Methods:  len(methods),
		Edges:    len(edges),
		ByOpcode: make(map[string]int),
	}

	known := make(map[string]bool, len(methods))
	classCount := make(map[string]int)
	for _, m := range methods {
		known[m.ID()] = true
		classCount[m.Class]++
	}
	stats.Classes = len(classCount)

	callerCount := make(map[string]int)
	calleeCount := make(map[string]int)
	unique := make(map[[2]string]bool)
	for _, e := range edges {
		stats.ByOpcode[e.Opcode.String()]++
		callerCount[e.Caller]++
		calleeCount[e.Callee]++
		unique[[2]string{e.Caller, e.Callee}] = true
		if !known[e.Callee] {
			stats.ExternalCalls++
		}
	}
	stats.UniqueEdges = len(unique)

	stats.TopCallers = topNMap(callerCount, 20)
	stats.TopCallees = topNMap(calleeCount, 20)
	stats.TopClasses = topNMap(classCount, 30)
	return stats
}

// topNMap returns the top N entries from a map, sorted by count descending
// and then by name.
func topNMap(m map[string]int, n int) []NameCount {
	entries := make([]NameCount, 0, len(m))
	for name, count := range m {
		entries = append(entries, NameCount{name, count})
	}
	slices.SortFunc(entries, func(a, b NameCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
