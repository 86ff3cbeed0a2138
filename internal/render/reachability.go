package render

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"jcallgraph/internal/callgraph"
)

// FindEntryPoints returns declared methods with code that no edge in the
// input calls. Class initializers run implicitly and are always entry points.
func FindEntryPoints(methods []callgraph.Method, edges []callgraph.CallEdge) []string {
	called := make(map[string]bool)
	for _, e := range edges {
		called[e.Callee] = true
	}

	var entries []string
	for _, m := range methods {
		if m.CodeSize == 0 {
			continue // abstract and native methods never start execution
		}
		id := m.ID()
		if m.Name == "<clinit>" || !called[id] {
			entries = append(entries, id)
		}
	}
	sort.Strings(entries)
	return slices.Compact(entries)
}

// ReachableSet performs BFS from entry points along call edges and returns
// the set of all reachable method ids, including external callees.
func ReachableSet(entryPoints []string, edges []callgraph.CallEdge) map[string]bool {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Caller] = append(adj[e.Caller], e.Callee)
	}

	reachable := make(map[string]bool)
	queue := make([]string, 0, len(entryPoints))
	for _, ep := range entryPoints {
		if !reachable[ep] {
			reachable[ep] = true
			queue = append(queue, ep)
		}
	}

	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		for _, target := range adj[fn] {
			if !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}
	}
	return reachable
}

// ReachabilityDOT renders the call graph restricted to the reachable set.
// Entry points are highlighted.
func ReachabilityDOT(methods []callgraph.Method, edges []callgraph.CallEdge, reachable map[string]bool, entryPoints []string, title string, t Theme) string {
	entrySet := make(map[string]bool, len(entryPoints))
	for _, ep := range entryPoints {
		entrySet[ep] = true
	}
	declared := make(map[string]bool, len(methods))
	for _, m := range methods {
		declared[m.ID()] = true
	}

	keys, counts := countEdges(edges)
	refNodes := make(map[string]bool)
	var shown []edgeKey
	for _, k := range keys {
		if !reachable[k.from] || !reachable[k.to] {
			continue
		}
		shown = append(shown, k)
		refNodes[k.from] = true
		refNodes[k.to] = true
	}
	for _, ep := range entryPoints {
		refNodes[ep] = true
	}

	byClass := make(map[string][]string)
	for name := range refNodes {
		owner := ownerOf(name)
		byClass[owner] = append(byClass[owner], name)
	}
	classes := make([]string, 0, len(byClass))
	for owner := range byClass {
		classes = append(classes, owner)
	}
	sort.Strings(classes)

	var b strings.Builder
	writeHeader(&b, "reachable", title, t)

	writeNode := func(indent, name string) {
		id := dotID(name)
		label := truncLabel(name, 50)
		switch {
		case entrySet[name]:
			fmt.Fprintf(&b, "%s%s [label=%q, penwidth=1.5, color=%q];\n", indent, id, label, t.EntryBorder)
		case !declared[name]:
			fmt.Fprintf(&b, "%s%s [label=%q, fillcolor=%q, fontcolor=%q];\n", indent, id, label, t.ExternalFill, t.ExternalText)
		default:
			fmt.Fprintf(&b, "%s%s [label=%q];\n", indent, id, label)
		}
	}

	var loose []string
	for _, owner := range classes {
		names := byClass[owner]
		sort.Strings(names)
		if len(names) < 2 || owner == "" {
			loose = append(loose, names...)
			continue
		}
		fmt.Fprintf(&b, "  subgraph %s {\n", "cluster_"+dotID(owner))
		fmt.Fprintf(&b, "    label=<<font point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.ClusterLabel, dotEscape(owner))
		fmt.Fprintf(&b, "    style=dotted; color=%q; penwidth=0.3;\n", t.ClusterBorder)
		for _, name := range names {
			writeNode("    ", name)
		}
		b.WriteString("  }\n")
	}
	sort.Strings(loose)
	for _, name := range loose {
		writeNode("  ", name)
	}
	b.WriteByte('\n')

	for _, k := range shown {
		attrs := fmt.Sprintf("color=%q, style=%q", edgeColor(k.op, t), edgeStyle(k.op))
		if n := counts[k]; n > 1 {
			attrs += fmt.Sprintf(", penwidth=%.1f", 0.5+float64(n)*0.1)
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(k.from), dotID(k.to), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}
