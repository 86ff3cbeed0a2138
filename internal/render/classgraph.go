package render

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"jcallgraph/internal/callgraph"
)

// ClassgraphDOT renders a class-level call graph where each class is one node
// and edges aggregate inter-class calls. Callee classes not declared by the
// input are drawn with the external fill. maxNodes limits rendered classes
// (0 = all), keeping the classes involved in the most calls.
func ClassgraphDOT(methods []callgraph.Method, edges []callgraph.CallEdge, title string, t Theme, maxNodes int) string {
	methodCount := make(map[string]int)
	for _, m := range methods {
		methodCount[m.Class]++
	}

	type classEdge struct {
		from, to string
	}
	classCounts := make(map[classEdge]int)
	var order []classEdge
	for _, e := range edges {
		src, dst := e.Class, e.Target.Owner
		if src == "" {
			src = ownerOf(e.Caller)
		}
		if src == dst || dst == "" {
			continue // intra-class calls
		}
		ce := classEdge{src, dst}
		if classCounts[ce] == 0 {
			order = append(order, ce)
		}
		classCounts[ce]++
	}

	involvement := make(map[string]int)
	for ce, count := range classCounts {
		involvement[ce.from] += count
		involvement[ce.to] += count
	}
	ranked := topNMap(involvement, len(involvement))
	if maxNodes > 0 && len(ranked) > maxNodes {
		ranked = ranked[:maxNodes]
	}
	renderSet := make(map[string]bool, len(ranked))
	for _, rc := range ranked {
		renderSet[rc.Name] = true
	}

	var b strings.Builder
	writeHeader(&b, "classgraph", title, t)

	maxMethods := 1
	for name := range renderSet {
		maxMethods = max(maxMethods, methodCount[name])
	}
	names := make([]string, 0, len(renderSet))
	for name := range renderSet {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		n := methodCount[name]
		height := 0.4 + 0.3*math.Log2(float64(n)+1)/math.Log2(float64(maxMethods)+1)
		if n == 0 {
			label := fmt.Sprintf("<<font point-size=\"10\" color=\"%s\">%s</font>>",
				t.ExternalText, dotEscape(simpleName(name)))
			fmt.Fprintf(&b, "  %s [label=%s, tooltip=%q, fillcolor=%q, height=%.2f];\n",
				dotID(name), label, name, t.ExternalFill, height)
			continue
		}
		label := fmt.Sprintf("<<font point-size=\"10\">%s</font><br/><font point-size=\"7\" color=\"%s\">%d methods</font>>",
			dotEscape(simpleName(name)), t.ExternalText, n)
		fmt.Fprintf(&b, "  %s [label=%s, tooltip=%q, height=%.2f];\n", dotID(name), label, name, height)
	}
	b.WriteByte('\n')

	maxEdgeCount := 1
	for _, ce := range order {
		if renderSet[ce.from] && renderSet[ce.to] {
			maxEdgeCount = max(maxEdgeCount, classCounts[ce])
		}
	}
	slices.SortFunc(order, func(a, b classEdge) int {
		if c := cmp.Compare(a.from, b.from); c != 0 {
			return c
		}
		return cmp.Compare(a.to, b.to)
	})
	for _, ce := range order {
		if !renderSet[ce.from] || !renderSet[ce.to] {
			continue
		}
		count := classCounts[ce]
		pw := 0.5 + 2.0*math.Log2(float64(count)+1)/math.Log2(float64(maxEdgeCount)+1)
		attrs := fmt.Sprintf("penwidth=%.1f", pw)
		if count > 1 {
			attrs += fmt.Sprintf(", label=<<font point-size=\"7\" color=\"%s\">%d</font>>", t.ExternalText, count)
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(ce.from), dotID(ce.to), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}
