package render

import "jcallgraph/internal/bytecode"

// Theme holds colors for call graph rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors by invoke opcode.
	EdgeVirtual   string // invokevirtual
	EdgeSpecial   string // invokespecial (constructors, super, private)
	EdgeStatic    string // invokestatic
	EdgeInterface string // invokeinterface
	EdgeDynamic   string // invokedynamic (lambdas, string concat)

	// Node accents.
	EntryBorder  string // entry points
	ExternalFill string // classes not present in the input
	ExternalText string // methods not declared by any input class

	// Cluster styling.
	ClusterBorder string // subgraph cluster border
	ClusterLabel  string // subgraph cluster label text
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeVirtual:   "#424242", // dark gray
	EdgeSpecial:   "#9E9E9E", // gray
	EdgeStatic:    "#0B3D91", // NASA blue
	EdgeInterface: "#00695C", // teal
	EdgeDynamic:   "#E65100", // deep orange

	EntryBorder:  "#FC3D21", // NASA red
	ExternalFill: "#ECEFF1", // blue-gray 50
	ExternalText: "#9E9E9E",

	ClusterBorder: "#BDBDBD",
	ClusterLabel:  "#757575",
}

// edgeColor returns the theme color for an invoke opcode.
func edgeColor(op bytecode.Opcode, t Theme) string {
	switch op {
	case bytecode.InvokeVirtual:
		return t.EdgeVirtual
	case bytecode.InvokeSpecial:
		return t.EdgeSpecial
	case bytecode.InvokeInterface:
		return t.EdgeInterface
	case bytecode.InvokeDynamic:
		return t.EdgeDynamic
	default:
		return t.EdgeStatic
	}
}

// edgeStyle returns the DOT line style for an invoke opcode. Dispatch that
// depends on the receiver is dotted; bootstrap-linked call sites are dashed.
func edgeStyle(op bytecode.Opcode) string {
	switch op {
	case bytecode.InvokeVirtual, bytecode.InvokeInterface:
		return "dotted"
	case bytecode.InvokeDynamic:
		return "dashed"
	default:
		return "solid"
	}
}
