// Package callgraph turns decoded class files into caller/callee edges and
// the lattice graph views used for rendering.
package callgraph

import (
	"fmt"
	"iter"

	"jcallgraph/internal/bytecode"
	"jcallgraph/internal/classfile"
)

// Method is a method declared by a class file.
type Method struct {
	Class      string
	Name       string
	Descriptor string
	Access     classfile.AccessFlags
	CodeSize   int // 0 for abstract and native methods
}

// ID returns the symbolic id of the method.
func (m Method) ID() string { return classfile.MethodID(m.Class, m.Name, m.Descriptor) }

// CallEdge is one invocation found in a method body. Edges are not
// deduplicated: a method calling the same target twice yields two edges.
type CallEdge struct {
	Class  string // internal name of the caller's class
	Caller string
	Callee string
	Order  int // discovery order
	Offset int // code offset of the invoke instruction in the caller
	Opcode bytecode.Opcode
	Target classfile.MemberRef
}

// Edges returns the call edges of cf lazily: methods in declaration order,
// invocations in offset order. Order counts from 0 within the class file.
// Methods without a Code attribute contribute nothing. The first failure is
// yielded once and ends the sequence.
func Edges(cf *classfile.ClassFile) iter.Seq2[CallEdge, error] {
	return func(yield func(CallEdge, error) bool) {
		class, err := cf.ClassName()
		if err != nil {
			yield(CallEdge{}, err)
			return
		}
		order := 0
		for i := range cf.Methods {
			m := &cf.Methods[i]
			if m.Code == nil {
				continue
			}
			name, desc, err := cf.MemberName(m)
			if err != nil {
				yield(CallEdge{}, fmt.Errorf("method %d: %w", i, err))
				return
			}
			caller := classfile.MethodID(class, name, desc)
			for inv, err := range bytecode.Walk(m.Code.Code, cf.Pool) {
				if err != nil {
					yield(CallEdge{}, fmt.Errorf("%s: %w", caller, err))
					return
				}
				e := CallEdge{
					Class:  class,
					Caller: caller,
					Callee: inv.Callee(),
					Order:  order,
					Offset: inv.Offset,
					Opcode: inv.Op,
					Target: inv.Target,
				}
				order++
				if !yield(e, nil) {
					return
				}
			}
		}
	}
}

// Extract collects all edges of cf. On failure no edges are returned.
func Extract(cf *classfile.ClassFile) ([]CallEdge, error) {
	var edges []CallEdge
	for e, err := range Edges(cf) {
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// Methods lists the methods declared by cf in declaration order.
func Methods(cf *classfile.ClassFile) ([]Method, error) {
	class, err := cf.ClassName()
	if err != nil {
		return nil, err
	}
	out := make([]Method, 0, len(cf.Methods))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		name, desc, err := cf.MemberName(m)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		size := 0
		if m.Code != nil {
			size = len(m.Code.Code)
		}
		out = append(out, Method{Class: class, Name: name, Descriptor: desc, Access: m.AccessFlags, CodeSize: size})
	}
	return out, nil
}

// Class is everything extracted from one class file.
type Class struct {
	Name    string
	Super   string
	Version string
	Methods []Method
	Edges   []CallEdge
}

// Analyze extracts the declared methods and call edges of cf.
func Analyze(cf *classfile.ClassFile) (*Class, error) {
	name, err := cf.ClassName()
	if err != nil {
		return nil, err
	}
	super, err := cf.SuperName()
	if err != nil {
		return nil, err
	}
	methods, err := Methods(cf)
	if err != nil {
		return nil, err
	}
	edges, err := Extract(cf)
	if err != nil {
		return nil, err
	}
	return &Class{Name: name, Super: super, Version: cf.Version(), Methods: methods, Edges: edges}, nil
}
