package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"
	"jcallgraph/internal/bytecode"
	"jcallgraph/internal/classfile"
)

// BuildClassCFG constructs a lattice.CFGGraph with one FuncCFG per method
// that has code. Call sites carry the code offset of their invoke instruction.
func BuildClassCFG(cf *classfile.ClassFile) (*lattice.CFGGraph, error) {
	class, err := cf.ClassName()
	if err != nil {
		return nil, err
	}
	cg := &lattice.CFGGraph{}
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if m.Code == nil {
			continue
		}
		name, desc, err := cf.MemberName(m)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		lcfg, _, err := BuildMethodCFG(classfile.MethodID(class, name, desc), m.Code, cf.Pool)
		if err != nil {
			return nil, err
		}
		cg.Funcs = append(cg.Funcs, lcfg)
	}
	return cg, nil
}

// BuildMethodCFG builds a single-method lattice.FuncCFG. It also returns the
// bytecode-level CFG, which keeps the decoded instructions.
func BuildMethodCFG(name string, code *classfile.CodeAttribute, pool bytecode.Resolver) (*lattice.FuncCFG, *bytecode.MethodCFG, error) {
	mcfg, err := bytecode.BuildCFG(name, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	lcfg, err := convertMethodCFG(&mcfg, pool)
	if err != nil {
		return nil, nil, err
	}
	return lcfg, &mcfg, nil
}

// convertMethodCFG maps a bytecode.MethodCFG to a lattice.FuncCFG, resolving
// the invoke instructions of each block into call sites.
func convertMethodCFG(mcfg *bytecode.MethodCFG, pool bytecode.Resolver) (*lattice.FuncCFG, error) {
	lcfg := &lattice.FuncCFG{Name: mcfg.Name}
	for _, db := range mcfg.Blocks {
		lb := &lattice.BasicBlock{
			ID:    db.ID,
			Start: mcfg.Offset(db),
			End:   mcfg.Insts[db.End-1].Next(),
			Term:  db.IsTerm,
		}
		for _, ds := range db.Succs {
			lb.Succs = append(lb.Succs, lattice.Successor{
				BlockID: ds.BlockID,
				Cond:    ds.Cond,
			})
		}
		for _, in := range mcfg.Insts[db.Start:db.End] {
			if !in.Op.IsInvoke() {
				continue
			}
			ref, err := pool.MemberRef(in.Index())
			if err != nil {
				return nil, fmt.Errorf("%s: %s at offset %d: %w", mcfg.Name, in.Op, in.Offset, err)
			}
			lb.Calls = append(lb.Calls, lattice.CallSite{
				Offset: in.Offset,
				Callee: ref.ID(),
			})
		}
		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg, nil
}
