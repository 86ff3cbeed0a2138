package bytecode

import (
	"sort"

	"jcallgraph/internal/classfile"
)

// BasicBlock is a run of instructions with a single entry point.
type BasicBlock struct {
	ID        int
	Start     int    // index into MethodCFG.Insts (inclusive)
	End       int    // index into MethodCFG.Insts (exclusive)
	Succs     []Succ // successor edges
	IsEntry   bool
	IsHandler bool // starts an exception handler
	IsTerm    bool // ends with a return, athrow or ret
}

// Succ describes a control-flow successor edge.
type Succ struct {
	BlockID int
	Cond    string // "" = unconditional, "T" = taken, "F" = fallthrough, or a switch label
}

// MethodCFG is the control flow graph of one method body.
type MethodCFG struct {
	Name   string
	Blocks []BasicBlock
	Insts  []Instruction
}

// Offset returns the code offset at which block b starts.
func (c *MethodCFG) Offset(b BasicBlock) int {
	if b.Start >= len(c.Insts) {
		return 0
	}
	return c.Insts[b.Start].Offset
}

// BuildCFG decodes code and partitions it into basic blocks:
//  1. Find leaders: offset 0, branch and switch targets, exception handler
//     entries, and instructions following a branch or return.
//  2. Partition instructions into blocks by leaders.
//  3. Compute successor edges from each block's last instruction.
//
// Exception edges are not modeled; handler blocks appear without
// predecessors. Targets that do not land on an instruction boundary are
// dropped.
func BuildCFG(name string, code *classfile.CodeAttribute) (MethodCFG, error) {
	var insts []Instruction
	for in, err := range Instructions(code.Code) {
		if err != nil {
			return MethodCFG{}, err
		}
		insts = append(insts, in)
	}
	if len(insts) == 0 {
		return MethodCFG{Name: name}, nil
	}

	offToIdx := make(map[int]int, len(insts))
	for i, in := range insts {
		offToIdx[in.Offset] = i
	}

	// Pass 1: leaders.
	leaders := map[int]bool{0: true}
	handlers := make(map[int]bool)
	for _, h := range code.ExceptionTable {
		if idx, ok := offToIdx[int(h.HandlerPC)]; ok {
			leaders[idx] = true
			handlers[idx] = true
		}
	}
	branches := make([]*BranchInfo, len(insts))
	for i, in := range insts {
		bi := DecodeBranch(in)
		if bi == nil {
			continue
		}
		branches[i] = bi
		if i+1 < len(insts) {
			leaders[i+1] = true
		}
		for _, t := range bi.Targets {
			if idx, ok := offToIdx[t]; ok {
				leaders[idx] = true
			}
		}
	}

	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	// Pass 2: partition.
	blocks := make([]BasicBlock, len(sorted))
	leaderToBlock := make(map[int]int, len(sorted))
	for i, start := range sorted {
		end := len(insts)
		if i+1 < len(sorted) {
			end = sorted[i+1]
		}
		blocks[i] = BasicBlock{
			ID:        i,
			Start:     start,
			End:       end,
			IsEntry:   start == 0,
			IsHandler: handlers[start],
		}
		leaderToBlock[start] = i
	}

	// Pass 3: successors.
	for i := range blocks {
		blk := &blocks[i]
		bi := branches[blk.End-1]
		next, hasNext := leaderToBlock[blk.End]

		switch {
		case bi == nil:
			if hasNext {
				blk.Succs = append(blk.Succs, Succ{BlockID: next})
			}
		case bi.IsRet:
			blk.IsTerm = true
		default:
			for j, t := range bi.Targets {
				idx, ok := offToIdx[t]
				if !ok {
					continue
				}
				cond := ""
				switch {
				case bi.Labels != nil:
					cond = bi.Labels[j]
				case bi.Cond:
					cond = "T"
				}
				blk.Succs = append(blk.Succs, Succ{BlockID: leaderToBlock[idx], Cond: cond})
			}
			if bi.Cond && hasNext {
				blk.Succs = append(blk.Succs, Succ{BlockID: next, Cond: "F"})
			}
		}
	}

	return MethodCFG{Name: name, Blocks: blocks, Insts: insts}, nil
}
