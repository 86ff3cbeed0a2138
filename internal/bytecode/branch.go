package bytecode

import "fmt"

// BranchInfo describes how an instruction transfers control.
type BranchInfo struct {
	// Targets are absolute code offsets. For switches the default target is
	// first, followed by one target per case.
	Targets []int
	// Labels names each target for switches ("default", "case 3"); nil otherwise.
	Labels []string
	Cond   bool // true if execution may also fall through to the next instruction
	IsRet  bool // true for the return family, athrow and ret
}

// DecodeBranch returns the control transfer of in, or nil if in always falls
// through to the next instruction.
func DecodeBranch(in Instruction) *BranchInfo {
	op := in.Op
	switch {
	case op >= 0xAC && op <= 0xB1, op == 0xBF, op == Ret: // *return, athrow, ret
		return &BranchInfo{IsRet: true}
	case op >= 0x99 && op <= 0xA6, op == 0xC6, op == 0xC7: // if*
		return &BranchInfo{Targets: []int{in.branch16()}, Cond: true}
	case op == 0xA7: // goto
		return &BranchInfo{Targets: []int{in.branch16()}}
	case op == 0xC8: // goto_w
		return &BranchInfo{Targets: []int{in.branch32()}}
	case op == 0xA8: // jsr returns to the next instruction
		return &BranchInfo{Targets: []int{in.branch16()}, Cond: true}
	case op == 0xC9: // jsr_w
		return &BranchInfo{Targets: []int{in.branch32()}, Cond: true}
	case op == TableSwitch:
		body := in.Operands[switchPad(in.Offset):]
		low, high := s4(body[4:]), s4(body[8:])
		bi := &BranchInfo{
			Targets: []int{in.Offset + int(s4(body))},
			Labels:  []string{"default"},
		}
		for i := int64(0); i <= high-low; i++ {
			bi.Targets = append(bi.Targets, in.Offset+int(s4(body[12+4*i:])))
			bi.Labels = append(bi.Labels, fmt.Sprintf("case %d", low+i))
		}
		return bi
	case op == LookupSwitch:
		body := in.Operands[switchPad(in.Offset):]
		n := s4(body[4:])
		bi := &BranchInfo{
			Targets: []int{in.Offset + int(s4(body))},
			Labels:  []string{"default"},
		}
		for i := int64(0); i < n; i++ {
			pair := body[8+8*i:]
			bi.Targets = append(bi.Targets, in.Offset+int(s4(pair[4:])))
			bi.Labels = append(bi.Labels, fmt.Sprintf("case %d", s4(pair)))
		}
		return bi
	}
	return nil
}

func (in Instruction) branch16() int {
	return in.Offset + int(int16(in.Index()))
}

func (in Instruction) branch32() int {
	return in.Offset + int(s4(in.Operands))
}
