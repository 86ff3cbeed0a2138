// Package bytecode decodes JVM method bytecode one instruction at a time and
// reports the method invocations it contains.
package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	ErrTruncatedInstruction = errors.New("bytecode: truncated instruction")
	ErrInvalidInstruction   = errors.New("bytecode: invalid instruction")
)

// Instruction is one decoded instruction.
type Instruction struct {
	Offset int
	Op     Opcode
	// Operands holds the bytes after the opcode, including switch padding.
	// It aliases the code array. For wide, Operands[0] is the modified opcode.
	Operands []byte
}

// Len returns the encoded size of the instruction in bytes.
func (in Instruction) Len() int { return 1 + len(in.Operands) }

// Next returns the offset of the following instruction.
func (in Instruction) Next() int { return in.Offset + in.Len() }

// Index returns the u2 constant pool index operand of instructions that have
// one (invoke*, field access, new, checkcast, ldc_w, ...).
func (in Instruction) Index() uint16 {
	if len(in.Operands) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(in.Operands)
}

// switchPad returns the alignment padding after a switch opcode at offset.
// The operands start on a 4-byte boundary measured from the code array start.
func switchPad(offset int) int {
	return (4 - (offset+1)%4) % 4
}

func truncatedAt(op Opcode, offset, need, have int) error {
	return fmt.Errorf("%w: %s at offset %d needs %d bytes, %d remaining", ErrTruncatedInstruction, op, offset, need, have)
}

func s4(b []byte) int64 { return int64(int32(binary.BigEndian.Uint32(b))) }

// Decode decodes the instruction starting at offset. It fails with
// ErrTruncatedInstruction if the instruction runs past the end of code and
// ErrInvalidInstruction if the opcode or its switch/wide form is not valid.
func Decode(code []byte, offset int) (Instruction, error) {
	if offset < 0 || offset >= len(code) {
		return Instruction{}, fmt.Errorf("%w: offset %d outside code of length %d", ErrTruncatedInstruction, offset, len(code))
	}
	op := Opcode(code[offset])
	have := len(code) - offset
	size := 1

	switch op {
	case TableSwitch:
		pad := switchPad(offset)
		fixed := 1 + pad + 12 // default, low, high
		if have < fixed {
			return Instruction{}, truncatedAt(op, offset, fixed, have)
		}
		base := offset + 1 + pad
		low, high := s4(code[base+4:]), s4(code[base+8:])
		if low > high {
			return Instruction{}, fmt.Errorf("%w: tableswitch at offset %d has low %d > high %d", ErrInvalidInstruction, offset, low, high)
		}
		need := int64(fixed) + 4*(high-low+1)
		if int64(have) < need {
			return Instruction{}, truncatedAt(op, offset, int(need), have)
		}
		size = int(need)
	case LookupSwitch:
		pad := switchPad(offset)
		fixed := 1 + pad + 8 // default, npairs
		if have < fixed {
			return Instruction{}, truncatedAt(op, offset, fixed, have)
		}
		npairs := s4(code[offset+1+pad+4:])
		if npairs < 0 {
			return Instruction{}, fmt.Errorf("%w: lookupswitch at offset %d has npairs %d", ErrInvalidInstruction, offset, npairs)
		}
		need := int64(fixed) + 8*npairs
		if int64(have) < need {
			return Instruction{}, truncatedAt(op, offset, int(need), have)
		}
		size = int(need)
	case Wide:
		if have < 2 {
			return Instruction{}, truncatedAt(op, offset, 2, have)
		}
		target := Opcode(code[offset+1])
		if !wideTarget(target) {
			return Instruction{}, fmt.Errorf("%w: wide at offset %d modifies %s", ErrInvalidInstruction, offset, target)
		}
		size = 4
		if target == Iinc {
			size = 6
		}
		if have < size {
			return Instruction{}, truncatedAt(op, offset, size, have)
		}
	default:
		if !op.Defined() {
			return Instruction{}, fmt.Errorf("%w: undefined opcode 0x%02x at offset %d", ErrInvalidInstruction, uint8(op), offset)
		}
		n, _ := op.OperandLength()
		size += n
		if have < size {
			return Instruction{}, truncatedAt(op, offset, size, have)
		}
	}

	return Instruction{
		Offset:   offset,
		Op:       op,
		Operands: code[offset+1 : offset+size : offset+size],
	}, nil
}

// Instructions returns a lazy sequence of the instructions in code, in offset
// order. A decoding failure is yielded once with a zero Instruction, and the
// sequence stops. The sequence can be ranged over any number of times.
func Instructions(code []byte) iter.Seq2[Instruction, error] {
	return func(yield func(Instruction, error) bool) {
		for off := 0; off < len(code); {
			in, err := Decode(code, off)
			if err != nil {
				yield(Instruction{}, err)
				return
			}
			if !yield(in, nil) {
				return
			}
			off = in.Next()
		}
	}
}

// String renders the instruction as "offset: mnemonic operands". Branch
// targets are shown as absolute offsets.
func (in Instruction) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: %s", in.Offset, in.Op)
	ops := in.Operands
	switch op := in.Op; {
	case len(ops) == 0:
	case op == TableSwitch:
		body := ops[switchPad(in.Offset):]
		low, high := s4(body[4:]), s4(body[8:])
		fmt.Fprintf(&sb, " %d..%d default -> %d", low, high, int64(in.Offset)+s4(body))
	case op == LookupSwitch:
		body := ops[switchPad(in.Offset):]
		fmt.Fprintf(&sb, " %d pairs default -> %d", s4(body[4:]), int64(in.Offset)+s4(body))
	case op == Wide:
		fmt.Fprintf(&sb, " %s %d", Opcode(ops[0]), binary.BigEndian.Uint16(ops[1:]))
		if len(ops) == 5 {
			fmt.Fprintf(&sb, " %d", int16(binary.BigEndian.Uint16(ops[3:])))
		}
	case op >= 0x99 && op <= 0xA8, op == 0xC6, op == 0xC7: // if*, goto, jsr
		fmt.Fprintf(&sb, " -> %d", in.Offset+int(int16(binary.BigEndian.Uint16(ops))))
	case op == 0xC8, op == 0xC9: // goto_w, jsr_w
		fmt.Fprintf(&sb, " -> %d", int64(in.Offset)+s4(ops))
	case op == 0x12: // ldc
		fmt.Fprintf(&sb, " #%d", ops[0])
	case op == 0x13, op == 0x14, op >= 0xB2 && op <= 0xBB, op == 0xBD, op == 0xC0, op == 0xC1, op == 0xC5:
		fmt.Fprintf(&sb, " #%d", in.Index())
		if op == InvokeInterface || op == 0xC5 {
			fmt.Fprintf(&sb, " %d", ops[2])
		}
	case op == 0x10: // bipush
		fmt.Fprintf(&sb, " %d", int8(ops[0]))
	case op == 0x11: // sipush
		fmt.Fprintf(&sb, " %d", int16(binary.BigEndian.Uint16(ops)))
	case op == Iinc:
		fmt.Fprintf(&sb, " %d %d", ops[0], int8(ops[1]))
	default:
		for _, b := range ops {
			fmt.Fprintf(&sb, " %d", b)
		}
	}
	return sb.String()
}
