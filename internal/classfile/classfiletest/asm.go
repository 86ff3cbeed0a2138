package classfiletest

import "encoding/binary"

// Asm assembles a bytecode array. Switch helpers compute their alignment
// padding from the current length, so the result is only valid as a whole
// code array starting at offset 0.
type Asm struct {
	buf []byte
}

// Len returns the current code length, i.e. the offset of the next instruction.
func (a *Asm) Len() int { return len(a.buf) }

// Bytes returns the assembled code.
func (a *Asm) Bytes() []byte { return a.buf }

// Op appends an opcode and raw operand bytes.
func (a *Asm) Op(op byte, operands ...byte) *Asm {
	a.buf = append(a.buf, op)
	a.buf = append(a.buf, operands...)
	return a
}

// U2 appends an opcode with a big-endian u2 operand (pool index or branch).
func (a *Asm) U2(op byte, v uint16) *Asm {
	a.buf = append(a.buf, op)
	a.buf = binary.BigEndian.AppendUint16(a.buf, v)
	return a
}

// InvokeInterface appends invokeinterface index, count, 0.
func (a *Asm) InvokeInterface(index uint16, count byte) *Asm {
	return a.U2(0xB9, index).Op2(count, 0)
}

// InvokeDynamic appends invokedynamic index, 0, 0.
func (a *Asm) InvokeDynamic(index uint16) *Asm {
	return a.U2(0xBA, index).Op2(0, 0)
}

// Op2 appends two raw bytes without an opcode.
func (a *Asm) Op2(x, y byte) *Asm {
	a.buf = append(a.buf, x, y)
	return a
}

func (a *Asm) pad() {
	for len(a.buf)%4 != 0 {
		a.buf = append(a.buf, 0)
	}
}

func (a *Asm) s4(v int32) {
	a.buf = binary.BigEndian.AppendUint32(a.buf, uint32(v))
}

// TableSwitch appends a tableswitch with one jump offset per value in low..high.
func (a *Asm) TableSwitch(def, low, high int32, offsets ...int32) *Asm {
	a.buf = append(a.buf, 0xAA)
	a.pad()
	a.s4(def)
	a.s4(low)
	a.s4(high)
	for _, o := range offsets {
		a.s4(o)
	}
	return a
}

// LookupSwitch appends a lookupswitch with the given match/offset pairs.
func (a *Asm) LookupSwitch(def int32, pairs ...[2]int32) *Asm {
	a.buf = append(a.buf, 0xAB)
	a.pad()
	a.s4(def)
	a.s4(int32(len(pairs)))
	for _, p := range pairs {
		a.s4(p[0])
		a.s4(p[1])
	}
	return a
}

// Wide appends a wide-prefixed load/store/ret with a u2 local index.
func (a *Asm) Wide(op byte, local uint16) *Asm {
	a.buf = append(a.buf, 0xC4, op)
	a.buf = binary.BigEndian.AppendUint16(a.buf, local)
	return a
}

// WideIinc appends wide iinc local, delta.
func (a *Asm) WideIinc(local uint16, delta int16) *Asm {
	a.Wide(0x84, local)
	a.buf = binary.BigEndian.AppendUint16(a.buf, uint16(delta))
	return a
}
