package bytecode

import "fmt"

// Opcode is a single JVM instruction opcode.
type Opcode uint8

// Opcodes the walker and decoder treat specially.
const (
	Iinc            Opcode = 0x84
	Ret             Opcode = 0xA9
	TableSwitch     Opcode = 0xAA
	LookupSwitch    Opcode = 0xAB
	InvokeVirtual   Opcode = 0xB6
	InvokeSpecial   Opcode = 0xB7
	InvokeStatic    Opcode = 0xB8
	InvokeInterface Opcode = 0xB9
	InvokeDynamic   Opcode = 0xBA
	Wide            Opcode = 0xC4
)

// variable marks opcodes whose operand length is computed from the stream.
const variable = -1

type opInfo struct {
	name    string
	operand int8 // operand bytes after the opcode, or variable
}

// opcodes maps every opcode value to its mnemonic and fixed operand length.
// Entries with an empty name (0xCB through 0xFD) are undefined.
var opcodes = [256]opInfo{
	0x00: {"nop", 0},
	0x01: {"aconst_null", 0},
	0x02: {"iconst_m1", 0},
	0x03: {"iconst_0", 0},
	0x04: {"iconst_1", 0},
	0x05: {"iconst_2", 0},
	0x06: {"iconst_3", 0},
	0x07: {"iconst_4", 0},
	0x08: {"iconst_5", 0},
	0x09: {"lconst_0", 0},
	0x0A: {"lconst_1", 0},
	0x0B: {"fconst_0", 0},
	0x0C: {"fconst_1", 0},
	0x0D: {"fconst_2", 0},
	0x0E: {"dconst_0", 0},
	0x0F: {"dconst_1", 0},
	0x10: {"bipush", 1},
	0x11: {"sipush", 2},
	0x12: {"ldc", 1},
	0x13: {"ldc_w", 2},
	0x14: {"ldc2_w", 2},
	0x15: {"iload", 1},
	0x16: {"lload", 1},
	0x17: {"fload", 1},
	0x18: {"dload", 1},
	0x19: {"aload", 1},
	0x1A: {"iload_0", 0},
	0x1B: {"iload_1", 0},
	0x1C: {"iload_2", 0},
	0x1D: {"iload_3", 0},
	0x1E: {"lload_0", 0},
	0x1F: {"lload_1", 0},
	0x20: {"lload_2", 0},
	0x21: {"lload_3", 0},
	0x22: {"fload_0", 0},
	0x23: {"fload_1", 0},
	0x24: {"fload_2", 0},
	0x25: {"fload_3", 0},
	0x26: {"dload_0", 0},
	0x27: {"dload_1", 0},
	0x28: {"dload_2", 0},
	0x29: {"dload_3", 0},
	0x2A: {"aload_0", 0},
	0x2B: {"aload_1", 0},
	0x2C: {"aload_2", 0},
	0x2D: {"aload_3", 0},
	0x2E: {"iaload", 0},
	0x2F: {"laload", 0},
	0x30: {"faload", 0},
	0x31: {"daload", 0},
	0x32: {"aaload", 0},
	0x33: {"baload", 0},
	0x34: {"caload", 0},
	0x35: {"saload", 0},
	0x36: {"istore", 1},
	0x37: {"lstore", 1},
	0x38: {"fstore", 1},
	0x39: {"dstore", 1},
	0x3A: {"astore", 1},
	0x3B: {"istore_0", 0},
	0x3C: {"istore_1", 0},
	0x3D: {"istore_2", 0},
	0x3E: {"istore_3", 0},
	0x3F: {"lstore_0", 0},
	0x40: {"lstore_1", 0},
	0x41: {"lstore_2", 0},
	0x42: {"lstore_3", 0},
	0x43: {"fstore_0", 0},
	0x44: {"fstore_1", 0},
	0x45: {"fstore_2", 0},
	0x46: {"fstore_3", 0},
	0x47: {"dstore_0", 0},
	0x48: {"dstore_1", 0},
	0x49: {"dstore_2", 0},
	0x4A: {"dstore_3", 0},
	0x4B: {"astore_0", 0},
	0x4C: {"astore_1", 0},
	0x4D: {"astore_2", 0},
	0x4E: {"astore_3", 0},
	0x4F: {"iastore", 0},
	0x50: {"lastore", 0},
	0x51: {"fastore", 0},
	0x52: {"dastore", 0},
	0x53: {"aastore", 0},
	0x54: {"bastore", 0},
	0x55: {"castore", 0},
	0x56: {"sastore", 0},
	0x57: {"pop", 0},
	0x58: {"pop2", 0},
	0x59: {"dup", 0},
	0x5A: {"dup_x1", 0},
	0x5B: {"dup_x2", 0},
	0x5C: {"dup2", 0},
	0x5D: {"dup2_x1", 0},
	0x5E: {"dup2_x2", 0},
	0x5F: {"swap", 0},
	0x60: {"iadd", 0},
	0x61: {"ladd", 0},
	0x62: {"fadd", 0},
	0x63: {"dadd", 0},
	0x64: {"isub", 0},
	0x65: {"lsub", 0},
	0x66: {"fsub", 0},
	0x67: {"dsub", 0},
	0x68: {"imul", 0},
	0x69: {"lmul", 0},
	0x6A: {"fmul", 0},
	0x6B: {"dmul", 0},
	0x6C: {"idiv", 0},
	0x6D: {"ldiv", 0},
	0x6E: {"fdiv", 0},
	0x6F: {"ddiv", 0},
	0x70: {"irem", 0},
	0x71: {"lrem", 0},
	0x72: {"frem", 0},
	0x73: {"drem", 0},
	0x74: {"ineg", 0},
	0x75: {"lneg", 0},
	0x76: {"fneg", 0},
	0x77: {"dneg", 0},
	0x78: {"ishl", 0},
	0x79: {"lshl", 0},
	0x7A: {"ishr", 0},
	0x7B: {"lshr", 0},
	0x7C: {"iushr", 0},
	0x7D: {"lushr", 0},
	0x7E: {"iand", 0},
	0x7F: {"land", 0},
	0x80: {"ior", 0},
	0x81: {"lor", 0},
	0x82: {"ixor", 0},
	0x83: {"lxor", 0},
	0x84: {"iinc", 2},
	0x85: {"i2l", 0},
	0x86: {"i2f", 0},
	0x87: {"i2d", 0},
	0x88: {"l2i", 0},
	0x89: {"l2f", 0},
	0x8A: {"l2d", 0},
	0x8B: {"f2i", 0},
	0x8C: {"f2l", 0},
	0x8D: {"f2d", 0},
	0x8E: {"d2i", 0},
	0x8F: {"d2l", 0},
	0x90: {"d2f", 0},
	0x91: {"i2b", 0},
	0x92: {"i2c", 0},
	0x93: {"i2s", 0},
	0x94: {"lcmp", 0},
	0x95: {"fcmpl", 0},
	0x96: {"fcmpg", 0},
	0x97: {"dcmpl", 0},
	0x98: {"dcmpg", 0},
	0x99: {"ifeq", 2},
	0x9A: {"ifne", 2},
	0x9B: {"iflt", 2},
	0x9C: {"ifge", 2},
	0x9D: {"ifgt", 2},
	0x9E: {"ifle", 2},
	0x9F: {"if_icmpeq", 2},
	0xA0: {"if_icmpne", 2},
	0xA1: {"if_icmplt", 2},
	0xA2: {"if_icmpge", 2},
	0xA3: {"if_icmpgt", 2},
	0xA4: {"if_icmple", 2},
	0xA5: {"if_acmpeq", 2},
	0xA6: {"if_acmpne", 2},
	0xA7: {"goto", 2},
	0xA8: {"jsr", 2},
	0xA9: {"ret", 1},
	0xAA: {"tableswitch", variable},
	0xAB: {"lookupswitch", variable},
	0xAC: {"ireturn", 0},
	0xAD: {"lreturn", 0},
	0xAE: {"freturn", 0},
	0xAF: {"dreturn", 0},
	0xB0: {"areturn", 0},
	0xB1: {"return", 0},
	0xB2: {"getstatic", 2},
	0xB3: {"putstatic", 2},
	0xB4: {"getfield", 2},
	0xB5: {"putfield", 2},
	0xB6: {"invokevirtual", 2},
	0xB7: {"invokespecial", 2},
	0xB8: {"invokestatic", 2},
	0xB9: {"invokeinterface", 4},
	0xBA: {"invokedynamic", 4},
	0xBB: {"new", 2},
	0xBC: {"newarray", 1},
	0xBD: {"anewarray", 2},
	0xBE: {"arraylength", 0},
	0xBF: {"athrow", 0},
	0xC0: {"checkcast", 2},
	0xC1: {"instanceof", 2},
	0xC2: {"monitorenter", 0},
	0xC3: {"monitorexit", 0},
	0xC4: {"wide", variable},
	0xC5: {"multianewarray", 3},
	0xC6: {"ifnull", 2},
	0xC7: {"ifnonnull", 2},
	0xC8: {"goto_w", 4},
	0xC9: {"jsr_w", 4},
	0xCA: {"breakpoint", 0},
	0xFE: {"impdep1", 0},
	0xFF: {"impdep2", 0},
}

// String returns the mnemonic, or "op_0x.." for an undefined opcode.
func (op Opcode) String() string {
	if name := opcodes[op].name; name != "" {
		return name
	}
	return fmt.Sprintf("op_%#02x", uint8(op))
}

// Defined reports whether op is assigned by the JVM instruction set
// (including the reserved breakpoint and impdep opcodes).
func (op Opcode) Defined() bool { return opcodes[op].name != "" }

// OperandLength returns the fixed number of operand bytes that follow op.
// ok is false for tableswitch, lookupswitch and wide, whose length depends on
// the instruction's position and content, and for undefined opcodes.
func (op Opcode) OperandLength() (n int, ok bool) {
	info := opcodes[op]
	if info.name == "" || info.operand == variable {
		return 0, false
	}
	return int(info.operand), true
}

// IsInvoke reports whether op is one of the five method invocation opcodes.
func (op Opcode) IsInvoke() bool { return op >= InvokeVirtual && op <= InvokeDynamic }

// wideTarget reports whether op may follow a wide prefix.
func wideTarget(op Opcode) bool {
	switch {
	case op >= 0x15 && op <= 0x19: // iload..aload
		return true
	case op >= 0x36 && op <= 0x3A: // istore..astore
		return true
	case op == Iinc, op == Ret:
		return true
	}
	return false
}
