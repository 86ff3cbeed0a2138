// Package classfiletest assembles class files in memory for tests.
package classfiletest

import (
	"encoding/binary"
	"math"
)

// Builder accumulates a constant pool and member tables and encodes them as a
// class file. Pool helpers return the index of the entry they add; Utf8, Class
// and NameAndType entries are shared when requested twice.
type Builder struct {
	Major, Minor uint16
	Access       uint16

	pool  [][]byte
	next  uint16
	utf8  map[string]uint16
	class map[string]uint16
	nat   map[[2]string]uint16

	this, super uint16
	interfaces  []uint16
	fields      [][]byte
	methods     [][]byte
	attributes  [][]byte
}

// New starts a class named className (internal form) extending java/lang/Object,
// at class file version 52.0.
func New(className string) *Builder {
	b := &Builder{
		Major:  52,
		Access: 0x0021, // public super
		next:   1,
		utf8:   make(map[string]uint16),
		class:  make(map[string]uint16),
		nat:    make(map[[2]string]uint16),
	}
	b.this = b.Class(className)
	b.super = b.Class("java/lang/Object")
	return b
}

// NoSuper clears super_class, as in java/lang/Object itself.
func (b *Builder) NoSuper() *Builder {
	b.super = 0
	return b
}

func (b *Builder) add(entry []byte, slots uint16) uint16 {
	idx := b.next
	b.pool = append(b.pool, entry)
	b.next += slots
	return idx
}

// Next returns the index the next pool entry will get.
func (b *Builder) Next() uint16 { return b.next }

// Utf8 adds a Utf8 entry holding s as-is (callers pass modified UTF-8 if needed).
func (b *Builder) Utf8(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	e := []byte{1}
	e = binary.BigEndian.AppendUint16(e, uint16(len(s)))
	e = append(e, s...)
	idx := b.add(e, 1)
	b.utf8[s] = idx
	return idx
}

// Class adds a Class entry naming an internal class name.
func (b *Builder) Class(name string) uint16 {
	if idx, ok := b.class[name]; ok {
		return idx
	}
	idx := b.add(u2Entry(7, b.Utf8(name)), 1)
	b.class[name] = idx
	return idx
}

// NameAndType adds a NameAndType entry.
func (b *Builder) NameAndType(name, descriptor string) uint16 {
	key := [2]string{name, descriptor}
	if idx, ok := b.nat[key]; ok {
		return idx
	}
	idx := b.add(u2Entry(12, b.Utf8(name), b.Utf8(descriptor)), 1)
	b.nat[key] = idx
	return idx
}

func (b *Builder) ref(tag byte, owner, name, descriptor string) uint16 {
	return b.add(u2Entry(tag, b.Class(owner), b.NameAndType(name, descriptor)), 1)
}

// FieldRef adds a Fieldref entry.
func (b *Builder) FieldRef(owner, name, descriptor string) uint16 {
	return b.ref(9, owner, name, descriptor)
}

// MethodRef adds a Methodref entry.
func (b *Builder) MethodRef(owner, name, descriptor string) uint16 {
	return b.ref(10, owner, name, descriptor)
}

// InterfaceMethodRef adds an InterfaceMethodref entry.
func (b *Builder) InterfaceMethodRef(owner, name, descriptor string) uint16 {
	return b.ref(11, owner, name, descriptor)
}

// InvokeDynamic adds an InvokeDynamic entry for bootstrap method bsm.
func (b *Builder) InvokeDynamic(bsm uint16, name, descriptor string) uint16 {
	return b.add(u2Entry(18, bsm, b.NameAndType(name, descriptor)), 1)
}

// String adds a String entry.
func (b *Builder) String(s string) uint16 {
	return b.add(u2Entry(8, b.Utf8(s)), 1)
}

// Integer adds an Integer entry.
func (b *Builder) Integer(v int32) uint16 {
	return b.add(binary.BigEndian.AppendUint32([]byte{3}, uint32(v)), 1)
}

// Long adds a Long entry. It takes two slots; the returned index + 1 is reserved.
func (b *Builder) Long(v int64) uint16 {
	return b.add(binary.BigEndian.AppendUint64([]byte{5}, uint64(v)), 2)
}

// Double adds a Double entry. It takes two slots; the returned index + 1 is reserved.
func (b *Builder) Double(v float64) uint16 {
	return b.add(binary.BigEndian.AppendUint64([]byte{6}, math.Float64bits(v)), 2)
}

// MethodHandle adds a MethodHandle entry.
func (b *Builder) MethodHandle(kind uint8, ref uint16) uint16 {
	return b.add(binary.BigEndian.AppendUint16([]byte{15, kind}, ref), 1)
}

// MethodType adds a MethodType entry.
func (b *Builder) MethodType(descriptor string) uint16 {
	return b.add(u2Entry(16, b.Utf8(descriptor)), 1)
}

// Raw adds an entry with an arbitrary tag and payload, occupying one slot.
func (b *Builder) Raw(tag byte, payload ...byte) uint16 {
	return b.add(append([]byte{tag}, payload...), 1)
}

// Interface adds an implemented interface.
func (b *Builder) Interface(name string) *Builder {
	b.interfaces = append(b.interfaces, b.Class(name))
	return b
}

// Field adds a field without attributes.
func (b *Builder) Field(access uint16, name, descriptor string) *Builder {
	b.fields = append(b.fields, b.member(access, name, descriptor))
	return b
}

// Method adds a method. A nil code adds no Code attribute (abstract/native).
func (b *Builder) Method(access uint16, name, descriptor string, code []byte) *Builder {
	var attrs [][]byte
	if code != nil {
		attrs = append(attrs, b.Attribute("Code", CodeAttribute(4, 4, code)))
	}
	b.methods = append(b.methods, b.member(access, name, descriptor, attrs...))
	return b
}

// MethodAttrs adds a method with pre-encoded attributes (see Attribute).
func (b *Builder) MethodAttrs(access uint16, name, descriptor string, attrs ...[]byte) *Builder {
	b.methods = append(b.methods, b.member(access, name, descriptor, attrs...))
	return b
}

// ClassAttribute adds a top-level attribute.
func (b *Builder) ClassAttribute(name string, info []byte) *Builder {
	b.attributes = append(b.attributes, b.Attribute(name, info))
	return b
}

// Attribute encodes an attribute_info with the given name and payload.
func (b *Builder) Attribute(name string, info []byte) []byte {
	out := binary.BigEndian.AppendUint16(nil, b.Utf8(name))
	out = binary.BigEndian.AppendUint32(out, uint32(len(info)))
	return append(out, info...)
}

// CodeAttribute encodes a Code attribute payload with an empty exception
// table and no nested attributes.
func CodeAttribute(maxStack, maxLocals uint16, code []byte) []byte {
	out := binary.BigEndian.AppendUint16(nil, maxStack)
	out = binary.BigEndian.AppendUint16(out, maxLocals)
	out = binary.BigEndian.AppendUint32(out, uint32(len(code)))
	out = append(out, code...)
	out = binary.BigEndian.AppendUint16(out, 0) // exception_table_length
	return binary.BigEndian.AppendUint16(out, 0)
}

func (b *Builder) member(access uint16, name, descriptor string, attrs ...[]byte) []byte {
	out := binary.BigEndian.AppendUint16(nil, access)
	out = binary.BigEndian.AppendUint16(out, b.Utf8(name))
	out = binary.BigEndian.AppendUint16(out, b.Utf8(descriptor))
	out = binary.BigEndian.AppendUint16(out, uint16(len(attrs)))
	for _, a := range attrs {
		out = append(out, a...)
	}
	return out
}

// Bytes encodes the class file.
func (b *Builder) Bytes() []byte {
	out := binary.BigEndian.AppendUint32(nil, 0xCAFEBABE)
	out = binary.BigEndian.AppendUint16(out, b.Minor)
	out = binary.BigEndian.AppendUint16(out, b.Major)
	out = binary.BigEndian.AppendUint16(out, b.next)
	for _, e := range b.pool {
		out = append(out, e...)
	}
	out = binary.BigEndian.AppendUint16(out, b.Access)
	out = binary.BigEndian.AppendUint16(out, b.this)
	out = binary.BigEndian.AppendUint16(out, b.super)
	out = binary.BigEndian.AppendUint16(out, uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		out = binary.BigEndian.AppendUint16(out, i)
	}
	out = appendTable(out, b.fields)
	out = appendTable(out, b.methods)
	return appendTable(out, b.attributes)
}

func appendTable(out []byte, rows [][]byte) []byte {
	out = binary.BigEndian.AppendUint16(out, uint16(len(rows)))
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func u2Entry(tag byte, vals ...uint16) []byte {
	out := []byte{tag}
	for _, v := range vals {
		out = binary.BigEndian.AppendUint16(out, v)
	}
	return out
}
