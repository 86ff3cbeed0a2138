package classfile

import "fmt"

// Kind is the closed set of constant pool entry variants.
type Kind uint8

const (
	// KindReserved marks index 0 and the slot following a Long or Double.
	KindReserved Kind = iota
	KindUtf8
	KindInteger
	KindFloat
	KindLong
	KindDouble
	KindClass
	KindString
	KindFieldRef
	KindMethodRef
	KindInterfaceMethodRef
	KindNameAndType
	KindMethodHandle
	KindMethodType
	KindInvokeDynamic
	// KindUnsupported holds entries that are well-formed but not modeled
	// (Dynamic, Module, Package). Entry.Tag records which.
	KindUnsupported
)

var kindNames = [...]string{
	KindReserved:           "Reserved",
	KindUtf8:               "Utf8",
	KindInteger:            "Integer",
	KindFloat:              "Float",
	KindLong:               "Long",
	KindDouble:             "Double",
	KindClass:              "Class",
	KindString:             "String",
	KindFieldRef:           "Fieldref",
	KindMethodRef:          "Methodref",
	KindInterfaceMethodRef: "InterfaceMethodref",
	KindNameAndType:        "NameAndType",
	KindMethodHandle:       "MethodHandle",
	KindMethodType:         "MethodType",
	KindInvokeDynamic:      "InvokeDynamic",
	KindUnsupported:        "Unsupported",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Entry is one constant pool slot. Which fields are meaningful depends on
// Kind; the rest are zero.
type Entry struct {
	Kind Kind
	Tag  Tag

	Text  string // Utf8
	Value uint64 // Integer, Float (low 32 bits), Long, Double

	NameIndex        uint16 // Class, NameAndType
	DescriptorIndex  uint16 // NameAndType, MethodType
	ClassIndex       uint16 // Fieldref, Methodref, InterfaceMethodref
	NameAndTypeIndex uint16 // Fieldref, Methodref, InterfaceMethodref, InvokeDynamic
	StringIndex      uint16 // String
	BootstrapIndex   uint16 // InvokeDynamic
	RefKind          uint8  // MethodHandle
	RefIndex         uint16 // MethodHandle
}

var refKinds = map[Tag]Kind{
	TagFieldref:           KindFieldRef,
	TagMethodref:          KindMethodRef,
	TagInterfaceMethodref: KindInterfaceMethodRef,
}

// wide reports whether the entry occupies two pool slots.
func (e Entry) wide() bool { return e.Kind == KindLong || e.Kind == KindDouble }

// Pool is a decoded constant pool. Indices are 1-based; slot 0 is reserved.
type Pool struct {
	entries []Entry
}

// NewPool builds a pool from entries indexed by pool index, so entries[0] must
// be the reserved slot. Each Long or Double must be followed by a reserved slot.
func NewPool(entries []Entry) *Pool {
	return &Pool{entries: entries}
}

// Count returns constant_pool_count: the number of slots including slot 0.
func (p *Pool) Count() int { return len(p.entries) }

// Entry returns the entry at index i.
func (p *Pool) Entry(i uint16) (Entry, error) {
	if i == 0 {
		return Entry{}, fmt.Errorf("%w: index 0", ErrInvalidIndex)
	}
	if int(i) >= len(p.entries) {
		return Entry{}, fmt.Errorf("%w: index %d out of range (count %d)", ErrInvalidIndex, i, len(p.entries))
	}
	e := p.entries[i]
	if e.Kind == KindReserved {
		return Entry{}, fmt.Errorf("%w: index %d is the reserved upper half of a Long/Double", ErrInvalidIndex, i)
	}
	return e, nil
}

// parsePool reads constant_pool_count and the entries that follow it.
func parsePool(r *Reader) (*Pool, error) {
	const section = "constant pool"
	count, err := r.ReadUint16()
	if err != nil {
		return nil, truncated(section, r)
	}
	if count == 0 {
		return nil, malformed(section, r.Position()-2, "constant_pool_count is 0")
	}
	// Every entry is at least 3 bytes (tag + u2).
	if int(count-1)*3 > r.Remaining() {
		return nil, malformed(section, r.Position(), "count %d exceeds remaining %d bytes", count, r.Remaining())
	}

	entries := make([]Entry, count)
	for i := 1; i < int(count); i++ {
		start := r.Position()
		e, err := parseEntry(r)
		if err != nil {
			return nil, err
		}
		entries[i] = e
		if e.wide() {
			if i+1 >= int(count) {
				return nil, malformed(section, start, "%s at index %d has no room for its second slot", e.Kind, i)
			}
			i++ // entries[i] stays KindReserved
		}
	}
	return &Pool{entries: entries}, nil
}

func parseEntry(r *Reader) (Entry, error) {
	const section = "constant pool"
	start := r.Position()
	tagByte, err := r.ReadUint8()
	if err != nil {
		return Entry{}, truncated(section, r)
	}
	tag := Tag(tagByte)
	e := Entry{Tag: tag}

	// u2 reads are the common case; collect the first failure.
	var rerr error
	u2 := func() uint16 {
		v, err := r.ReadUint16()
		if err != nil && rerr == nil {
			rerr = err
		}
		return v
	}

	switch tag {
	case TagUtf8:
		n := u2()
		if rerr != nil {
			break
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			rerr = err
			break
		}
		e.Kind = KindUtf8
		e.Text = decodeModifiedUTF8(b)
	case TagInteger, TagFloat:
		v, err := r.ReadUint32()
		rerr = err
		e.Kind = KindInteger
		if tag == TagFloat {
			e.Kind = KindFloat
		}
		e.Value = uint64(v)
	case TagLong, TagDouble:
		v, err := r.ReadUint64()
		rerr = err
		e.Kind = KindLong
		if tag == TagDouble {
			e.Kind = KindDouble
		}
		e.Value = v
	case TagClass:
		e.Kind = KindClass
		e.NameIndex = u2()
	case TagString:
		e.Kind = KindString
		e.StringIndex = u2()
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		e.Kind = refKinds[tag]
		e.ClassIndex = u2()
		e.NameAndTypeIndex = u2()
	case TagNameAndType:
		e.Kind = KindNameAndType
		e.NameIndex = u2()
		e.DescriptorIndex = u2()
	case TagMethodHandle:
		kind, err := r.ReadUint8()
		if err != nil {
			rerr = err
			break
		}
		e.Kind = KindMethodHandle
		e.RefKind = kind
		e.RefIndex = u2()
	case TagMethodType:
		e.Kind = KindMethodType
		e.DescriptorIndex = u2()
	case TagInvokeDynamic:
		e.Kind = KindInvokeDynamic
		e.BootstrapIndex = u2()
		e.NameAndTypeIndex = u2()
	case TagDynamic:
		e.Kind = KindUnsupported
		e.BootstrapIndex = u2()
		e.NameAndTypeIndex = u2()
	case TagModule, TagPackage:
		e.Kind = KindUnsupported
		e.NameIndex = u2()
	default:
		return Entry{}, malformed(section, start, "unknown tag %d", tagByte)
	}
	if rerr != nil {
		return Entry{}, truncated(section, r)
	}
	return e, nil
}
