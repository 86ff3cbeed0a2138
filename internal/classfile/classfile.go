// Package classfile decodes the JVM class file container: header, constant
// pool, member tables and attributes. Only structural well-formedness is
// checked; nothing here is a bytecode verifier.
package classfile

import "fmt"

// Attribute is a raw attribute_info: a name and its undecoded payload.
type Attribute struct {
	NameIndex uint16
	Name      string // empty if NameIndex does not resolve to a Utf8 entry
	Info      []byte
}

// Member is a field_info or method_info.
type Member struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
	// Code is the decoded "Code" attribute. Always nil for fields, and nil for
	// abstract and native methods.
	Code *CodeAttribute
}

// ClassFile is the decoded structure of one class file. It is not modified
// after Parse returns.
type ClassFile struct {
	Magic        uint32
	MinorVersion uint16
	MajorVersion uint16
	Pool         *Pool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16 // 0 for java/lang/Object and module-info
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// ClassName returns the internal name of this class.
func (c *ClassFile) ClassName() (string, error) {
	name, err := c.Pool.ClassName(c.ThisClass)
	if err != nil {
		return "", fmt.Errorf("this_class: %w", err)
	}
	return name, nil
}

// SuperName returns the internal name of the superclass, or "" when there is none.
func (c *ClassFile) SuperName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	name, err := c.Pool.ClassName(c.SuperClass)
	if err != nil {
		return "", fmt.Errorf("super_class: %w", err)
	}
	return name, nil
}

// MemberName returns the name and descriptor of a field or method.
func (c *ClassFile) MemberName(m *Member) (name, descriptor string, err error) {
	if name, err = c.Pool.Utf8(m.NameIndex); err != nil {
		return "", "", fmt.Errorf("member name: %w", err)
	}
	if descriptor, err = c.Pool.Utf8(m.DescriptorIndex); err != nil {
		return "", "", fmt.Errorf("member %s descriptor: %w", name, err)
	}
	return name, descriptor, nil
}

// Parse decodes a complete class file held in memory. Sections are read in
// file order; the constant pool is complete before anything is resolved.
// Structural failures wrap ErrMalformedContainer.
func Parse(data []byte) (*ClassFile, error) {
	r := NewReader(data)
	c := &ClassFile{}

	var err error
	if c.Magic, err = r.ReadUint32(); err != nil {
		return nil, truncated("header", r)
	}
	if c.Magic != Magic {
		return nil, malformed("header", 0, "bad magic 0x%08x", c.Magic)
	}
	if c.MinorVersion, err = r.ReadUint16(); err != nil {
		return nil, truncated("header", r)
	}
	if c.MajorVersion, err = r.ReadUint16(); err != nil {
		return nil, truncated("header", r)
	}

	if c.Pool, err = parsePool(r); err != nil {
		return nil, err
	}

	var flags uint16
	if flags, err = r.ReadUint16(); err != nil {
		return nil, truncated("access flags", r)
	}
	c.AccessFlags = AccessFlags(flags)
	if c.ThisClass, err = r.ReadUint16(); err != nil {
		return nil, truncated("this_class", r)
	}
	if c.SuperClass, err = r.ReadUint16(); err != nil {
		return nil, truncated("super_class", r)
	}

	if c.Interfaces, err = parseInterfaces(r); err != nil {
		return nil, err
	}
	if c.Fields, err = c.parseMembers(r, "fields", false); err != nil {
		return nil, err
	}
	if c.Methods, err = c.parseMembers(r, "methods", true); err != nil {
		return nil, err
	}
	if c.Attributes, err = c.parseAttributes(r, "attributes"); err != nil {
		return nil, err
	}

	if r.Remaining() != 0 {
		return nil, malformed("trailer", r.Position(), "%d unexpected bytes after attributes", r.Remaining())
	}
	return c, nil
}

// readCount reads a u2 table count and rejects it if count entries of at
// least minSize bytes cannot fit in what is left.
func readCount(r *Reader, section string, minSize int) (int, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return 0, truncated(section, r)
	}
	if int(n)*minSize > r.Remaining() {
		return 0, malformed(section, r.Position()-2, "count %d needs at least %d bytes, %d remaining",
			n, int(n)*minSize, r.Remaining())
	}
	return int(n), nil
}

func parseInterfaces(r *Reader) ([]uint16, error) {
	n, err := readCount(r, "interfaces", minInterfaceSize)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		// Cannot fail: readCount checked the length.
		out[i], _ = r.ReadUint16()
	}
	return out, nil
}

// parseMembers reads the fields or methods table. For methods the "Code"
// attribute is decoded as well.
func (c *ClassFile) parseMembers(r *Reader, section string, methods bool) ([]Member, error) {
	n, err := readCount(r, section, minMemberSize)
	if err != nil {
		return nil, err
	}
	members := make([]Member, n)
	for i := range members {
		m := &members[i]
		if r.Remaining() < minMemberSize {
			return nil, truncated(section, r)
		}
		// Cannot fail: the fixed part was checked above.
		flags, _ := r.ReadUint16()
		m.AccessFlags = AccessFlags(flags)
		m.NameIndex, _ = r.ReadUint16()
		m.DescriptorIndex, _ = r.ReadUint16()

		sub := fmt.Sprintf("%s[%d] attributes", section, i)
		if m.Attributes, err = c.parseAttributes(r, sub); err != nil {
			return nil, err
		}
		if !methods {
			continue
		}
		for _, a := range m.Attributes {
			if a.Name != attrCode {
				continue
			}
			if m.Code != nil {
				return nil, malformed(sub, r.Position(), "duplicate Code attribute")
			}
			if m.Code, err = parseCode(c, a.Info); err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", section, i, err)
			}
		}
	}
	return members, nil
}

// parseAttributes reads a count-prefixed attribute table. Attribute names are
// resolved against the already complete constant pool.
func (c *ClassFile) parseAttributes(r *Reader, section string) ([]Attribute, error) {
	n, err := readCount(r, section, minAttributeSize)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	attrs := make([]Attribute, n)
	for i := range attrs {
		a := &attrs[i]
		if r.Remaining() < minAttributeSize {
			return nil, truncated(section, r)
		}
		a.NameIndex, _ = r.ReadUint16()
		length, _ := r.ReadUint32()
		if int64(length) > int64(r.Remaining()) {
			return nil, malformed(section, r.Position()-4, "attribute length %d exceeds remaining %d bytes",
				length, r.Remaining())
		}
		a.Info, _ = r.ReadBytes(int(length))
		if name, err := c.Pool.Utf8(a.NameIndex); err == nil {
			a.Name = name
		}
	}
	return attrs, nil
}
