package classfile

// ExceptionHandler is one exception_table entry of a Code attribute.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 catches everything (finally)
}

// CodeAttribute is the decoded "Code" attribute of a method. Only Code is
// consumed by the call graph; the exception table and nested attributes
// (LineNumberTable, StackMapTable, ...) are kept opaque.
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

// parseCode decodes a Code attribute payload. Offsets in errors are relative
// to the start of the payload.
func parseCode(c *ClassFile, info []byte) (*CodeAttribute, error) {
	const section = "Code attribute"
	r := NewReader(info)
	code := &CodeAttribute{}

	var err error
	if code.MaxStack, err = r.ReadUint16(); err != nil {
		return nil, truncated(section, r)
	}
	if code.MaxLocals, err = r.ReadUint16(); err != nil {
		return nil, truncated(section, r)
	}
	length, err := r.ReadUint32()
	if err != nil {
		return nil, truncated(section, r)
	}
	if int64(length) > int64(r.Remaining()) {
		return nil, malformed(section, r.Position()-4, "code_length %d exceeds remaining %d bytes", length, r.Remaining())
	}
	code.Code, _ = r.ReadBytes(int(length))

	n, err := readCount(r, section+" exception table", exceptionSize)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		code.ExceptionTable = make([]ExceptionHandler, n)
		for i := range code.ExceptionTable {
			h := &code.ExceptionTable[i]
			h.StartPC, _ = r.ReadUint16()
			h.EndPC, _ = r.ReadUint16()
			h.HandlerPC, _ = r.ReadUint16()
			h.CatchType, _ = r.ReadUint16()
		}
	}

	if code.Attributes, err = c.parseAttributes(r, section+" attributes"); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, malformed(section, r.Position(), "%d unexpected bytes after attributes", r.Remaining())
	}
	return code, nil
}
