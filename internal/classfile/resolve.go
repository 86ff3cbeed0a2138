package classfile

import "fmt"

// DynamicOwner is the owner reported for invokedynamic call sites. Their
// targets are bound at run time by a bootstrap method, so no class can be
// named statically. Angle brackets cannot occur in an internal class name,
// so the sentinel never collides with a real owner.
const DynamicOwner = "<invokedynamic>"

// MemberRef is a resolved symbolic method reference.
type MemberRef struct {
	Kind       Kind // KindMethodRef, KindInterfaceMethodRef or KindInvokeDynamic
	Owner      string
	Name       string
	Descriptor string
}

// ID returns the symbolic id owner.name+descriptor.
func (m MemberRef) ID() string {
	return MethodID(m.Owner, m.Name, m.Descriptor)
}

// MethodID joins an owner internal name, a method name and a descriptor into
// a symbolic id such as "java/lang/Object.<init>()V".
func MethodID(owner, name, descriptor string) string {
	return owner + "." + name + descriptor
}

// expect returns the entry at i if its kind is one of want.
func (p *Pool) expect(i uint16, want ...Kind) (Entry, error) {
	e, err := p.Entry(i)
	if err != nil {
		return Entry{}, err
	}
	for _, k := range want {
		if e.Kind == k {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: index %d is %s, want %v", ErrKindMismatch, i, e.Kind, want)
}

// Utf8 returns the text of the Utf8 entry at i.
func (p *Pool) Utf8(i uint16) (string, error) {
	e, err := p.expect(i, KindUtf8)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

// ClassName follows a Class entry to its internal name, e.g. "java/lang/String".
func (p *Pool) ClassName(i uint16) (string, error) {
	e, err := p.expect(i, KindClass)
	if err != nil {
		return "", err
	}
	name, err := p.Utf8(e.NameIndex)
	if err != nil {
		return "", fmt.Errorf("class %d name: %w", i, err)
	}
	return name, nil
}

// NameAndType follows a NameAndType entry to its name and descriptor.
func (p *Pool) NameAndType(i uint16) (name, descriptor string, err error) {
	e, err := p.expect(i, KindNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(e.NameIndex); err != nil {
		return "", "", fmt.Errorf("name_and_type %d name: %w", i, err)
	}
	if descriptor, err = p.Utf8(e.DescriptorIndex); err != nil {
		return "", "", fmt.Errorf("name_and_type %d descriptor: %w", i, err)
	}
	return name, descriptor, nil
}

// MemberRef resolves a Methodref, InterfaceMethodref or InvokeDynamic entry.
// InvokeDynamic entries only carry a NameAndType; their owner is DynamicOwner.
func (p *Pool) MemberRef(i uint16) (MemberRef, error) {
	e, err := p.expect(i, KindMethodRef, KindInterfaceMethodRef, KindInvokeDynamic)
	if err != nil {
		return MemberRef{}, err
	}
	ref := MemberRef{Kind: e.Kind, Owner: DynamicOwner}
	if e.Kind != KindInvokeDynamic {
		if ref.Owner, err = p.ClassName(e.ClassIndex); err != nil {
			return MemberRef{}, fmt.Errorf("%s %d owner: %w", e.Kind, i, err)
		}
	}
	if ref.Name, ref.Descriptor, err = p.NameAndType(e.NameAndTypeIndex); err != nil {
		return MemberRef{}, fmt.Errorf("%s %d: %w", e.Kind, i, err)
	}
	return ref, nil
}
