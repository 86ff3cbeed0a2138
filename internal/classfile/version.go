package classfile

import "fmt"

// Version returns the class file version as "major.minor".
func (c *ClassFile) Version() string {
	return fmt.Sprintf("%d.%d", c.MajorVersion, c.MinorVersion)
}

// JavaRelease names the Java platform release that introduced this class
// file's major version, e.g. 52 -> "Java 8". Versions 45 through 48 map to
// the 1.x releases.
func (c *ClassFile) JavaRelease() string {
	switch major := int(c.MajorVersion); {
	case major < 45:
		return fmt.Sprintf("unknown (%d)", major)
	case major <= 48:
		// 45 covers 1.0.2 and 1.1; the minor version tells them apart.
		if major == 45 {
			return "Java 1.1"
		}
		return fmt.Sprintf("Java 1.%d", major-44)
	default:
		return fmt.Sprintf("Java %d", major-44)
	}
}
