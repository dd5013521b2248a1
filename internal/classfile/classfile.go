// Package classfile reads the header of compiled JVM class files: the
// constant pool, access flags, the class itself, its superclass and its
// direct interfaces. Fields, methods and attributes are not decoded.
//
// Utf8 constants use the JVM's modified UTF-8: NUL takes two bytes and
// characters outside the BMP are stored as two three-byte surrogates.
package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"

	m "jumble.dev/pkg/jumble/internal/model"
)

// Magic is the first four bytes of every class file.
const Magic uint32 = 0xCAFEBABE

// AccInterface marks an interface in the class access flags.
const AccInterface uint16 = 0x0200

// ErrMalformed is returned for data that is not a readable class file.
var ErrMalformed = errors.New("malformed class file")

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type constant struct {
	tag   uint8
	utf8  string
	index uint16 // name index for Class entries
}

// ClassFile is the decoded class file header.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	AccessFlags  uint16
	ThisClass    string   // internal form, e.g. com/example/Foo
	SuperClass   string   // empty for java/lang/Object and module-info
	Interfaces   []string // internal form
}

// IsInterface reports whether ACC_INTERFACE is set.
func (c *ClassFile) IsInterface() bool {
	return c.AccessFlags&AccInterface != 0
}

// Metadata converts the header into the dotted model form.
func (c *ClassFile) Metadata() m.ClassMetadata {
	meta := m.ClassMetadata{
		Name:        m.ClassNameFromInternal(c.ThisClass),
		IsInterface: c.IsInterface(),
		Interfaces:  make([]m.ClassName, 0, len(c.Interfaces)),
	}

	if c.SuperClass != "" {
		meta.SuperName = m.ClassNameFromInternal(c.SuperClass)
	}

	for _, iface := range c.Interfaces {
		meta.Interfaces = append(meta.Interfaces, m.ClassNameFromInternal(iface))
	}

	return meta
}

// Parse decodes the class file header from data.
func Parse(data []byte) (*ClassFile, error) {
	p := &parser{r: bytes.NewReader(data)}

	magic := p.u4()
	if p.err == nil && magic != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08X", ErrMalformed, magic)
	}

	cf := &ClassFile{
		MinorVersion: p.u2(),
		MajorVersion: p.u2(),
	}

	pool := p.constantPool()

	cf.AccessFlags = p.u2()
	thisIndex := p.u2()
	superIndex := p.u2()

	ifaceCount := p.u2()
	ifaceIndexes := make([]uint16, 0, ifaceCount)

	for range ifaceCount {
		ifaceIndexes = append(ifaceIndexes, p.u2())
	}

	if p.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, p.err)
	}

	var err error

	if cf.ThisClass, err = className(pool, thisIndex); err != nil {
		return nil, fmt.Errorf("%w: this_class: %w", ErrMalformed, err)
	}

	if superIndex != 0 {
		if cf.SuperClass, err = className(pool, superIndex); err != nil {
			return nil, fmt.Errorf("%w: super_class: %w", ErrMalformed, err)
		}
	}

	for _, idx := range ifaceIndexes {
		name, err := className(pool, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: interface: %w", ErrMalformed, err)
		}

		cf.Interfaces = append(cf.Interfaces, name)
	}

	return cf, nil
}

func className(pool []constant, index uint16) (string, error) {
	if int(index) <= 0 || int(index) >= len(pool) {
		return "", fmt.Errorf("constant index %d out of range", index)
	}

	c := pool[index]
	if c.tag != tagClass {
		return "", fmt.Errorf("constant %d has tag %d, want class", index, c.tag)
	}

	if int(c.index) <= 0 || int(c.index) >= len(pool) || pool[c.index].tag != tagUtf8 {
		return "", fmt.Errorf("class constant %d has bad name index %d", index, c.index)
	}

	return pool[c.index].utf8, nil
}

// parser keeps the first read error so callers can check once.
type parser struct {
	r   *bytes.Reader
	err error
}

func (p *parser) read(n int) []byte {
	if p.err != nil {
		return nil
	}

	if n > p.r.Len() {
		p.err = io.ErrUnexpectedEOF
		return nil
	}

	buf := make([]byte, n)
	_, _ = p.r.Read(buf)

	return buf
}

func (p *parser) u1() uint8 {
	b := p.read(1)
	if b == nil {
		return 0
	}

	return b[0]
}

func (p *parser) u2() uint16 {
	b := p.read(2)
	if b == nil {
		return 0
	}

	return binary.BigEndian.Uint16(b)
}

func (p *parser) u4() uint32 {
	b := p.read(4)
	if b == nil {
		return 0
	}

	return binary.BigEndian.Uint32(b)
}

func (p *parser) constantPool() []constant {
	count := p.u2()
	if p.err != nil {
		return nil
	}

	// Index 0 is unused; long and double take two slots.
	pool := make([]constant, count)

	for i := 1; i < int(count) && p.err == nil; i++ {
		tag := p.u1()
		pool[i].tag = tag

		switch tag {
		case tagUtf8:
			length := p.u2()

			raw := p.read(int(length))
			if p.err != nil {
				break
			}

			if pool[i].utf8, p.err = decodeModifiedUTF8(raw); p.err != nil {
				p.err = fmt.Errorf("utf8 constant %d: %w", i, p.err)
			}
		case tagClass:
			pool[i].index = p.u2()
		case tagString, tagMethodType, tagModule, tagPackage:
			p.read(2)
		case tagMethodHandle:
			p.read(3)
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			p.read(4)
		case tagLong, tagDouble:
			p.read(8)
			i++
		default:
			if p.err == nil {
				p.err = fmt.Errorf("unknown constant tag %d at index %d", tag, i)
			}
		}
	}

	return pool
}

var errBadUTF8 = errors.New("invalid modified utf-8")

// decodeModifiedUTF8 decodes the payload of a CONSTANT_Utf8 entry.
func decodeModifiedUTF8(b []byte) (string, error) {
	plain := true

	for _, c := range b {
		if c == 0 || c >= 0x80 {
			plain = false
			break
		}
	}

	if plain {
		return string(b), nil
	}

	units := make([]uint16, 0, len(b))

	for i := 0; i < len(b); {
		c := b[i]

		switch {
		case c == 0:
			return "", fmt.Errorf("%w: raw NUL at byte %d", errBadUTF8, i)
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || !continuation(b[i+1]) {
				return "", fmt.Errorf("%w: truncated sequence at byte %d", errBadUTF8, i)
			}

			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || !continuation(b[i+1]) || !continuation(b[i+2]) {
				return "", fmt.Errorf("%w: truncated sequence at byte %d", errBadUTF8, i)
			}

			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w: unexpected byte 0x%02X at %d", errBadUTF8, c, i)
		}
	}

	return string(utf16.Decode(units)), nil
}

func continuation(c byte) bool {
	return c&0xC0 == 0x80
}
