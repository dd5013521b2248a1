// Package testutil builds class file and archive fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/klauspost/compress/zip"
)

// Class describes a fixture class in dotted form.
type Class struct {
	Name       string
	Super      string // empty for a root type
	Interfaces []string
	Interface  bool
}

// ClassBytes encodes c as a minimal class file: constant pool, access
// flags, this/super/interfaces and empty member tables. A long constant is
// included so readers must honour two-slot pool entries.
func ClassBytes(c Class) []byte {
	var pool bytes.Buffer

	next := uint16(1)

	addUtf8 := func(s string) uint16 {
		encoded := ModifiedUTF8(s)

		pool.WriteByte(1)
		_ = binary.Write(&pool, binary.BigEndian, uint16(len(encoded)))
		pool.Write(encoded)
		next++

		return next - 1
	}

	addClass := func(dotted string) uint16 {
		nameIdx := addUtf8(strings.ReplaceAll(dotted, ".", "/"))
		pool.WriteByte(7)
		_ = binary.Write(&pool, binary.BigEndian, nameIdx)
		next++

		return next - 1
	}

	pool.WriteByte(5)
	_ = binary.Write(&pool, binary.BigEndian, uint64(42))
	next += 2

	thisIdx := addClass(c.Name)

	var superIdx uint16
	if c.Super != "" {
		superIdx = addClass(c.Super)
	}

	ifaceIdx := make([]uint16, 0, len(c.Interfaces))
	for _, iface := range c.Interfaces {
		ifaceIdx = append(ifaceIdx, addClass(iface))
	}

	var out bytes.Buffer

	w := func(v any) { _ = binary.Write(&out, binary.BigEndian, v) }

	w(uint32(0xCAFEBABE))
	w(uint16(0))  // minor
	w(uint16(52)) // major
	w(next)
	out.Write(pool.Bytes())

	flags := uint16(0x0021) // public super
	if c.Interface {
		flags = 0x0601 // public interface abstract
	}

	w(flags)
	w(thisIdx)
	w(superIdx)
	w(uint16(len(ifaceIdx)))

	for _, idx := range ifaceIdx {
		w(idx)
	}

	w(uint16(0)) // fields
	w(uint16(0)) // methods
	w(uint16(0)) // attributes

	return out.Bytes()
}

// ModifiedUTF8 encodes s the way class files store Utf8 constants.
func ModifiedUTF8(s string) []byte {
	var out []byte

	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, byte(0xC0|u>>6), byte(0x80|u&0x3F))
		default:
			out = append(out, byte(0xE0|u>>12), byte(0x80|(u>>6)&0x3F), byte(0x80|u&0x3F))
		}
	}

	return out
}

// EntryName returns the archive entry name for a dotted class name.
func EntryName(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/") + ".class"
}

// JarEntry is one entry of a fixture archive. A name ending in "/" is a
// directory marker.
type JarEntry struct {
	Name string
	Data []byte
}

// JarBytes builds a zip archive from entries.
func JarBytes(t testing.TB, entries ...JarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		fw, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("create jar entry %s: %v", e.Name, err)
		}

		if len(e.Data) > 0 {
			if _, err := fw.Write(e.Data); err != nil {
				t.Fatalf("write jar entry %s: %v", e.Name, err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close jar: %v", err)
	}

	return buf.Bytes()
}

// ClassEntries turns fixture classes into jar entries.
func ClassEntries(classes ...Class) []JarEntry {
	entries := make([]JarEntry, 0, len(classes))
	for _, c := range classes {
		entries = append(entries, JarEntry{Name: EntryName(c.Name), Data: ClassBytes(c)})
	}

	return entries
}

// WriteFile writes data to path on fs, creating parent directories.
func WriteFile(t testing.TB, fs billy.Filesystem, path string, data []byte) {
	t.Helper()

	if err := fs.MkdirAll(fs.Join(path, ".."), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	if err := util.WriteFile(fs, path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteClasses writes each class under root using the package layout.
func WriteClasses(t testing.TB, fs billy.Filesystem, root string, classes ...Class) {
	t.Helper()

	for _, c := range classes {
		WriteFile(t, fs, fs.Join(root, strings.ReplaceAll(c.Name, ".", "/")+".class"), ClassBytes(c))
	}
}

// Mkdir creates dir and its parents on fs.
func Mkdir(t testing.TB, fs billy.Filesystem, dir string) {
	t.Helper()

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}
