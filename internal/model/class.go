package model

import (
	"sort"
	"strings"
)

// ClassFileSuffix is the filename suffix of compiled classes.
const ClassFileSuffix = ".class"

// ClassName is a dot-separated fully qualified class name such as
// com.example.Foo. It never contains path separators.
type ClassName string

// ClassNameFromEntry converts an archive entry name (a/b/C.class) into a
// class name (a.b.C).
func ClassNameFromEntry(entry string) ClassName {
	return ClassName(strings.ReplaceAll(strings.TrimSuffix(entry, ClassFileSuffix), "/", "."))
}

// ClassNameFromInternal converts a JVM internal name (a/b/C) into a class name.
func ClassNameFromInternal(internal string) ClassName {
	return ClassName(strings.ReplaceAll(internal, "/", "."))
}

// EntryName returns the archive entry name of the class (a/b/C.class).
func (c ClassName) EntryName() string {
	return strings.ReplaceAll(string(c), ".", "/") + ClassFileSuffix
}

// Package returns the package portion of the name, or "" for the default package.
func (c ClassName) Package() string {
	i := strings.LastIndexByte(string(c), '.')
	if i < 0 {
		return ""
	}

	return string(c[:i])
}

// SimpleName returns the name without its package.
func (c ClassName) SimpleName() string {
	return string(c)[strings.LastIndexByte(string(c), '.')+1:]
}

// ClassNameSet is an unordered set of class names.
type ClassNameSet map[ClassName]struct{}

// NewClassNameSet builds a set from the given names.
func NewClassNameSet(names ...ClassName) ClassNameSet {
	s := make(ClassNameSet, len(names))
	for _, name := range names {
		s.Add(name)
	}

	return s
}

// Add inserts name into the set.
func (s ClassNameSet) Add(name ClassName) {
	s[name] = struct{}{}
}

// AddAll inserts every name of other into s.
func (s ClassNameSet) AddAll(other ClassNameSet) {
	for name := range other {
		s[name] = struct{}{}
	}
}

// Union returns a new set holding the names of both sets.
func (s ClassNameSet) Union(other ClassNameSet) ClassNameSet {
	out := make(ClassNameSet, len(s)+len(other))
	out.AddAll(s)
	out.AddAll(other)

	return out
}

// Contains reports whether name is in the set.
func (s ClassNameSet) Contains(name ClassName) bool {
	_, ok := s[name]
	return ok
}

// Remove deletes name from the set.
func (s ClassNameSet) Remove(name ClassName) {
	delete(s, name)
}

// Len returns the number of names.
func (s ClassNameSet) Len() int {
	return len(s)
}

// Sorted returns the names in lexical order.
func (s ClassNameSet) Sorted() []ClassName {
	names := make([]ClassName, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})

	return names
}

// ClassMetadata is the minimal structural view of a compiled class.
type ClassMetadata struct {
	Name        ClassName
	IsInterface bool
	SuperName   ClassName // empty for the root type
	Interfaces  []ClassName
}

// HasSuper reports whether the class declares a direct superclass.
func (c ClassMetadata) HasSuper() bool {
	return c.SuperName != ""
}
