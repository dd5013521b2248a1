// Package model defines the data structures shared by class discovery and
// ancestry resolution.
package model

import (
	"strings"
)

// Path represents a file system path.
type Path string

// EntryKind classifies a single search path entry.
type EntryKind int

const (
	// EntryOther is anything that is neither an archive nor a directory.
	// Such entries are ignored during discovery.
	EntryOther EntryKind = iota
	// EntryArchive is a zip-like container of compiled class entries.
	EntryArchive
	// EntryDirectory is the root of a class file tree.
	EntryDirectory
)

func (k EntryKind) String() string {
	switch k {
	case EntryArchive:
		return "archive"
	case EntryDirectory:
		return "directory"
	case EntryOther:
		return "other"
	default:
		return "unknown"
	}
}

// PathEntry is one element of a SearchPath.
type PathEntry struct {
	Path Path
}

// SearchPath is an ordered list of archives and directory roots.
type SearchPath []PathEntry

// ParseSearchPath tokenizes a class path string on the list separator.
// Empty tokens are dropped.
func ParseSearchPath(classpath string, separator rune) SearchPath {
	tokens := strings.FieldsFunc(classpath, func(r rune) bool {
		return r == separator
	})

	entries := make(SearchPath, 0, len(tokens))
	for _, token := range tokens {
		entries = append(entries, PathEntry{Path: Path(token)})
	}

	return entries
}

// Concat returns a new SearchPath with other appended after sp.
func (sp SearchPath) Concat(other SearchPath) SearchPath {
	out := make(SearchPath, 0, len(sp)+len(other))
	out = append(out, sp...)

	return append(out, other...)
}

// PackageFilter optionally restricts discovery to a single package.
// The zero value matches all packages.
type PackageFilter struct {
	name string
	set  bool
}

// AllPackages returns a filter that matches every package.
func AllPackages() PackageFilter {
	return PackageFilter{}
}

// InPackage returns a filter for one package. The empty name selects the
// default package.
func InPackage(name string) PackageFilter {
	return PackageFilter{name: name, set: true}
}

// Name returns the package name and whether a filter is set.
func (f PackageFilter) Name() (string, bool) {
	return f.name, f.set
}

// Matches reports whether class belongs to the filtered package or one of
// its subpackages. The default package only matches unqualified names.
func (f PackageFilter) Matches(class ClassName) bool {
	if !f.set {
		return true
	}

	if f.name == "" {
		return !strings.Contains(string(class), ".")
	}

	return strings.HasPrefix(string(class), f.name+".")
}

func (f PackageFilter) String() string {
	if !f.set {
		return "<all>"
	}

	if f.name == "" {
		return "<default>"
	}

	return f.name
}
