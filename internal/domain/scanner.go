package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"jumble.dev/pkg/jumble/internal/adapter"
	m "jumble.dev/pkg/jumble/internal/model"
)

// PathScanner enumerates the classes visible on a search path.
type PathScanner interface {
	// Discover returns every class name on searchPath accepted by filter.
	// An unreadable archive fails the whole call; a missing package
	// directory or an unreadable subdirectory only produces a diagnostic.
	Discover(ctx context.Context, searchPath m.SearchPath, filter m.PackageFilter) (m.ClassNameSet, error)
}

// maxLinkDepth bounds the symbolic links followed along one walk path.
const maxLinkDepth = 40

type pathScanner struct {
	fs   adapter.ClasspathFSAdapter
	diag *slog.Logger
	sep  string
}

// NewPathScanner creates a PathScanner. Diagnostics for skipped entries go
// to diag; a nil diag discards them.
func NewPathScanner(fs adapter.ClasspathFSAdapter, diag *slog.Logger) PathScanner {
	return &pathScanner{
		fs:   fs,
		diag: orDiscard(diag),
		sep:  string(filepath.Separator),
	}
}

func (s *pathScanner) Discover(ctx context.Context, searchPath m.SearchPath, filter m.PackageFilter) (m.ClassNameSet, error) {
	classes := make(m.ClassNameSet)

	for _, entry := range searchPath {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		kind := s.fs.Classify(ctx, entry.Path)
		slog.Debug("Scanning search path entry", "path", entry.Path, "kind", kind, "package", filter)

		switch kind {
		case m.EntryArchive:
			found, err := s.scanArchive(ctx, entry.Path, filter)
			if err != nil {
				return nil, err
			}

			classes.AddAll(found)
		case m.EntryDirectory:
			classes.AddAll(s.scanDirectory(ctx, entry.Path, filter))
		case m.EntryOther:
			// Stale or malformed class path entries are normal.
		}
	}

	// A walk cut short by cancellation returns a partial set.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return classes, nil
}

func (s *pathScanner) scanArchive(ctx context.Context, path m.Path, filter m.PackageFilter) (m.ClassNameSet, error) {
	archive, err := s.fs.OpenArchive(ctx, path)
	if err != nil {
		slog.Error("Failed to read archive", "path", path, "error", err)
		return nil, fmt.Errorf("scan archive: %w", err)
	}

	defer func() {
		if err := archive.Close(); err != nil {
			slog.Error("Failed to close archive", "path", path, "error", err)
		}
	}()

	classes := make(m.ClassNameSet)

	for _, entry := range archive.Entries() {
		if entry.IsDir || !isClassFile(entry.Name) {
			continue
		}

		name := m.ClassNameFromEntry(entry.Name)
		if filter.Matches(name) {
			classes.Add(name)
		}
	}

	return classes, nil
}

func (s *pathScanner) scanDirectory(ctx context.Context, root m.Path, filter m.PackageFilter) m.ClassNameSet {
	pkg, ok := filter.Name()
	if !ok {
		base := filepath.Clean(string(root))

		var parents []os.FileInfo
		if info, err := s.fs.Stat(ctx, m.Path(base)); err == nil {
			parents = append(parents, info)
		}

		return s.walkPackages(ctx, base, m.Path(base), parents, 0)
	}

	return s.scanPackageDir(ctx, root, pkg)
}

// scanPackageDir lists the class files of the single directory that holds pkg.
func (s *pathScanner) scanPackageDir(ctx context.Context, root m.Path, pkg string) m.ClassNameSet {
	classes := make(m.ClassNameSet)

	dir := root
	if pkg != "" {
		dir = s.fs.JoinPath(append([]string{string(root)}, strings.Split(pkg, ".")...)...)
	}

	exists, err := s.fs.IsDir(ctx, dir)
	if err != nil || !exists {
		s.diag.WarnContext(ctx, "package directory not found", "path", dir, "package", pkg, "error", err)
		return classes
	}

	infos, err := s.fs.ReadDir(ctx, dir)
	if err != nil {
		s.diag.WarnContext(ctx, "package directory unreadable", "path", dir, "package", pkg, "error", err)
		return classes
	}

	for _, info := range infos {
		if isDirectory(info) || !isClassFile(info.Name()) {
			continue
		}

		simple := strings.TrimSuffix(info.Name(), m.ClassFileSuffix)
		if pkg == "" {
			classes.Add(m.ClassName(simple))
		} else {
			classes.Add(m.ClassName(pkg + "." + simple))
		}
	}

	return classes
}

// walkPackages collects every class file below current, naming each one by
// its path relative to base. parents holds the directories from base down to
// current; links counts the symbolic links followed to get here.
func (s *pathScanner) walkPackages(ctx context.Context, base string, current m.Path, parents []os.FileInfo, links int) m.ClassNameSet {
	classes := make(m.ClassNameSet)

	if ctx.Err() != nil {
		return classes
	}

	infos, err := s.fs.ReadDir(ctx, current)
	if err != nil {
		s.diag.WarnContext(ctx, "skipping unreadable directory", "path", current, "error", err)
		return classes
	}

	type subdir struct {
		path  m.Path
		info  os.FileInfo
		links int
	}

	var dirs []subdir

	for _, info := range infos {
		child := s.fs.JoinPath(string(current), info.Name())

		if isSymlink(info) {
			if target, ok := s.followLink(ctx, child, parents, links); ok {
				dirs = append(dirs, subdir{path: child, info: target, links: links + 1})
				continue
			}
		}

		switch {
		case isDirectory(info):
			dirs = append(dirs, subdir{path: child, info: info, links: links})
		case isClassFile(info.Name()):
			classes.Add(s.classNameUnder(base, child))
		}
	}

	for _, dir := range dirs {
		stack := append(parents[:len(parents):len(parents)], dir.info)
		classes.AddAll(s.walkPackages(ctx, base, dir.path, stack, dir.links))
	}

	return classes
}

// followLink reports the target of a symbolic link when it is a directory
// that is not already being walked.
func (s *pathScanner) followLink(ctx context.Context, link m.Path, parents []os.FileInfo, links int) (os.FileInfo, bool) {
	target, err := s.fs.Stat(ctx, link)
	if err != nil || !isDirectory(target) {
		return nil, false
	}

	for _, parent := range parents {
		if os.SameFile(parent, target) {
			s.diag.WarnContext(ctx, "skipping symbolic link loop", "path", link)
			return nil, false
		}
	}

	// Filesystems without file identity cannot be checked above.
	if links >= maxLinkDepth {
		s.diag.WarnContext(ctx, "skipping symbolic link loop", "path", link, "links", links)
		return nil, false
	}

	return target, true
}

// classNameUnder derives the class name of a file below base. A path outside
// base is a bug in the walk and panics.
func (s *pathScanner) classNameUnder(base string, file m.Path) m.ClassName {
	prefix := base

	switch {
	case base == ".":
		// Joined paths below the current directory carry no "./" prefix.
		prefix = ""
	case !strings.HasSuffix(prefix, s.sep):
		prefix += s.sep
	}

	path := string(file)
	if !strings.HasPrefix(path, prefix) {
		panic(fmt.Sprintf("class file %q is not under base directory %q", path, base))
	}

	rel := strings.TrimPrefix(path, prefix)
	rel = strings.TrimSuffix(rel, m.ClassFileSuffix)

	return m.ClassName(strings.ReplaceAll(rel, s.sep, "."))
}

func isClassFile(name string) bool {
	return strings.HasSuffix(name, m.ClassFileSuffix)
}

func isDirectory(info os.FileInfo) bool {
	return info.IsDir()
}

func isSymlink(info os.FileInfo) bool {
	return info.Mode()&os.ModeSymlink != 0
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}

	return l
}
