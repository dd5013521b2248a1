// Package adapter contains the filesystem, archive and class metadata
// adapters used by discovery and ancestry resolution.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	m "jumble.dev/pkg/jumble/internal/model"
)

// archiveSuffixes are recognised without sniffing the file content.
var archiveSuffixes = []string{".jar", ".zip"}

// ClasspathFSAdapter abstracts the filesystem operations that discovery and
// class lookup need, so the domain can run against an in-memory tree.
//
//nolint:interfacebloat // Discovery needs classification, listing and archive access together.
type ClasspathFSAdapter interface {
	// Classify reports whether path is an archive, a directory or neither.
	// A path that cannot be stat'ed is EntryOther.
	Classify(ctx context.Context, path m.Path) m.EntryKind

	// IsDir reports whether path exists and is a directory.
	IsDir(ctx context.Context, path m.Path) (bool, error)

	// Stat describes path, following symbolic links.
	Stat(ctx context.Context, path m.Path) (os.FileInfo, error)

	// ReadDir lists the children of dir. Symbolic links are reported as
	// links, not as their targets.
	ReadDir(ctx context.Context, dir m.Path) ([]os.FileInfo, error)

	// ReadFile loads a file.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// OpenArchive opens a zip-like archive. The caller must Close it.
	OpenArchive(ctx context.Context, path m.Path) (Archive, error)

	// JoinPath joins path elements with the filesystem separator.
	JoinPath(elem ...string) m.Path
}

// BillyClasspathFSAdapter implements ClasspathFSAdapter on a billy filesystem.
type BillyClasspathFSAdapter struct {
	fs billy.Filesystem
}

var _ ClasspathFSAdapter = (*BillyClasspathFSAdapter)(nil)

// NewLocalClasspathFSAdapter returns an adapter over the host filesystem.
// Paths are resolved from the filesystem root, so callers pass absolute
// paths.
func NewLocalClasspathFSAdapter() *BillyClasspathFSAdapter {
	return NewClasspathFSAdapter(osfs.New(string(filepath.Separator), osfs.WithBoundOS()))
}

// NewClasspathFSAdapter wraps fs.
func NewClasspathFSAdapter(fs billy.Filesystem) *BillyClasspathFSAdapter {
	return &BillyClasspathFSAdapter{fs: fs}
}

// Classify implements ClasspathFSAdapter.
func (a *BillyClasspathFSAdapter) Classify(_ context.Context, path m.Path) m.EntryKind {
	info, err := a.fs.Stat(string(path))
	if err != nil {
		return m.EntryOther
	}

	if info.IsDir() {
		return m.EntryDirectory
	}

	if !info.Mode().IsRegular() {
		return m.EntryOther
	}

	lower := strings.ToLower(string(path))
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return m.EntryArchive
		}
	}

	if a.sniffZip(path) {
		return m.EntryArchive
	}

	return m.EntryOther
}

func (a *BillyClasspathFSAdapter) sniffZip(path m.Path) bool {
	f, err := a.fs.Open(string(path))
	if err != nil {
		return false
	}

	defer func() { _ = f.Close() }()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return false
	}

	for ; mt != nil; mt = mt.Parent() {
		if mt.Is("application/zip") {
			return true
		}
	}

	return false
}

// IsDir implements ClasspathFSAdapter.
func (a *BillyClasspathFSAdapter) IsDir(_ context.Context, path m.Path) (bool, error) {
	info, err := a.fs.Stat(string(path))
	switch {
	case err == nil:
		return info.IsDir(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
}

// Stat implements ClasspathFSAdapter.
func (a *BillyClasspathFSAdapter) Stat(_ context.Context, path m.Path) (os.FileInfo, error) {
	info, err := a.fs.Stat(string(path))
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	return info, nil
}

// ReadDir implements ClasspathFSAdapter.
func (a *BillyClasspathFSAdapter) ReadDir(_ context.Context, dir m.Path) ([]os.FileInfo, error) {
	infos, err := a.fs.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	return infos, nil
}

// ReadFile implements ClasspathFSAdapter.
func (a *BillyClasspathFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	data, err := util.ReadFile(a.fs, string(path))
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", path, err)
	}

	return data, nil
}

// OpenArchive implements ClasspathFSAdapter.
func (a *BillyClasspathFSAdapter) OpenArchive(_ context.Context, path m.Path) (Archive, error) {
	info, err := a.fs.Stat(string(path))
	if err != nil {
		return nil, fmt.Errorf("stat archive %q: %w", path, err)
	}

	f, err := a.fs.Open(string(path))
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}

	archive, err := newZipArchive(path, f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return archive, nil
}

// JoinPath implements ClasspathFSAdapter.
func (a *BillyClasspathFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(a.fs.Join(elem...))
}

// readerAtCloser is the subset of billy.File an archive needs.
type readerAtCloser interface {
	io.ReaderAt
	io.Closer
}
