package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"jumble.dev/pkg/jumble/internal/classfile"
	m "jumble.dev/pkg/jumble/internal/model"
)

// RootClassName is the implicit root of every class hierarchy.
const RootClassName m.ClassName = "java.lang.Object"

// ErrClassNotFound is returned when no lookup path entry holds the class.
var ErrClassNotFound = errors.New("class not found")

// ClassMetadataProvider resolves a class name to its metadata.
type ClassMetadataProvider interface {
	Lookup(ctx context.Context, name m.ClassName) (m.ClassMetadata, error)
}

// ClasspathRepository resolves classes from a lookup path of archives and
// directories. Archives are opened on first use and held until Close, so
// a repository should live for a single query.
type ClasspathRepository struct {
	fs       ClasspathFSAdapter
	path     m.SearchPath
	kinds    []m.EntryKind
	archives map[int]Archive
	failed   map[int]error
}

// NewClasspathRepository creates a repository over path.
func NewClasspathRepository(ctx context.Context, fs ClasspathFSAdapter, path m.SearchPath) *ClasspathRepository {
	kinds := make([]m.EntryKind, len(path))
	for i, entry := range path {
		kinds[i] = fs.Classify(ctx, entry.Path)
	}

	return &ClasspathRepository{
		fs:       fs,
		path:     path,
		kinds:    kinds,
		archives: make(map[int]Archive),
		failed:   make(map[int]error),
	}
}

// Lookup implements ClassMetadataProvider. The first lookup path entry that
// holds the class wins. A found entry that cannot be parsed is an error.
func (r *ClasspathRepository) Lookup(ctx context.Context, name m.ClassName) (m.ClassMetadata, error) {
	if err := ctx.Err(); err != nil {
		return m.ClassMetadata{}, err
	}

	if name == "" || strings.ContainsAny(string(name), "/\\") {
		return m.ClassMetadata{}, fmt.Errorf("%w: invalid class name %q", ErrClassNotFound, name)
	}

	for i, entry := range r.path {
		data, found, err := r.readClass(ctx, i, entry.Path, name)
		if err != nil {
			return m.ClassMetadata{}, err
		}

		if !found {
			continue
		}

		cf, err := classfile.Parse(data)
		if err != nil {
			return m.ClassMetadata{}, fmt.Errorf("parse %s from %q: %w", name, entry.Path, err)
		}

		meta := cf.Metadata()
		if meta.Name != name {
			return m.ClassMetadata{}, fmt.Errorf("%w: %q declares class %s, want %s",
				classfile.ErrMalformed, entry.Path, meta.Name, name)
		}

		return meta, nil
	}

	if name == RootClassName {
		return m.ClassMetadata{Name: RootClassName}, nil
	}

	return m.ClassMetadata{}, fmt.Errorf("%w: %s", ErrClassNotFound, name)
}

func (r *ClasspathRepository) readClass(ctx context.Context, i int, root m.Path, name m.ClassName) ([]byte, bool, error) {
	switch r.kinds[i] {
	case m.EntryArchive:
		archive, err := r.archive(ctx, i, root)
		if err != nil {
			// An unreadable archive cannot hold the class; later entries may.
			return nil, false, nil
		}

		return archive.ReadEntry(name.EntryName())
	case m.EntryDirectory:
		elems := append([]string{string(root)}, strings.Split(name.EntryName(), "/")...)
		path := r.fs.JoinPath(elems...)

		data, err := r.fs.ReadFile(ctx, path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Debug("Skipping unreadable class file during lookup", "path", path, "error", err)
			}

			return nil, false, nil
		}

		return data, true, nil
	case m.EntryOther:
		return nil, false, nil
	}

	return nil, false, nil
}

func (r *ClasspathRepository) archive(ctx context.Context, i int, path m.Path) (Archive, error) {
	if a, ok := r.archives[i]; ok {
		return a, nil
	}

	if err, ok := r.failed[i]; ok {
		return nil, err
	}

	a, err := r.fs.OpenArchive(ctx, path)
	if err != nil {
		slog.Debug("Skipping unreadable archive during lookup", "path", path, "error", err)
		r.failed[i] = err

		return nil, err
	}

	r.archives[i] = a

	return a, nil
}

// Close releases every archive opened by the repository.
func (r *ClasspathRepository) Close() error {
	var errs []error

	for i, a := range r.archives {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}

		delete(r.archives, i)
	}

	return errors.Join(errs...)
}
