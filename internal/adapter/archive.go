package adapter

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"

	m "jumble.dev/pkg/jumble/internal/model"
)

// ArchiveEntry is one named entry of an archive.
type ArchiveEntry struct {
	Name  string // uses "/" as separator
	IsDir bool
}

// Archive gives read access to the entries of an opened archive.
type Archive interface {
	Entries() []ArchiveEntry
	// ReadEntry returns the content of the named entry. The boolean is false
	// when the archive has no such entry.
	ReadEntry(name string) ([]byte, bool, error)
	Close() error
}

type zipArchive struct {
	path   m.Path
	file   readerAtCloser
	reader *zip.Reader
	index  map[string]*zip.File
}

func newZipArchive(path m.Path, file readerAtCloser, size int64) (*zipArchive, error) {
	reader, err := zip.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("read archive %q: %w", path, err)
	}

	index := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		if _, dup := index[f.Name]; !dup {
			index[f.Name] = f
		}
	}

	return &zipArchive{path: path, file: file, reader: reader, index: index}, nil
}

func (z *zipArchive) Entries() []ArchiveEntry {
	entries := make([]ArchiveEntry, 0, len(z.reader.File))
	for _, f := range z.reader.File {
		entries = append(entries, ArchiveEntry{
			Name:  f.Name,
			IsDir: f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"),
		})
	}

	return entries
}

func (z *zipArchive) ReadEntry(name string) ([]byte, bool, error) {
	f, ok := z.index[name]
	if !ok {
		return nil, false, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, true, fmt.Errorf("open entry %s in %q: %w", name, z.path, err)
	}

	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, true, fmt.Errorf("read entry %s in %q: %w", name, z.path, err)
	}

	return data, true, nil
}

func (z *zipArchive) Close() error {
	return z.file.Close()
}
