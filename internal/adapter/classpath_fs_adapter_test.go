package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jumble.dev/pkg/jumble/internal/model"
	"jumble.dev/pkg/jumble/internal/testutil"
)

func TestBillyClasspathFSAdapter_Classify(t *testing.T) {
	fs := memfs.New()
	jar := testutil.JarBytes(t, testutil.JarEntry{Name: "a/", Data: nil})

	testutil.Mkdir(t, fs, "/classes")
	testutil.WriteFile(t, fs, "/lib/dep.jar", jar)
	testutil.WriteFile(t, fs, "/lib/DEP.ZIP", jar)
	testutil.WriteFile(t, fs, "/lib/sniffed.bin", jar)
	testutil.WriteFile(t, fs, "/lib/notes.txt", []byte("hello"))

	adapter := NewClasspathFSAdapter(fs)
	ctx := context.Background()

	tests := []struct {
		path string
		want m.EntryKind
	}{
		{"/classes", m.EntryDirectory},
		{"/lib/dep.jar", m.EntryArchive},
		{"/lib/DEP.ZIP", m.EntryArchive},
		{"/lib/sniffed.bin", m.EntryArchive},
		{"/lib/notes.txt", m.EntryOther},
		{"/lib/missing.jar", m.EntryOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.Classify(ctx, m.Path(tt.path)))
		})
	}
}

func TestBillyClasspathFSAdapter_IsDir(t *testing.T) {
	fs := memfs.New()
	testutil.Mkdir(t, fs, "/classes/com")
	testutil.WriteFile(t, fs, "/classes/A.class", []byte{1})

	adapter := NewClasspathFSAdapter(fs)
	ctx := context.Background()

	ok, err := adapter.IsDir(ctx, "/classes/com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.IsDir(ctx, "/classes/A.class")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = adapter.IsDir(ctx, "/classes/nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBillyClasspathFSAdapter_OpenArchive(t *testing.T) {
	fs := memfs.New()
	classBytes := testutil.ClassBytes(testutil.Class{Name: "a.B", Super: "java.lang.Object"})
	testutil.WriteFile(t, fs, "/lib/dep.jar", testutil.JarBytes(t,
		testutil.JarEntry{Name: "a/"},
		testutil.JarEntry{Name: "a/B.class", Data: classBytes},
	))
	testutil.WriteFile(t, fs, "/lib/corrupt.jar", []byte("not a zip at all"))

	adapter := NewClasspathFSAdapter(fs)
	ctx := context.Background()

	t.Run("lists entries and reads content", func(t *testing.T) {
		archive, err := adapter.OpenArchive(ctx, "/lib/dep.jar")
		require.NoError(t, err)

		defer func() { _ = archive.Close() }()

		assert.Equal(t, []ArchiveEntry{
			{Name: "a/", IsDir: true},
			{Name: "a/B.class", IsDir: false},
		}, archive.Entries())

		data, found, err := archive.ReadEntry("a/B.class")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, classBytes, data)

		_, found, err = archive.ReadEntry("a/C.class")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("corrupt archive fails", func(t *testing.T) {
		_, err := adapter.OpenArchive(ctx, "/lib/corrupt.jar")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupt.jar")
	})

	t.Run("missing archive fails", func(t *testing.T) {
		_, err := adapter.OpenArchive(ctx, "/lib/missing.jar")
		require.Error(t, err)
	})
}

func TestLocalClasspathFSAdapter(t *testing.T) {
	root := t.TempDir()
	pkgDir := filepath.Join(root, "com", "example")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "Foo.class"), []byte{0xCA, 0xFE}, 0o600))

	jarPath := filepath.Join(root, "dep.jar")
	require.NoError(t, os.WriteFile(jarPath, testutil.JarBytes(t, testutil.JarEntry{Name: "x/Y.class", Data: []byte{1}}), 0o600))

	adapter := NewLocalClasspathFSAdapter()
	ctx := context.Background()

	assert.Equal(t, m.EntryDirectory, adapter.Classify(ctx, m.Path(root)))
	assert.Equal(t, m.EntryArchive, adapter.Classify(ctx, m.Path(jarPath)))

	infos, err := adapter.ReadDir(ctx, m.Path(pkgDir))
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "Foo.class", infos[0].Name())

	data, err := adapter.ReadFile(ctx, adapter.JoinPath(pkgDir, "Foo.class"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCA, 0xFE}, data)

	archive, err := adapter.OpenArchive(ctx, m.Path(jarPath))
	require.NoError(t, err)
	assert.Len(t, archive.Entries(), 1)
	require.NoError(t, archive.Close())

	_, err = adapter.ReadDir(ctx, m.Path(filepath.Join(root, "missing")))
	require.Error(t, err)

	link := filepath.Join(root, "linked")
	require.NoError(t, os.Symlink(pkgDir, link))

	info, err := adapter.Stat(ctx, m.Path(link))
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "Stat follows links")
	assert.Equal(t, m.EntryDirectory, adapter.Classify(ctx, m.Path(link)))

	_, err = adapter.Stat(ctx, m.Path(filepath.Join(root, "missing")))
	require.ErrorIs(t, err, os.ErrNotExist)
}
