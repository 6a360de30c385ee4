package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "protoform/internal/errors"
)

func TestSafeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"benchy.stl", ".stl"},
		{"Bracket.STL", ".stl"},
		{"part.v2.3mf", ".3mf"},
		{"../../etc/passwd", ""},
		{`..\..\evil.obj`, ".obj"},
		{"noext", ""},
		{".hidden", ""},
		{"weird.s<t>l", ".stl"},
		{"x." + strings.Repeat("a", 40), "." + strings.Repeat("a", maxExtLen)},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeExt(tt.in))
		})
	}
}

func TestLocal_SaveAndResolve(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	content := []byte("solid cube\nendsolid cube\n")
	stored, err := store.Save(context.Background(), "../../cube.STL", bytes.NewReader(content))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(stored.Name, ".stl"))
	assert.NotContains(t, stored.Name, "/")
	assert.Equal(t, PublicPrefix+stored.Name, stored.PublicPath)
	assert.Equal(t, int64(len(content)), stored.Size)
	assert.NotEmpty(t, stored.ContentType)

	full, err := store.Resolve(stored.Name)
	require.NoError(t, err)
	assert.Equal(t, store.Dir(), filepath.Dir(full))

	got, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocal_SaveGeneratesDistinctNames(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	a, err := store.Save(context.Background(), "same.stl", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Save(context.Background(), "same.stl", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Name, b.Name)
}

func TestLocal_ResolveRejectsTraversalAndMissing(t *testing.T) {
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	store, err := NewLocal(uploads)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(uploads, "sub"), 0o755))

	for _, name := range []string{"", ".", "..", "../secret.txt", `..\secret.txt`, "missing.stl", "sub"} {
		_, err := store.Resolve(name)
		assert.ErrorIs(t, err, apperrors.ErrFileNotFound, name)
	}
}

func TestLocal_Remove(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	stored, err := store.Save(context.Background(), "gear.obj", strings.NewReader("v 0 0 0"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(stored.Name))
	_, err = store.Resolve(stored.Name)
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)

	assert.NoError(t, store.Remove(stored.Name))
}

func TestLocal_SaveHonoursCancelledContext(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, "a.stl", strings.NewReader("a"))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
