package filedoc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"credstore/internal/domain/repository"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_ReadMissing(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "accounts.json"))

	_, err := b.Read(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrDocumentNotFound))
}

func TestBackend_ReplaceThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "accounts.json")
	b := New(path)
	ctx := context.Background()

	require.NoError(t, b.Replace(ctx, []byte(`[]`)))
	require.NoError(t, b.Replace(ctx, []byte(`[{"username":"alice","password":"X"}]`)))

	data, err := b.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"username":"alice","password":"X"}]`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestBackend_FailedRenameKeepsPreviousDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.json")
	original := []byte(`[{"username":"alice","password":"X"}]`)
	require.NoError(t, os.WriteFile(path, original, filePerm))

	b := New(path)
	b.rename = func(string, string) error {
		return errors.New("disk full")
	}

	err := b.Replace(context.Background(), []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be removed")
}

func TestBackend_CanceledContext(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "accounts.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Replace(ctx, []byte(`[]`)), context.Canceled)

	_, err := b.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
