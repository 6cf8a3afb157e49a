package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHashFile(t *testing.T) {
	path := writeTemp(t, "safety manual contents")

	hash1, err := HashFile(path)
	require.NoError(t, err)
	hash2, err := HashFile(path)
	require.NoError(t, err)

	// Same file hashes identically; SHA-256 hex is 64 chars.
	assert.Equal(t, hash1, hash2)
	assert.Len(t, hash1, 64)
}

func TestHashFile_DifferentContent(t *testing.T) {
	hash1, err := HashFile(writeTemp(t, "revision one"))
	require.NoError(t, err)
	hash2, err := HashFile(writeTemp(t, "revision two"))
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestHashFile_Missing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}
