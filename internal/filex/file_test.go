package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_Absolute(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b")

	dir, err := EnsureDir(target)
	require.NoError(t, err)
	assert.Equal(t, target, dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_Idempotent(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "data")

	_, err := EnsureDir(target)
	require.NoError(t, err)
	_, err = EnsureDir(target)
	assert.NoError(t, err)
}
