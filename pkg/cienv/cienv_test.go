package cienv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrite_AppendsSortedUppercased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_env")
	require.NoError(t, os.WriteFile(path, []byte("EXISTING=1"), 0o644))

	err := Write(path, map[string]string{
		"evm_tag":        "v1.2.3",
		"is_evm_release": "true",
	}, true)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "EXISTING=1\nEVM_TAG=v1.2.3\nIS_EVM_RELEASE=true", string(b))
}

func TestWrite_LowercaseKeysKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_env")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, Write(path, map[string]string{"neon_test_tag": "latest"}, false))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "\nneon_test_tag=latest", string(b))
}

func TestWrite_MissingFileIsNoop(t *testing.T) {
	require.NoError(t, Write(filepath.Join(t.TempDir(), "absent"), map[string]string{"k": "v"}, true))
	require.NoError(t, Write("", map[string]string{"k": "v"}, true))
}
