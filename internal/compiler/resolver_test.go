package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestResolveLocalFile(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "Library.sol"), "library Library {}")

	resolver := NewImportResolver(root)
	contents, err := resolver.Resolve("Library.sol")
	require.NoError(t, err)
	assert.Equal(t, "library Library {}", contents)
}

func TestResolveFromNodeModules(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "node_modules", "@acme", "tokens", "Token.sol"), "contract Token {}")

	resolver := NewImportResolver(root)
	contents, err := resolver.Resolve("@acme/tokens/Token.sol")
	require.NoError(t, err)
	assert.Equal(t, "contract Token {}", contents)
}

func TestResolveContractsDirFallback(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "contracts", "Helper.sol"), "contract Helper {}")

	resolver := NewImportResolver(root)
	contents, err := resolver.Resolve("./Helper.sol")
	require.NoError(t, err)
	assert.Equal(t, "contract Helper {}", contents)
}

func TestResolveCachesSuccessfulLookups(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Cached.sol")
	writeSource(t, path, "contract Cached {}")

	resolver := NewImportResolver(root)
	first, err := resolver.Resolve("Cached.sol")
	require.NoError(t, err)

	// A second resolve must not re-read the file
	writeSource(t, path, "contract Changed {}")
	second, err := resolver.Resolve("Cached.sol")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveNotFound(t *testing.T) {
	resolver := NewImportResolver(t.TempDir())

	_, err := resolver.Resolve("Missing.sol")
	require.Error(t, err)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Missing.sol", notFound.Path)
	assert.Equal(t, "file not found: Missing.sol", err.Error())
}
