package compiler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	openZeppelinPrefix  = "@openzeppelin/contracts/"
	openZeppelinBaseURL = "https://raw.githubusercontent.com/OpenZeppelin/openzeppelin-contracts/v5.0.2/contracts/"

	chainlinkPrefix  = "@chainlink/contracts/"
	chainlinkBaseURL = "https://raw.githubusercontent.com/smartcontractkit/chainlink/contracts-v1.3.0/contracts/"
)

// NotFoundError signals that an import path could not be resolved. It is
// reported back to the compiler as a diagnostic, never raised to callers.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// ImportResolver resolves Solidity import paths against the local filesystem,
// installed package directories and known remote registries. Successful
// lookups are cached for the lifetime of the resolver, which is scoped to a
// single compilation.
type ImportResolver struct {
	workingRoot  string
	packageRoots []string
	client       *http.Client
	cache        map[string]string
}

// NewImportResolver creates a resolver rooted at the given working directory.
func NewImportResolver(workingRoot string) *ImportResolver {
	return &ImportResolver{
		workingRoot: workingRoot,
		packageRoots: []string{
			filepath.Join(workingRoot, "node_modules"),
			filepath.Join(workingRoot, "..", "node_modules"),
		},
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  make(map[string]string),
	}
}

// Resolve returns the source text for an import path. A miss returns a
// *NotFoundError so the compiler can aggregate it into its own diagnostics.
func (r *ImportResolver) Resolve(importPath string) (string, error) {
	if contents, ok := r.cache[importPath]; ok {
		return contents, nil
	}

	contents, ok := r.lookup(importPath)
	if !ok {
		return "", &NotFoundError{Path: importPath}
	}

	r.cache[importPath] = contents
	return contents, nil
}

func (r *ImportResolver) lookup(importPath string) (string, bool) {
	// Local file relative to the project's working root
	if r.workingRoot != "" {
		if contents, ok := readFile(filepath.Join(r.workingRoot, importPath)); ok {
			return contents, true
		}
	}

	// Installed package directories, with and without a leading "./"
	stripped := strings.TrimPrefix(importPath, "./")
	for _, root := range r.packageRoots {
		if contents, ok := readFile(filepath.Join(root, importPath)); ok {
			return contents, true
		}
		if stripped != importPath {
			if contents, ok := readFile(filepath.Join(root, stripped)); ok {
				return contents, true
			}
		}
	}

	// Known registries, pinned to a specific release
	if rest, ok := strings.CutPrefix(importPath, openZeppelinPrefix); ok {
		if contents, ok := r.fetch(openZeppelinBaseURL + rest); ok {
			return contents, true
		}
	}
	if rest, ok := strings.CutPrefix(importPath, chainlinkPrefix); ok {
		if contents, ok := r.fetch(chainlinkBaseURL + rest); ok {
			return contents, true
		}
	}

	// Bare URLs
	if strings.HasPrefix(importPath, "http://") || strings.HasPrefix(importPath, "https://") {
		if contents, ok := r.fetch(importPath); ok {
			return contents, true
		}
	}

	// Relative imports sometimes omit the contracts/ directory
	if r.workingRoot != "" && !strings.HasPrefix(importPath, "@") {
		if contents, ok := readFile(filepath.Join(r.workingRoot, "contracts", stripped)); ok {
			return contents, true
		}
	}

	return "", false
}

func (r *ImportResolver) fetch(url string) (string, bool) {
	resp, err := r.client.Get(url)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false
	}

	return string(body), true
}

func readFile(path string) (string, bool) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(contents), true
}
