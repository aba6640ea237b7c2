// Package compiler wraps the Solidity compiler, feeding it user source plus
// resolved imports and surfacing structured diagnostics.
package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rxtech-lab/solc-go"
)

const (
	// DefaultVersion is the solc release used for every compilation. It must
	// stay in sync with fullVersions below so explorer verification submits
	// the exact build string.
	DefaultVersion = "0.8.24"

	// OptimizerRuns is the fixed optimizer run count. Explorer verification
	// submits the same value, so a deployment compiled here always matches.
	OptimizerRuns = 200

	sourceUnit = "contract.sol"
)

// fullVersions maps a solc release to the full version string the explorer
// verification API requires (v<major>.<minor>.<patch>+commit.<hash>).
var fullVersions = map[string]string{
	"0.8.20": "v0.8.20+commit.a1b79de6",
	"0.8.24": "v0.8.24+commit.e11b9ed9",
	"0.8.26": "v0.8.26+commit.8a97fa7a",
	"0.8.27": "v0.8.27+commit.40a35a09",
	"0.8.28": "v0.8.28+commit.7893614a",
}

// Artifact is one concrete compiled contract.
type Artifact struct {
	ContractName string `json:"contractName"`
	ABI          string `json:"abi"`
	Bytecode     string `json:"bytecode"`
}

// Result holds every concrete contract produced by a compilation together
// with non-fatal diagnostics.
type Result struct {
	Contracts       []Artifact `json:"contracts"`
	Warnings        []string   `json:"warnings"`
	CompilerVersion string     `json:"compilerVersion"`
}

// Select picks a contract by name. An empty name is allowed only when the
// compilation produced exactly one contract.
func (r *Result) Select(name string) (Artifact, error) {
	if name == "" {
		if len(r.Contracts) == 1 {
			return r.Contracts[0], nil
		}
		names := make([]string, len(r.Contracts))
		for i, c := range r.Contracts {
			names[i] = c.ContractName
		}
		return Artifact{}, fmt.Errorf("source produced multiple contracts (%s), specify a contract name", strings.Join(names, ", "))
	}

	for _, c := range r.Contracts {
		if c.ContractName == name {
			return c, nil
		}
	}
	return Artifact{}, fmt.Errorf("contract %s not found in compilation result", name)
}

// CompilationError aggregates every error-severity diagnostic of a failed
// compilation.
type CompilationError struct {
	Diagnostics []string
}

func (e *CompilationError) Error() string {
	return strings.Join(e.Diagnostics, "\n")
}

// Compiler compiles Solidity source with a pinned solc release.
type Compiler struct {
	version string
}

// NewCompiler returns a compiler pinned to DefaultVersion.
func NewCompiler() *Compiler {
	return &Compiler{version: DefaultVersion}
}

// NewCompilerWithVersion returns a compiler pinned to a specific solc release.
func NewCompilerWithVersion(version string) *Compiler {
	return &Compiler{version: version}
}

// Version returns the short solc release, e.g. "0.8.24".
func (c *Compiler) Version() string {
	return c.version
}

// FullVersion returns the explorer-format version string for the pinned
// release.
func (c *Compiler) FullVersion() string {
	if full, ok := fullVersions[c.version]; ok {
		return full
	}
	return "v" + c.version
}

// Compile compiles source as a single named compilation unit, using resolver
// for unresolved imports. Error-severity diagnostics fail the compilation
// with a *CompilationError; warnings are returned on the result.
func (c *Compiler) Compile(source string, resolver *ImportResolver) (*Result, error) {
	solcCompiler, err := solc.NewWithVersion(c.version)
	if err != nil {
		return nil, fmt.Errorf("failed to load solc %s: %w", c.version, err)
	}

	opts := solc.CompileOptions{
		ImportCallback: func(importPath string) solc.ImportResult {
			contents, err := resolver.Resolve(importPath)
			if err != nil {
				return solc.ImportResult{Error: err.Error()}
			}
			return solc.ImportResult{Contents: contents}
		},
	}

	output, err := solcCompiler.CompileWithOptions(&solc.Input{
		Language: "Solidity",
		Sources: map[string]solc.SourceIn{
			sourceUnit: {
				Content: source,
			},
		},
		Settings: solc.Settings{
			Optimizer: solc.Optimizer{
				Enabled: true,
				Runs:    OptimizerRuns,
			},
			OutputSelection: map[string]map[string][]string{
				"*": {
					"*": []string{"abi", "evm.bytecode"},
				},
			},
		},
	}, &opts)
	if err != nil {
		return nil, err
	}

	var warnings []string
	var compileErrors []string
	for _, diagnostic := range output.Errors {
		message := diagnostic.FormattedMessage
		if message == "" {
			message = diagnostic.Message
		}
		if diagnostic.Severity == "error" {
			compileErrors = append(compileErrors, message)
		} else {
			warnings = append(warnings, message)
		}
	}
	if len(compileErrors) > 0 {
		return nil, &CompilationError{Diagnostics: compileErrors}
	}

	result := &Result{
		Warnings:        warnings,
		CompilerVersion: c.FullVersion(),
	}
	for fileName, contractMap := range output.Contracts {
		if fileName != sourceUnit {
			continue
		}
		for contractName, contract := range contractMap {
			bytecode := contract.EVM.Bytecode.Object
			if bytecode == "" {
				// Abstract contracts and interfaces produce no bytecode
				continue
			}

			abiBytes, err := json.Marshal(contract.ABI)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal ABI for %s: %w", contractName, err)
			}

			result.Contracts = append(result.Contracts, Artifact{
				ContractName: contractName,
				ABI:          string(abiBytes),
				Bytecode:     "0x" + strings.TrimPrefix(bytecode, "0x"),
			})
		}
	}

	if len(result.Contracts) == 0 {
		return nil, &CompilationError{
			Diagnostics: []string{"no contracts produced: source must declare at least one concrete contract"},
		}
	}

	return result, nil
}
