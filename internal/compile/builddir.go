// Package compile turns a snippet into a build directory, drives the
// external toolchain over it, and runs the produced artifact. The
// toolchain is always a child process; nothing in here interprets the
// snippet itself.
package compile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"surgepad/internal/snippet"
)

// SessionLibName is the package name used for the incremental session
// library that later snippets link against.
const SessionLibName = "surgepad_session"

// entryRelPath is where the generated entry-point source lands inside
// a build directory, and what the manifest's [run].main points at.
const entryRelPath = "src/main.sg"

// manifest mirrors the surge.toml schema the toolchain expects.
type manifest struct {
	Package      manifestPackage   `toml:"package"`
	Run          manifestRun       `toml:"run"`
	Dependencies map[string]string `toml:"dependencies,omitempty"`
}

type manifestPackage struct {
	Name string `toml:"name"`
}

type manifestRun struct {
	Main string `toml:"main"`
}

// WriteBuildDir materializes the manifest and the generated entry-point
// source for one compile attempt. The directory is created as needed
// and is owned exclusively by this compile attempt; nothing reads it
// back except the spawned toolchain. Any filesystem failure aborts the
// attempt before the toolchain is spawned.
func WriteBuildDir(snip *snippet.Snippet, dir string, link *LinkingConfig, library bool) error {
	if snip == nil {
		return &IOError{Err: fmt.Errorf("missing snippet")}
	}

	name := snip.Name
	src := ""
	externPkg := ""
	if link != nil {
		externPkg = link.PackageName
	}
	if library {
		name = SessionLibName
		src = snip.LibSource()
	} else {
		src = snip.EntrySource(externPkg)
	}

	entryPath := filepath.Join(dir, filepath.FromSlash(entryRelPath))
	if err := os.MkdirAll(filepath.Dir(entryPath), 0o750); err != nil {
		return &IOError{Err: fmt.Errorf("failed to create build directory: %w", err)}
	}
	if err := os.WriteFile(entryPath, []byte(src), 0o600); err != nil {
		return &IOError{Err: fmt.Errorf("failed to write entry source: %w", err)}
	}

	m := manifest{
		Package: manifestPackage{Name: name},
		Run:     manifestRun{Main: entryRelPath},
	}
	if len(snip.Deps) > 0 {
		m.Dependencies = make(map[string]string, len(snip.Deps))
		for _, dep := range snip.Deps {
			// Unconstrained on purpose: version resolution is the
			// toolchain's problem, not the console's.
			m.Dependencies[dep.Name] = "*"
		}
	}

	manifestPath := filepath.Join(dir, "surge.toml")
	f, err := os.Create(manifestPath)
	if err != nil {
		return &IOError{Err: fmt.Errorf("failed to create manifest: %w", err)}
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(m); err != nil {
		_ = f.Close()
		return &IOError{Err: fmt.Errorf("failed to encode manifest: %w", err)}
	}
	if err := f.Close(); err != nil {
		return &IOError{Err: fmt.Errorf("failed to close manifest: %w", err)}
	}
	return nil
}
