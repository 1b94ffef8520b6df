package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"surgepad/internal/compile"
)

// padConfig is the on-disk shape of surgepad.toml. Every section is
// optional; absent values fall back to defaults.
type padConfig struct {
	Console   consoleConfig   `toml:"console"`
	Toolchain toolchainConfig `toml:"toolchain"`
}

type consoleConfig struct {
	Prompt string `toml:"prompt"`
	// BuildRoot overrides where session build directories are created;
	// empty means the system temp dir.
	BuildRoot string `toml:"build_root"`
}

type toolchainConfig struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	CompileTimeout string   `toml:"compile_timeout"`
	RunTimeout     string   `toml:"run_timeout"`
}

// settings is the resolved runtime configuration after defaults and
// duration parsing.
type settings struct {
	prompt         string
	buildRoot      string
	toolchain      compile.Toolchain
	compileTimeout time.Duration
	runTimeout     time.Duration
}

func defaultSettings() settings {
	return settings{
		prompt:    "surgepad=> ",
		toolchain: compile.DefaultToolchain(),
	}
}

// findSurgepadToml walks from startDir to the filesystem root looking
// for a surgepad.toml, the same way the compiler locates surge.toml.
func findSurgepadToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "surgepad.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadSettings resolves the effective configuration for a session. A
// missing config file is not an error.
func loadSettings(startDir string) (settings, error) {
	st := defaultSettings()

	path, ok, err := findSurgepadToml(startDir)
	if err != nil || !ok {
		return st, err
	}

	var cfg padConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return settings{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if prompt := cfg.Console.Prompt; prompt != "" {
		st.prompt = prompt
	}
	st.buildRoot = strings.TrimSpace(cfg.Console.BuildRoot)
	if cmd := strings.TrimSpace(cfg.Toolchain.Command); cmd != "" {
		st.toolchain.Cmd = cmd
	}
	if cfg.Toolchain.Args != nil {
		st.toolchain.Args = cfg.Toolchain.Args
	}
	if st.compileTimeout, err = parseTimeout(path, "compile_timeout", cfg.Toolchain.CompileTimeout); err != nil {
		return settings{}, err
	}
	if st.runTimeout, err = parseTimeout(path, "run_timeout", cfg.Toolchain.RunTimeout); err != nil {
		return settings{}, err
	}
	return st, nil
}

func parseTimeout(path, field, raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid [toolchain].%s: %w", path, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: [toolchain].%s must not be negative", path, field)
	}
	return d, nil
}
