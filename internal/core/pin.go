package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// PinFileName is the per-directory pin file.
const PinFileName = ".toolchain-version"

// Pin is a pin file and the version it names.
type Pin struct {
	Path    string
	Version toolchain.Version
}

// FindPin looks for a pin file in startDir and each of its ancestors.
// Returns nil, nil when none exists.
func FindPin(startDir string) (*Pin, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", startDir, err)
	}
	for {
		path := filepath.Join(dir, PinFileName)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			v, err := ReadPin(path)
			if err != nil {
				return nil, err
			}
			return &Pin{Path: path, Version: v}, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, &PersistenceError{Path: path, Op: "read", Err: err}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// ReadPin parses the pin file at path. Only the first non-blank line counts.
func ReadPin(path string) (toolchain.Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return toolchain.Version{}, &PersistenceError{Path: path, Op: "read", Err: err}
	}
	var line string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	v, err := toolchain.Parse(line)
	if err != nil {
		return toolchain.Version{}, &PersistenceError{Path: path, Op: "read", Err: err}
	}
	return v, nil
}

// WritePin atomically writes v to path with a trailing newline.
func WritePin(path string, v toolchain.Version) error {
	if err := writeFileAtomic(path, []byte(v.String()+"\n")); err != nil {
		return &PersistenceError{Path: path, Op: "write", Err: err}
	}
	return nil
}
