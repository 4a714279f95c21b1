package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/barysiuk/tcman/internal/core/toolchain"
)

const registryFileName = "registry.json"

// Registry is the set of installed toolchains plus the single active one.
// A loaded Registry remembers the document it was read from so that fields
// it does not know about survive a rewrite.
type Registry struct {
	installed map[toolchain.Version]struct{}
	active    *toolchain.Version
	raw       string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{installed: make(map[toolchain.Version]struct{})}
}

// List returns installed versions matched by sel, in display order. A nil
// selector returns everything.
func (r *Registry) List(sel *toolchain.Selector) []toolchain.Version {
	out := make([]toolchain.Version, 0, len(r.installed))
	for v := range r.installed {
		if sel == nil || sel.Matches(v) {
			out = append(out, v)
		}
	}
	toolchain.SortDisplay(out)
	return out
}

// Insert adds v to the installed set.
func (r *Registry) Insert(v toolchain.Version) {
	r.installed[v] = struct{}{}
}

// Remove deletes v from the installed set. It reports whether v was present.
// The active pointer is left alone.
func (r *Registry) Remove(v toolchain.Version) bool {
	if _, ok := r.installed[v]; !ok {
		return false
	}
	delete(r.installed, v)
	return true
}

// Contains reports whether v is installed.
func (r *Registry) Contains(v toolchain.Version) bool {
	_, ok := r.installed[v]
	return ok
}

// SetActive sets or, with nil, clears the active version.
func (r *Registry) SetActive(v *toolchain.Version) {
	if v == nil {
		r.active = nil
		return
	}
	cp := *v
	r.active = &cp
}

// Active returns the active version, which may be dangling (not installed).
func (r *Registry) Active() *toolchain.Version {
	if r.active == nil {
		return nil
	}
	cp := *r.active
	return &cp
}

// ActiveInstalled returns the active version only when it is installed. A
// dangling active reads as no active toolchain.
func (r *Registry) ActiveInstalled() *toolchain.Version {
	if r.active == nil || !r.Contains(*r.active) {
		return nil
	}
	return r.Active()
}

// IsActive reports whether v is the active version.
func (r *Registry) IsActive(v toolchain.Version) bool {
	return r.active != nil && *r.active == v
}

// RegistryStore loads and saves the registry file. Writes are atomic, but
// there is no locking between processes: the last writer wins.
type RegistryStore struct {
	dir string
	mu  sync.Mutex
}

// NewRegistryStore creates a store for dir/registry.json.
func NewRegistryStore(dir string) *RegistryStore {
	return &RegistryStore{dir: dir}
}

// Path returns the full path to the registry file.
func (s *RegistryStore) Path() string {
	return filepath.Join(s.dir, registryFileName)
}

// Load reads the registry from disk. A missing file is an empty registry.
func (s *RegistryStore) Load() (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), nil
		}
		return nil, &PersistenceError{Path: path, Op: "read", Err: err}
	}
	reg, err := decodeRegistry(string(data))
	if err != nil {
		return nil, &PersistenceError{Path: path, Op: "read", Err: err}
	}
	return reg, nil
}

// Save writes reg to disk, creating the directory if needed.
func (s *RegistryStore) Save(reg *Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path()
	content, err := encodeRegistry(reg)
	if err != nil {
		return &PersistenceError{Path: path, Op: "write", Err: err}
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return &PersistenceError{Path: path, Op: "write", Err: err}
	}
	reg.raw = content
	return nil
}

func decodeRegistry(content string) (*Registry, error) {
	if !gjson.Valid(content) {
		return nil, fmt.Errorf("parsing registry: invalid JSON")
	}
	reg := NewRegistry()
	reg.raw = content

	installed := gjson.Get(content, "installed")
	if installed.Exists() && !installed.IsArray() {
		return nil, fmt.Errorf("parsing registry: \"installed\" must be an array")
	}
	for _, item := range installed.Array() {
		v, err := toolchain.Parse(item.String())
		if err != nil {
			return nil, fmt.Errorf("parsing registry: %w", err)
		}
		reg.Insert(v)
	}

	active := gjson.Get(content, "active")
	if active.Exists() && active.Type != gjson.Null {
		v, err := toolchain.Parse(active.String())
		if err != nil {
			return nil, fmt.Errorf("parsing registry: active: %w", err)
		}
		reg.SetActive(&v)
	}
	return reg, nil
}

// encodeRegistry patches the known keys into the document the registry was
// loaded from.
func encodeRegistry(reg *Registry) (string, error) {
	content := reg.raw
	if content == "" {
		content = "{}"
	}

	list := reg.List(nil)
	names := make([]string, len(list))
	for i, v := range list {
		names[i] = v.String()
	}

	var err error
	content, err = sjson.Set(content, "installed", names)
	if err != nil {
		return "", fmt.Errorf("writing installed: %w", err)
	}
	if reg.active != nil {
		content, err = sjson.Set(content, "active", reg.active.String())
	} else {
		content, err = sjson.Delete(content, "active")
	}
	if err != nil {
		return "", fmt.Errorf("writing active: %w", err)
	}
	return string(pretty.Pretty([]byte(content))), nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place. Parent directories are created as needed.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
