package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/barysiuk/tcman/internal/core/toolchain"
)

func TestRegistry_InsertRemoveContains(t *testing.T) {
	reg := NewRegistry()
	v := toolchain.Stable(5, 9, 0)

	if reg.Contains(v) {
		t.Fatal("empty registry should not contain anything")
	}
	reg.Insert(v)
	reg.Insert(v)
	if got := versionStrings(reg.List(nil)); got != "5.9.0" {
		t.Errorf("installed = %s, want 5.9.0", got)
	}
	if !reg.Remove(v) {
		t.Error("Remove() = false, want true")
	}
	if reg.Remove(v) {
		t.Error("second Remove() = true, want false")
	}
}

func TestRegistry_ListDisplayOrder(t *testing.T) {
	reg := registryOf(t, nil, "main-snapshot-2024-01-01", "6.0.0", "5.9.0", "5.10-snapshot-2024-01-01")

	got := versionStrings(reg.List(nil))
	want := "5.9.0,6.0.0,5.10-snapshot-2024-01-01,main-snapshot-2024-01-01"
	if got != want {
		t.Errorf("List(nil) = %s, want %s", got, want)
	}

	sel, _ := toolchain.ParseSelector("5")
	if got := versionStrings(reg.List(&sel)); got != "5.9.0" {
		t.Errorf("List(5) = %s, want 5.9.0", got)
	}
}

func TestRegistry_ActiveInstalled(t *testing.T) {
	active := toolchain.Stable(5, 9, 0)
	reg := registryOf(t, &active)
	if reg.Active() == nil {
		t.Fatal("Active() = nil, want dangling 5.9.0")
	}
	if reg.ActiveInstalled() != nil {
		t.Error("ActiveInstalled() should ignore a dangling active")
	}
	reg.Insert(active)
	if got := reg.ActiveInstalled(); got == nil || *got != active {
		t.Errorf("ActiveInstalled() = %v, want 5.9.0", got)
	}
}

func TestRegistryStore_LoadMissing(t *testing.T) {
	store := NewRegistryStore(t.TempDir())

	reg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(reg.List(nil)) != 0 || reg.Active() != nil {
		t.Errorf("expected empty registry, got %s installed, active %v", versionStrings(reg.List(nil)), reg.Active())
	}
}

func TestRegistryStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store := NewRegistryStore(dir)

	active := toolchain.MustParse("main-snapshot-2024-06-18")
	reg := registryOf(t, &active, "5.9.0", "main-snapshot-2024-06-18")
	if err := store.Save(reg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := versionStrings(loaded.List(nil)); got != "5.9.0,main-snapshot-2024-06-18" {
		t.Errorf("installed = %s", got)
	}
	if got := loaded.Active(); got == nil || *got != active {
		t.Errorf("active = %v, want %s", got, active)
	}

	// Clearing active removes the key entirely.
	loaded.SetActive(nil)
	if err := store.Save(loaded); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if gjson.GetBytes(data, "active").Exists() {
		t.Errorf("active key should be absent, file:\n%s", data)
	}
	again, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if again.Active() != nil {
		t.Errorf("active = %v, want nil", again.Active())
	}
}

func TestRegistryStore_PreservesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	store := NewRegistryStore(dir)
	doc := `{"version": 1, "installed": ["5.9.0"], "active": "5.9.0", "extra": {"keep": true}}`
	if err := os.WriteFile(store.Path(), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	reg.Insert(toolchain.Stable(5, 10, 0))
	if err := store.Save(reg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(data, "version").Int(); got != 1 {
		t.Errorf("version = %d, want 1", got)
	}
	if !gjson.GetBytes(data, "extra.keep").Bool() {
		t.Errorf("extra.keep lost, file:\n%s", data)
	}
	if got := gjson.GetBytes(data, "installed.#").Int(); got != 2 {
		t.Errorf("installed count = %d, want 2", got)
	}
}

func TestRegistryStore_CorruptFile(t *testing.T) {
	tests := map[string]string{
		"invalid json":     "{invalid",
		"bad version":      `{"installed": ["5.9"]}`,
		"installed object": `{"installed": {}}`,
		"bad active":       `{"installed": [], "active": "nope"}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			store := NewRegistryStore(t.TempDir())
			if err := os.WriteFile(store.Path(), []byte(doc), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := store.Load()
			var pe *PersistenceError
			if !errors.As(err, &pe) {
				t.Fatalf("Load() error = %v, want *PersistenceError", err)
			}
		})
	}
}

func TestRegistryStore_NullActive(t *testing.T) {
	store := NewRegistryStore(t.TempDir())
	if err := os.WriteFile(store.Path(), []byte(`{"installed":["5.9.0"],"active":null}`), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if reg.Active() != nil {
		t.Errorf("active = %v, want nil", reg.Active())
	}
}

func registryOf(t *testing.T, active *toolchain.Version, installed ...string) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, s := range installed {
		v, err := toolchain.Parse(s)
		if err != nil {
			t.Fatalf("parsing %q: %v", s, err)
		}
		reg.Insert(v)
	}
	reg.SetActive(active)
	return reg
}

func versionStrings(vs []toolchain.Version) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}
