package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/barysiuk/tcman/internal/core"
	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// Catalog reads releases from a YAML file:
//
//	releases:
//	  - version: 6.0.1
//	    url: tc-6.0.1.tar.gz
//	    sha256: "..."
//	    signature: tc-6.0.1.tar.gz.sig
//
// Relative paths are resolved against the catalog's directory.
type Catalog struct {
	Path string
}

var _ core.ReleaseSource = (*Catalog)(nil)

// NewCatalog creates a Catalog for the file at path.
func NewCatalog(path string) *Catalog {
	return &Catalog{Path: path}
}

// ListAvailable implements core.ReleaseSource.
func (c *Catalog) ListAvailable(_ context.Context, family toolchain.Family) ([]core.Release, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("reading release catalog: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing release catalog %s: %w", c.Path, err)
	}

	base := filepath.Dir(c.Path)
	releases, err := doc.decode(func(ref string) string {
		if strings.Contains(ref, "://") || filepath.IsAbs(ref) {
			return ref
		}
		return filepath.Join(base, filepath.FromSlash(ref))
	})
	if err != nil {
		return nil, fmt.Errorf("release catalog %s: %w", c.Path, err)
	}
	return FilterFamily(releases, family), nil
}
