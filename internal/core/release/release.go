// Package release provides the sources tcman reads available toolchain
// releases from: a YAML catalog on disk, a JSON index served over HTTP, and
// an S3 mirror.
package release

import (
	"fmt"
	"sort"

	"github.com/barysiuk/tcman/internal/core"
	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// document is the schema shared by the YAML catalog and the JSON index.
type document struct {
	Releases []entry `yaml:"releases" json:"releases"`
}

type entry struct {
	Version   string `yaml:"version" json:"version"`
	URL       string `yaml:"url" json:"url"`
	SHA256    string `yaml:"sha256,omitempty" json:"sha256,omitempty"`
	Signature string `yaml:"signature,omitempty" json:"signature,omitempty"`
}

// decode validates every entry and resolves its URLs with resolve.
func (d document) decode(resolve func(string) string) ([]core.Release, error) {
	seen := make(map[toolchain.Version]bool, len(d.Releases))
	out := make([]core.Release, 0, len(d.Releases))
	for i, e := range d.Releases {
		v, err := toolchain.Parse(e.Version)
		if err != nil {
			return nil, fmt.Errorf("release %d: %w", i+1, err)
		}
		if e.URL == "" {
			return nil, fmt.Errorf("release %s: missing url", v)
		}
		if seen[v] {
			continue
		}
		seen[v] = true

		rel := core.Release{Version: v, URL: resolve(e.URL), SHA256: e.SHA256}
		if e.Signature != "" {
			rel.SignatureURL = resolve(e.Signature)
		}
		out = append(out, rel)
	}
	return out, nil
}

// FilterFamily returns the releases belonging to family, oldest first.
func FilterFamily(releases []core.Release, family toolchain.Family) []core.Release {
	var out []core.Release
	for _, r := range releases {
		if family.Contains(r.Version) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return toolchain.DisplayCompare(out[i].Version, out[j].Version) < 0
	})
	return out
}
