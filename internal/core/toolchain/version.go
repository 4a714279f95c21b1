// Package toolchain defines the toolchain identity model for tcman.
//
// A Version is either a numbered stable release (a.b.c) or a dated snapshot
// built from a development branch. Versions are ordered only within a
// family: all stable releases form one family, and every snapshot branch
// forms its own. Asking for an order across families is an error.
package toolchain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Version.
type Kind string

const (
	KindStable   Kind = "stable"
	KindSnapshot Kind = "snapshot"
)

// Branch names the development branch a snapshot was built from: either
// main or a numbered release branch.
type Branch struct {
	Main  bool
	Major int
	Minor int
}

// MainBranch returns the main development branch.
func MainBranch() Branch {
	return Branch{Main: true}
}

// ReleaseBranch returns the release branch for major.minor.
func ReleaseBranch(major, minor int) Branch {
	return Branch{Major: major, Minor: minor}
}

// String returns "main" or "major.minor".
func (b Branch) String() string {
	if b.Main {
		return "main"
	}
	return fmt.Sprintf("%d.%d", b.Major, b.Minor)
}

// compare orders release branches numerically with main last.
func (b Branch) compare(o Branch) int {
	switch {
	case b.Main && o.Main:
		return 0
	case b.Main:
		return 1
	case o.Main:
		return -1
	}
	if c := compareInt(b.Major, o.Major); c != 0 {
		return c
	}
	return compareInt(b.Minor, o.Minor)
}

// Version identifies one toolchain. It is a comparable value and can be used
// as a map key. Only the fields belonging to Kind are meaningful.
type Version struct {
	Kind Kind

	// Stable fields.
	Major int
	Minor int
	Patch int

	// Snapshot fields. Date is YYYY-MM-DD.
	Branch Branch
	Date   string
}

// Stable returns the stable release major.minor.patch.
func Stable(major, minor, patch int) Version {
	return Version{Kind: KindStable, Major: major, Minor: minor, Patch: patch}
}

// Snapshot returns the snapshot of branch taken on date.
func Snapshot(branch Branch, date string) Version {
	return Version{Kind: KindSnapshot, Branch: branch, Date: date}
}

// IsStable reports whether v is a stable release.
func (v Version) IsStable() bool {
	return v.Kind == KindStable
}

// IsSnapshot reports whether v is a snapshot.
func (v Version) IsSnapshot() bool {
	return v.Kind == KindSnapshot
}

// String returns the canonical text form of v.
func (v Version) String() string {
	switch v.Kind {
	case KindStable:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	case KindSnapshot:
		return v.Branch.String() + "-snapshot-" + v.Date
	default:
		return "<invalid>"
	}
}

// Family returns the comparable family v belongs to.
func (v Version) Family() Family {
	if v.Kind == KindSnapshot {
		return Family{Kind: KindSnapshot, Branch: v.Branch}
	}
	return Family{Kind: KindStable}
}

// Family groups versions that have a meaningful order between them.
type Family struct {
	Kind   Kind
	Branch Branch // snapshot families only
}

// StableFamily is the family of every stable release.
var StableFamily = Family{Kind: KindStable}

// SnapshotFamily returns the family of snapshots on branch.
func SnapshotFamily(branch Branch) Family {
	return Family{Kind: KindSnapshot, Branch: branch}
}

// String returns "stable" or "<branch>-snapshot".
func (f Family) String() string {
	if f.Kind == KindSnapshot {
		return f.Branch.String() + "-snapshot"
	}
	return "stable"
}

// Contains reports whether v belongs to f.
func (f Family) Contains(v Version) bool {
	return v.Family() == f
}

var (
	stablePattern   = regexp.MustCompile(`^(\d+)(?:\.(\d+)(?:\.(\d+))?)?$`)
	snapshotPattern = regexp.MustCompile(`^(?:(main)|(\d+)\.(\d+))-snapshot(?:-(\d{4}-\d{2}-\d{2}))?$`)
)

// Parse parses the canonical text of a concrete toolchain version. Wildcard
// forms such as "5.9" or "main-snapshot" and the keywords "latest" and "all"
// are selectors, not versions, and are rejected.
func Parse(text string) (Version, error) {
	text = strings.TrimSpace(text)
	sel, err := ParseSelector(text)
	if err != nil {
		return Version{}, err
	}
	v, ok := sel.Exact()
	if !ok {
		return Version{}, &ParseError{Text: text, Reason: "not a concrete version"}
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare orders a and b within their family. It returns a negative number
// when a < b, zero when equal and a positive number when a > b. Versions of
// different families are incomparable.
func Compare(a, b Version) (int, error) {
	if a.Family() != b.Family() {
		return 0, &IncomparableError{A: a, B: b}
	}
	return compareWithinFamily(a, b), nil
}

func compareWithinFamily(a, b Version) int {
	if a.Kind == KindSnapshot {
		return strings.Compare(a.Date, b.Date)
	}
	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	return compareInt(a.Patch, b.Patch)
}

// DisplayCompare is a total order over all versions used for listing and as
// a family-agnostic last resort. Stable releases come first, then snapshots
// grouped by branch (release branches ascending, main last), then by date.
// It is not a statement about which toolchain is newer.
func DisplayCompare(a, b Version) int {
	if a.Kind != b.Kind {
		if a.Kind == KindStable {
			return -1
		}
		return 1
	}
	if a.Kind == KindSnapshot {
		if c := a.Branch.compare(b.Branch); c != 0 {
			return c
		}
	}
	return compareWithinFamily(a, b)
}

// SortDisplay sorts versions in place by DisplayCompare.
func SortDisplay(vs []Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		return DisplayCompare(vs[i], vs[j]) < 0
	})
}

// Max returns the greatest version in vs. All elements must share one
// family; otherwise an IncomparableError is returned. ok is false when vs is
// empty.
func Max(vs []Version) (max Version, ok bool, err error) {
	for _, v := range vs {
		if !ok {
			max, ok = v, true
			continue
		}
		c, err := Compare(v, max)
		if err != nil {
			return Version{}, false, err
		}
		if c > 0 {
			max = v
		}
	}
	return max, ok, nil
}

// Families returns the distinct families present in vs, in display order.
func Families(vs []Version) []Family {
	seen := make(map[Family]bool)
	var out []Family
	for _, v := range vs {
		f := v.Family()
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return DisplayCompare(representative(out[i]), representative(out[j])) < 0
	})
	return out
}

func representative(f Family) Version {
	if f.Kind == KindSnapshot {
		return Snapshot(f.Branch, "")
	}
	return Stable(0, 0, 0)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func atoi(text, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ParseError{Text: text, Reason: fmt.Sprintf("number %q out of range", s)}
	}
	return n, nil
}
