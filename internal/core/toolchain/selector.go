package toolchain

import (
	"fmt"
	"strings"
)

// SelectorKind tags the variant held by a Selector.
type SelectorKind string

const (
	SelectStable   SelectorKind = "stable"
	SelectSnapshot SelectorKind = "snapshot"
	SelectLatest   SelectorKind = "latest"
	SelectAll      SelectorKind = "all"
)

// Reserved selector keywords.
const (
	KeywordLatest = "latest"
	KeywordAll    = "all"
)

// Selector is a pattern that matches zero or more versions.
//
// A stable selector with a nil Minor matches every release of Major; a nil
// Patch matches every patch of Major.Minor. A snapshot selector with a nil
// Branch matches any branch, and an empty Date matches any date.
type Selector struct {
	Kind   SelectorKind
	Major  int
	Minor  *int
	Patch  *int
	Branch *Branch
	Date   string
}

// LatestSelector selects the newest stable release.
func LatestSelector() Selector { return Selector{Kind: SelectLatest} }

// AllSelector selects every toolchain.
func AllSelector() Selector { return Selector{Kind: SelectAll} }

// StableSelector builds a stable selector. Nil minor or patch act as
// wildcards.
func StableSelector(major int, minor, patch *int) Selector {
	return Selector{Kind: SelectStable, Major: major, Minor: minor, Patch: patch}
}

// SnapshotSelector builds a snapshot selector. A nil branch or empty date
// act as wildcards.
func SnapshotSelector(branch *Branch, date string) Selector {
	return Selector{Kind: SelectSnapshot, Branch: branch, Date: date}
}

// ExactSelector returns the selector matching only v.
func ExactSelector(v Version) Selector {
	if v.IsSnapshot() {
		b := v.Branch
		return SnapshotSelector(&b, v.Date)
	}
	minor, patch := v.Minor, v.Patch
	return StableSelector(v.Major, &minor, &patch)
}

// ParseSelector parses user text into a Selector. See the package grammar:
//
//	a.b.c | a.b | a                      stable
//	main-snapshot[-YYYY-MM-DD]           snapshot on main
//	a.b-snapshot[-YYYY-MM-DD]            snapshot on release branch a.b
//	latest | all                         keywords
func ParseSelector(text string) (Selector, error) {
	text = strings.TrimSpace(text)
	switch text {
	case KeywordLatest:
		return LatestSelector(), nil
	case KeywordAll:
		return AllSelector(), nil
	case "":
		return Selector{}, &ParseError{Text: text, Reason: "empty selector"}
	}

	if m := stablePattern.FindStringSubmatch(text); m != nil {
		major, err := atoi(text, m[1])
		if err != nil {
			return Selector{}, err
		}
		sel := StableSelector(major, nil, nil)
		if m[2] != "" {
			minor, err := atoi(text, m[2])
			if err != nil {
				return Selector{}, err
			}
			sel.Minor = &minor
		}
		if m[3] != "" {
			patch, err := atoi(text, m[3])
			if err != nil {
				return Selector{}, err
			}
			sel.Patch = &patch
		}
		return sel, nil
	}

	if m := snapshotPattern.FindStringSubmatch(text); m != nil {
		branch := MainBranch()
		if m[1] == "" {
			major, err := atoi(text, m[2])
			if err != nil {
				return Selector{}, err
			}
			minor, err := atoi(text, m[3])
			if err != nil {
				return Selector{}, err
			}
			branch = ReleaseBranch(major, minor)
		}
		return SnapshotSelector(&branch, m[4]), nil
	}

	return Selector{}, &ParseError{Text: text}
}

// Matches reports whether v satisfies s. There are no partial matches.
// The latest selector matches every stable release; narrowing to the newest
// one is done by the caller over a candidate set.
func (s Selector) Matches(v Version) bool {
	switch s.Kind {
	case SelectAll:
		return true
	case SelectLatest:
		return v.IsStable()
	case SelectStable:
		if !v.IsStable() || v.Major != s.Major {
			return false
		}
		if s.Minor != nil && v.Minor != *s.Minor {
			return false
		}
		return s.Patch == nil || v.Patch == *s.Patch
	case SelectSnapshot:
		if !v.IsSnapshot() {
			return false
		}
		if s.Branch != nil && v.Branch != *s.Branch {
			return false
		}
		return s.Date == "" || v.Date == s.Date
	}
	return false
}

// Exact returns the single version s names, if it names exactly one.
func (s Selector) Exact() (Version, bool) {
	switch s.Kind {
	case SelectStable:
		if s.Minor != nil && s.Patch != nil {
			return Stable(s.Major, *s.Minor, *s.Patch), true
		}
	case SelectSnapshot:
		if s.Branch != nil && s.Date != "" {
			return Snapshot(*s.Branch, s.Date), true
		}
	}
	return Version{}, false
}

// Family returns the single family s is confined to, if any. Latest is
// confined to stable releases; all and branch-less snapshot selectors span
// several families.
func (s Selector) Family() (Family, bool) {
	switch s.Kind {
	case SelectLatest, SelectStable:
		return StableFamily, true
	case SelectSnapshot:
		if s.Branch != nil {
			return SnapshotFamily(*s.Branch), true
		}
	}
	return Family{}, false
}

// Filter returns the elements of vs matched by s, preserving order.
func (s Selector) Filter(vs []Version) []Version {
	var out []Version
	for _, v := range vs {
		if s.Matches(v) {
			out = append(out, v)
		}
	}
	return out
}

// String renders s in the grammar accepted by ParseSelector. A branch-less
// snapshot selector has no textual form and renders as "snapshot".
func (s Selector) String() string {
	switch s.Kind {
	case SelectAll:
		return KeywordAll
	case SelectLatest:
		return KeywordLatest
	case SelectStable:
		out := fmt.Sprintf("%d", s.Major)
		if s.Minor != nil {
			out += fmt.Sprintf(".%d", *s.Minor)
			if s.Patch != nil {
				out += fmt.Sprintf(".%d", *s.Patch)
			}
		}
		return out
	case SelectSnapshot:
		if s.Branch == nil {
			return "snapshot"
		}
		out := s.Branch.String() + "-snapshot"
		if s.Date != "" {
			out += "-" + s.Date
		}
		return out
	}
	return ""
}
