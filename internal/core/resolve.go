package core

import (
	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// The functions in this file decide what to do; they never touch disk.

// SelectTargets returns the installed versions matched by selectorText, in
// display order. A dangling active version (set but not installed) is
// included whenever the selector matches it, so that uninstall can clear
// it. "latest" yields the single highest installed stable release.
func SelectTargets(reg *Registry, selectorText string) ([]toolchain.Version, error) {
	sel, err := toolchain.ParseSelector(selectorText)
	if err != nil {
		return nil, err
	}

	targets := reg.List(&sel)
	if sel.Kind == toolchain.SelectLatest {
		max, ok, err := toolchain.Max(targets)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return []toolchain.Version{max}, nil
	}

	if active := reg.Active(); active != nil && !reg.Contains(*active) && sel.Matches(*active) {
		targets = append(targets, *active)
		toolchain.SortDisplay(targets)
	}
	return targets, nil
}

// OrderForUninstall returns targets in display order with the active version,
// if among them, moved to the end.
func OrderForUninstall(targets []toolchain.Version, active *toolchain.Version) []toolchain.Version {
	out := make([]toolchain.Version, 0, len(targets))
	var last []toolchain.Version
	for _, v := range targets {
		if active != nil && v == *active {
			last = append(last, v)
			continue
		}
		out = append(out, v)
	}
	toolchain.SortDisplay(out)
	return append(out, last...)
}

// SuccessorSelector returns the selector for "a newer build of the same
// line": same major.minor for stable releases, same branch for snapshots.
func SuccessorSelector(v toolchain.Version) toolchain.Selector {
	if v.IsSnapshot() {
		b := v.Branch
		return toolchain.SnapshotSelector(&b, "")
	}
	minor := v.Minor
	return toolchain.StableSelector(v.Major, &minor, nil)
}

// ChooseReplacementOnUninstall picks the version to activate when the active
// version is about to be removed as part of removed. Candidates are the
// installed versions not in removed. In order of preference: the highest
// version on the same line as the active one, the highest stable release,
// the greatest version in display order. Returns nil when nothing is left
// or when the active version is not being removed.
func ChooseReplacementOnUninstall(reg *Registry, removed []toolchain.Version) (*toolchain.Version, error) {
	active := reg.Active()
	if active == nil {
		return nil, nil
	}
	gone := make(map[toolchain.Version]bool, len(removed))
	for _, v := range removed {
		gone[v] = true
	}
	if !gone[*active] {
		return nil, nil
	}

	var remaining []toolchain.Version
	for _, v := range reg.List(nil) {
		if !gone[v] {
			remaining = append(remaining, v)
		}
	}
	if len(remaining) == 0 {
		return nil, nil
	}

	for _, sel := range []toolchain.Selector{SuccessorSelector(*active), toolchain.LatestSelector()} {
		max, ok, err := toolchain.Max(sel.Filter(remaining))
		if err != nil {
			return nil, err
		}
		if ok {
			return &max, nil
		}
	}

	// remaining is already in display order.
	last := remaining[len(remaining)-1]
	return &last, nil
}

// ResolveUpdateSource returns the installed version an update starts from.
// An empty selectorText means the active version, or pinned when nothing is
// active. Otherwise it is the highest installed version matching the
// selector; matches spanning several families are ambiguous. It returns nil
// when nothing installed qualifies.
func ResolveUpdateSource(reg *Registry, selectorText string, pinned *toolchain.Version) (*toolchain.Version, error) {
	if selectorText == "" {
		if active := reg.ActiveInstalled(); active != nil {
			return active, nil
		}
		if pinned != nil && reg.Contains(*pinned) {
			v := *pinned
			return &v, nil
		}
		return nil, nil
	}

	sel, err := toolchain.ParseSelector(selectorText)
	if err != nil {
		return nil, err
	}
	from, ok, err := highestInstalled(reg, sel, selectorText)
	if err != nil || !ok {
		return nil, err
	}
	return &from, nil
}

// ResolveInstalled returns the highest installed version matched by
// selectorText. Used when a command needs exactly one installed toolchain.
func ResolveInstalled(reg *Registry, selectorText string) (toolchain.Version, error) {
	sel, err := toolchain.ParseSelector(selectorText)
	if err != nil {
		return toolchain.Version{}, err
	}
	v, ok, err := highestInstalled(reg, sel, selectorText)
	if err != nil {
		return toolchain.Version{}, err
	}
	if !ok {
		return toolchain.Version{}, &NotFoundError{Selector: selectorText, Scope: "installed"}
	}
	return v, nil
}

func highestInstalled(reg *Registry, sel toolchain.Selector, text string) (toolchain.Version, bool, error) {
	matches := reg.List(&sel)
	if len(matches) == 0 {
		return toolchain.Version{}, false, nil
	}
	if fams := toolchain.Families(matches); len(fams) > 1 {
		return toolchain.Version{}, false, &AmbiguousSelectorError{Selector: text, Families: fams}
	}
	return toolchain.Max(matches)
}

// UpdatePlan describes an update from one installed version to a newer one.
type UpdatePlan struct {
	From toolchain.Version
	To   toolchain.Version
}

// ChooseUpdateTarget plans an update. The source comes from
// ResolveUpdateSource. The newer version must be on the source's line
// (SuccessorSelector) unless the user asked for something broader: a
// major-only selector allows any release of that major, and "latest" any
// stable release. The result is the highest available candidate strictly
// newer than the source, or nil when there is no source or it is already up
// to date.
func ChooseUpdateTarget(reg *Registry, selectorText string, pinned *toolchain.Version, available []toolchain.Version) (*UpdatePlan, error) {
	source, err := ResolveUpdateSource(reg, selectorText, pinned)
	if err != nil || source == nil {
		return nil, err
	}
	from := *source

	newer := SuccessorSelector(from)
	if selectorText != "" {
		sel, err := toolchain.ParseSelector(selectorText)
		if err != nil {
			return nil, err
		}
		if broader(sel) {
			newer = sel
		}
	}

	family := from.Family()
	var candidates []toolchain.Version
	for _, v := range available {
		if !family.Contains(v) || !newer.Matches(v) {
			continue
		}
		c, err := toolchain.Compare(v, from)
		if err != nil {
			return nil, err
		}
		if c > 0 {
			candidates = append(candidates, v)
		}
	}

	to, ok, err := toolchain.Max(candidates)
	if err != nil || !ok {
		return nil, err
	}
	return &UpdatePlan{From: from, To: to}, nil
}

// broader reports whether sel spans more than one stable line.
func broader(sel toolchain.Selector) bool {
	switch sel.Kind {
	case toolchain.SelectLatest:
		return true
	case toolchain.SelectStable:
		return sel.Minor == nil
	}
	return false
}
