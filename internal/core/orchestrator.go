package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// ReleaseSource lists the releases that can be installed.
type ReleaseSource interface {
	// ListAvailable returns the releases of family, sorted oldest first.
	ListAvailable(ctx context.Context, family toolchain.Family) ([]Release, error)
}

// Platform performs the filesystem side of installing and removing
// toolchains.
type Platform interface {
	Fetch(ctx context.Context, rel Release) (Artifact, error)
	Verify(ctx context.Context, a Artifact) error
	Install(ctx context.Context, v toolchain.Version, a Artifact) (string, error)
	Remove(ctx context.Context, v toolchain.Version) error
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) (bool, error)

// Orchestrator sequences resolution decisions with the platform and release
// source. The registry is reloaded before every mutating step and saved right
// after each atomic change.
type Orchestrator struct {
	store    *RegistryStore
	platform Platform
	releases ReleaseSource
	out      io.Writer
	log      *slog.Logger
}

// NewOrchestrator creates an Orchestrator. Progress lines go to out.
func NewOrchestrator(store *RegistryStore, platform Platform, releases ReleaseSource, out io.Writer, log *slog.Logger) *Orchestrator {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		store:    store,
		platform: platform,
		releases: releases,
		out:      out,
		log:      log,
	}
}

// InstallOptions configures an installation.
type InstallOptions struct {
	Verify bool
	Use    bool   // make the installed toolchain active
	Dir    string // working directory, for pin lookup when Use is set
}

// InstallResult is the outcome of Install.
type InstallResult struct {
	Version          toolchain.Version
	Path             string
	AlreadyInstalled bool
	Use              *UseResult
}

// Install resolves selectorText against the available releases and installs
// the highest match.
func (o *Orchestrator) Install(ctx context.Context, selectorText string, opts InstallOptions) (*InstallResult, error) {
	sel, err := toolchain.ParseSelector(selectorText)
	if err != nil {
		return nil, err
	}
	family, ok := sel.Family()
	if !ok {
		return nil, fmt.Errorf("cannot install %q: name a single version or line", selectorText)
	}

	releases, err := o.releases.ListAvailable(ctx, family)
	if err != nil {
		return nil, &CollaboratorError{Step: StepList, Err: err}
	}
	rel, err := pickRelease(releases, sel, selectorText)
	if err != nil {
		return nil, err
	}
	o.log.Debug("resolved install", "selector", selectorText, "version", rel.Version.String(), "url", rel.URL)

	result := &InstallResult{Version: rel.Version}
	reg, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	if reg.Contains(rel.Version) {
		fmt.Fprintf(o.out, "%s is already installed\n", rel.Version)
		result.AlreadyInstalled = true
	} else {
		path, err := o.installRelease(ctx, rel, opts.Verify)
		if err != nil {
			return nil, err
		}
		result.Path = path
	}

	if opts.Use {
		ur, err := o.Use(ctx, rel.Version, UseOptions{Global: true, Dir: opts.Dir})
		if err != nil {
			return result, err
		}
		result.Use = ur
	}
	return result, nil
}

func pickRelease(releases []Release, sel toolchain.Selector, text string) (Release, error) {
	var best *Release
	for i := range releases {
		r := releases[i]
		if !sel.Matches(r.Version) {
			continue
		}
		if best == nil {
			best = &r
			continue
		}
		c, err := toolchain.Compare(r.Version, best.Version)
		if err != nil {
			return Release{}, err
		}
		if c > 0 {
			best = &r
		}
	}
	if best == nil {
		return Release{}, &NotFoundError{Selector: text, Scope: "available"}
	}
	return *best, nil
}

// installRelease runs fetch, verify and extract, then records the version.
func (o *Orchestrator) installRelease(ctx context.Context, rel Release, verify bool) (string, error) {
	name := rel.Version.String()
	fmt.Fprintf(o.out, "Installing %s\n", name)

	artifact, err := o.platform.Fetch(ctx, rel)
	if err != nil {
		return "", &CollaboratorError{Step: StepFetch, Version: name, Err: err}
	}
	defer artifact.Close()

	if verify {
		if err := o.platform.Verify(ctx, artifact); err != nil {
			return "", &CollaboratorError{Step: StepVerify, Version: name, Err: err}
		}
	} else {
		o.log.Debug("skipping verification", "version", name)
	}

	path, err := o.platform.Install(ctx, rel.Version, artifact)
	if err != nil {
		return "", &CollaboratorError{Step: StepInstall, Version: name, Err: err}
	}

	reg, err := o.store.Load()
	if err != nil {
		return "", err
	}
	reg.Insert(rel.Version)
	if err := o.store.Save(reg); err != nil {
		return "", err
	}
	o.log.Debug("installed", "version", name, "path", path)
	fmt.Fprintf(o.out, "Installed %s\n", name)
	return path, nil
}

// UseOptions configures Use. With neither Global nor WritePin set, only the
// global active version changes. Pin files are written only with WritePin.
type UseOptions struct {
	Global   bool
	WritePin bool
	Dir      string // start of the pin lookup, and where a new pin is created
}

// UseResult reports what Use changed.
type UseResult struct {
	Version       toolchain.Version
	Previous      *toolchain.Version
	GlobalChanged bool
	PinPath       string
	PinChanged    bool
}

// UseSelector resolves selectorText against the installed versions and calls
// Use with the result.
func (o *Orchestrator) UseSelector(ctx context.Context, selectorText string, opts UseOptions) (*UseResult, error) {
	reg, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	v, err := ResolveInstalled(reg, selectorText)
	if err != nil {
		return nil, err
	}
	return o.Use(ctx, v, opts)
}

// Use makes v the active toolchain globally, in the scope's pin file, or
// both. v must be installed. State that already names v is not rewritten.
func (o *Orchestrator) Use(_ context.Context, v toolchain.Version, opts UseOptions) (*UseResult, error) {
	reg, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	if !reg.Contains(v) {
		return nil, &NotFoundError{Selector: v.String(), Scope: "installed"}
	}

	pin, err := o.findPin(opts.Dir)
	if err != nil {
		return nil, err
	}
	global := opts.Global || !opts.WritePin

	result := &UseResult{Version: v}
	if global {
		result.Previous = reg.Active()
		if !reg.IsActive(v) {
			reg.SetActive(&v)
			if err := o.store.Save(reg); err != nil {
				return nil, err
			}
			result.GlobalChanged = true
			o.log.Debug("set active", "version", v.String())
		}
	}

	if opts.WritePin {
		path := filepath.Join(opts.Dir, PinFileName)
		if pin != nil {
			path = pin.Path
			if result.Previous == nil {
				prev := pin.Version
				result.Previous = &prev
			}
		}
		result.PinPath = path
		if pin == nil || pin.Version != v {
			if err := WritePin(path, v); err != nil {
				return nil, err
			}
			result.PinChanged = true
			o.log.Debug("wrote pin", "path", path, "version", v.String())
		}
	}
	return result, nil
}

func (o *Orchestrator) findPin(dir string) (*Pin, error) {
	if dir == "" {
		return nil, nil
	}
	return FindPin(dir)
}

// UninstallOptions configures Uninstall.
type UninstallOptions struct {
	AssumeYes bool
	Confirm   ConfirmFunc
}

// Switch records an active-version change made while uninstalling. To is nil
// when no toolchain was left to activate.
type Switch struct {
	From toolchain.Version
	To   *toolchain.Version
}

// TargetFailure is one toolchain that could not be processed.
type TargetFailure struct {
	Version toolchain.Version
	Err     error
}

// UninstallResult summarises an uninstall batch.
type UninstallResult struct {
	Targets  []toolchain.Version
	Removed  []toolchain.Version
	Failed   []TargetFailure
	Switches []Switch
	Aborted  bool
}

// Err joins the per-target failures, or returns nil.
func (r *UninstallResult) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("%s: %w", f.Version, f.Err)
	}
	return errors.Join(errs...)
}

// Uninstall removes every installed toolchain matched by selectorText. An
// empty match is not an error.
func (o *Orchestrator) Uninstall(ctx context.Context, selectorText string, opts UninstallOptions) (*UninstallResult, error) {
	reg, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	targets, err := SelectTargets(reg, selectorText)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		fmt.Fprintf(o.out, "No toolchains match %q\n", selectorText)
		return &UninstallResult{}, nil
	}

	if !opts.AssumeYes && opts.Confirm != nil {
		fmt.Fprintln(o.out, "The following toolchains will be uninstalled:")
		for _, v := range targets {
			fmt.Fprintf(o.out, "  %s\n", v)
		}
		ok, err := opts.Confirm("Proceed?")
		if err != nil {
			return nil, err
		}
		if !ok {
			fmt.Fprintln(o.out, "Aborted uninstall")
			return &UninstallResult{Targets: targets, Aborted: true}, nil
		}
	}

	result := o.uninstallTargets(ctx, targets)
	return result, result.Err()
}

// uninstallTargets removes targets one by one with the active version last.
// When the active version comes up, the replacement is chosen over the whole
// batch and activated before any of its files are deleted. A target leaves
// the registry only after its files are gone. Failures are collected and the
// batch continues. An unreadable registry fails every target up front.
func (o *Orchestrator) uninstallTargets(ctx context.Context, targets []toolchain.Version) *UninstallResult {
	result := &UninstallResult{Targets: targets}

	reg, err := o.store.Load()
	if err != nil {
		o.log.Warn("loading registry", "error", err)
		fmt.Fprintf(o.out, "Failed to uninstall: %v\n", err)
		for _, v := range targets {
			result.Failed = append(result.Failed, TargetFailure{Version: v, Err: err})
		}
		return result
	}

	for _, v := range OrderForUninstall(targets, reg.Active()) {
		if err := o.uninstallOne(ctx, v, targets, result); err != nil {
			o.log.Debug("uninstall failed", "version", v.String(), "error", err)
			fmt.Fprintf(o.out, "Failed to uninstall %s: %v\n", v, err)
			result.Failed = append(result.Failed, TargetFailure{Version: v, Err: err})
			continue
		}
		result.Removed = append(result.Removed, v)
	}
	return result
}

func (o *Orchestrator) uninstallOne(ctx context.Context, v toolchain.Version, batch []toolchain.Version, result *UninstallResult) error {
	reg, err := o.store.Load()
	if err != nil {
		return err
	}

	if reg.IsActive(v) {
		next, err := ChooseReplacementOnUninstall(reg, batch)
		if err != nil {
			return err
		}
		reg.SetActive(next)
		if err := o.store.Save(reg); err != nil {
			return err
		}
		result.Switches = append(result.Switches, Switch{From: v, To: next})
		if next != nil {
			fmt.Fprintf(o.out, "Switched active toolchain to %s\n", next)
		} else {
			fmt.Fprintln(o.out, "No toolchain is active now")
		}
	}

	if err := o.platform.Remove(ctx, v); err != nil {
		return &CollaboratorError{Step: StepRemove, Version: v.String(), Err: err}
	}

	reg, err = o.store.Load()
	if err != nil {
		return err
	}
	reg.Remove(v)
	if err := o.store.Save(reg); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "Uninstalled %s\n", v)
	return nil
}

// UpdateOptions configures Update.
type UpdateOptions struct {
	AssumeYes bool
	Verify    bool
	Confirm   ConfirmFunc
	Dir       string // start of the pin lookup
}

// UpdateResult is the outcome of Update. Plan is nil when already up to
// date or, with NoMatch set, when no installed toolchain qualified.
type UpdateResult struct {
	Plan      *UpdatePlan
	Use       *UseResult
	Uninstall *UninstallResult
	NoMatch   bool
	Aborted   bool
}

// Update replaces an installed toolchain with the newest available version
// on its line. The active pointer and a pin that named the old version
// follow it to the new one; the old version is then uninstalled.
func (o *Orchestrator) Update(ctx context.Context, selectorText string, opts UpdateOptions) (*UpdateResult, error) {
	reg, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	pin, err := o.findPin(opts.Dir)
	if err != nil {
		return nil, err
	}
	var pinned *toolchain.Version
	if pin != nil {
		pinned = &pin.Version
	}

	from, err := ResolveUpdateSource(reg, selectorText, pinned)
	if err != nil {
		return nil, err
	}
	if from == nil {
		if selectorText == "" {
			fmt.Fprintln(o.out, "No toolchain is in use, nothing to update")
		} else {
			fmt.Fprintf(o.out, "No installed toolchains match %q\n", selectorText)
		}
		return &UpdateResult{NoMatch: true}, nil
	}
	releases, err := o.releases.ListAvailable(ctx, from.Family())
	if err != nil {
		return nil, &CollaboratorError{Step: StepList, Err: err}
	}
	byVersion := make(map[toolchain.Version]Release, len(releases))
	available := make([]toolchain.Version, 0, len(releases))
	for _, r := range releases {
		byVersion[r.Version] = r
		available = append(available, r.Version)
	}

	plan, err := ChooseUpdateTarget(reg, selectorText, pinned, available)
	if err != nil {
		return nil, err
	}
	result := &UpdateResult{Plan: plan}
	if plan == nil {
		fmt.Fprintf(o.out, "%s is already up to date\n", *from)
		return result, nil
	}

	if !opts.AssumeYes && opts.Confirm != nil {
		ok, err := opts.Confirm(fmt.Sprintf("Update %s to %s?", plan.From, plan.To))
		if err != nil {
			return nil, err
		}
		if !ok {
			fmt.Fprintln(o.out, "Aborted update")
			result.Aborted = true
			return result, nil
		}
	}

	if !reg.Contains(plan.To) {
		if _, err := o.installRelease(ctx, byVersion[plan.To], opts.Verify); err != nil {
			return result, err
		}
	}

	wasActive := reg.IsActive(plan.From)
	wasPinned := pin != nil && pin.Version == plan.From
	if wasActive || wasPinned {
		dir := opts.Dir
		if wasPinned {
			dir = filepath.Dir(pin.Path)
		}
		ur, err := o.Use(ctx, plan.To, UseOptions{Global: wasActive, WritePin: wasPinned, Dir: dir})
		if err != nil {
			return result, err
		}
		result.Use = ur
	}

	if plan.From != plan.To {
		result.Uninstall = o.uninstallTargets(ctx, []toolchain.Version{plan.From})
		if err := result.Uninstall.Err(); err != nil {
			return result, err
		}
	}
	fmt.Fprintf(o.out, "Updated %s to %s\n", plan.From, plan.To)
	return result, nil
}

// List returns the installed versions matched by selectorText (all when
// empty) with active and pin markers. dir locates the pin file.
func (o *Orchestrator) List(selectorText, dir string) ([]ListEntry, error) {
	var sel *toolchain.Selector
	if selectorText != "" {
		s, err := toolchain.ParseSelector(selectorText)
		if err != nil {
			return nil, err
		}
		sel = &s
	}

	reg, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	pin, err := o.findPin(dir)
	if err != nil {
		return nil, err
	}

	versions := reg.List(sel)
	entries := make([]ListEntry, 0, len(versions))
	for _, v := range versions {
		entries = append(entries, ListEntry{
			Version: v,
			Active:  reg.IsActive(v),
			Pinned:  pin != nil && pin.Version == v,
		})
	}
	return entries, nil
}

// Current returns the toolchain in effect for dir: the nearest pin file
// wins over the global active version. Returns nil when neither is set.
func (o *Orchestrator) Current(dir string) (*CurrentToolchain, error) {
	reg, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	pin, err := o.findPin(dir)
	if err != nil {
		return nil, err
	}
	if pin != nil {
		return &CurrentToolchain{
			Version:   pin.Version,
			Source:    SourcePin,
			PinPath:   pin.Path,
			Installed: reg.Contains(pin.Version),
		}, nil
	}
	if active := reg.Active(); active != nil {
		return &CurrentToolchain{
			Version:   *active,
			Source:    SourceGlobal,
			Installed: reg.Contains(*active),
		}, nil
	}
	return nil, nil
}
