package core

import (
	"fmt"
	"strings"

	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// NotFoundError reports a selector that matched nothing where a match is
// required. Scope is "installed" or "available".
type NotFoundError struct {
	Selector string
	Scope    string
}

func (e *NotFoundError) Error() string {
	if e.Selector == "" {
		return "no toolchain is in use and no pin file was found"
	}
	return fmt.Sprintf("no %s toolchain matches %q", e.Scope, e.Selector)
}

// AmbiguousSelectorError reports a selector whose matches span more than one
// family, so no single "highest" version exists.
type AmbiguousSelectorError struct {
	Selector string
	Families []toolchain.Family
}

func (e *AmbiguousSelectorError) Error() string {
	names := make([]string, len(e.Families))
	for i, f := range e.Families {
		names[i] = f.String()
	}
	return fmt.Sprintf("selector %q matches toolchains from several families (%s); be more specific",
		e.Selector, strings.Join(names, ", "))
}

// PersistenceError wraps a failure to read or write persisted state.
type PersistenceError struct {
	Path string
	Op   string // "read" or "write"
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Collaborator steps reported in CollaboratorError.
const (
	StepList    = "list releases"
	StepFetch   = "fetch"
	StepVerify  = "verify"
	StepInstall = "install"
	StepRemove  = "remove"
)

// CollaboratorError wraps a failure of the platform or release source while
// working on one toolchain.
type CollaboratorError struct {
	Step    string
	Version string
	Err     error
}

func (e *CollaboratorError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Step, e.Version, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
