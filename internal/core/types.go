// Package core provides the business logic for tcman.
// It has zero UI dependencies and is independently testable.
package core

import (
	"time"

	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// Config represents the tcman configuration stored at ~/.tcman/config.json.
// The file may contain comments and trailing commas.
type Config struct {
	// Releases is a release catalog path (YAML) or the base URL of a
	// release index. Ignored when Mirror.S3Bucket is set.
	Releases string `json:"releases,omitempty"`

	Mirror Mirror `json:"mirror,omitempty"`

	VerifySignatures bool `json:"verifySignatures"`

	// DownloadRetries is the number of attempts for each download.
	DownloadRetries int `json:"downloadRetries,omitempty"`

	// ReleaseCacheTTL is a Go duration string, e.g. "1h".
	ReleaseCacheTTL string `json:"releaseCacheTTL,omitempty"`
}

// Mirror points tcman at an S3 bucket laid out as prefix/<version>/<archive>.
type Mirror struct {
	S3Bucket string `json:"s3Bucket,omitempty"`
	S3Prefix string `json:"s3Prefix,omitempty"`
	S3Region string `json:"s3Region,omitempty"`
}

// CacheTTL parses ReleaseCacheTTL, falling back to the default.
func (c *Config) CacheTTL() time.Duration {
	if c.ReleaseCacheTTL == "" {
		return defaultReleaseCacheTTL
	}
	d, err := time.ParseDuration(c.ReleaseCacheTTL)
	if err != nil || d < 0 {
		return defaultReleaseCacheTTL
	}
	return d
}

// Release is one downloadable toolchain as described by a release source.
type Release struct {
	Version      toolchain.Version
	URL          string
	SHA256       string // hex, empty when unknown
	SignatureURL string // empty when unsigned
}

// Artifact is a fetched release waiting to be verified and installed.
type Artifact struct {
	Release       Release
	ArchivePath   string
	SignaturePath string // empty when the release is unsigned

	// Cleanup removes downloaded files. May be nil.
	Cleanup func()
}

// Close releases downloaded files.
func (a Artifact) Close() {
	if a.Cleanup != nil {
		a.Cleanup()
	}
}

// ListEntry is one row of `tcman list`.
type ListEntry struct {
	Version toolchain.Version
	Active  bool
	Pinned  bool
}

// CurrentSource tells where the in-effect toolchain came from.
type CurrentSource string

const (
	SourcePin    CurrentSource = "pin"
	SourceGlobal CurrentSource = "global"
)

// CurrentToolchain is the toolchain in effect for a directory.
type CurrentToolchain struct {
	Version   toolchain.Version
	Source    CurrentSource
	PinPath   string // set when Source is SourcePin
	Installed bool
}
