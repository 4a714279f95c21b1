// Package platform installs toolchains on the local filesystem: it fetches
// release archives over HTTP, S3 or from disk, verifies them and extracts
// them under a root directory, one directory per version.
package platform

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/barysiuk/tcman/internal/core"
	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// Local implements core.Platform.
type Local struct {
	Root      string // one directory per installed version
	Downloads string // scratch space for fetched archives
	HTTP      *http.Client
	S3        S3Getter // nil disables s3:// URLs
	Retries   int      // attempts per download; <1 means DefaultAttempts
	GPG       string   // gpg binary; empty skips signature checks
	Log       *slog.Logger
}

var _ core.Platform = (*Local)(nil)

// ChecksumError reports an archive whose SHA-256 does not match the release.
type ChecksumError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", filepath.Base(e.Path), e.Expected, e.Actual)
}

// Dir returns the installation directory for v.
func (l *Local) Dir(v toolchain.Version) string {
	return filepath.Join(l.Root, v.String())
}

// Fetch downloads the archive and, when the release is signed, its
// signature. Both run concurrently, each under bounded retry.
func (l *Local) Fetch(ctx context.Context, rel core.Release) (core.Artifact, error) {
	if err := os.MkdirAll(l.Downloads, 0o755); err != nil {
		return core.Artifact{}, fmt.Errorf("preparing downloads directory: %w", err)
	}
	dir, err := os.MkdirTemp(l.Downloads, "fetch-*")
	if err != nil {
		return core.Artifact{}, fmt.Errorf("creating download directory: %w", err)
	}

	name, err := archiveName(rel.URL)
	if err != nil {
		_ = os.RemoveAll(dir)
		return core.Artifact{}, err
	}
	a := core.Artifact{
		Release:     rel,
		ArchivePath: filepath.Join(dir, name),
		Cleanup:     func() { _ = os.RemoveAll(dir) },
	}
	if rel.SignatureURL != "" {
		a.SignaturePath = a.ArchivePath + ".sig"
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return Retry(gctx, l.attempts(), func(ctx context.Context) error {
			return l.download(ctx, rel.URL, a.ArchivePath)
		})
	})
	if a.SignaturePath != "" {
		g.Go(func() error {
			return Retry(gctx, l.attempts(), func(ctx context.Context) error {
				return l.download(ctx, rel.SignatureURL, a.SignaturePath)
			})
		})
	}
	if err := g.Wait(); err != nil {
		a.Close()
		return core.Artifact{}, err
	}
	l.logger().Debug("fetched", "version", rel.Version.String(), "archive", a.ArchivePath, "signed", a.SignaturePath != "")
	return a, nil
}

// Verify checks the archive's SHA-256 when the release carries one, and the
// detached signature when there is one and GPG is configured.
func (l *Local) Verify(ctx context.Context, a core.Artifact) error {
	if want := a.Release.SHA256; want != "" {
		got, err := computeChecksum(a.ArchivePath)
		if err != nil {
			return err
		}
		if !strings.EqualFold(got, want) {
			return &ChecksumError{Path: a.ArchivePath, Expected: want, Actual: got}
		}
	}

	if a.SignaturePath == "" {
		return nil
	}
	if l.GPG == "" {
		l.logger().Debug("signature check disabled", "version", a.Release.Version.String())
		return nil
	}
	cmd := exec.CommandContext(ctx, l.GPG, "--batch", "--verify", a.SignaturePath, a.ArchivePath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("signature verification failed: %v: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Install extracts the archive into a temporary directory under Root and
// renames it into place. An archive holding a single top-level directory is
// unwrapped. Leftovers of an earlier interrupted install are replaced.
func (l *Local) Install(_ context.Context, v toolchain.Version, a core.Artifact) (string, error) {
	format, err := detectFormat(a.ArchivePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return "", fmt.Errorf("creating toolchains directory: %w", err)
	}
	tmp, err := os.MkdirTemp(l.Root, ".extract-*")
	if err != nil {
		return "", fmt.Errorf("creating extract directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	if err := extractArchive(format, a.ArchivePath, tmp); err != nil {
		return "", err
	}

	src, err := unwrapSingleDir(tmp)
	if err != nil {
		return "", err
	}
	dest := l.Dir(v)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("clearing %s: %w", dest, err)
	}
	if err := os.Rename(src, dest); err != nil {
		return "", fmt.Errorf("moving toolchain into place: %w", err)
	}
	return dest, nil
}

// Remove deletes the installation directory of v. A missing directory is
// not an error.
func (l *Local) Remove(_ context.Context, v toolchain.Version) error {
	if err := os.RemoveAll(l.Dir(v)); err != nil {
		return fmt.Errorf("removing %s: %w", l.Dir(v), err)
	}
	cleanupEmptyDir(l.Root)
	return nil
}

func (l *Local) attempts() int {
	if l.Retries < 1 {
		return DefaultAttempts
	}
	return l.Retries
}

func (l *Local) logger() *slog.Logger {
	if l.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.Log
}

func computeChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// unwrapSingleDir returns the only entry of dir when it is a directory, and
// dir itself otherwise.
func unwrapSingleDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading extracted archive: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

// cleanupEmptyDir removes a directory if it is empty.
func cleanupEmptyDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	if len(entries) == 0 {
		_ = os.Remove(dir)
	}
}
