package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/tcman/internal/core"
	"github.com/barysiuk/tcman/internal/core/platform"
	"github.com/barysiuk/tcman/internal/core/release"
	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	orch *core.Orchestrator
	log  *slog.Logger
}

// newDeps creates shared dependencies. Called lazily by commands that need them.
func newDeps(cmd *cobra.Command) (*deps, error) {
	config, err := core.NewConfigManager()
	if err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cmd)

	local := &platform.Local{
		Root:      config.ToolchainsDir(),
		Downloads: config.DownloadsDir(),
		HTTP:      platform.NewHTTPClient(),
		Retries:   cfg.DownloadRetries,
		Log:       log,
	}
	if cfg.VerifySignatures {
		if gpg, err := exec.LookPath("gpg"); err == nil {
			local.GPG = gpg
		} else {
			log.Debug("gpg not found, signatures will not be checked")
		}
	}

	var releases core.ReleaseSource
	switch {
	case cfg.Mirror.S3Bucket != "":
		client, err := platform.NewS3Client(cmd.Context(), cfg.Mirror.S3Region)
		if err != nil {
			return nil, err
		}
		local.S3 = client
		releases = &release.S3Mirror{Client: client, Bucket: cfg.Mirror.S3Bucket, Prefix: cfg.Mirror.S3Prefix}
	case strings.HasPrefix(cfg.Releases, "http://"), strings.HasPrefix(cfg.Releases, "https://"):
		releases = &release.HTTPIndex{
			BaseURL:  cfg.Releases,
			Client:   local.HTTP,
			CacheDir: config.CacheDir(),
			TTL:      cfg.CacheTTL(),
			Attempts: cfg.DownloadRetries,
			Log:      log,
		}
	case cfg.Releases != "":
		path := strings.TrimPrefix(cfg.Releases, "file://")
		if !filepath.IsAbs(path) {
			path = filepath.Join(config.ConfigDir(), path)
		}
		releases = release.NewCatalog(path)
	default:
		releases = unconfiguredSource{configPath: config.ConfigPath()}
	}

	store := core.NewRegistryStore(config.ConfigDir())
	return &deps{
		orch: core.NewOrchestrator(store, local, releases, os.Stdout, log),
		log:  log,
	}, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// unconfiguredSource fails every lookup with a hint about the config file.
type unconfiguredSource struct {
	configPath string
}

func (s unconfiguredSource) ListAvailable(context.Context, toolchain.Family) ([]core.Release, error) {
	return nil, fmt.Errorf("no release source configured: set \"releases\" or \"mirror.s3Bucket\" in %s", s.configPath)
}
