package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/barysiuk/tcman/internal/core"
	"github.com/barysiuk/tcman/internal/core/platform"
	"github.com/barysiuk/tcman/internal/core/toolchain"
)

const (
	indexFileName = "releases.json"
	cacheFileName = "releases.json"
)

// HTTPIndex reads <BaseURL>/releases.json, which uses the catalog schema in
// JSON. The document is cached on disk for TTL. When a refresh fails, a stale
// cached copy is used instead.
type HTTPIndex struct {
	BaseURL  string
	Client   *http.Client
	CacheDir string // empty disables the cache
	TTL      time.Duration
	Attempts int
	Log      *slog.Logger

	now func() time.Time
}

var _ core.ReleaseSource = (*HTTPIndex)(nil)

type indexCache struct {
	BaseURL   string    `json:"baseURL"`
	FetchedAt time.Time `json:"fetchedAt"`
	Document  document  `json:"document"`
}

// ListAvailable implements core.ReleaseSource.
func (h *HTTPIndex) ListAvailable(ctx context.Context, family toolchain.Family) ([]core.Release, error) {
	doc, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(h.indexURL())
	if err != nil {
		return nil, fmt.Errorf("parsing index URL: %w", err)
	}
	releases, err := doc.decode(func(ref string) string {
		u, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return base.ResolveReference(u).String()
	})
	if err != nil {
		return nil, fmt.Errorf("release index %s: %w", h.indexURL(), err)
	}
	return FilterFamily(releases, family), nil
}

func (h *HTTPIndex) load(ctx context.Context) (document, error) {
	cached, ok := h.readCache()
	if ok && h.clock().Sub(cached.FetchedAt) <= h.TTL {
		h.logger().Debug("release index from cache", "fetchedAt", cached.FetchedAt)
		return cached.Document, nil
	}

	var doc document
	err := platform.Retry(ctx, h.Attempts, func(ctx context.Context) error {
		var ferr error
		doc, ferr = h.fetch(ctx)
		return ferr
	})
	if err != nil {
		if ok {
			h.logger().Warn("release index refresh failed, using cached copy", "error", err)
			return cached.Document, nil
		}
		return document{}, err
	}

	h.writeCache(indexCache{BaseURL: h.BaseURL, FetchedAt: h.clock(), Document: doc})
	return doc, nil
}

func (h *HTTPIndex) fetch(ctx context.Context) (document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.indexURL(), nil)
	if err != nil {
		return document{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", platform.UserAgent)
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return document{}, platform.Transient(fmt.Errorf("fetching release index: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetching release index: unexpected status %s", resp.Status)
		if platform.IsRetryableStatus(resp.StatusCode) {
			return document{}, platform.Transient(err)
		}
		return document{}, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return document{}, platform.Transient(fmt.Errorf("reading release index: %w", err))
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("parsing release index: %w", err)
	}
	return doc, nil
}

func (h *HTTPIndex) indexURL() string {
	return strings.TrimSuffix(h.BaseURL, "/") + "/" + indexFileName
}

func (h *HTTPIndex) cachePath() string {
	return filepath.Join(h.CacheDir, cacheFileName)
}

func (h *HTTPIndex) readCache() (indexCache, bool) {
	if h.CacheDir == "" {
		return indexCache{}, false
	}
	data, err := os.ReadFile(h.cachePath())
	if err != nil {
		return indexCache{}, false
	}
	var c indexCache
	if err := json.Unmarshal(data, &c); err != nil || c.BaseURL != h.BaseURL {
		return indexCache{}, false
	}
	return c, true
}

// writeCache is best effort: a cache that cannot be written only costs a
// refetch next time.
func (h *HTTPIndex) writeCache(c indexCache) {
	if h.CacheDir == "" {
		return
	}
	if err := os.MkdirAll(h.CacheDir, 0o755); err != nil {
		return
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return
	}
	tmp := h.cachePath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	if err := os.Rename(tmp, h.cachePath()); err != nil {
		_ = os.Remove(tmp)
	}
}

func (h *HTTPIndex) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *HTTPIndex) logger() *slog.Logger {
	if h.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return h.Log
}
