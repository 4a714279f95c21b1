package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// download copies src to dest. src is an http(s) URL, an s3:// URL, a
// file:// URL or a plain path. Network failures and 429/5xx responses are
// marked Transient.
func (l *Local) download(ctx context.Context, src, dest string) error {
	body, err := l.open(ctx, src)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return Transient(fmt.Errorf("download %s: %w", src, err))
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize download: %w", err)
	}
	return nil
}

func (l *Local) open(ctx context.Context, src string) (io.ReadCloser, error) {
	switch scheme(src) {
	case "http", "https":
		return l.openHTTP(ctx, src)
	case "s3":
		return l.openS3(ctx, src)
	case "file":
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", src, err)
		}
		return openFile(u.Path)
	case "":
		return openFile(src)
	default:
		return nil, fmt.Errorf("unsupported URL scheme in %s", src)
	}
}

func (l *Local) openHTTP(ctx context.Context, src string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	client := l.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, Transient(fmt.Errorf("download %s: %w", src, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		err := fmt.Errorf("download %s: unexpected status %s", src, resp.Status)
		if IsRetryableStatus(resp.StatusCode) {
			return nil, Transient(err)
		}
		return nil, err
	}
	return resp.Body, nil
}

func (l *Local) openS3(ctx context.Context, src string) (io.ReadCloser, error) {
	if l.S3 == nil {
		return nil, fmt.Errorf("download %s: no S3 mirror configured", src)
	}
	bucket, key, err := ParseS3URL(src)
	if err != nil {
		return nil, err
	}
	out, err := l.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, Transient(fmt.Errorf("download %s: %w", src, err))
	}
	return out.Body, nil
}

func openFile(p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// scheme returns the lowercased URL scheme of src, or "" for a plain path.
// Single-letter schemes are treated as Windows drive letters.
func scheme(src string) string {
	i := strings.Index(src, "://")
	if i <= 1 {
		return ""
	}
	return strings.ToLower(src[:i])
}

// archiveName infers the archive file name from a URL or path.
func archiveName(src string) (string, error) {
	var base string
	if scheme(src) == "" {
		base = filepath.Base(src)
	} else {
		u, err := url.Parse(src)
		if err != nil {
			return "", fmt.Errorf("parse download url: %w", err)
		}
		base = path.Base(u.Path)
	}
	if base == "." || base == "" || base == "/" || base == string(filepath.Separator) {
		return "", fmt.Errorf("infer archive name from url: %s", src)
	}
	return base, nil
}
