package release

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/barysiuk/tcman/internal/core"
	"github.com/barysiuk/tcman/internal/core/platform"
	"github.com/barysiuk/tcman/internal/core/toolchain"
)

// S3API is the part of the S3 client the mirror uses.
type S3API interface {
	s3.ListObjectsV2APIClient
	platform.S3Getter
}

// S3Mirror lists releases stored in a bucket as
// <Prefix>/<version>/<archive>. An <archive>.sha256 object supplies the
// checksum and an <archive>.sig object the signature.
type S3Mirror struct {
	Client S3API
	Bucket string
	Prefix string
}

var _ core.ReleaseSource = (*S3Mirror)(nil)

type mirrorObjects struct {
	archive  string
	checksum string
	sig      string
}

// ListAvailable implements core.ReleaseSource.
func (m *S3Mirror) ListAvailable(ctx context.Context, family toolchain.Family) ([]core.Release, error) {
	prefix := strings.Trim(m.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	byVersion := make(map[toolchain.Version]*mirrorObjects)
	paginator := s3.NewListObjectsV2Paginator(m.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", m.Bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			rest := strings.TrimPrefix(*obj.Key, prefix)
			segment, file, ok := strings.Cut(rest, "/")
			if !ok || file == "" || strings.Contains(file, "/") {
				continue
			}
			v, err := toolchain.Parse(segment)
			if err != nil || !family.Contains(v) {
				continue
			}
			objs := byVersion[v]
			if objs == nil {
				objs = &mirrorObjects{}
				byVersion[v] = objs
			}
			switch {
			case strings.HasSuffix(file, ".sha256"):
				objs.checksum = *obj.Key
			case strings.HasSuffix(file, ".sig"):
				objs.sig = *obj.Key
			case isArchive(file):
				objs.archive = *obj.Key
			}
		}
	}

	var releases []core.Release
	for v, objs := range byVersion {
		if objs.archive == "" {
			continue
		}
		rel := core.Release{Version: v, URL: platform.S3URL(m.Bucket, objs.archive)}
		if objs.checksum == objs.archive+".sha256" {
			sum, err := m.readChecksum(ctx, objs.checksum)
			if err != nil {
				return nil, err
			}
			rel.SHA256 = sum
		}
		if objs.sig == objs.archive+".sig" {
			rel.SignatureURL = platform.S3URL(m.Bucket, objs.sig)
		}
		releases = append(releases, rel)
	}
	return FilterFamily(releases, family), nil
}

// readChecksum reads a sha256sum-style object: the first field is the hash.
func (m *S3Mirror) readChecksum(ctx context.Context, key string) (string, error) {
	out, err := m.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("reading s3://%s/%s: %w", m.Bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("reading s3://%s/%s: %w", m.Bucket, key, err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum object s3://%s/%s", m.Bucket, key)
	}
	return fields[0], nil
}

func isArchive(name string) bool {
	name = strings.ToLower(path.Base(name))
	return strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz") || strings.HasSuffix(name, ".zip")
}
