// Package blob implements store.BlobStore on the local filesystem and on
// Google Cloud Storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"portalunk/internal/store"
)

var ErrForeignURL = errors.New("url does not belong to this blob store")

// ObjectName builds a collision free object path under prefix, keeping the
// extension of filename.
func ObjectName(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := uuid.NewString() + ext
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		return prefix + "/" + name
	}
	return name
}

// LocalStore writes objects under Dir/<bucket>/<path> and addresses them as
// BaseURL/<bucket>/<path>.
type LocalStore struct {
	Dir     string
	BaseURL string
}

var _ store.BlobStore = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalStore) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, _ string) (store.UploadResult, error) {
	rel, err := cleanObjectPath(bucket, objectPath)
	if err != nil {
		return store.UploadResult{}, err
	}
	full := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return store.UploadResult{}, fmt.Errorf("create blob dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return store.UploadResult{}, fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, readerWithContext(ctx, r)); err != nil {
		f.Close()
		os.Remove(full)
		return store.UploadResult{}, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return store.UploadResult{}, fmt.Errorf("close blob: %w", err)
	}

	return store.UploadResult{Path: objectPath, URL: s.BaseURL + "/" + rel}, nil
}

// Delete removes the object behind url. Deleting a missing object succeeds.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, s.BaseURL+"/")
	if !ok || rel == "" {
		return fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	bucket, objectPath, _ := strings.Cut(rel, "/")
	rel, err := cleanObjectPath(bucket, objectPath)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// cleanObjectPath joins bucket and path and rejects anything escaping the
// bucket.
func cleanObjectPath(bucket, objectPath string) (string, error) {
	bucket = strings.Trim(bucket, "/")
	if bucket == "" || strings.Contains(bucket, "..") || strings.Contains(bucket, "/") {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	cleaned := path.Clean("/" + objectPath)
	if cleaned == "/" || strings.HasPrefix(cleaned, "/..") {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return bucket + cleaned, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
