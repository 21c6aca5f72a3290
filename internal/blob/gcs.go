package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"

	"portalunk/internal/store"
)

const gcsPublicHost = "storage.googleapis.com"

// GCSStore keeps objects in Google Cloud Storage buckets.
type GCSStore struct {
	svc *gstorage.Service
}

var _ store.BlobStore = (*GCSStore)(nil)

// NewGCSStore creates a storage service from service account credentials.
func NewGCSStore(ctx context.Context, credentialsJSON []byte) (*GCSStore, error) {
	svc, err := gstorage.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gstorage.DevstorageReadWriteScope))
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	slog.InfoContext(ctx, "Google Cloud Storage service created successfully")
	return &GCSStore{svc: svc}, nil
}

func (s *GCSStore) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, contentType string) (store.UploadResult, error) {
	if s.svc == nil {
		return store.UploadResult{}, errors.New("storage service not initialized")
	}
	name := strings.TrimPrefix(objectPath, "/")
	obj := &gstorage.Object{Name: name, ContentType: contentType}

	created, err := s.svc.Objects.Insert(bucket, obj).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return store.UploadResult{}, fmt.Errorf("upload %s/%s: %w", bucket, name, err)
	}
	return store.UploadResult{Path: created.Name, URL: PublicURL(bucket, created.Name)}, nil
}

// Delete removes the object behind a public URL. A missing object is not an
// error.
func (s *GCSStore) Delete(ctx context.Context, rawURL string) error {
	if s.svc == nil {
		return errors.New("storage service not initialized")
	}
	bucket, name, err := ParsePublicURL(rawURL)
	if err != nil {
		return err
	}
	err = s.svc.Objects.Delete(bucket, name).Context(ctx).Do()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, name, err)
	}
	return nil
}

// PublicURL is the https address of an object.
func PublicURL(bucket, name string) string {
	return (&url.URL{Scheme: "https", Host: gcsPublicHost, Path: "/" + bucket + "/" + name}).String()
}

// ParsePublicURL splits a PublicURL back into bucket and object name.
func ParsePublicURL(rawURL string) (bucket, name string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrForeignURL, err)
	}
	if u.Host != gcsPublicHost {
		return "", "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	bucket, name, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || bucket == "" || name == "" {
		return "", "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	return bucket, name, nil
}
