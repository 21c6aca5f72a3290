package store

import (
	"context"
	"errors"
	"io"

	"portalunk/internal/core"
)

// ErrNotFound is returned, possibly wrapped, when a record id is unknown.
var ErrNotFound = errors.New("record not found")

// Record is the pointer side of a stored type.
type Record[T any] interface {
	*T
	RecordID() string
	Stamp(id, createdAt string)
	Merge(patch T)
}

// Ports for outbound adapters.
type (
	// Collection is the CRUD surface of one entity type. Update is a partial
	// merge: fields unset on patch are kept.
	Collection[T any] interface {
		GetAll(ctx context.Context) ([]T, error)
		GetByID(ctx context.Context, id string) (T, error)
		Create(ctx context.Context, rec T) (T, error)
		Update(ctx context.Context, id string, patch T) (T, error)
		Delete(ctx context.Context, id string) error
	}

	EventStore   = Collection[core.EventRecord]
	PaymentStore = Collection[core.PaymentRecord]
	DJStore      = Collection[core.DJRecord]

	// BlobStore keeps uploaded media.
	BlobStore interface {
		Upload(ctx context.Context, bucket, path string, r io.Reader, contentType string) (UploadResult, error)
		// Delete removes the object behind a URL previously returned by Upload.
		Delete(ctx context.Context, url string) error
	}
)

// UploadResult locates a stored object.
type UploadResult struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Stores bundles the collections of one backend.
type Stores struct {
	Events   EventStore
	Payments PaymentStore
	DJs      DJStore
}
