package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
	// Public asks the provider to make the object readable by anyone
	// holding its URL.
	Public bool
}

type PutObjectOutput struct {
	// localfs: the object key itself.
	// gdrive: the Drive fileId, used by later Get/Delete calls.
	ObjectKey string
	Size      int64
	// URL is where the stored object can be fetched. Empty when the
	// provider cannot address objects publicly.
	URL string
}

// StorageProvider is implemented by localfs and gdrive.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
}
