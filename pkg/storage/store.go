package storage

import "context"

// Image kinds accepted by the store; they become path segments.
const (
	KindPerson  = "person"
	KindGarment = "garment"
	KindResult  = "result"
)

// ImageStore is the durable image store boundary. Put returns a stable
// public URL for the stored object.
type ImageStore interface {
	Put(ctx context.Context, data []byte, ownerID, kind string) (string, error)
	PutFromURL(ctx context.Context, srcURL, ownerID, kind string) (string, error)
	Fetch(ctx context.Context, srcURL string) ([]byte, error)
	Delete(ctx context.Context, fileURL string) error
}
