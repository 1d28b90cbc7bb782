// Package media stores photo submissions in an external object store and
// hands back a durable URL plus an opaque deletion handle.
package media

import "context"

// Asset identifies a stored blob.
type Asset struct {
	URL          string
	DeleteHandle string
}

// Uploader is the boundary to the object store. Upload may fail or time
// out; Delete is best-effort and callers are expected to swallow its error
// after logging.
type Uploader interface {
	Upload(ctx context.Context, blob []byte) (Asset, error)
	Delete(ctx context.Context, handle string) error
}
