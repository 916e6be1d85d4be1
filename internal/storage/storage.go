package storage

import (
	"context"
	"io"
)

// Service stores uploaded product images on a remote asset host and returns
// the public URL for each stored object.
type Service interface {
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}
