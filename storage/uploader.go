package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object. Key is what the users table
// records; Location is the bucket URL the upload reported.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores user-supplied files, currently profile avatars, in an
// S3-compatible bucket. A nil uploader means storage is not configured and
// upload endpoints are disabled.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes the object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetPublicURL builds the browser-facing URL for a stored key.
	GetPublicURL(key string) string
}
