package storage

import (
	"context"
)

// Uploader defines the interface for uploading post media and avatars.
// This interface allows for easy mocking in tests
type Uploader interface {
	UploadMedia(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error)
	UploadAvatar(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements Uploader
var _ Uploader = (*S3Uploader)(nil)
