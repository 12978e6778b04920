package port

import (
	"context"
	"io"
)

// ResultStorage moves videos in and analysis artifacts out of object storage.
type ResultStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadImage(ctx context.Context, objectKey string, filePath string) error
	UploadReport(ctx context.Context, objectKey string, reader io.Reader, size int64) error
	UploadArchive(ctx context.Context, objectKey string, filePath string) error
}
