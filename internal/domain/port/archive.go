package port

import "context"

// Archiver bundles result files into a single downloadable archive.
type Archiver interface {
	CreateArchive(ctx context.Context, filePaths []string, outputPath string) error
}
