//go:generate mockgen -destination=./mocks/cache.go -package=mocks . FileSystem,HashProvider,ManifestReader

package cache

import (
	"context"
	"io"
	"time"
)

// FileSystem is the subset of fsutil.FileSystem the cache reads packages through.
type FileSystem interface {
	OpenFile(path string) (io.ReadCloser, error)
	GetLastModified(path string) (time.Time, error)
	GetFullPath(path string) string
}

// HashProvider computes the content hash recorded for a package.
type HashProvider interface {
	Algorithm() string
	CalculateHash(data []byte) []byte
}

// ManifestReader finds the manifest entry time stamp inside package bytes.
type ManifestReader interface {
	ManifestCreated(ctx context.Context, data []byte) (time.Time, bool, error)
}
