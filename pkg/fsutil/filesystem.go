// Package fsutil provides the rooted file system abstraction used by package
// repositories and the derived metadata cache.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// File and directory permission constants.
const (
	FileModeDefault = 0o644 // -rw-r--r--
	DirModeDefault  = 0o755 // drwxr-xr-x
)

// ErrOutsideRoot is returned for paths that would escape the file system root.
var ErrOutsideRoot = errors.New("path escapes file system root")

// FileSystem is a file tree addressed by paths relative to its root.
type FileSystem interface {
	Root() string
	GetFullPath(path string) string
	OpenFile(path string) (io.ReadCloser, error)
	GetLastModified(path string) (time.Time, error)
	FileExists(path string) bool
	AddFile(path string, r io.Reader) error
	DeleteFile(path string) error
	GetFiles(dir, pattern string) ([]string, error)
}

// PhysicalFileSystem is a FileSystem backed by a directory on disk.
type PhysicalFileSystem struct {
	root string
}

// NewPhysicalFileSystem returns a file system rooted at root.
func NewPhysicalFileSystem(root string) (*PhysicalFileSystem, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	return &PhysicalFileSystem{root: abs}, nil
}

// Root returns the absolute root directory.
func (p *PhysicalFileSystem) Root() string { return p.root }

// GetFullPath returns the absolute path of path.
func (p *PhysicalFileSystem) GetFullPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.root, path)
}

func (p *PhysicalFileSystem) resolve(path string) (string, error) {
	full := p.GetFullPath(path)
	rel, err := filepath.Rel(p.root, full)
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return full, nil
}

// OpenFile opens path for reading.
func (p *PhysicalFileSystem) OpenFile(path string) (io.ReadCloser, error) {
	full, err := p.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// GetLastModified returns the modification time of path.
func (p *PhysicalFileSystem) GetLastModified(path string) (time.Time, error) {
	full, err := p.resolve(path)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// FileExists reports whether path names an existing regular file.
func (p *PhysicalFileSystem) FileExists(path string) bool {
	full, err := p.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// AddFile writes r to path, replacing any existing file. The content becomes
// visible under path only once fully written.
func (p *PhysicalFileSystem) AddFile(path string, r io.Reader) error {
	full, err := p.resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, DirModeDefault); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(full)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, FileModeDefault); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// DeleteFile removes path. Deleting a missing file is not an error.
func (p *PhysicalFileSystem) DeleteFile(path string) error {
	full, err := p.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// GetFiles returns the files in dir matching the glob pattern, as sorted
// paths relative to the root. A missing dir yields no files.
func (p *PhysicalFileSystem) GetFiles(dir, pattern string) ([]string, error) {
	full, err := p.resolve(filepath.Join(dir, "_"))
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(full), pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(p.root, m)
		if err != nil {
			continue
		}
		files = append(files, rel)
	}
	slices.Sort(files)
	return files, nil
}
