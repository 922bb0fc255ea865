package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"mdindex/internal/domain"
	"mdindex/internal/port"
)

// DefaultIncludes selects Markdown documents at any depth.
var DefaultIncludes = []string{"**/*.md"}

type Walker struct {
	includes []string
	excludes []string
	logger   *slog.Logger
}

func NewWalker(includes, excludes []string, logger *slog.Logger) *Walker {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
		logger:   logger.With("component", "walker"),
	}
}

// Walk returns every matching file under root. An unreadable root is an
// error. Unreadable entries below it are logged and skipped, and the files
// that were found come back with an error wrapping domain.ErrIncompleteWalk.
// Symbolic links to files are followed for their modification time.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo
	var skipped []string

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "walk", Path: root, Err: errors.New("not a directory")}
	}

	err = filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			skipped = append(skipped, path)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path != root && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.Matches(relPath) {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			// The name is still present; reading it will fail and keep
			// its record.
			w.logger.Warn("cannot stat file", "path", path, "error", err)
			var mtime float64
			if linfo, lerr := d.Info(); lerr == nil {
				mtime = ModTime(linfo)
			}
			files = append(files, port.FileInfo{Path: path, Name: d.Name(), ModTime: mtime})
			return nil
		}
		if info.IsDir() {
			return nil
		}
		files = append(files, port.FileInfo{
			Path:    path,
			Name:    d.Name(),
			ModTime: ModTime(info),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		return files, fmt.Errorf("%w: %d unreadable entries under %s", domain.ErrIncompleteWalk, len(skipped), root)
	}
	return files, nil
}

// Matches reports whether a root-relative, slash-separated path is selected
// by the include and exclude patterns.
func (w *Walker) Matches(relPath string) bool {
	return w.shouldInclude(relPath) && !w.shouldExclude(relPath)
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ModTime returns the modification time in seconds with sub-second
// precision.
func ModTime(info iofs.FileInfo) float64 {
	return float64(info.ModTime().UnixNano()) / 1e9
}

// Reader reads documents as UTF-8 text.
type Reader struct{}

func (Reader) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", &os.PathError{Op: "read", Path: path, Err: domain.ErrInvalidEncoding}
	}
	return string(data), nil
}
