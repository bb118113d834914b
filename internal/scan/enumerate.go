package scan

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mangafixer/internal/archive"
	"mangafixer/internal/logging"
)

// ArchiveExt is the archive extension matched case-insensitively.
const ArchiveExt = ".cbz"

// IsArchiveName reports whether name looks like a library archive.
func IsArchiveName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ArchiveExt) && !archive.IsTempArtifact(name)
}

// CheckRoot verifies that root exists and is a readable directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &LibraryRootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return &LibraryRootError{Path: root, Err: errors.New("not a directory")}
	}
	dir, err := os.Open(root)
	if err != nil {
		return &LibraryRootError{Path: root, Err: err}
	}
	defer dir.Close()
	if _, err := dir.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return &LibraryRootError{Path: root, Err: err}
	}
	return nil
}

// Enumerate returns the absolute paths of every regular .cbz file under root,
// sorted. Symlinks are not followed, except for root itself. Unreadable
// subdirectories are logged and skipped.
func Enumerate(ctx context.Context, root string, logger *slog.Logger) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &LibraryRootError{Path: root, Err: err}
	}
	if err := CheckRoot(abs); err != nil {
		return nil, err
	}

	var paths []string
	// The trailing separator makes the initial Lstat follow a symlinked root.
	walkRoot := abs + string(filepath.Separator)
	err = filepath.WalkDir(walkRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == walkRoot {
				return &LibraryRootError{Path: abs, Err: walkErr}
			}
			logging.WarnWithContext(logger, "library directory unreadable; skipping", "library_walk_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(walkErr),
				logging.String(logging.FieldErrorHint, "check permissions under the library root"),
				logging.String(logging.FieldImpact, "archives below this path are not scanned"),
			)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		if IsArchiveName(entry.Name()) {
			paths = append(paths, filepath.Clean(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
