package preflight

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"mangafixer/internal/scan"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLibraryRoot verifies the library root and attaches a
// *scan.LibraryRootError to failed results.
func CheckLibraryRoot(name, path string) Result {
	if err := scan.CheckRoot(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, errors.Unwrap(err)), Err: err}
	}
	result := CheckDirectoryAccess(name, path)
	if !result.Passed {
		result.Err = &scan.LibraryRootError{Path: path, Err: errors.New("not writable")}
	}
	return result
}

// CheckFreeSpace reports whether the filesystem holding path has at least
// minBytes available to unprivileged users. A zero minimum always passes.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err), Advisory: true}
	}
	available := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(available), path)
	if available < minBytes {
		return Result{
			Name:     name,
			Detail:   fmt.Sprintf("%s (below %s)", detail, humanize.IBytes(minBytes)),
			Advisory: true,
		}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}
