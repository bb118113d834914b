package scan

import "fmt"

// LibraryRootError reports a missing, unreadable, or non-directory library root.
type LibraryRootError struct {
	Path string
	Err  error
}

func (e *LibraryRootError) Error() string {
	return fmt.Sprintf("library root %s: %v", e.Path, e.Err)
}

func (e *LibraryRootError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for logging and exit handling.
func (e *LibraryRootError) ErrorKind() string { return "library_root" }
