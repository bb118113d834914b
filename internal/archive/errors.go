package archive

import "fmt"

// ArchiveReadError reports an archive that could not be opened or listed.
// The file is skipped and retried on the next run.
type ArchiveReadError struct {
	Path string
	Op   string
	Err  error
}

func (e *ArchiveReadError) Error() string {
	return fmt.Sprintf("read archive %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *ArchiveReadError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for logging.
func (e *ArchiveReadError) ErrorKind() string { return "archive_read" }

// ArchiveWriteError reports a failed descriptor injection. The original
// archive is unchanged.
type ArchiveWriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *ArchiveWriteError) Error() string {
	return fmt.Sprintf("write archive %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *ArchiveWriteError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for logging.
func (e *ArchiveWriteError) ErrorKind() string { return "archive_write" }
