package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mangafixer/internal/logging"
)

// Outcome is the result of processing one archive.
type Outcome int

const (
	// OutcomeSkipped means the archive could not be read or rewritten.
	OutcomeSkipped Outcome = iota
	// OutcomeAlreadyTagged means the archive already held a descriptor.
	OutcomeAlreadyTagged
	// OutcomeTagged means a descriptor was injected.
	OutcomeTagged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyTagged:
		return "already_tagged"
	case OutcomeTagged:
		return "tagged"
	default:
		return "skipped"
	}
}

// Result describes what Process did to one archive. Err is the skip reason.
type Result struct {
	Path    string
	Outcome Outcome
	Err     error
}

// Recordable reports whether the result should be written to the tracking store.
func (r Result) Recordable() bool {
	return r.Outcome == OutcomeTagged || r.Outcome == OutcomeAlreadyTagged
}

// Mutator tags archives in place.
type Mutator struct {
	logger *slog.Logger
	rename func(oldpath, newpath string) error
	tempID func() string
	// tempSink wraps the temp file before the rewritten archive is written.
	tempSink func(io.Writer) io.Writer
}

// NewMutator constructs a Mutator. A nil logger discards output.
func NewMutator(logger *slog.Logger) *Mutator {
	return &Mutator{
		logger:   logging.NewComponentLogger(logger, "archive"),
		rename:   os.Rename,
		tempID:   newTempID,
		tempSink: func(w io.Writer) io.Writer {
			return w
		},
	}
}

// openReader opens a zip for reading. Entries with non-local names are
// tolerated because entries are only ever raw-copied, never extracted.
func openReader(path string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil && errors.Is(err, zip.ErrInsecurePath) && zr != nil {
		return zr, nil
	}
	return zr, err
}

// HasDescriptor reports whether the archive at path holds a ComicInfo.xml entry.
func HasDescriptor(path string) (bool, error) {
	zr, err := openReader(path)
	if err != nil {
		return false, &ArchiveReadError{Path: path, Op: "open", Err: err}
	}
	defer zr.Close()
	return findDescriptor(zr.File) != nil, nil
}

func findDescriptor(files []*zip.File) *zip.File {
	for _, f := range files {
		if f.Name == DescriptorName {
			return f
		}
	}
	return nil
}

// HasDescriptor delegates to the package-level HasDescriptor.
func (m *Mutator) HasDescriptor(path string) (bool, error) {
	return HasDescriptor(path)
}

// InjectDescriptor rewrites the archive at path with content stored as
// ComicInfo.xml. Existing entries are copied without recompression, and an
// existing descriptor entry is replaced. The original file is only replaced
// once the rewritten archive is complete and verified.
func (m *Mutator) InjectDescriptor(path string, content []byte) error {
	info, err := os.Lstat(path)
	if err != nil {
		return &ArchiveReadError{Path: path, Op: "stat", Err: err}
	}
	if !info.Mode().IsRegular() {
		return &ArchiveReadError{Path: path, Op: "stat", Err: fmt.Errorf("not a regular file (mode %s)", info.Mode())}
	}

	zr, err := openReader(path)
	if err != nil {
		return &ArchiveReadError{Path: path, Op: "open", Err: err}
	}
	readerOpen := true
	defer func() {
		if readerOpen {
			_ = zr.Close()
		}
	}()

	tempPath := tempPathFor(path, m.tempID())
	tmp, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return &ArchiveWriteError{Path: path, Op: "create temp file", Err: err}
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if removeErr := os.Remove(tempPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logging.WarnWithContext(m.logger, "temporary archive not removed", "archive_temp_cleanup_failed",
				logging.String(logging.FieldPath, path),
				logging.String("temp_path", tempPath),
				logging.Error(removeErr),
				logging.String(logging.FieldErrorHint, "the temp file is swept on the next start"),
				logging.String(logging.FieldImpact, "disk space held until next run"),
			)
		}
	}()

	expected, err := writeArchive(m.tempSink(tmp), zr, content)
	if err != nil {
		return &ArchiveWriteError{Path: path, Op: "write temp archive", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &ArchiveWriteError{Path: path, Op: "sync temp archive", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ArchiveWriteError{Path: path, Op: "close temp archive", Err: err}
	}
	if err := os.Chmod(tempPath, info.Mode().Perm()); err != nil {
		return &ArchiveWriteError{Path: path, Op: "preserve file mode", Err: err}
	}
	if err := verifyArchive(tempPath, expected, content); err != nil {
		return &ArchiveWriteError{Path: path, Op: "verify temp archive", Err: err}
	}

	readerOpen = false
	if err := zr.Close(); err != nil {
		return &ArchiveReadError{Path: path, Op: "close", Err: err}
	}
	if err := m.rename(tempPath, path); err != nil {
		return &ArchiveWriteError{Path: path, Op: "replace original", Err: err}
	}
	committed = true

	if err := syncDir(filepath.Dir(path)); err != nil {
		logging.WarnWithContext(m.logger, "directory sync failed after tagging", "archive_dir_sync_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the library filesystem"),
			logging.String(logging.FieldImpact, "rename may not survive a power loss"),
		)
	}
	return nil
}

// writeArchive copies every entry of zr into w followed by the descriptor and
// returns the number of entries written.
func writeArchive(w io.Writer, zr *zip.ReadCloser, content []byte) (int, error) {
	zw := zip.NewWriter(w)
	count := 0
	for _, f := range zr.File {
		if f.Name == DescriptorName {
			continue
		}
		if err := zw.Copy(f); err != nil {
			return 0, fmt.Errorf("copy entry %q: %w", f.Name, err)
		}
		count++
	}

	header := &zip.FileHeader{
		Name:     DescriptorName,
		Method:   zip.Deflate,
		Modified: time.Now(),
	}
	header.SetMode(0o644)
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", DescriptorName, err)
	}
	if _, err := entry.Write(content); err != nil {
		return 0, fmt.Errorf("write %s: %w", DescriptorName, err)
	}
	count++

	if zr.Comment != "" {
		if err := zw.SetComment(zr.Comment); err != nil {
			return 0, fmt.Errorf("set comment: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finish archive: %w", err)
	}
	return count, nil
}

func verifyArchive(path string, expected int, content []byte) error {
	zr, err := openReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()
	if len(zr.File) != expected {
		return fmt.Errorf("expected %d entries, found %d", expected, len(zr.File))
	}
	descriptor := findDescriptor(zr.File)
	if descriptor == nil {
		return fmt.Errorf("%s missing after write", DescriptorName)
	}
	rc, err := descriptor.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	written, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	if string(written) != string(content) {
		return fmt.Errorf("%s content mismatch after write", DescriptorName)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Process ensures the archive at path carries a descriptor.
func (m *Mutator) Process(path string) Result {
	has, err := m.HasDescriptor(path)
	if err != nil {
		return Result{Path: path, Outcome: OutcomeSkipped, Err: err}
	}
	if has {
		return Result{Path: path, Outcome: OutcomeAlreadyTagged}
	}
	if err := m.InjectDescriptor(path, SynthesizeDescriptor(path)); err != nil {
		return Result{Path: path, Outcome: OutcomeSkipped, Err: err}
	}
	return Result{Path: path, Outcome: OutcomeTagged}
}
