package archive_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mangafixer/internal/archive"
	"mangafixer/internal/logging"
	"mangafixer/internal/testsupport"
)

func readEntry(t *testing.T, path, name string) []byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read entry %s: %v", name, err)
		}
		return data
	}
	t.Fatalf("entry %s not found in %s", name, path)
	return nil
}

func TestHasDescriptor(t *testing.T) {
	dir := t.TempDir()
	tagged := filepath.Join(dir, "tagged.cbz")
	lower := filepath.Join(dir, "lower.cbz")
	plain := filepath.Join(dir, "plain.cbz")
	testsupport.WriteCBZ(t, tagged, map[string][]byte{"001.jpg": {1}, "ComicInfo.xml": []byte("<ComicInfo/>")})
	testsupport.WriteCBZ(t, lower, map[string][]byte{"001.jpg": {1}, "comicinfo.xml": []byte("<ComicInfo/>")})
	testsupport.WriteCBZ(t, plain, testsupport.Pages(2))

	tests := []struct {
		path string
		want bool
	}{
		{tagged, true},
		{lower, false},
		{plain, false},
	}
	for _, tt := range tests {
		got, err := archive.HasDescriptor(tt.path)
		if err != nil {
			t.Fatalf("HasDescriptor(%s): %v", tt.path, err)
		}
		if got != tt.want {
			t.Fatalf("HasDescriptor(%s) = %v, want %v", filepath.Base(tt.path), got, tt.want)
		}
	}
}

func TestHasDescriptorCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cbz")
	testsupport.WriteFile(t, path, []byte("this is not a zip"))

	_, err := archive.HasDescriptor(path)
	var readErr *archive.ArchiveReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ArchiveReadError, got %T: %v", err, err)
	}
	if readErr.ErrorKind() != "archive_read" {
		t.Fatalf("unexpected kind %q", readErr.ErrorKind())
	}
}

func TestProcessTagsUntaggedArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Series A", "Vol 1.cbz")
	testsupport.WriteCBZ(t, path, testsupport.Pages(3))
	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	before := testsupport.ZipEntryNames(t, path)
	pageBefore := readEntry(t, path, "002.jpg")

	m := archive.NewMutator(logging.NewNop())
	result := m.Process(path)
	if result.Outcome != archive.OutcomeTagged || result.Err != nil {
		t.Fatalf("unexpected result %#v", result)
	}
	if !result.Recordable() {
		t.Fatal("tagged result should be recordable")
	}

	after := testsupport.ZipEntryNames(t, path)
	if !reflect.DeepEqual(after, append(before, archive.DescriptorName)) {
		t.Fatalf("unexpected entries after tagging: %v", after)
	}
	if !bytes.Equal(readEntry(t, path, "002.jpg"), pageBefore) {
		t.Fatal("existing entry content changed")
	}
	if got := readEntry(t, path, archive.DescriptorName); !bytes.Equal(got, archive.SynthesizeDescriptor(path)) {
		t.Fatalf("unexpected descriptor content %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("file mode not preserved: %v", info.Mode().Perm())
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestProcessAlreadyTaggedLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Series A", "Vol 2.cbz")
	testsupport.WriteCBZ(t, path, map[string][]byte{"001.jpg": {9}, "ComicInfo.xml": []byte("<ComicInfo><Title>Custom</Title></ComicInfo>")})
	before := testsupport.MustReadFile(t, path)

	result := archive.NewMutator(nil).Process(path)
	if result.Outcome != archive.OutcomeAlreadyTagged || result.Err != nil {
		t.Fatalf("unexpected result %#v", result)
	}
	if !bytes.Equal(before, testsupport.MustReadFile(t, path)) {
		t.Fatal("already tagged archive was modified")
	}
}

func TestProcessCorruptArchiveIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cbz")
	testsupport.WriteFile(t, path, []byte("PK\x03\x04 truncated"))

	result := archive.NewMutator(nil).Process(path)
	if result.Outcome != archive.OutcomeSkipped || result.Recordable() {
		t.Fatalf("unexpected result %#v", result)
	}
	var readErr *archive.ArchiveReadError
	if !errors.As(result.Err, &readErr) {
		t.Fatalf("expected ArchiveReadError, got %v", result.Err)
	}
}

func TestInjectDescriptorFailureLeavesOriginalIdentical(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Series A", "Vol 1.cbz")
	testsupport.WriteCBZ(t, path, testsupport.Pages(4))
	before := testsupport.MustReadFile(t, path)

	m := archive.NewMutator(nil)
	archive.SetRenameForTest(m, func(string, string) error {
		return errors.New("disk full")
	})

	err := m.InjectDescriptor(path, archive.SynthesizeDescriptor(path))
	var writeErr *archive.ArchiveWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected ArchiveWriteError, got %T: %v", err, err)
	}
	if writeErr.ErrorKind() != "archive_write" {
		t.Fatalf("unexpected kind %q", writeErr.ErrorKind())
	}
	if !bytes.Equal(before, testsupport.MustReadFile(t, path)) {
		t.Fatal("original archive changed after failed injection")
	}
	assertNoTempFiles(t, filepath.Dir(path))

	result := m.Process(path)
	if result.Outcome != archive.OutcomeSkipped || result.Recordable() {
		t.Fatalf("failed write must be skipped, got %#v", result)
	}
}

type failingWriter struct {
	w      io.Writer
	budget int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if len(p) > f.budget {
		n, _ := f.w.Write(p[:f.budget])
		f.budget = 0
		return n, errors.New("no space left on device")
	}
	f.budget -= len(p)
	return f.w.Write(p)
}

func TestInjectDescriptorWriteFailureLeavesOriginalIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Series A", "Vol 1.cbz")
	testsupport.WriteCBZ(t, path, testsupport.Pages(4))
	before := testsupport.MustReadFile(t, path)

	m := archive.NewMutator(nil)
	var sink *failingWriter
	archive.SetTempSinkForTest(m, func(w io.Writer) io.Writer {
		sink = &failingWriter{w: w, budget: 64}
		return sink
	})

	err := m.InjectDescriptor(path, archive.SynthesizeDescriptor(path))
	var writeErr *archive.ArchiveWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected ArchiveWriteError, got %T: %v", err, err)
	}
	if writeErr.Op != "write temp archive" {
		t.Fatalf("expected failure while writing the temp archive, got op %q", writeErr.Op)
	}
	if sink == nil || sink.budget != 0 {
		t.Fatal("temp writer was not exhausted")
	}
	if !bytes.Equal(before, testsupport.MustReadFile(t, path)) {
		t.Fatal("original archive changed after failed temp write")
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestInjectDescriptorTempCollisionFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Vol 1.cbz")
	testsupport.WriteCBZ(t, path, testsupport.Pages(1))
	before := testsupport.MustReadFile(t, path)

	const id = "5f0c6f5e-3a4c-4c55-9d7e-8f6a3c2b1a00"
	occupied := archive.TempPathForTest(path, id)
	testsupport.WriteFile(t, occupied, []byte("someone else's file"))

	m := archive.NewMutator(nil)
	archive.SetTempIDForTest(m, func() string { return id })
	err := m.InjectDescriptor(path, []byte("<ComicInfo/>"))
	var writeErr *archive.ArchiveWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected ArchiveWriteError, got %v", err)
	}
	if !bytes.Equal(before, testsupport.MustReadFile(t, path)) {
		t.Fatal("original archive changed")
	}
	if got := testsupport.MustReadFile(t, occupied); string(got) != "someone else's file" {
		t.Fatal("pre-existing file at temp path was clobbered")
	}
}

func TestInjectDescriptorPreservesComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commented.cbz")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("001.jpg")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.SetComment("scanned by someone"); err != nil {
		t.Fatalf("set comment: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	testsupport.WriteFile(t, path, buf.Bytes())

	if err := archive.NewMutator(nil).InjectDescriptor(path, archive.SynthesizeDescriptor(path)); err != nil {
		t.Fatalf("InjectDescriptor: %v", err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer zr.Close()
	if zr.Comment != "scanned by someone" {
		t.Fatalf("comment not preserved: %q", zr.Comment)
	}
}

func TestInjectDescriptorRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.cbz")
	testsupport.WriteCBZ(t, target, testsupport.Pages(1))
	link := filepath.Join(dir, "link.cbz")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	err := archive.NewMutator(nil).InjectDescriptor(link, []byte("<ComicInfo/>"))
	if err == nil {
		t.Fatal("expected symlink to be rejected")
	}
	info, statErr := os.Lstat(link)
	if statErr != nil || info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("symlink was replaced")
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	tagged := filepath.Join(dir, "Series A", "Vol 2.cbz")
	testsupport.WriteCBZ(t, tagged, map[string][]byte{
		"001.jpg":       {1},
		"ComicInfo.xml": []byte("<ComicInfo><Series>Other</Series><Title>T</Title></ComicInfo>"),
	})

	inspection, err := archive.Inspect(tagged)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !inspection.HasDescriptor || inspection.Entries != 2 {
		t.Fatalf("unexpected inspection %#v", inspection)
	}
	if inspection.Existing == nil || inspection.Existing.Series != "Other" {
		t.Fatalf("unexpected existing descriptor %#v", inspection.Existing)
	}
	if inspection.Series != "Series A" || inspection.Title != "Vol 2" {
		t.Fatalf("unexpected derived names %q/%q", inspection.Series, inspection.Title)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if archive.IsTempArtifact(entry.Name()) {
			t.Fatalf("temp artifact left behind: %s", entry.Name())
		}
	}
}
