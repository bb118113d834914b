package archive

import (
	"io"
)

// Inspection is a read-only report on one archive.
type Inspection struct {
	Path          string
	Entries       int
	HasDescriptor bool
	Existing      *ComicInfo
	Series        string
	Title         string
	Proposed      []byte
}

// Inspect lists the archive and derives the descriptor that would be written.
func Inspect(path string) (Inspection, error) {
	series, title := DeriveNames(path)
	result := Inspection{
		Path:     path,
		Series:   series,
		Title:    title,
		Proposed: SynthesizeDescriptor(path),
	}

	zr, err := openReader(path)
	if err != nil {
		return result, &ArchiveReadError{Path: path, Op: "open", Err: err}
	}
	defer zr.Close()

	result.Entries = len(zr.File)
	descriptor := findDescriptor(zr.File)
	if descriptor == nil {
		return result, nil
	}
	result.HasDescriptor = true

	rc, err := descriptor.Open()
	if err != nil {
		return result, &ArchiveReadError{Path: path, Op: "open " + DescriptorName, Err: err}
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return result, &ArchiveReadError{Path: path, Op: "read " + DescriptorName, Err: err}
	}
	// A malformed existing descriptor still counts as tagged.
	if info, err := ParseDescriptor(data); err == nil {
		result.Existing = &info
	}
	return result, nil
}
