package archive

import "io"

// SetRenameForTest replaces the final rename step.
func SetRenameForTest(m *Mutator, rename func(oldpath, newpath string) error) {
	m.rename = rename
}

// SetTempIDForTest fixes the temp file identifier.
func SetTempIDForTest(m *Mutator, id func() string) {
	m.tempID = id
}

// SetTempSinkForTest wraps the temp file writer.
func SetTempSinkForTest(m *Mutator, sink func(io.Writer) io.Writer) {
	m.tempSink = sink
}

// TempPathForTest exposes the temp naming rule.
func TempPathForTest(path, id string) string {
	return tempPathFor(path, id)
}
