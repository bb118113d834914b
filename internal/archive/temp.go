package archive

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	tempMarker = ".mangafixer-"
	tempSuffix = ".tmp"
)

// tempPathFor returns a unique hidden sibling of path used while rewriting it.
func tempPathFor(path, id string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+tempMarker+id+tempSuffix)
}

func newTempID() string {
	return uuid.NewString()
}

// IsTempArtifact reports whether name (a base name) is a temporary archive
// written by InjectDescriptor.
func IsTempArtifact(name string) bool {
	if !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, tempSuffix) {
		return false
	}
	idx := strings.LastIndex(name, tempMarker)
	if idx <= 1 {
		return false
	}
	id := strings.TrimSuffix(name[idx+len(tempMarker):], tempSuffix)
	_, err := uuid.Parse(id)
	return err == nil
}
