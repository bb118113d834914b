// Package archive inspects and tags .cbz archives.
//
// An archive counts as tagged when it holds an entry named exactly
// ComicInfo.xml; the comparison is case-sensitive. Untagged archives receive a
// minimal descriptor derived from the file and parent directory names. The
// rewrite happens in a hidden temporary file next to the original, which is
// renamed over it only after the new archive has been written, synced, and
// re-read successfully. A failed rewrite leaves the original untouched.
package archive
