package archive

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DescriptorName is the metadata entry recognized by comic library tools.
const DescriptorName = "ComicInfo.xml"

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

// ComicInfo is the subset of the ComicInfo schema mangafixer writes.
type ComicInfo struct {
	XMLName xml.Name `xml:"ComicInfo"`
	Series  string   `xml:"Series"`
	Title   string   `xml:"Title"`
}

// DeriveNames returns the series and title for an archive path. Title is the
// file name without extension. Series is the immediate parent directory name,
// or the title when the archive sits at a filesystem root.
func DeriveNames(path string) (series, title string) {
	base := filepath.Base(path)
	title = norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))

	parent := filepath.Base(filepath.Dir(path))
	switch parent {
	case "", ".", string(filepath.Separator):
		series = title
	default:
		series = norm.NFC.String(parent)
	}
	return series, title
}

// SynthesizeDescriptor renders the descriptor for path. It performs no I/O and
// returns identical bytes for identical input.
func SynthesizeDescriptor(path string) []byte {
	series, title := DeriveNames(path)
	return renderDescriptor(ComicInfo{Series: series, Title: title})
}

func renderDescriptor(info ComicInfo) []byte {
	body, err := xml.MarshalIndent(info, "", "  ")
	if err != nil {
		// Only string fields; encoding/xml cannot fail on them.
		panic(fmt.Sprintf("marshal descriptor: %v", err))
	}
	var buf bytes.Buffer
	buf.Grow(len(xmlHeader) + len(body) + 1)
	buf.WriteString(xmlHeader)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// ParseDescriptor decodes a descriptor, ignoring fields mangafixer does not write.
func ParseDescriptor(data []byte) (ComicInfo, error) {
	var info ComicInfo
	if err := xml.Unmarshal(data, &info); err != nil {
		return ComicInfo{}, fmt.Errorf("parse %s: %w", DescriptorName, err)
	}
	return info, nil
}
