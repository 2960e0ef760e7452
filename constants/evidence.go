package constants

import "strings"

// EvidenceSource is the kind of artifact attached to a journal entry.
type EvidenceSource string

const (
	EvidenceImage    EvidenceSource = "image"
	EvidenceText     EvidenceSource = "text"
	EvidenceDocument EvidenceSource = "document"
)

var extToSource = map[string]EvidenceSource{
	"jpg":  EvidenceImage,
	"jpeg": EvidenceImage,
	"png":  EvidenceImage,
	"heic": EvidenceImage,
	"heif": EvidenceImage,
	"txt":  EvidenceText,
	"sms":  EvidenceText,
	"pdf":  EvidenceDocument,
	"doc":  EvidenceDocument,
	"docx": EvidenceDocument,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// SourceFromExt maps a storage reference extension to an evidence source.
// Unknown extensions are treated as documents.
func SourceFromExt(ext string) EvidenceSource {
	if s, ok := extToSource[NormalizeExt(ext)]; ok {
		return s
	}
	return EvidenceDocument
}

// ParseEvidenceSource accepts the stored values only.
func ParseEvidenceSource(s string) (EvidenceSource, bool) {
	switch EvidenceSource(strings.ToLower(strings.TrimSpace(s))) {
	case EvidenceImage:
		return EvidenceImage, true
	case EvidenceText:
		return EvidenceText, true
	case EvidenceDocument:
		return EvidenceDocument, true
	}
	return "", false
}
