package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// PayloadKind discriminates what, if anything, backs a checklist's
// downloadable content. Exactly one form is active per checklist.
type PayloadKind string

const (
	PayloadEmpty    PayloadKind = "empty"
	PayloadText     PayloadKind = "text"
	PayloadFileRef  PayloadKind = "file_ref"
	PayloadEmbedded PayloadKind = "embedded"
)

// FileKind enumerates supported attachment types.
type FileKind string

const (
	FilePDF FileKind = "pdf"
	FileZIP FileKind = "zip"
)

// ContentPayload stores the discriminated content columns. The kind column
// decides which of the remaining columns are meaningful; the rest stay NULL.
type ContentPayload struct {
	Kind     PayloadKind `db:"content_kind" json:"kind"`
	Text     *string     `db:"content_text" json:"text,omitempty"`
	FileKind *FileKind   `db:"file_kind" json:"fileKind,omitempty"`
	FileName *string     `db:"file_name" json:"fileName,omitempty"`
	FileData []byte      `db:"file_data" json:"-"`
}

// EmptyPayload returns the zero content value.
func EmptyPayload() ContentPayload {
	return ContentPayload{Kind: PayloadEmpty}
}

// TextPayload wraps a free markdown/text body.
func TextPayload(body string) ContentPayload {
	return ContentPayload{Kind: PayloadText, Text: &body}
}

// FileRefPayload references a file expected to exist in the storage dir.
func FileRefPayload(kind FileKind, filename string) ContentPayload {
	return ContentPayload{Kind: PayloadFileRef, FileKind: &kind, FileName: &filename}
}

// EmbeddedPayload inlines the binary content.
func EmbeddedPayload(kind FileKind, filename string, data []byte) ContentPayload {
	return ContentPayload{Kind: PayloadEmbedded, FileKind: &kind, FileName: &filename, FileData: data}
}

// IsEmpty reports whether no content backs the checklist.
func (p ContentPayload) IsEmpty() bool {
	return p.Kind == "" || p.Kind == PayloadEmpty
}

// Is reports whether the payload holds the given kind/file-kind pair.
func (p ContentPayload) Is(kind PayloadKind, file FileKind) bool {
	return p.Kind == kind && p.FileKind != nil && *p.FileKind == file
}

// Legacy prefix markers used by the historical single-column encoding.
const (
	legacyPDFBase64 = "PDF_BASE64:"
	legacyZIPBase64 = "ZIP_BASE64:"
	legacyPDFFile   = "PDF File:"
)

// ParseLegacyContent decodes the historical prefix-encoded content string
// into a discriminated payload. The base64 forms came in two flavours,
// "PREFIX:filename:data" and "PREFIX:data"; since standard base64 never
// contains a colon, a colon in the remainder means a filename is present.
// Anything without a known prefix is plain text; empty input is empty.
func ParseLegacyContent(raw string) (ContentPayload, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EmptyPayload(), nil
	}

	switch {
	case strings.HasPrefix(trimmed, legacyPDFBase64):
		return parseLegacyBase64(FilePDF, strings.TrimPrefix(trimmed, legacyPDFBase64))
	case strings.HasPrefix(trimmed, legacyZIPBase64):
		return parseLegacyBase64(FileZIP, strings.TrimPrefix(trimmed, legacyZIPBase64))
	case strings.HasPrefix(trimmed, legacyPDFFile):
		name := strings.TrimSpace(strings.TrimPrefix(trimmed, legacyPDFFile))
		if name == "" {
			return ContentPayload{}, fmt.Errorf("legacy file reference has no filename")
		}
		return FileRefPayload(FilePDF, name), nil
	default:
		return TextPayload(raw), nil
	}
}

func parseLegacyBase64(kind FileKind, remainder string) (ContentPayload, error) {
	name := ""
	data := remainder
	if idx := strings.LastIndex(remainder, ":"); idx >= 0 {
		name = remainder[:idx]
		data = remainder[idx+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return ContentPayload{}, fmt.Errorf("decode legacy %s payload: %w", kind, err)
	}
	return EmbeddedPayload(kind, name, decoded), nil
}

// EncodeLegacyContent renders the payload back into the historical string
// form. Only used by migration round-trip checks.
func EncodeLegacyContent(p ContentPayload) string {
	switch p.Kind {
	case PayloadText:
		if p.Text != nil {
			return *p.Text
		}
		return ""
	case PayloadFileRef:
		if p.FileName != nil {
			return legacyPDFFile + " " + *p.FileName
		}
		return ""
	case PayloadEmbedded:
		prefix := legacyPDFBase64
		if p.FileKind != nil && *p.FileKind == FileZIP {
			prefix = legacyZIPBase64
		}
		name := ""
		if p.FileName != nil {
			name = *p.FileName
		}
		encoded := base64.StdEncoding.EncodeToString(p.FileData)
		if name == "" {
			return prefix + encoded
		}
		return prefix + name + ":" + encoded
	default:
		return ""
	}
}
