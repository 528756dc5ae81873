package mail

import (
	"strconv"
	"strings"
)

// SanitizeFilename maps any of / \ : * ? " < > | and control characters to
// "_", trims whitespace, and substitutes the literal "attachment" if the
// result is empty (spec.md §4.2).
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20:
			b.WriteByte('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "attachment"
	}
	return out
}

// defaultFilenameTable maps a MIME content type to a filename template
// taking a 1-based index, carried in full from the reference daemon's
// attachment model (image/png, image/jpeg, image/gif, application/pdf,
// text/calendar, message/rfc822, application/zip, text/plain), beyond the
// single example spec.md names.
var defaultFilenameTable = map[string]string{
	"image/png":         "image_%d.png",
	"image/jpeg":        "image_%d.jpg",
	"image/gif":         "image_%d.gif",
	"application/pdf":   "document_%d.pdf",
	"text/calendar":     "event_%d.ics",
	"message/rfc822":    "message_%d.eml",
	"application/zip":   "archive_%d.zip",
	"text/plain":        "text_%d.txt",
}

// DefaultFilename builds a filename for an attachment that has no
// Content-Disposition filename, keyed off its content type and a 1-based
// position index.
func DefaultFilename(contentType string, index int) string {
	contentType = strings.ToLower(contentType)
	if tmpl, ok := defaultFilenameTable[contentType]; ok {
		return strings.Replace(tmpl, "%d", strconv.Itoa(index), 1)
	}
	top := contentType
	if i := strings.IndexByte(contentType, '/'); i >= 0 {
		top = contentType[:i]
	}
	switch top {
	case "image":
		return "image_" + strconv.Itoa(index)
	default:
		return "attachment_" + strconv.Itoa(index)
	}
}

// DiskFilename builds the on-disk name for an attachment:
// "{message_id_with_:_and_/_replaced_by_'_'}_{sanitized_name}" (spec.md §3).
func DiskFilename(messageID, filename string) string {
	id := strings.NewReplacer(":", "_", "/", "_").Replace(messageID)
	return id + "_" + SanitizeFilename(filename)
}
