// Package mail implements the MIME/envelope parser (C2): pure functions
// over byte slices that decode headers, serialize addresses, walk MIME
// trees, extract bodies and attachments, generate snippets, and rewrite
// cid: URIs.
package mail

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/ravend/ravend/internal/logging"
)

// ImmediateDownloadThreshold is the size, in bytes, under which an
// attachment's payload is carried inline on the parsed record rather than
// announced as metadata-only (spec.md §4.2, §3).
const ImmediateDownloadThreshold = 1 << 20 // 1 MiB

// ParsedAttachment is one MIME part the parser classified as binary,
// inline-binary, or explicitly marked as an attachment.
type ParsedAttachment struct {
	PartID      string // MIME section path, e.g. "2" or "1.2", for BODY.PEEK refetch
	ContentType string
	ContentID   string
	Filename    string
	IsInline    bool
	Size        int64
	Content     []byte // present only when Size < ImmediateDownloadThreshold
}

// ParsedMessage is the result of walking one message's MIME tree.
type ParsedMessage struct {
	HTMLBody    string
	TextBody    string
	Snippet     string
	IsPlaintext bool
	Attachments []ParsedAttachment
}

// ParseMessageBodyFull walks the MIME tree of a full RFC 5322 message and
// extracts bodies and attachments per spec.md §4.2's six rules.
func ParseMessageBodyFull(raw []byte) (*ParsedMessage, error) {
	log := logging.WithComponent("mail")

	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && entity == nil {
		return nil, err
	}

	pm := &ParsedMessage{}
	attachmentIndex := 0

	var walk func(e *message.Entity, partPath string) error
	walk = func(e *message.Entity, partPath string) error {
		mediaType, params, _ := e.Header.ContentType()
		if mediaType == "" {
			mediaType = "text/plain"
		}

		if mr := e.MultipartReader(); mr != nil {
			i := 0
			for {
				p, err := mr.NextPart()
				if err == io.EOF {
					break
				}
				if err != nil {
					log.Warn().Err(err).Msg("malformed multipart body, stopping walk")
					return nil
				}
				i++
				childPath := strconv.Itoa(i)
				if partPath != "" {
					childPath = partPath + "." + childPath
				}
				if err := walk(p, childPath); err != nil {
					return err
				}
			}
			return nil
		}

		disposition, dispParams, _ := e.Header.ContentDisposition()
		contentID := strings.Trim(e.Header.Get("Content-Id"), "<>")

		isTextLike := strings.HasPrefix(mediaType, "text/")
		isAttachmentDisposition := disposition == "attachment"

		if mediaType == "text/html" && pm.HTMLBody == "" && !isAttachmentDisposition {
			b, _ := io.ReadAll(e.Body)
			cs := params["charset"]
			if cs == "" {
				if found := extractCharsetFromHTML(b); found != "" {
					cs = found
				}
			}
			pm.HTMLBody = decodeCharset(b, cs)
			return nil
		}
		if mediaType == "text/plain" && pm.TextBody == "" && !isAttachmentDisposition {
			b, _ := io.ReadAll(e.Body)
			pm.TextBody = decodeCharset(b, params["charset"])
			return nil
		}

		// Binary, inline-binary, or any part explicitly marked as an
		// attachment becomes an Attachment row.
		b, _ := io.ReadAll(e.Body)

		top := mediaType
		if top == "" {
			top = "application/octet-stream"
		}

		filename := dispParams["filename"]
		if filename == "" {
			filename = params["name"]
		}
		if filename != "" {
			filename = DecodeHeader(filename)
		} else {
			attachmentIndex++
			filename = DefaultFilename(top, attachmentIndex)
		}

		att := ParsedAttachment{
			PartID:      partPath,
			ContentType: top,
			ContentID:   contentID,
			Filename:    SanitizeFilename(filename),
			IsInline:    disposition == "inline" || (!isAttachmentDisposition && !isTextLike),
			Size:        int64(len(b)),
		}
		if att.Size < ImmediateDownloadThreshold {
			att.Content = b
		}

		if isTNEF(att) {
			if expanded := ExpandTNEF(att); expanded != nil {
				pm.Attachments = append(pm.Attachments, expanded...)
				return nil
			}
		}

		pm.Attachments = append(pm.Attachments, att)
		return nil
	}

	if err := walk(entity, ""); err != nil {
		return nil, err
	}

	pm.IsPlaintext = pm.HTMLBody == "" && pm.TextBody != ""
	snippetSource := pm.TextBody
	if snippetSource == "" && pm.HTMLBody != "" {
		snippetSource = stripHTMLTags(pm.HTMLBody)
	}
	pm.Snippet = Snippet(snippetSource)

	return pm, nil
}

// stripHTMLTags is a conservative tag stripper used only to build a
// snippet when no plain-text part was present; it never touches the
// stored HTML body itself (rendering/sanitization is out of scope).
func stripHTMLTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
