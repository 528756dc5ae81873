package mail

import (
	"strconv"
	"strings"

	"github.com/ravend/ravend/internal/logging"
	"github.com/teamwork/tnef"
)

// ExpandTNEF unpacks an application/ms-tnef attachment (Outlook's
// winmail.dat) into its constituent attachments, so they surface as normal
// Attachment rows instead of one opaque blob.
func ExpandTNEF(att ParsedAttachment) []ParsedAttachment {
	if !isTNEF(att) || att.Content == nil {
		return nil
	}
	log := logging.WithComponent("mail")

	data, err := tnef.Decode(att.Content)
	if err != nil {
		log.Debug().Err(err).Str("filename", att.Filename).Msg("failed to decode TNEF attachment")
		return nil
	}

	out := make([]ParsedAttachment, 0, len(data.Attachments))
	for i, a := range data.Attachments {
		out = append(out, ParsedAttachment{
			PartID:      att.PartID + ".tnef." + strconv.Itoa(i+1),
			ContentType: "application/octet-stream",
			Filename:    SanitizeFilename(a.Title),
			IsInline:    false,
			Size:        int64(len(a.Data)),
			Content:     a.Data,
		})
	}
	return out
}

func isTNEF(att ParsedAttachment) bool {
	ct := strings.ToLower(att.ContentType)
	name := strings.ToLower(att.Filename)
	return ct == "application/ms-tnef" || ct == "application/vnd.ms-tnef" || name == "winmail.dat"
}
