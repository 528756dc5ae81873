package syncengine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ravend/ravend/internal/folder"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/mail"
	"github.com/ravend/ravend/internal/store"
)

// persistAttachments implements spec.md §4.4.7: every non-body MIME part
// becomes a file row; inline attachments in a spam-role folder are recorded
// but never written to disk (no reason to render tracking pixels from
// quarantined mail). Payloads under mail.ImmediateDownloadThreshold are
// written immediately via a tmp-file + fsync + rename sequence so a crash
// mid-write never leaves a half-written file at its final path.
//
// It returns the content_id → "file://" + path replacement table for every
// attachment with a Content-ID that it wrote to disk, for rewriting cid:
// references in the message's HTML body.
func (e *Engine) persistAttachments(accountID string, f store.Folder, messageID string, atts []mail.ParsedAttachment) (map[string]string, error) {
	log := logging.WithComponent("syncengine")
	suppressInline := folder.DetectRole(f.Path) == folder.TypeSpam
	cidReplacements := map[string]string{}

	for _, att := range atts {
		id := messageID + ":" + att.PartID
		existing, err := e.store.GetFile(id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		fileRow := store.File{
			ID:          id,
			AccountID:   accountID,
			MessageID:   messageID,
			FileName:    att.Filename,
			PartID:      att.PartID,
			ContentID:   att.ContentID,
			ContentType: att.ContentType,
			Size:        att.Size,
			IsInline:    att.IsInline,
		}

		if len(att.Content) > 0 && !(att.IsInline && suppressInline) {
			if err := e.writeAttachmentFile(messageID, att); err != nil {
				log.Warn().Err(err).Str("file", id).Msg("failed to write attachment to disk")
			} else {
				fileRow.Downloaded = true
				if att.ContentID != "" {
					path := filepath.Join(e.filesDir, mail.DiskFilename(messageID, att.Filename))
					cidReplacements[att.ContentID] = "file://" + path
				}
			}
		}

		if err := e.store.InsertFile(fileRow); err != nil {
			return nil, err
		}
	}
	return cidReplacements, nil
}

// writeAttachmentFile writes att's payload to its final on-disk path using a
// temp-file-then-rename sequence in the same directory, so the rename is
// atomic within one filesystem.
func (e *Engine) writeAttachmentFile(messageID string, att mail.ParsedAttachment) error {
	if e.filesDir == "" {
		return fmt.Errorf("no files directory configured")
	}
	if err := os.MkdirAll(e.filesDir, 0700); err != nil {
		return err
	}

	final := filepath.Join(e.filesDir, mail.DiskFilename(messageID, att.Filename))
	if _, err := os.Stat(final); err == nil {
		return nil
	}

	tmp, err := os.CreateTemp(e.filesDir, ".tmp-attachment-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(att.Content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, final)
}
