package syncengine

import (
	"encoding/json"
	"fmt"

	"github.com/ravend/ravend/internal/mail"
	"github.com/ravend/ravend/internal/store"
	"github.com/ravend/ravend/internal/thread"
)

// processMessage implements spec.md §4.4.5: look the message up by its
// natural key, and branch on Hit-differs / Hit-equal / Miss.
func (e *Engine) processMessage(accountID string, f store.Folder, fm FetchedMessage) (processResult, string, error) {
	existing, err := e.store.GetMessageByUID(accountID, f.ID, fm.UID)
	if err != nil {
		return resultUnchanged, "", err
	}

	if existing != nil {
		if existing.Unread == !fm.Seen && existing.Starred == fm.Flagged && existing.Draft == fm.Draft {
			return resultUnchanged, existing.ID, nil
		}
		if err := e.store.SetMessageFlags(existing.ID, !fm.Seen, fm.Flagged, fm.Draft); err != nil {
			return resultUnchanged, "", err
		}
		unreadDelta, starredDelta := 0, 0
		if existing.Unread != !fm.Seen {
			if !fm.Seen {
				unreadDelta = 1
			} else {
				unreadDelta = -1
			}
		}
		if existing.Starred != fm.Flagged {
			if fm.Flagged {
				starredDelta = 1
			} else {
				starredDelta = -1
			}
		}
		if existing.ThreadID != "" && (unreadDelta != 0 || starredDelta != 0) {
			if err := e.store.AdjustThreadCounts(existing.ThreadID, unreadDelta, starredDelta); err != nil {
				return resultUnchanged, "", err
			}
		}
		return resultFlagsUpdated, existing.ID, nil
	}

	id := accountID + ":" + f.ID + ":" + fmt.Sprint(fm.UID)

	fromJSON, _ := serializeFetchedAddresses(fm.From)
	toJSON, _ := serializeFetchedAddresses(fm.To)
	ccJSON, _ := serializeFetchedAddresses(fm.Cc)
	bccJSON, _ := serializeFetchedAddresses(fm.Bcc)
	replyToJSON, _ := serializeFetchedAddresses(fm.ReplyTo)

	var parsed *mail.ParsedMessage
	if len(fm.RawBody) > 0 {
		parsed, err = mail.ParseMessageBodyFull(fm.RawBody)
		if err != nil {
			parsed = nil
		}
	}

	snippet := ""
	isPlaintext := false
	if parsed != nil {
		snippet = parsed.Snippet
		isPlaintext = parsed.IsPlaintext
	}

	threadID, err := e.threader.Resolve(thread.Input{
		AccountID:       accountID,
		FolderID:        f.ID,
		HeaderMessageID: fm.MessageID,
		InReplyToIDs:    fm.InReplyTo,
		Subject:         fm.Subject,
		Snippet:         snippet,
		Date:            fm.InternalDate,
		Unread:          !fm.Seen,
		Starred:         fm.Flagged,
		FromContacts:    fromJSON,
	})
	if err != nil {
		return resultUnchanged, "", err
	}

	m := store.Message{
		ID:              id,
		AccountID:       accountID,
		FolderID:        f.ID,
		ThreadID:        threadID,
		HeaderMessageID: fm.MessageID,
		RemoteUID:       fm.UID,
		Subject:         fm.Subject,
		Date:            fm.InternalDate,
		Draft:           fm.Draft,
		Unread:          !fm.Seen,
		Starred:         fm.Flagged,
		FromJSON:        fromJSON,
		ToJSON:          toJSON,
		CcJSON:          ccJSON,
		BccJSON:         bccJSON,
		ReplyToJSON:     replyToJSON,
		Snippet:         snippet,
		IsPlaintext:     isPlaintext,
	}
	if err := e.store.UpsertMessage(m); err != nil {
		return resultUnchanged, "", err
	}

	if parsed != nil {
		cidReplacements, err := e.persistAttachments(accountID, f, id, parsed.Attachments)
		if err != nil {
			return resultUnchanged, "", err
		}

		body := parsed.HTMLBody
		if body != "" && len(cidReplacements) > 0 {
			body = mail.ReplaceCIDURLs(body, cidReplacements)
		}
		if body == "" {
			body = parsed.TextBody
		}
		if body != "" {
			if err := e.store.UpsertMessageBody(store.MessageBody{ID: id, Content: body, FetchedAt: fm.InternalDate}); err != nil {
				return resultUnchanged, "", err
			}
		}
	}

	return resultNew, id, nil
}

// serializeFetchedAddresses mirrors mail.SerializeAddresses but operates on
// the engine's own FetchedAddress type, keeping the sync algorithm decoupled
// from the concrete IMAP library's address representation.
func serializeFetchedAddresses(list []FetchedAddress) (string, error) {
	out := make([]mail.Address, 0, len(list))
	for _, a := range list {
		if a.Mailbox == "" || a.Host == "" {
			continue
		}
		out = append(out, mail.Address{Email: a.Mailbox + "@" + a.Host, Name: mail.DecodeHeader(a.Name)})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
