// Package thread is the Threader (C5): finds or creates a thread for a new
// message using Message-ID and In-Reply-To, updates aggregate counts and
// timestamps, and maintains thread↔folder membership.
package thread

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ravend/ravend/internal/store"
)

// Input is what the sync engine hands the threader for one newly-seen message.
type Input struct {
	AccountID       string
	FolderID        string
	HeaderMessageID string
	InReplyToIDs    []string
	Subject         string
	Snippet         string
	Date            time.Time
	Unread          bool
	Starred         bool
	FromContacts    string // JSON array, becomes thread.data.participants
}

// Resolver implements the C5 resolution algorithm against the Store.
type Resolver struct {
	store *store.Store
}

// New builds a Resolver over the given Store.
func New(st *store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve implements spec.md §4.5's four-step resolution order and returns
// the thread id the message should be assigned to.
func (r *Resolver) Resolve(in Input) (string, error) {
	// 1. Reuse if this message's own id was already registered (a reply
	// arrived and registered it before this message did).
	if in.HeaderMessageID != "" {
		if threadID, ok, err := r.store.FindThreadIDByReference(in.AccountID, in.HeaderMessageID); err != nil {
			return "", err
		} else if ok {
			if err := r.reuse(threadID, in); err != nil {
				return "", err
			}
			return threadID, nil
		}
	}

	// 2. Reuse if any In-Reply-To id is registered.
	for _, replyTo := range in.InReplyToIDs {
		if replyTo == "" {
			continue
		}
		threadID, ok, err := r.store.FindThreadIDByReference(in.AccountID, replyTo)
		if err != nil {
			return "", err
		}
		if ok {
			if err := r.store.InsertThreadReference(in.AccountID, threadID, in.HeaderMessageID); err != nil {
				return "", err
			}
			if err := r.reuse(threadID, in); err != nil {
				return "", err
			}
			return threadID, nil
		}
	}

	// 3. Create a new thread.
	threadID := strings.ReplaceAll(uuid.NewString(), "-", "")
	unreadCount, starredCount := 0, 0
	if in.Unread {
		unreadCount = 1
	}
	if in.Starred {
		starredCount = 1
	}

	data, _ := json.Marshal(map[string]any{
		"participants": json.RawMessage(nonEmptyJSON(in.FromContacts)),
		"folderIds":    []string{in.FolderID},
	})

	t := store.Thread{
		ID:                    threadID,
		AccountID:             in.AccountID,
		Subject:               in.Subject,
		Snippet:               in.Snippet,
		UnreadCount:           unreadCount,
		StarredCount:          starredCount,
		FirstMessageTimestamp: in.Date,
		LastMessageTimestamp:  in.Date,
		Data:                  string(data),
	}
	if err := r.store.UpsertThread(t); err != nil {
		return "", err
	}

	if err := r.store.InsertThreadReference(in.AccountID, threadID, in.HeaderMessageID); err != nil {
		return "", err
	}
	for _, replyTo := range in.InReplyToIDs {
		if err := r.store.InsertThreadReference(in.AccountID, threadID, replyTo); err != nil {
			return "", err
		}
	}

	if err := r.store.InsertThreadFolder(in.AccountID, threadID, in.FolderID); err != nil {
		return "", err
	}

	return threadID, nil
}

func (r *Resolver) reuse(threadID string, in Input) error {
	unreadDelta, starredDelta := 0, 0
	if in.Unread {
		unreadDelta = 1
	}
	if in.Starred {
		starredDelta = 1
	}
	if err := r.store.UpdateThreadAggregates(threadID, in.Date, in.Snippet, unreadDelta, starredDelta); err != nil {
		return err
	}
	return r.store.InsertThreadFolder(in.AccountID, threadID, in.FolderID)
}

func nonEmptyJSON(s string) string {
	if s == "" {
		return "[]"
	}
	return s
}
