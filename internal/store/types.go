// Package store is the SQLite-backed durable mirror (C1): folders,
// messages, bodies, attachments, threads, thread↔folder, and the
// thread-reference index. All operations are narrow, typed, and
// idempotent; every error carries the offending id.
package store

import "time"

// Folder mirrors one IMAP mailbox.
type Folder struct {
	ID            string // "{account_id}:{path}"
	AccountID     string
	Path          string
	Role          string
	CreatedAt     time.Time
	Data          string
	UIDValidity   *int64
	UIDNext       *int64
	HighestModSeq *int64
}

// Message mirrors one message within one folder.
type Message struct {
	ID              string // "{account_id}:{folder_id}:{uid}"
	AccountID       string
	FolderID        string
	ThreadID        string
	HeaderMessageID string
	RemoteUID       uint32
	Subject         string
	Date            time.Time
	Draft           bool
	Unread          bool
	Starred         bool
	FromJSON        string
	ToJSON          string
	CcJSON          string
	BccJSON         string
	ReplyToJSON     string
	Snippet         string
	IsPlaintext     bool
}

// MessageBody is the fetched, parsed body content for one message.
type MessageBody struct {
	ID        string // == Message.ID
	Content   string
	FetchedAt time.Time
}

// Thread is a locally-invented conversation grouping.
type Thread struct {
	ID                     string
	AccountID              string
	Subject                string
	Snippet                string
	UnreadCount            int
	StarredCount           int
	FirstMessageTimestamp  time.Time
	LastMessageTimestamp   time.Time
	Data                   string
}

// File is an attachment (including inline images) belonging to a message.
type File struct {
	ID          string
	AccountID   string
	MessageID   string
	FileName    string
	PartID      string
	ContentID   string
	ContentType string
	Size        int64
	IsInline    bool
	Downloaded  bool
}

// MessageActionInfo is the join the Action Executor needs to translate a
// message id into an IMAP operation: account, folder, uid, and thread.
type MessageActionInfo struct {
	AccountID  string
	FolderID   string
	FolderPath string
	UID        uint32
	ThreadID   string
	Unread     bool
	Starred    bool
}

// Error is a typed error carrying the id of the row an operation failed on.
type Error struct {
	Op  string
	ID  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + " " + e.ID + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
