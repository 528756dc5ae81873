package store

import (
	"database/sql"
	"time"
)

// UpsertMessage inserts or updates a message row. On conflict it overwrites
// everything except id and account_id (spec.md §4.1).
func (s *Store) UpsertMessage(m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var threadID any
	if m.ThreadID != "" {
		threadID = m.ThreadID
	}

	_, err := s.db.Exec(`
INSERT INTO message (id, accountId, folderId, threadId, headerMessageId, remoteUID, subject, date, draft, unread, starred, fromJson, toJson, ccJson, bccJson, replyToJson, snippet, isPlaintext)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	folderId        = excluded.folderId,
	threadId        = excluded.threadId,
	headerMessageId = excluded.headerMessageId,
	remoteUID       = excluded.remoteUID,
	subject         = excluded.subject,
	date            = excluded.date,
	draft           = excluded.draft,
	unread          = excluded.unread,
	starred         = excluded.starred,
	fromJson        = excluded.fromJson,
	toJson          = excluded.toJson,
	ccJson          = excluded.ccJson,
	bccJson         = excluded.bccJson,
	replyToJson     = excluded.replyToJson,
	snippet         = excluded.snippet,
	isPlaintext     = excluded.isPlaintext
`, m.ID, m.AccountID, m.FolderID, threadID, m.HeaderMessageID, m.RemoteUID, m.Subject, unixOrZero(m.Date),
		boolToInt(m.Draft), boolToInt(m.Unread), boolToInt(m.Starred),
		m.FromJSON, m.ToJSON, m.CcJSON, m.BccJSON, m.ReplyToJSON, m.Snippet, boolToInt(m.IsPlaintext))
	if err != nil {
		return &Error{Op: "upsert_message", ID: m.ID, Err: err}
	}
	return nil
}

const messageColumns = `id, accountId, folderId, COALESCE(threadId, ''), COALESCE(headerMessageId, ''), remoteUID, COALESCE(subject, ''), date, draft, unread, starred, COALESCE(fromJson,''), COALESCE(toJson,''), COALESCE(ccJson,''), COALESCE(bccJson,''), COALESCE(replyToJson,''), COALESCE(snippet,''), isPlaintext`

// GetMessageByUID looks up a message by its natural key.
func (s *Store) GetMessageByUID(accountID, folderID string, uid uint32) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT `+messageColumns+` FROM message WHERE accountId = ? AND folderId = ? AND remoteUID = ?`, accountID, folderID, uid)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get_message_by_uid", ID: folderID, Err: err}
	}
	return m, nil
}

// GetMessageByID looks up a message by its primary key.
func (s *Store) GetMessageByID(id string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT `+messageColumns+` FROM message WHERE id = ?`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get_message_by_id", ID: id, Err: err}
	}
	return m, nil
}

// DeleteMessageByUID removes a message and cascades to its body and
// attachment rows.
func (s *Store) DeleteMessageByUID(accountID, folderID string, uid uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return &Error{Op: "delete_message_by_uid", ID: folderID, Err: err}
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRow(`SELECT id FROM message WHERE accountId = ? AND folderId = ? AND remoteUID = ?`, accountID, folderID, uid).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return &Error{Op: "delete_message_by_uid", ID: folderID, Err: err}
	}

	if _, err := tx.Exec(`DELETE FROM file WHERE messageId = ?`, id); err != nil {
		return &Error{Op: "delete_message_by_uid", ID: id, Err: err}
	}
	if _, err := tx.Exec(`DELETE FROM message_body WHERE id = ?`, id); err != nil {
		return &Error{Op: "delete_message_by_uid", ID: id, Err: err}
	}
	if _, err := tx.Exec(`DELETE FROM message WHERE id = ?`, id); err != nil {
		return &Error{Op: "delete_message_by_uid", ID: id, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Op: "delete_message_by_uid", ID: id, Err: err}
	}
	return nil
}

// DeleteMessageRow removes a message (and body/file rows) by its primary
// key, used by the move-to-trash action after a successful server move.
func (s *Store) DeleteMessageRow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return &Error{Op: "delete_message_row", ID: id, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM file WHERE messageId = ?`, id); err != nil {
		return &Error{Op: "delete_message_row", ID: id, Err: err}
	}
	if _, err := tx.Exec(`DELETE FROM message_body WHERE id = ?`, id); err != nil {
		return &Error{Op: "delete_message_row", ID: id, Err: err}
	}
	if _, err := tx.Exec(`DELETE FROM message WHERE id = ?`, id); err != nil {
		return &Error{Op: "delete_message_row", ID: id, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Op: "delete_message_row", ID: id, Err: err}
	}
	return nil
}

// SetMessageFlags overwrites a message's unread, starred and draft flags.
// It returns only an error, not whether any flag changed.
func (s *Store) SetMessageFlags(id string, unread, starred, draft bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE message SET unread = ?, starred = ?, draft = ? WHERE id = ?`, boolToInt(unread), boolToInt(starred), boolToInt(draft), id)
	if err != nil {
		return &Error{Op: "set_message_flags", ID: id, Err: err}
	}
	return nil
}

// UpsertMessageBody inserts or replaces the body content for a message.
func (s *Store) UpsertMessageBody(mb MessageBody) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO message_body (id, content, fetchedAt) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET content = excluded.content, fetchedAt = excluded.fetchedAt
`, mb.ID, mb.Content, unixOrZero(mb.FetchedAt))
	if err != nil {
		return &Error{Op: "upsert_message_body", ID: mb.ID, Err: err}
	}
	return nil
}

// GetMessageBody looks up a message's stored body content by message id.
// Unknown ids return (nil, nil).
func (s *Store) GetMessageBody(id string) (*MessageBody, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mb MessageBody
	var fetchedAt int64
	err := s.db.QueryRow(`SELECT id, content, fetchedAt FROM message_body WHERE id = ?`, id).Scan(&mb.ID, &mb.Content, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get_message_body", ID: id, Err: err}
	}
	mb.FetchedAt = time.Unix(fetchedAt, 0)
	return &mb, nil
}

// ResolveMessageActionInfo joins message and folder to produce what the
// Action Executor needs, per id. Unknown ids return (nil, nil).
func (s *Store) ResolveMessageActionInfo(id string) (*MessageActionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
SELECT m.accountId, m.folderId, f.path, m.remoteUID, COALESCE(m.threadId,''), m.unread, m.starred
FROM message m JOIN folder f ON f.id = m.folderId
WHERE m.id = ?`, id)

	var info MessageActionInfo
	var unread, starred int
	err := row.Scan(&info.AccountID, &info.FolderID, &info.FolderPath, &info.UID, &info.ThreadID, &unread, &starred)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "resolve_message_action_info", ID: id, Err: err}
	}
	info.Unread = unread != 0
	info.Starred = starred != 0
	return &info, nil
}

func scanMessage(row rowScanner) (*Message, error) {
	var m Message
	var date int64
	var draft, unread, starred, isPlaintext int
	if err := row.Scan(&m.ID, &m.AccountID, &m.FolderID, &m.ThreadID, &m.HeaderMessageID, &m.RemoteUID, &m.Subject, &date,
		&draft, &unread, &starred, &m.FromJSON, &m.ToJSON, &m.CcJSON, &m.BccJSON, &m.ReplyToJSON, &m.Snippet, &isPlaintext); err != nil {
		return nil, err
	}
	m.Date = timeOrZero(date)
	m.Draft = draft != 0
	m.Unread = unread != 0
	m.Starred = starred != 0
	m.IsPlaintext = isPlaintext != 0
	return &m, nil
}
