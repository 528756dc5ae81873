package store

import (
	"database/sql"
	"time"
)

// UpsertThread inserts or fully overwrites a thread row (used when creating
// a new thread; aggregate updates on reuse go through UpdateThreadAggregates).
func (s *Store) UpsertThread(t Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO thread (id, accountId, subject, snippet, unreadCount, starredCount, firstMessageTimestamp, lastMessageTimestamp, data)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	subject = excluded.subject,
	snippet = excluded.snippet,
	unreadCount = excluded.unreadCount,
	starredCount = excluded.starredCount,
	firstMessageTimestamp = excluded.firstMessageTimestamp,
	lastMessageTimestamp = excluded.lastMessageTimestamp,
	data = excluded.data
`, t.ID, t.AccountID, t.Subject, t.Snippet, t.UnreadCount, t.StarredCount,
		unixOrZero(t.FirstMessageTimestamp), unixOrZero(t.LastMessageTimestamp), t.Data)
	if err != nil {
		return &Error{Op: "upsert_thread", ID: t.ID, Err: err}
	}
	return nil
}

// GetThread fetches one thread by id.
func (s *Store) GetThread(id string) (*Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, accountId, COALESCE(subject,''), COALESCE(snippet,''), unreadCount, starredCount, firstMessageTimestamp, lastMessageTimestamp, COALESCE(data,'') FROM thread WHERE id = ?`, id)
	var t Thread
	var first, last int64
	if err := row.Scan(&t.ID, &t.AccountID, &t.Subject, &t.Snippet, &t.UnreadCount, &t.StarredCount, &first, &last, &t.Data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &Error{Op: "get_thread", ID: id, Err: err}
	}
	t.FirstMessageTimestamp = timeOrZero(first)
	t.LastMessageTimestamp = timeOrZero(last)
	return &t, nil
}

// FindThreadIDByReference looks up the thread registered for a
// (account_id, header_message_id) pair.
func (s *Store) FindThreadIDByReference(accountID, headerMessageID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var threadID string
	err := s.db.QueryRow(`SELECT threadId FROM thread_reference WHERE accountId = ? AND headerMessageId = ?`, accountID, headerMessageID).Scan(&threadID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Op: "find_thread_id_by_reference", ID: headerMessageID, Err: err}
	}
	return threadID, true, nil
}

// InsertThreadReference registers (account_id, header_message_id) → thread
// id, INSERT-OR-IGNORE so an earlier registration wins.
func (s *Store) InsertThreadReference(accountID, threadID, headerMessageID string) error {
	if headerMessageID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO thread_reference (accountId, threadId, headerMessageId) VALUES (?, ?, ?)`, accountID, threadID, headerMessageID)
	if err != nil {
		return &Error{Op: "insert_thread_reference", ID: headerMessageID, Err: err}
	}
	return nil
}

// InsertThreadFolder registers a (account, thread, folder) membership,
// INSERT-OR-IGNORE so duplicates are suppressed.
func (s *Store) InsertThreadFolder(accountID, threadID, folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO thread_folder (accountId, threadId, folderId) VALUES (?, ?, ?)`, accountID, threadID, folderID)
	if err != nil {
		return &Error{Op: "insert_thread_folder", ID: threadID, Err: err}
	}
	return nil
}

// UpdateThreadAggregates applies spec.md §4.5's reuse-update rules: advance
// last/snippet if the new message is newer, retreat first if older, and
// bump unread/starred counts by the message's own flags.
func (s *Store) UpdateThreadAggregates(threadID string, msgDate time.Time, snippet string, unreadDelta, starredDelta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := unixOrZero(msgDate)

	_, err := s.db.Exec(`
UPDATE thread SET
	lastMessageTimestamp = CASE WHEN ? > lastMessageTimestamp THEN ? ELSE lastMessageTimestamp END,
	snippet = CASE WHEN ? > lastMessageTimestamp THEN ? ELSE snippet END,
	firstMessageTimestamp = CASE WHEN ? < firstMessageTimestamp THEN ? ELSE firstMessageTimestamp END,
	unreadCount = MAX(0, unreadCount + ?),
	starredCount = MAX(0, starredCount + ?)
WHERE id = ?
`, ts, ts, ts, snippet, ts, ts, unreadDelta, starredDelta, threadID)
	if err != nil {
		return &Error{Op: "update_thread_aggregates", ID: threadID, Err: err}
	}
	return nil
}

// AdjustThreadCounts increments/decrements unread/starred counts by an
// arbitrary delta (used by the Action Executor on a flag round-trip),
// clamping decrements to 0.
func (s *Store) AdjustThreadCounts(threadID string, unreadDelta, starredDelta int) error {
	if threadID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
UPDATE thread SET
	unreadCount = MAX(0, unreadCount + ?),
	starredCount = MAX(0, starredCount + ?)
WHERE id = ?
`, unreadDelta, starredDelta, threadID)
	if err != nil {
		return &Error{Op: "adjust_thread_counts", ID: threadID, Err: err}
	}
	return nil
}
