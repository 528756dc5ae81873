package store

import (
	"database/sql"
)

// UpsertFolder inserts or updates a folder row. On conflict it does NOT
// overwrite uid_validity/uid_next/highest_mod_seq — those are owned
// exclusively by UpdateFolderSyncState (spec.md §4.1).
func (s *Store) UpsertFolder(f Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO folder (id, accountId, path, role, createdAt, data)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	path = excluded.path,
	role = excluded.role,
	data = excluded.data
`, f.ID, f.AccountID, f.Path, f.Role, unixOrZero(f.CreatedAt), f.Data)
	if err != nil {
		return &Error{Op: "upsert_folder", ID: f.ID, Err: err}
	}
	return nil
}

// UpdateFolderSyncState persists the sync cursor. highest_mod_seq is
// always written as null (spec.md §4.4 step 8 — CONDSTORE is unused).
func (s *Store) UpdateFolderSyncState(folderID string, uidValidity, uidNext *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
UPDATE folder SET uidValidity = ?, uidNext = ?, highestModSeq = NULL WHERE id = ?
`, nullableInt64(uidValidity), nullableInt64(uidNext), folderID)
	if err != nil {
		return &Error{Op: "update_folder_sync_state", ID: folderID, Err: err}
	}
	return nil
}

// GetFolder fetches one folder by id.
func (s *Store) GetFolder(id string) (*Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, accountId, path, role, createdAt, data, uidValidity, uidNext, highestModSeq FROM folder WHERE id = ?`, id)
	f, err := scanFolder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get_folder", ID: id, Err: err}
	}
	return f, nil
}

// ListFoldersByAccount returns every folder row for an account.
func (s *Store) ListFoldersByAccount(accountID string) ([]Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, accountId, path, role, createdAt, data, uidValidity, uidNext, highestModSeq FROM folder WHERE accountId = ?`, accountID)
	if err != nil {
		return nil, &Error{Op: "list_folders_by_account", ID: accountID, Err: err}
	}
	defer rows.Close()

	var out []Folder
	for rows.Next() {
		f, err := scanFolderRows(rows)
		if err != nil {
			return nil, &Error{Op: "list_folders_by_account", ID: accountID, Err: err}
		}
		out = append(out, *f)
	}
	return out, nil
}

// GetTrashFolderForAccount returns the account's trash-role folder, if any.
func (s *Store) GetTrashFolderForAccount(accountID string) (*Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, accountId, path, role, createdAt, data, uidValidity, uidNext, highestModSeq FROM folder WHERE accountId = ? AND role = 'trash' LIMIT 1`, accountID)
	f, err := scanFolder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get_trash_folder_for_account", ID: accountID, Err: err}
	}
	return f, nil
}

// ListLocalUIDs returns every remote UID currently stored for a folder, used
// by the deletion-reconciliation pass (spec.md §4.4 step 7).
func (s *Store) ListLocalUIDs(folderID string) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT remoteUID FROM message WHERE folderId = ?`, folderID)
	if err != nil {
		return nil, &Error{Op: "list_local_uids", ID: folderID, Err: err}
	}
	defer rows.Close()

	var out []uint32
	for rows.Next() {
		var uid uint32
		if err := rows.Scan(&uid); err != nil {
			return nil, &Error{Op: "list_local_uids", ID: folderID, Err: err}
		}
		out = append(out, uid)
	}
	return out, nil
}

// ClearFolderMessages deletes every message (and cascading body/file rows)
// for a folder. Used on a UIDVALIDITY-change reset (Full mode).
func (s *Store) ClearFolderMessages(folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return &Error{Op: "clear_folder_messages", ID: folderID, Err: err}
	}
	defer tx.Rollback()

	if err := clearFolderMessagesTx(tx, folderID); err != nil {
		return &Error{Op: "clear_folder_messages", ID: folderID, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &Error{Op: "clear_folder_messages", ID: folderID, Err: err}
	}
	return nil
}

func clearFolderMessagesTx(tx interface {
	Exec(query string, args ...any) (sql.Result, error)
}, folderID string) error {
	if _, err := tx.Exec(`DELETE FROM message_body WHERE id IN (SELECT id FROM message WHERE folderId = ?)`, folderID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM file WHERE messageId IN (SELECT id FROM message WHERE folderId = ?)`, folderID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM message WHERE folderId = ?`, folderID); err != nil {
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*Folder, error) {
	return scanFolderRows(row)
}

func scanFolderRows(row rowScanner) (*Folder, error) {
	var f Folder
	var createdAt int64
	var uidValidity, uidNext, highestModSeq sql.NullInt64
	var data sql.NullString

	if err := row.Scan(&f.ID, &f.AccountID, &f.Path, &f.Role, &createdAt, &data, &uidValidity, &uidNext, &highestModSeq); err != nil {
		return nil, err
	}
	f.CreatedAt = timeOrZero(createdAt)
	f.Data = data.String
	f.UIDValidity = fromNullableInt64(uidValidity)
	f.UIDNext = fromNullableInt64(uidNext)
	f.HighestModSeq = fromNullableInt64(highestModSeq)
	return &f, nil
}
