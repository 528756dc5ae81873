package store

import "database/sql"

// InsertFile records a new attachment row.
func (s *Store) InsertFile(f File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO file (id, accountId, messageId, fileName, partId, contentId, contentType, size, isInline, downloaded)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, f.ID, f.AccountID, f.MessageID, f.FileName, f.PartID, f.ContentID, f.ContentType, f.Size, boolToInt(f.IsInline), boolToInt(f.Downloaded))
	if err != nil {
		return &Error{Op: "insert_file", ID: f.ID, Err: err}
	}
	return nil
}

// GetFile fetches one attachment row.
func (s *Store) GetFile(id string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, accountId, messageId, fileName, partId, COALESCE(contentId,''), contentType, size, isInline, downloaded FROM file WHERE id = ?`, id)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get_file", ID: id, Err: err}
	}
	return f, nil
}

// ListFilesForMessage returns every attachment row for a message, in the
// shape GetMessageAttachments (§6) serializes.
func (s *Store) ListFilesForMessage(messageID string) ([]File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, accountId, messageId, fileName, partId, COALESCE(contentId,''), contentType, size, isInline, downloaded FROM file WHERE messageId = ?`, messageID)
	if err != nil {
		return nil, &Error{Op: "list_files_for_message", ID: messageID, Err: err}
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, &Error{Op: "list_files_for_message", ID: messageID, Err: err}
		}
		out = append(out, *f)
	}
	return out, nil
}

// MarkFileDownloaded flips downloaded = true after a successful fetch/write.
func (s *Store) MarkFileDownloaded(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE file SET downloaded = 1 WHERE id = ?`, id)
	if err != nil {
		return &Error{Op: "mark_file_downloaded", ID: id, Err: err}
	}
	return nil
}

func scanFile(row rowScanner) (*File, error) {
	var f File
	var isInline, downloaded int
	if err := row.Scan(&f.ID, &f.AccountID, &f.MessageID, &f.FileName, &f.PartID, &f.ContentID, &f.ContentType, &f.Size, &isInline, &downloaded); err != nil {
		return nil, err
	}
	f.IsInline = isInline != 0
	f.Downloaded = downloaded != 0
	return &f, nil
}
