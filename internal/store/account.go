package store

// DeleteAccountData performs the transactional per-account purge specified
// in spec.md §3: message_body (correlated subquery) → message →
// thread_folder → thread_reference → thread → folder → file, all or
// nothing.
func (s *Store) DeleteAccountData(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return &Error{Op: "delete_account_data", ID: accountID, Err: err}
	}
	defer tx.Rollback()

	steps := []string{
		`DELETE FROM message_body WHERE id IN (SELECT id FROM message WHERE accountId = ?)`,
		`DELETE FROM message WHERE accountId = ?`,
		`DELETE FROM thread_folder WHERE accountId = ?`,
		`DELETE FROM thread_reference WHERE accountId = ?`,
		`DELETE FROM thread WHERE accountId = ?`,
		`DELETE FROM folder WHERE accountId = ?`,
		`DELETE FROM file WHERE accountId = ?`,
	}
	for _, stmt := range steps {
		if _, err := tx.Exec(stmt, accountID); err != nil {
			return &Error{Op: "delete_account_data", ID: accountID, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: "delete_account_data", ID: accountID, Err: err}
	}
	return nil
}
