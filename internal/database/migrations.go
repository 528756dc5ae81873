package database

import (
	"fmt"

	"github.com/ravend/ravend/internal/logging"
)

// Migration is one versioned, idempotent schema change.
type Migration struct {
	Version int
	SQL     string
}

// migrations is the ordered list of schema changes. Column names follow
// the reference daemon's operations layer rather than the Go teacher's own
// (much broader) schema: folder, message, message_body, thread,
// thread_folder, thread_reference, file.
var migrations = []Migration{
	{
		Version: 1,
		SQL: `
CREATE TABLE IF NOT EXISTS folder (
	id              TEXT PRIMARY KEY,
	accountId       TEXT NOT NULL,
	path            TEXT NOT NULL,
	role            TEXT NOT NULL DEFAULT 'custom',
	createdAt       INTEGER NOT NULL,
	data            TEXT,
	uidValidity     INTEGER,
	uidNext         INTEGER,
	highestModSeq   INTEGER,
	UNIQUE(accountId, path)
);

CREATE TABLE IF NOT EXISTS thread (
	id                    TEXT PRIMARY KEY,
	accountId             TEXT NOT NULL,
	subject               TEXT,
	snippet               TEXT,
	unreadCount           INTEGER NOT NULL DEFAULT 0,
	starredCount          INTEGER NOT NULL DEFAULT 0,
	firstMessageTimestamp INTEGER,
	lastMessageTimestamp  INTEGER,
	data                  TEXT
);

CREATE TABLE IF NOT EXISTS message (
	id               TEXT PRIMARY KEY,
	accountId        TEXT NOT NULL,
	folderId         TEXT NOT NULL REFERENCES folder(id),
	threadId         TEXT REFERENCES thread(id),
	headerMessageId  TEXT,
	remoteUID        INTEGER NOT NULL,
	subject          TEXT,
	date             INTEGER,
	draft            INTEGER NOT NULL DEFAULT 0,
	unread           INTEGER NOT NULL DEFAULT 0,
	starred          INTEGER NOT NULL DEFAULT 0,
	fromJson         TEXT,
	toJson           TEXT,
	ccJson           TEXT,
	bccJson          TEXT,
	replyToJson      TEXT,
	snippet          TEXT,
	isPlaintext      INTEGER NOT NULL DEFAULT 0,
	UNIQUE(accountId, folderId, remoteUID)
);
CREATE INDEX IF NOT EXISTS idx_message_folder ON message(folderId);
CREATE INDEX IF NOT EXISTS idx_message_thread ON message(threadId);
CREATE INDEX IF NOT EXISTS idx_message_header_id ON message(accountId, headerMessageId);

CREATE TABLE IF NOT EXISTS message_body (
	id         TEXT PRIMARY KEY REFERENCES message(id),
	content    TEXT NOT NULL,
	fetchedAt  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS thread_folder (
	accountId  TEXT NOT NULL,
	threadId   TEXT NOT NULL REFERENCES thread(id),
	folderId   TEXT NOT NULL REFERENCES folder(id),
	PRIMARY KEY (accountId, threadId, folderId)
);

CREATE TABLE IF NOT EXISTS thread_reference (
	accountId        TEXT NOT NULL,
	threadId         TEXT NOT NULL REFERENCES thread(id),
	headerMessageId  TEXT NOT NULL,
	PRIMARY KEY (accountId, headerMessageId)
);

CREATE TABLE IF NOT EXISTS file (
	id           TEXT PRIMARY KEY,
	accountId    TEXT NOT NULL,
	messageId    TEXT NOT NULL REFERENCES message(id),
	fileName     TEXT NOT NULL,
	partId       TEXT NOT NULL,
	contentId    TEXT,
	contentType  TEXT NOT NULL,
	size         INTEGER NOT NULL DEFAULT 0,
	isInline     INTEGER NOT NULL DEFAULT 0,
	downloaded   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_file_message ON file(messageId);
`,
	},
}

// Migrate applies every migration whose version has not yet been recorded,
// each inside its own transaction.
func (d *DB) Migrate() error {
	log := logging.WithComponent("database")

	if _, err := d.Exec(`CREATE TABLE IF NOT EXISTS migrations (version INTEGER PRIMARY KEY, appliedAt INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	applied := map[int]bool{}
	rows, err := d.Query(`SELECT version FROM migrations`)
	if err != nil {
		return fmt.Errorf("reading migrations table: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scanning migration version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := d.applyMigration(m); err != nil {
			return fmt.Errorf("applying migration %d: %w", m.Version, err)
		}
		log.Info().Int("version", m.Version).Msg("migration applied")
	}
	return nil
}

func (d *DB) applyMigration(m Migration) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO migrations (version, appliedAt) VALUES (?, strftime('%s','now'))`, m.Version); err != nil {
		return err
	}
	return tx.Commit()
}
