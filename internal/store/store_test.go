package store

import (
	"testing"
	"time"

	"github.com/ravend/ravend/internal/database"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(t.TempDir() + "/test.sqlite")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestUpsertFolderDoesNotOverwriteSyncState(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertFolder(Folder{ID: "a:INBOX", AccountID: "a", Path: "INBOX", Role: "inbox", CreatedAt: time.Now()}))
	uv, un := int64(7), int64(1)
	require.NoError(t, s.UpdateFolderSyncState("a:INBOX", &uv, &un))

	// Re-upserting must not clear uidValidity/uidNext.
	require.NoError(t, s.UpsertFolder(Folder{ID: "a:INBOX", AccountID: "a", Path: "INBOX", Role: "inbox", CreatedAt: time.Now()}))

	f, err := s.GetFolder("a:INBOX")
	require.NoError(t, err)
	require.NotNil(t, f.UIDValidity)
	require.Equal(t, int64(7), *f.UIDValidity)
	require.Equal(t, int64(1), *f.UIDNext)
}

func TestUpsertMessageThenDelete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertFolder(Folder{ID: "a:INBOX", AccountID: "a", Path: "INBOX", Role: "inbox", CreatedAt: time.Now()}))

	m := Message{ID: "a:a:INBOX:5", AccountID: "a", FolderID: "a:INBOX", RemoteUID: 5, Subject: "hi", Unread: true}
	require.NoError(t, s.UpsertMessage(m))

	got, err := s.GetMessageByUID("a", "a:INBOX", 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Unread)

	require.NoError(t, s.UpsertMessageBody(MessageBody{ID: m.ID, Content: "body", FetchedAt: time.Now()}))

	require.NoError(t, s.DeleteMessageByUID("a", "a:INBOX", 5))
	got, err = s.GetMessageByUID("a", "a:INBOX", 5)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestThreadCountsClampAtZero(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertThread(Thread{ID: "t1", AccountID: "a", UnreadCount: 0, StarredCount: 0}))
	require.NoError(t, s.AdjustThreadCounts("t1", -5, -5))

	th, err := s.GetThread("t1")
	require.NoError(t, err)
	require.Equal(t, 0, th.UnreadCount)
	require.Equal(t, 0, th.StarredCount)
}

func TestDeleteAccountDataRemovesAccountFolders(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertFolder(Folder{ID: "a:INBOX", AccountID: "a", Path: "INBOX", Role: "inbox", CreatedAt: time.Now()}))
	require.NoError(t, s.UpsertMessage(Message{ID: "a:a:INBOX:1", AccountID: "a", FolderID: "a:INBOX", RemoteUID: 1}))

	require.NoError(t, s.DeleteAccountData("a"))

	f, err := s.GetFolder("a:INBOX")
	require.NoError(t, err)
	require.Nil(t, f)
}
