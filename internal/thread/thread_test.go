package thread

import (
	"testing"
	"time"

	"github.com/ravend/ravend/internal/database"
	rstore "github.com/ravend/ravend/internal/store"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T) (*Resolver, *rstore.Store) {
	t.Helper()
	db, err := database.Open(t.TempDir() + "/test.sqlite")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	st := rstore.New(db)
	require.NoError(t, st.UpsertFolder(rstore.Folder{ID: "a:INBOX", AccountID: "a", Path: "INBOX", Role: "inbox", CreatedAt: time.Now()}))
	require.NoError(t, st.UpsertFolder(rstore.Folder{ID: "a:All Mail", AccountID: "a", Path: "All Mail", Role: "all", CreatedAt: time.Now()}))
	return New(st), st
}

func TestThreadingReplyArrivesFirst(t *testing.T) {
	r, st := newResolver(t)

	// M2 (Message-ID=b, In-Reply-To=a) ingested into INBOX first.
	id2, err := r.Resolve(Input{AccountID: "a", FolderID: "a:INBOX", HeaderMessageID: "b", InReplyToIDs: []string{"a"}, Date: time.Now(), Unread: true})
	require.NoError(t, err)

	// M1 (Message-ID=a) ingested into All Mail second.
	id1, err := r.Resolve(Input{AccountID: "a", FolderID: "a:All Mail", HeaderMessageID: "a", Date: time.Now().Add(-time.Hour), Unread: false})
	require.NoError(t, err)

	require.Equal(t, id2, id1, "both messages must share the same thread")

	th, err := st.GetThread(id1)
	require.NoError(t, err)
	require.Equal(t, 1, th.UnreadCount)
}

func TestThreadingCreatesNewThread(t *testing.T) {
	r, _ := newResolver(t)
	id, err := r.Resolve(Input{AccountID: "a", FolderID: "a:INBOX", HeaderMessageID: "standalone", Date: time.Now()})
	require.NoError(t, err)
	require.Len(t, id, 32)
}
