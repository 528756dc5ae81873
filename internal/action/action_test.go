package action

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/ravend/ravend/internal/config"
	"github.com/ravend/ravend/internal/database"
	"github.com/ravend/ravend/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeAccountSource struct{ accounts []config.Account }

func (f *fakeAccountSource) Accounts() []config.Account { return f.accounts }

func newTestExecutor(t *testing.T) (*Executor, *store.Store) {
	t.Helper()
	db, err := database.Open(t.TempDir() + "/test.sqlite")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	st := store.New(db)
	e := New(st, &fakeAccountSource{}, nil, nil, nil)
	return e, st
}

func TestResolveIDsSplitsHitsAndMisses(t *testing.T) {
	e, st := newTestExecutor(t)
	require.NoError(t, st.UpsertFolder(store.Folder{ID: "acc1:INBOX", AccountID: "acc1", Path: "INBOX", Role: "inbox", CreatedAt: time.Now()}))
	require.NoError(t, st.UpsertMessage(store.Message{ID: "acc1:acc1:INBOX:1", AccountID: "acc1", FolderID: "acc1:INBOX", RemoteUID: 1, Subject: "hi", Date: time.Now()}))

	result := Result{}
	resolved := e.resolveIDs([]string{"acc1:acc1:INBOX:1", "missing-id"}, &result)

	require.Len(t, resolved, 1)
	require.Equal(t, "acc1:acc1:INBOX:1", resolved[0].id)
	require.Len(t, result.Failed, 1)
	require.Equal(t, "missing-id", result.Failed[0].ID)
	require.Equal(t, "Message not found", result.Failed[0].Error)
}

func TestGroupByAccountAndFolderPath(t *testing.T) {
	items := []resolved{
		{id: "a", info: store.MessageActionInfo{AccountID: "acc1", FolderPath: "INBOX"}},
		{id: "b", info: store.MessageActionInfo{AccountID: "acc1", FolderPath: "Archive"}},
		{id: "c", info: store.MessageActionInfo{AccountID: "acc2", FolderPath: "INBOX"}},
	}

	byAccount := groupByAccount(items)
	require.Len(t, byAccount, 2)
	require.Len(t, byAccount["acc1"], 2)
	require.Len(t, byAccount["acc2"], 1)

	byFolder := groupByFolderPath(byAccount["acc1"])
	require.Len(t, byFolder, 2)
	require.Len(t, byFolder["INBOX"], 1)
	require.Len(t, byFolder["Archive"], 1)
}

func TestFindAccount(t *testing.T) {
	src := &fakeAccountSource{accounts: []config.Account{{ID: "acc1"}, {ID: "acc2"}}}

	acc, ok := findAccount(src, "acc2")
	require.True(t, ok)
	require.Equal(t, "acc2", acc.ID)

	_, ok = findAccount(src, "missing")
	require.False(t, ok)
}

func TestStoreOperationFor(t *testing.T) {
	cases := []struct {
		action   FlagAction
		wantOp   imap.StoreFlagsOp
		wantFlag imap.Flag
	}{
		{MarkRead, imap.StoreFlagsAdd, imap.FlagSeen},
		{MarkUnread, imap.StoreFlagsDel, imap.FlagSeen},
		{Flag, imap.StoreFlagsAdd, imap.FlagFlagged},
		{Unflag, imap.StoreFlagsDel, imap.FlagFlagged},
	}
	for _, c := range cases {
		op, flag := storeOperationFor(c.action)
		require.Equal(t, c.wantOp, op)
		require.Equal(t, c.wantFlag, flag)
	}
}

func TestApplyFlagLocallyUpdatesUnreadAndThreadCounts(t *testing.T) {
	e, st := newTestExecutor(t)
	require.NoError(t, st.UpsertFolder(store.Folder{ID: "acc1:INBOX", AccountID: "acc1", Path: "INBOX", Role: "inbox", CreatedAt: time.Now()}))
	require.NoError(t, st.UpsertThread(store.Thread{ID: "thread1", AccountID: "acc1", Subject: "hi", UnreadCount: 1, FirstMessageTimestamp: time.Now(), LastMessageTimestamp: time.Now()}))
	msg := store.Message{ID: "acc1:acc1:INBOX:1", AccountID: "acc1", FolderID: "acc1:INBOX", ThreadID: "thread1", RemoteUID: 1, Subject: "hi", Date: time.Now(), Unread: true}
	require.NoError(t, st.UpsertMessage(msg))

	r := resolved{id: msg.ID, info: store.MessageActionInfo{Unread: true, ThreadID: "thread1"}}
	require.NoError(t, e.applyFlagLocally(MarkRead, r))

	updated, err := st.GetMessageByID(msg.ID)
	require.NoError(t, err)
	require.False(t, updated.Unread)

	thr, err := st.GetThread("thread1")
	require.NoError(t, err)
	require.Equal(t, 0, thr.UnreadCount)
}

func TestParseMessageID(t *testing.T) {
	path, uid, ok := parseMessageID("acc1:acc1:INBOX/Sub:42", "acc1")
	require.True(t, ok)
	require.Equal(t, "INBOX/Sub", path)
	require.Equal(t, uint32(42), uid)

	_, _, ok = parseMessageID("garbage", "acc1")
	require.False(t, ok)
}

func TestPartPathFor(t *testing.T) {
	require.Equal(t, []int{1, 2}, partPathFor("1.2"))
	require.Equal(t, []int{1}, partPathFor("1"))
}
