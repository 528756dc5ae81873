package supervisor

import (
	"errors"
	"testing"

	"github.com/ravend/ravend/internal/config"
	"github.com/ravend/ravend/internal/database"
	"github.com/ravend/ravend/internal/store"
	"github.com/ravend/ravend/internal/syncengine"
	"github.com/ravend/ravend/internal/thread"
	"github.com/stretchr/testify/require"
)

// fakeAccountSource lets tests control exactly what ReloadAccounts sees
// without touching disk. Every account points at a connection that fails
// immediately, so spawned workers retry in the background without ever
// succeeding; tests only assert on fleet bookkeeping.
type fakeAccountSource struct {
	accounts []config.Account
	err      error
}

func (f *fakeAccountSource) Reload() ([]config.Account, error) { return f.accounts, f.err }
func (f *fakeAccountSource) Accounts() []config.Account        { return f.accounts }

func unreachableAccount(id string) config.Account {
	return config.Account{ID: id, Email: id + "@example.com", IMAPHost: "127.0.0.1", IMAPPort: 1, ConnectionType: config.ConnectionSSL, AuthType: config.AuthPlain}
}

func newTestSupervisor(t *testing.T, src AccountSource) *Supervisor {
	t.Helper()
	db, err := database.Open(t.TempDir() + "/test.sqlite")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	st := store.New(db)
	engine := syncengine.New(st, thread.New(st), t.TempDir(), nil)
	s := New(src, st, engine, nil, nil)
	t.Cleanup(s.Shutdown)
	return s
}

func TestReloadAccountsStartsWorkersForNewAccounts(t *testing.T) {
	src := &fakeAccountSource{accounts: []config.Account{unreachableAccount("acc1"), unreachableAccount("acc2")}}
	s := newTestSupervisor(t, src)

	require.NoError(t, s.ReloadAccounts())
	require.Equal(t, 2, s.AccountCount())
}

func TestReloadAccountsStopsRemovedWorkers(t *testing.T) {
	src := &fakeAccountSource{accounts: []config.Account{unreachableAccount("acc1"), unreachableAccount("acc2")}}
	s := newTestSupervisor(t, src)
	require.NoError(t, s.ReloadAccounts())
	require.Equal(t, 2, s.AccountCount())

	src.accounts = []config.Account{unreachableAccount("acc1")}
	require.NoError(t, s.ReloadAccounts())
	require.Equal(t, 1, s.AccountCount())
}

func TestReloadAccountsIsIdempotentForUnchangedSet(t *testing.T) {
	src := &fakeAccountSource{accounts: []config.Account{unreachableAccount("acc1")}}
	s := newTestSupervisor(t, src)
	require.NoError(t, s.ReloadAccounts())
	require.NoError(t, s.ReloadAccounts())
	require.Equal(t, 1, s.AccountCount())
}

func TestReloadAccountsLeavesFleetOnError(t *testing.T) {
	src := &fakeAccountSource{accounts: []config.Account{unreachableAccount("acc1")}}
	s := newTestSupervisor(t, src)
	require.NoError(t, s.ReloadAccounts())

	src.err = errors.New("reload failed")
	require.Error(t, s.ReloadAccounts())
	require.Equal(t, 1, s.AccountCount())
}

func TestTriggerSyncUnknownAccountIsANoop(t *testing.T) {
	src := &fakeAccountSource{accounts: []config.Account{unreachableAccount("acc1")}}
	s := newTestSupervisor(t, src)
	require.NoError(t, s.ReloadAccounts())

	s.TriggerSync("does-not-exist")
}

func TestTriggerSyncFansOutToAllWorkers(t *testing.T) {
	src := &fakeAccountSource{accounts: []config.Account{unreachableAccount("acc1"), unreachableAccount("acc2")}}
	s := newTestSupervisor(t, src)
	require.NoError(t, s.ReloadAccounts())

	s.TriggerSync("")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.workers {
		select {
		case <-entry.handle.SyncTrigger:
		default:
			t.Fatalf("expected sync trigger to be queued for %s", entry.account.ID)
		}
	}
}

func TestShutdownClearsFleet(t *testing.T) {
	src := &fakeAccountSource{accounts: []config.Account{unreachableAccount("acc1")}}
	s := newTestSupervisor(t, src)
	require.NoError(t, s.ReloadAccounts())
	require.Equal(t, 1, s.AccountCount())

	s.Shutdown()
	require.Equal(t, 0, s.AccountCount())
}
