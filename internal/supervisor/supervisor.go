// Package supervisor is the worker fleet manager (C8): it owns one
// worker.Worker per configured account, diffs the account set on reload to
// start and stop workers, and routes on-demand sync requests to one worker
// or fans them out to all of them.
package supervisor

import (
	"sync"

	"github.com/ravend/ravend/internal/config"
	"github.com/ravend/ravend/internal/imapconn"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/store"
	"github.com/ravend/ravend/internal/syncengine"
	"github.com/ravend/ravend/internal/worker"
)

// AccountSource is the reload collaborator: an atomic snapshot reload plus
// a read of the current snapshot.
type AccountSource interface {
	Reload() ([]config.Account, error)
	Accounts() []config.Account
}

type fleetEntry struct {
	account config.Account
	handle  worker.Handle
}

// Supervisor owns the account-keyed worker fleet.
type Supervisor struct {
	accounts  AccountSource
	store     *store.Store
	engine    *syncengine.Engine
	secrets   imapconn.SecretStore
	refresher imapconn.Refresher

	mu      sync.Mutex
	workers map[string]fleetEntry
}

// New builds a Supervisor with no workers running; call ReloadAccounts to
// start the initial fleet.
func New(accounts AccountSource, st *store.Store, engine *syncengine.Engine, secrets imapconn.SecretStore, refresher imapconn.Refresher) *Supervisor {
	return &Supervisor{
		accounts:  accounts,
		store:     st,
		engine:    engine,
		secrets:   secrets,
		refresher: refresher,
		workers:   make(map[string]fleetEntry),
	}
}

// ReloadAccounts re-reads the account source and starts/stops workers so the
// fleet matches the new account set. A reload failure leaves the existing
// fleet untouched.
func (s *Supervisor) ReloadAccounts() error {
	log := logging.WithComponent("supervisor")

	accounts, err := s.accounts.Reload()
	if err != nil {
		log.Error().Err(err).Msg("failed to load accounts")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]config.Account, len(accounts))
	for _, acc := range accounts {
		current[acc.ID] = acc
	}

	for id, acc := range current {
		if _, exists := s.workers[id]; !exists {
			log.Info().Str("account", acc.Email).Msg("starting sync worker")
			s.startLocked(acc)
		}
	}

	for id, entry := range s.workers {
		if _, stillConfigured := current[id]; !stillConfigured {
			log.Info().Str("account", entry.account.Email).Msg("stopping sync worker")
			close(entry.handle.Shutdown)
			delete(s.workers, id)
		}
	}

	if len(s.workers) == 0 {
		log.Info().Msg("no accounts configured")
	}
	return nil
}

func (s *Supervisor) startLocked(acc config.Account) {
	handle := worker.NewHandle()
	w := worker.New(acc, s.store, s.engine, s.secrets, s.refresher, handle)
	s.workers[acc.ID] = fleetEntry{account: acc, handle: handle}
	go w.Run()
}

// TriggerSync requests an immediate sync. An empty accountID fans the
// request out to every running worker; a specific id routes to one worker
// and is logged and dropped if no such worker is running.
func (s *Supervisor) TriggerSync(accountID string) {
	log := logging.WithComponent("supervisor")

	s.mu.Lock()
	defer s.mu.Unlock()

	if accountID == "" {
		for _, entry := range s.workers {
			signal(entry.handle.SyncTrigger)
		}
		return
	}

	entry, ok := s.workers[accountID]
	if !ok {
		log.Warn().Str("accountId", accountID).Msg("account not found")
		return
	}
	signal(entry.handle.SyncTrigger)
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Shutdown signals every running worker to stop. It does not wait for them
// to exit; callers that need that should give workers a grace period before
// the process exits.
func (s *Supervisor) Shutdown() {
	log := logging.WithComponent("supervisor")
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info().Int("count", len(s.workers)).Msg("shutting down workers")
	for _, entry := range s.workers {
		close(entry.handle.Shutdown)
	}
	s.workers = make(map[string]fleetEntry)
}

// AccountCount reports how many workers are currently running, for tests
// and diagnostics.
func (s *Supervisor) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}
