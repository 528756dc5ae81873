package action

import (
	"github.com/ravend/ravend/internal/imapconn"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/store"
)

// Notifier is the subset of the notifier collaborator the executor drives.
type Notifier interface {
	NotifyTableChanged(table string)
	NotifyMessageChanged(ids []string)
}

// Executor is the Action Executor (C7).
type Executor struct {
	store     *store.Store
	accounts  AccountSource
	secrets   imapconn.SecretStore
	refresher imapconn.Refresher
	notifier  Notifier
}

// New builds an Executor. notifier may be nil (no-op).
func New(st *store.Store, accounts AccountSource, secrets imapconn.SecretStore, refresher imapconn.Refresher, notifier Notifier) *Executor {
	return &Executor{store: st, accounts: accounts, secrets: secrets, refresher: refresher, notifier: notifier}
}

// SetNotifier swaps the notifier collaborator. Used at startup when the
// notifier (the D-Bus service) is constructed after the executor itself,
// since the service in turn depends on the executor.
func (e *Executor) SetNotifier(notifier Notifier) {
	e.notifier = notifier
}

// resolved pairs a requested message id with its Store join row; ids that
// don't resolve are recorded as failures directly in the result.
type resolved struct {
	id   string
	info store.MessageActionInfo
}

// resolveIDs joins every id against the Store, splitting hits from
// unresolvable ids (spec.md §4.7, §7 "Message not found").
func (e *Executor) resolveIDs(ids []string, result *Result) []resolved {
	log := logging.WithComponent("action")
	var out []resolved
	for _, id := range ids {
		info, err := e.store.ResolveMessageActionInfo(id)
		if err != nil {
			log.Warn().Err(err).Str("id", id).Msg("failed to resolve message action info")
			result.addFailure(id, "Database lock failed: "+err.Error())
			continue
		}
		if info == nil {
			result.addFailure(id, "Message not found")
			continue
		}
		out = append(out, resolved{id: id, info: *info})
	}
	return out
}

func groupByAccount(items []resolved) map[string][]resolved {
	groups := make(map[string][]resolved)
	for _, r := range items {
		groups[r.info.AccountID] = append(groups[r.info.AccountID], r)
	}
	return groups
}

func groupByFolderPath(items []resolved) map[string][]resolved {
	groups := make(map[string][]resolved)
	for _, r := range items {
		groups[r.info.FolderPath] = append(groups[r.info.FolderPath], r)
	}
	return groups
}

func (e *Executor) notifyChanged(ids []string) {
	if e.notifier == nil || len(ids) == 0 {
		return
	}
	e.notifier.NotifyMessageChanged(ids)
	e.notifier.NotifyTableChanged("message")
}
