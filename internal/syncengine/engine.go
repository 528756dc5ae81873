package syncengine

import (
	"fmt"

	"github.com/ravend/ravend/internal/folder"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/store"
	"github.com/ravend/ravend/internal/thread"
)

// Engine is the Folder Sync State Machine (C4).
type Engine struct {
	store    *store.Store
	threader *thread.Resolver
	filesDir string
	notifier Notifier
}

// New builds an Engine. notifier may be nil (no-op).
func New(st *store.Store, threader *thread.Resolver, filesDir string, notifier Notifier) *Engine {
	return &Engine{store: st, threader: threader, filesDir: filesDir, notifier: notifier}
}

// SetNotifier swaps the notifier collaborator. Used at startup when the
// notifier (the D-Bus service) is constructed after the engine itself,
// since it in turn depends on the engine's sibling, the action executor.
func (e *Engine) SetNotifier(notifier Notifier) {
	e.notifier = notifier
}

type processResult int

const (
	resultUnchanged processResult = iota
	resultFlagsUpdated
	resultNew
)

// SyncFolder runs one full pass of spec.md §4.4 against a single folder.
func (e *Engine) SyncFolder(accountID string, f store.Folder, sess IMAPFolder) error {
	log := logging.WithComponent("syncengine")

	serverState, err := sess.Select(f.Path)
	if err != nil {
		return fmt.Errorf("failed to select folder %s: %w", f.Path, err)
	}

	mode := DecideMode(f.UIDValidity, serverState.UIDValidity, f.UIDNext)
	if mode == ModeFull && f.UIDValidity != nil && serverState.UIDValidity != nil && *f.UIDValidity != *serverState.UIDValidity {
		if err := e.store.ClearFolderMessages(f.ID); err != nil {
			return fmt.Errorf("clearing folder %s for UIDVALIDITY reset: %w", f.Path, err)
		}
	}

	var newCount, flagUpdateCount int
	var changedIDs []string

	if serverState.Exists > 0 {
		var fetched []FetchedMessage
		switch mode {
		case ModeFull:
			fetched, err = sess.FetchFull(FullFetchStart(serverState.Exists))
		default:
			storedNext := uint32(0)
			if f.UIDNext != nil {
				storedNext = uint32(*f.UIDNext)
			}
			fetched, err = sess.FetchIncremental(storedNext)
			if err == nil {
				filtered := fetched[:0]
				for _, m := range fetched {
					if FilterIncrementalUID(m.UID, storedNext) {
						filtered = append(filtered, m)
					}
				}
				fetched = filtered
			}
		}
		if err != nil {
			return fmt.Errorf("fetch failed for folder %s: %w", f.Path, err)
		}

		for _, fm := range fetched {
			result, id, err := e.processMessage(accountID, f, fm)
			if err != nil {
				log.Warn().Err(err).Str("folder", f.Path).Uint32("uid", fm.UID).Msg("failed to process message")
				continue
			}
			switch result {
			case resultNew:
				newCount++
				changedIDs = append(changedIDs, id)
			case resultFlagsUpdated:
				flagUpdateCount++
				changedIDs = append(changedIDs, id)
			}
		}
	}

	deletedCount, err := e.reconcileDeletions(f, sess)
	if err != nil {
		log.Warn().Err(err).Str("folder", f.Path).Msg("deletion reconciliation failed")
	}

	if err := e.store.UpdateFolderSyncState(f.ID, serverState.UIDValidity, serverState.UIDNext); err != nil {
		return fmt.Errorf("persisting sync cursor for folder %s: %w", f.Path, err)
	}

	if total := newCount + deletedCount + flagUpdateCount; total > 0 && e.notifier != nil {
		e.notifier.NotifyMessageChanged(changedIDs)
		e.notifier.NotifyTableChanged("message")
	}

	return nil
}

// reconcileDeletions implements spec.md §4.4 step 7: UID SEARCH ALL gives
// the server set S; anything in the local set L but not S is removed.
func (e *Engine) reconcileDeletions(f store.Folder, sess IMAPFolder) (int, error) {
	serverUIDs, err := sess.SearchAllUIDs()
	if err != nil {
		return 0, fmt.Errorf("UID SEARCH ALL failed: %w", err)
	}
	serverSet := make(map[uint32]struct{}, len(serverUIDs))
	for _, u := range serverUIDs {
		serverSet[u] = struct{}{}
	}

	localUIDs, err := e.store.ListLocalUIDs(f.ID)
	if err != nil {
		return 0, err
	}

	var deleted int
	for _, uid := range localUIDs {
		if _, ok := serverSet[uid]; ok {
			continue
		}
		if err := e.store.DeleteMessageByUID(f.AccountID, f.ID, uid); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// isInboxPath reports whether a folder path is INBOX, case-insensitively.
func isInboxPath(path string) bool {
	return folder.DetectRole(path) == folder.TypeInbox
}
