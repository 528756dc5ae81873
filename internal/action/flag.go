package action

import (
	"github.com/emersion/go-imap/v2"
	"github.com/ravend/ravend/internal/imapconn"
	"github.com/ravend/ravend/internal/logging"
)

// PerformFlagAction implements spec.md §4.7's flag mutation: resolve,
// group by account then folder, STORE per folder, update the Store on
// success, and signal if anything changed.
func (e *Executor) PerformFlagAction(action FlagAction, ids []string) Result {
	log := logging.WithComponent("action")
	result := Result{}

	items := e.resolveIDs(ids, &result)
	if len(items) == 0 {
		return result
	}

	var changed []string

	for accountID, accountItems := range groupByAccount(items) {
		acc, ok := findAccount(e.accounts, accountID)
		if !ok {
			for _, r := range accountItems {
				result.addFailure(r.id, "Account not found")
			}
			continue
		}

		sess, err := imapconn.ConnectWithSecrets(acc, e.secrets, e.refresher)
		if err != nil {
			for _, r := range accountItems {
				result.addFailure(r.id, "IMAP STORE failed: "+err.Error())
			}
			continue
		}

		for folderPath, folderItems := range groupByFolderPath(accountItems) {
			if _, err := sess.Client.Select(folderPath, nil).Wait(); err != nil {
				for _, r := range folderItems {
					result.addFailure(r.id, "Failed to select folder: "+err.Error())
				}
				continue
			}

			uidSet := imap.UIDSet{}
			for _, r := range folderItems {
				uidSet.AddNum(imap.UID(r.info.UID))
			}

			op, flag := storeOperationFor(action)
			storeFlags := &imap.StoreFlags{Op: op, Flags: []imap.Flag{flag}, Silent: true}
			if err := sess.Client.Store(uidSet, storeFlags, nil).Close(); err != nil {
				for _, r := range folderItems {
					result.addFailure(r.id, "IMAP STORE failed: "+err.Error())
				}
				continue
			}

			for _, r := range folderItems {
				if err := e.applyFlagLocally(action, r); err != nil {
					log.Warn().Err(err).Str("id", r.id).Msg("failed to update store after successful STORE")
					result.addFailure(r.id, "Database update failed: "+err.Error())
					continue
				}
				result.addSuccess(r.id)
				changed = append(changed, r.id)
			}
		}

		sess.Logout()
	}

	e.notifyChanged(changed)
	return result
}

func storeOperationFor(action FlagAction) (imap.StoreFlagsOp, imap.Flag) {
	switch action {
	case MarkRead:
		return imap.StoreFlagsAdd, imap.FlagSeen
	case MarkUnread:
		return imap.StoreFlagsDel, imap.FlagSeen
	case Flag:
		return imap.StoreFlagsAdd, imap.FlagFlagged
	case Unflag:
		return imap.StoreFlagsDel, imap.FlagFlagged
	default:
		return imap.StoreFlagsAdd, imap.FlagSeen
	}
}

// applyFlagLocally mirrors the STORE onto the Store row and adjusts the
// owning thread's aggregate counts, clamped at zero (clamping lives in
// Store.AdjustThreadCounts itself).
func (e *Executor) applyFlagLocally(action FlagAction, r resolved) error {
	unread, starred := r.info.Unread, r.info.Starred
	unreadDelta, starredDelta := 0, 0

	switch action {
	case MarkRead:
		if unread {
			unreadDelta = -1
		}
		unread = false
	case MarkUnread:
		if !unread {
			unreadDelta = 1
		}
		unread = true
	case Flag:
		if !starred {
			starredDelta = 1
		}
		starred = true
	case Unflag:
		if starred {
			starredDelta = -1
		}
		starred = false
	}

	msg, err := e.store.GetMessageByID(r.id)
	if err != nil {
		return err
	}
	draft := false
	if msg != nil {
		draft = msg.Draft
	}
	if err := e.store.SetMessageFlags(r.id, unread, starred, draft); err != nil {
		return err
	}
	if r.info.ThreadID != "" && (unreadDelta != 0 || starredDelta != 0) {
		if err := e.store.AdjustThreadCounts(r.info.ThreadID, unreadDelta, starredDelta); err != nil {
			return err
		}
	}
	return nil
}
