package action

import (
	"github.com/emersion/go-imap/v2"
	"github.com/ravend/ravend/internal/imapconn"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/store"
)

// MoveToTrash implements spec.md §4.7's move-to-trash intent: resolve,
// cache the trash folder per account, treat already-trashed messages as
// immediate successes, and move everything else via MOVE (or
// COPY+STORE+EXPUNGE when the server lacks MOVE).
func (e *Executor) MoveToTrash(ids []string) Result {
	log := logging.WithComponent("action")
	result := Result{}

	items := e.resolveIDs(ids, &result)
	if len(items) == 0 {
		return result
	}

	var changed []string
	trashCache := make(map[string]*store.Folder)

	for accountID, accountItems := range groupByAccount(items) {
		acc, ok := findAccount(e.accounts, accountID)
		if !ok {
			for _, r := range accountItems {
				result.addFailure(r.id, "Account not found")
			}
			continue
		}

		trash, cached := trashCache[accountID]
		if !cached {
			t, err := e.store.GetTrashFolderForAccount(accountID)
			if err != nil {
				log.Warn().Err(err).Str("accountId", accountID).Msg("failed to look up trash folder")
			}
			trash = t
			trashCache[accountID] = trash
		}
		if trash == nil {
			for _, r := range accountItems {
				result.addFailure(r.id, "Trash folder not found")
			}
			continue
		}

		var toMove []resolved
		for _, r := range accountItems {
			if r.info.FolderID == trash.ID {
				result.addSuccess(r.id)
				continue
			}
			toMove = append(toMove, r)
		}
		if len(toMove) == 0 {
			continue
		}

		sess, err := imapconn.ConnectWithSecrets(acc, e.secrets, e.refresher)
		if err != nil {
			for _, r := range toMove {
				result.addFailure(r.id, "IMAP move failed: "+err.Error())
			}
			continue
		}

		supportsMove := sess.SupportsMove()

		for folderPath, folderItems := range groupByFolderPath(toMove) {
			if _, err := sess.Client.Select(folderPath, nil).Wait(); err != nil {
				for _, r := range folderItems {
					result.addFailure(r.id, "Failed to select folder: "+err.Error())
				}
				continue
			}

			for _, r := range folderItems {
				uidSet := imap.UIDSet{}
				uidSet.AddNum(imap.UID(r.info.UID))

				var moveErr error
				if supportsMove {
					_, moveErr = sess.Client.Move(uidSet, trash.Path).Wait()
				} else {
					moveErr = moveViaFallback(sess, uidSet, trash.Path)
				}
				if moveErr != nil {
					result.addFailure(r.id, "IMAP move failed: "+moveErr.Error())
					continue
				}

				if err := e.store.DeleteMessageRow(r.id); err != nil {
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

// moveViaFallback implements spec.md §4.7's non-MOVE path: COPY, mark
// \Deleted, then EXPUNGE.
func moveViaFallback(sess *imapconn.Session, uidSet imap.UIDSet, trashPath string) error {
	if err := sess.Client.Copy(uidSet, trashPath).Wait(); err != nil {
		return err
	}
	storeFlags := &imap.StoreFlags{Op: imap.StoreFlagsAdd, Flags: []imap.Flag{imap.FlagDeleted}, Silent: true}
	if err := sess.Client.Store(uidSet, storeFlags, nil).Close(); err != nil {
		return err
	}
	if sess.Capabilities.Has(imap.CapUIDPlus) {
		return sess.Client.UIDExpunge(uidSet).Close()
	}
	return sess.Client.Expunge().Close()
}
