package syncengine

import (
	"fmt"
	"time"

	"github.com/ravend/ravend/internal/folder"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/store"
)

// DiscoverFolders issues LIST "" "*", upserts every mailbox as a Folder
// row (creating new ones, never deleting stale ones — spec.md §3's
// lifecycle note), and returns the account's current folder set.
func (e *Engine) DiscoverFolders(accountID string, lister IMAPLister) ([]store.Folder, error) {
	log := logging.WithComponent("syncengine")

	paths, err := lister.ListMailboxes()
	if err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}

	for _, path := range paths {
		id := accountID + ":" + path
		role := folder.DetectRole(path)
		if err := e.store.UpsertFolder(store.Folder{
			ID:        id,
			AccountID: accountID,
			Path:      path,
			Role:      role.String(),
			CreatedAt: time.Now(),
		}); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to upsert folder")
		}
	}

	return e.store.ListFoldersByAccount(accountID)
}
