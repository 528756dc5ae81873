// Package syncengine is the Folder Sync State Machine (C4): per folder, it
// decides full-vs-incremental, applies the UIDVALIDITY-change reset,
// fetches new/changed messages, reconciles deletions, and persists sync
// cursors.
package syncengine

// MaxBatch bounds a Full-mode fetch to the most recent MaxBatch messages.
const MaxBatch = 100

// Mode selects how a folder's messages are fetched this pass.
type Mode int

const (
	ModeIncremental Mode = iota
	ModeFull
)

// DecideMode implements spec.md §4.4 step 3. A UIDVALIDITY mismatch forces
// Full (and the caller must clear the folder first); an absent stored
// uid_next also forces Full (first sync); otherwise Incremental.
func DecideMode(storedUIDValidity, serverUIDValidity, storedUIDNext *int64) Mode {
	if storedUIDValidity != nil && serverUIDValidity != nil && *storedUIDValidity != *serverUIDValidity {
		return ModeFull
	}
	if storedUIDNext == nil {
		return ModeFull
	}
	return ModeIncremental
}

// FullFetchStart computes the start sequence number for a Full fetch:
// max(1, exists - MaxBatch + 1) (spec.md §4.4 step 5).
func FullFetchStart(exists uint32) uint32 {
	if exists <= MaxBatch {
		return 1
	}
	return exists - MaxBatch + 1
}

// FilterIncrementalUID reports whether a UID returned by an incremental
// fetch should be kept: the ":*" range can include the last existing
// message when its start exceeds UIDNEXT, so anything below the stored
// uid_next is dropped unconditionally (spec.md §4.4 step 5, §9).
func FilterIncrementalUID(uid, storedUIDNext uint32) bool {
	return uid >= storedUIDNext
}
