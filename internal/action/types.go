// Package action is the Action Executor (C7): flag changes, move-to-trash,
// and on-demand attachment fetch, each resolving message ids through the
// Store, grouping by account/folder, and issuing one short-lived IMAP
// session per account.
package action

import (
	"github.com/ravend/ravend/internal/config"
)

// FlagAction is one of the four supported flag mutations (spec.md §4.7).
type FlagAction int

const (
	MarkRead FlagAction = iota
	MarkUnread
	Flag
	Unflag
)

// Failure is a per-id failure reason returned alongside any successes.
type Failure struct {
	ID    string
	Error string
}

// Result is the JSON-serialized shape returned to the bus surface.
type Result struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

func (r *Result) addSuccess(id string) {
	r.Succeeded = append(r.Succeeded, id)
}

func (r *Result) addFailure(id, reason string) {
	r.Failed = append(r.Failed, Failure{ID: id, Error: reason})
}

// AccountSource looks accounts up by id for the executor.
type AccountSource interface {
	Accounts() []config.Account
}

func findAccount(src AccountSource, accountID string) (config.Account, bool) {
	for _, a := range src.Accounts() {
		if a.ID == accountID {
			return a, true
		}
	}
	return config.Account{}, false
}
