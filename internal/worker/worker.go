// Package worker is the Account Worker (C6): one long-lived goroutine per
// account running the connect -> discover -> sync -> idle/poll -> logout
// cycle in a loop until shut down.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/ravend/ravend/internal/config"
	"github.com/ravend/ravend/internal/imapconn"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/store"
	"github.com/ravend/ravend/internal/syncengine"
	"github.com/rs/zerolog"
)

// PollInterval is the fallback poll period when a server has no IDLE
// support (spec.md §4.6; matches the original daemon's POLL_INTERVAL_SECS).
const PollInterval = 300 * time.Second

// retryDelay is how long the worker waits after a failed cycle before
// trying again.
const retryDelay = 60 * time.Second

// Handle lets the supervisor control a running worker.
type Handle struct {
	Shutdown    chan struct{}
	SyncTrigger chan struct{}
}

// NewHandle allocates a Handle: Shutdown is unbuffered (it is closed to
// stop the worker) and SyncTrigger holds one pending request.
func NewHandle() Handle {
	return Handle{
		Shutdown:    make(chan struct{}),
		SyncTrigger: make(chan struct{}, 1),
	}
}

// TokenState is the worker's in-memory view of an OAuth2 access token. It
// is never persisted except through the secret-store collaborator.
type TokenState struct {
	AccessToken string
	Expiry      int64 // unix seconds, 0 if unknown
}

// Worker drives the sync cycle for a single account.
type Worker struct {
	account   config.Account
	store     *store.Store
	engine    *syncengine.Engine
	secrets   imapconn.SecretStore
	refresher imapconn.Refresher
	handle    Handle

	token    TokenState
	password string // AuthPlain only; read once from the secret store and cached in memory

	changed chan struct{} // fed by the IDLE unilateral data handler

	now func() time.Time
}

// New builds a Worker for one account. refresher may be nil for accounts
// that do not use OAuth2; secrets is needed by both password and OAuth2
// accounts.
func New(acc config.Account, st *store.Store, engine *syncengine.Engine, secrets imapconn.SecretStore, refresher imapconn.Refresher, handle Handle) *Worker {
	return &Worker{
		account:   acc,
		store:     st,
		engine:    engine,
		secrets:   secrets,
		refresher: refresher,
		handle:    handle,
		changed:   make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Run executes the cycle loop until Shutdown is closed. It recovers from
// any panic inside a single cycle, logs it, and continues with the next
// cycle rather than letting one bad message take the whole process down.
func (w *Worker) Run() {
	log := logging.WithComponent("worker").With().Str("account", w.account.Email).Logger()
	setWorkerPriority(log)

	for {
		select {
		case <-w.handle.Shutdown:
			log.Info().Msg("worker shutting down")
			return
		default:
		}

		if err := w.runCycleGuarded(&log); err != nil {
			log.Error().Err(err).Msg("sync cycle failed")
			if !w.sleepInterruptible(retryDelay) {
				return
			}
			continue
		}

		log.Debug().Msg("sync cycle completed")
	}
}

// runCycleGuarded wraps runCycle with panic recovery, mirroring the
// original daemon's worker-thread panic hook: a panic is logged with the
// account identity and converted into an ordinary error so the outer loop
// can apply the same 60s retry backoff as any other cycle failure.
func (w *Worker) runCycleGuarded(log *zerolog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("worker cycle panicked")
			err = fmt.Errorf("worker cycle panicked: %v", r)
		}
	}()
	return w.runCycle(log)
}

// runCycle implements spec.md §4.6's exact cycle: optional token refresh,
// connect, discover folders, sync INBOX first then the rest, then
// idle-or-poll, then logout. Every folder is synced the same way; no
// INBOX-specific new-mail notification is produced.
func (w *Worker) runCycle(log *zerolog.Logger) error {
	nowUnix := w.now().Unix()

	if w.account.UsesOAuth2() && w.needsTokenRefresh(nowUnix) {
		if err := w.refreshToken(); err != nil {
			return fmt.Errorf("refreshing access token: %w", err)
		}
	}
	if w.account.AuthType == config.AuthPlain && w.password == "" {
		if err := w.loadPassword(); err != nil {
			return fmt.Errorf("loading password: %w", err)
		}
	}

	handler := &imapclient.UnilateralDataHandler{
		Mailbox: func(data *imapclient.UnilateralDataMailbox) {
			if data.NumMessages != nil {
				w.signalChanged()
			}
		},
		Expunge: func(seqNum uint32) {
			w.signalChanged()
		},
	}

	sess, err := imapconn.ConnectForIdle(context.Background(), w.account, w.password, w.token.AccessToken, handler)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer sess.Logout()

	folders, err := w.engine.DiscoverFolders(w.account.ID, syncengine.NewLister(sess.Client))
	if err != nil {
		return fmt.Errorf("discovering folders: %w", err)
	}

	var inbox *store.Folder
	var rest []store.Folder
	for i := range folders {
		if folders[i].Role == "inbox" {
			inbox = &folders[i]
		} else {
			rest = append(rest, folders[i])
		}
	}

	if inbox != nil {
		if err := w.engine.SyncFolder(w.account.ID, *inbox, syncengine.NewAdapter(sess.Client)); err != nil {
			log.Warn().Err(err).Str("folder", inbox.Path).Msg("failed to sync inbox")
		}
	}
	for _, f := range rest {
		if err := w.engine.SyncFolder(w.account.ID, f, syncengine.NewAdapter(sess.Client)); err != nil {
			log.Warn().Err(err).Str("folder", f.Path).Msg("failed to sync folder")
		}
	}

	if sess.SupportsIDLE() && inbox != nil {
		return w.idleWait(sess, *inbox, log)
	}
	w.pollWait()
	return nil
}

// needsTokenRefresh mirrors config.Account.NeedsTokenRefresh but against
// the worker's own in-memory token state rather than the static account
// snapshot, since the worker refreshes its token many times over its life
// without a config reload.
func (w *Worker) needsTokenRefresh(nowUnix int64) bool {
	if w.token.AccessToken == "" {
		return true
	}
	if w.token.Expiry == 0 {
		return true
	}
	return w.token.Expiry-nowUnix < 300
}

// refreshToken fetches a new access token via the refresher collaborator
// and persists it through the secret store, per spec.md §4.6.
func (w *Worker) refreshToken() error {
	if w.refresher == nil || w.secrets == nil {
		return fmt.Errorf("no token refresher configured for oauth2 account %s", w.account.ID)
	}
	refreshToken, err := w.secrets.Read(w.account.ID + "-oauthRefreshToken")
	if err != nil {
		return fmt.Errorf("reading refresh token: %w", err)
	}
	result, err := w.refresher.Refresh(w.account.OAuth2ProviderID, refreshToken)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}
	w.token.AccessToken = result.AccessToken
	if result.ExpiresIn > 0 {
		w.token.Expiry = w.now().Unix() + result.ExpiresIn
	} else {
		w.token.Expiry = 0
	}
	if err := w.secrets.Write(w.account.ID+"-oauthAccessToken", result.AccessToken); err != nil {
		return fmt.Errorf("persisting access token: %w", err)
	}
	return nil
}

// loadPassword reads the IMAP password once via the secret-store
// collaborator and caches it in memory for the life of the worker.
func (w *Worker) loadPassword() error {
	if w.secrets == nil {
		return fmt.Errorf("no secret store configured for account %s", w.account.ID)
	}
	password, err := w.secrets.Read(w.account.ID + "-imapPassword")
	if err != nil {
		return err
	}
	w.password = password
	return nil
}

// signalChanged feeds the idle loop's changed channel from the unilateral
// data handler without blocking if a signal is already pending.
func (w *Worker) signalChanged() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

// sleepInterruptible sleeps for d, checking Shutdown every second so a
// shutdown request during the retry backoff is honored promptly. Returns
// false if shutdown was signaled.
func (w *Worker) sleepInterruptible(d time.Duration) bool {
	ticks := int(d / time.Second)
	for i := 0; i < ticks; i++ {
		select {
		case <-w.handle.Shutdown:
			return false
		case <-time.After(time.Second):
		}
	}
	return true
}
