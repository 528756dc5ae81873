package worker

import (
	"fmt"
	"time"

	"github.com/ravend/ravend/internal/imapconn"
	"github.com/ravend/ravend/internal/store"
	"github.com/rs/zerolog"
)

// idleChunk bounds each individual IDLE wait (spec.md §4.6).
const idleChunk = 60 * time.Second

// idleMaxCumulative forces a reconnect after this much accumulated IDLE
// time, matching the original daemon's IDLE_TIMEOUT_SECS (25 minutes).
const idleMaxCumulative = 25 * time.Minute

// idleWait selects inbox and blocks in repeated 60s IDLE commands until
// one of: shutdown is signaled, a manual sync is triggered, the mailbox
// reports a change (fed by the connection's unilateral data handler into
// w.changed), an IDLE error occurs, or 25 minutes of cumulative IDLE time
// has elapsed. Any of these returns so the outer cycle loop can reconnect
// and resync.
func (w *Worker) idleWait(sess *imapconn.Session, inbox store.Folder, log *zerolog.Logger) error {
	if _, err := sess.Client.Select(inbox.Path, nil).Wait(); err != nil {
		return fmt.Errorf("selecting inbox for idle: %w", err)
	}

	var elapsed time.Duration

	for {
		select {
		case <-w.handle.Shutdown:
			return nil
		case <-w.handle.SyncTrigger:
			return nil
		default:
		}

		idleCmd, err := sess.Client.Idle()
		if err != nil {
			return fmt.Errorf("starting idle: %w", err)
		}

		timer := time.NewTimer(idleChunk)
		var outcome string
		select {
		case <-w.handle.Shutdown:
			outcome = "shutdown"
		case <-w.handle.SyncTrigger:
			outcome = "trigger"
		case <-w.changed:
			outcome = "changed"
		case <-timer.C:
			outcome = "timeout"
		}
		timer.Stop()

		if err := idleCmd.Close(); err != nil {
			return fmt.Errorf("idle failed: %w", err)
		}

		switch outcome {
		case "shutdown", "trigger", "changed":
			return nil
		case "timeout":
			elapsed += idleChunk
			if elapsed >= idleMaxCumulative {
				log.Debug().Msg("idle cumulative timeout reached, reconnecting")
				return nil
			}
		}
	}
}

// pollWait sleeps in 1s increments up to PollInterval, returning early if
// shutdown or a manual sync is signaled (spec.md §4.6).
func (w *Worker) pollWait() {
	ticks := int(PollInterval / time.Second)
	for i := 0; i < ticks; i++ {
		select {
		case <-w.handle.Shutdown:
			return
		case <-w.handle.SyncTrigger:
			return
		case <-time.After(time.Second):
		}
	}
}
