//go:build linux

package worker

import (
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// workerNiceValue matches the original daemon's WORKER_NICE_VALUE.
const workerNiceValue = 10

// setWorkerPriority lowers the calling OS thread's scheduling priority.
// Run must call this from the goroutine that will execute the whole cycle
// loop; LockOSThread pins it to one kernel thread so the niceness applies
// to this worker alone and not the process as a whole. Failure is logged
// at debug level and otherwise ignored.
func setWorkerPriority(log zerolog.Logger) {
	runtime.LockOSThread()
	if err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), workerNiceValue); err != nil {
		log.Debug().Err(err).Msg("failed to set nice value")
	}
}
