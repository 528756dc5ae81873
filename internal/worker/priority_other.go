//go:build !linux

package worker

import "github.com/rs/zerolog"

// setWorkerPriority is a no-op outside Linux; nice(2)/setpriority semantics
// vary enough across BSD/Darwin that the original daemon's own nice(10)
// call is itself POSIX-best-effort, and this module only targets Linux
// deployment (the D-Bus surface already implies it).
func setWorkerPriority(log zerolog.Logger) {}
