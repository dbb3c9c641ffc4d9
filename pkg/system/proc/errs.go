package proc

import (
	"errors"
	"fmt"
)

var (
	// ErrNoExeLink indicates that /proc/<pid>/exe could not be resolved
	// (pid gone, kernel thread, or insufficient permissions).
	ErrNoExeLink = errors.New("proc: no exe link")

	// ErrNoStatusName indicates that /proc/<pid>/status lacked a Name field.
	ErrNoStatusName = errors.New("proc: status has no Name field")

	// ErrNoStatusParent indicates that /proc/<pid>/status lacked a PPid field.
	ErrNoStatusParent = errors.New("proc: status has no PPid field")

	// ErrNoCmdline indicates that /proc/<pid>/cmdline was absent or empty.
	ErrNoCmdline = errors.New("proc: missing or empty cmdline")

	// ErrBadStatm indicates that /proc/<pid>/statm did not parse as the
	// expected whitespace-separated page counts.
	ErrBadStatm = errors.New("proc: malformed statm")

	// ErrNoMemRecord indicates that no memory accounting file could be read
	// for the pid (smaps_rollup, smaps and statm all unavailable).
	ErrNoMemRecord = errors.New("proc: no memory record")

	// ErrNoPIDs indicates that no candidate pids were supplied, or none of
	// them exist.
	ErrNoPIDs = errors.New("proc: no pids")

	// ErrNoAccounting indicates that no candidate pid exposes any memory
	// accounting interface at all. Fatal for the whole invocation.
	ErrNoAccounting = errors.New("proc: no usable accounting source")
)

// LostPid reports that a single pid could not be measured this pass.
// Reason is always one of the per-pid sentinel errors above, so callers can
// match with errors.Is while still knowing which pid was lost.
type LostPid struct {
	PID    int
	Reason error
}

func (e *LostPid) Error() string {
	return fmt.Sprintf("pid %d: %v", e.PID, e.Reason)
}

func (e *LostPid) Unwrap() error { return e.Reason }

// lost wraps a per-pid sentinel into a LostPid error.
func lost(pid int, reason error) error {
	return &LostPid{PID: pid, Reason: reason}
}
