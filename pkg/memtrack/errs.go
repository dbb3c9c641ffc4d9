//go:build linux

package memtrack

import (
	"errors"
	"fmt"

	"github.com/ja7ad/memtrack/pkg/system/proc"
)

// ErrAllExited indicates that every tracked process failed in one pass,
// terminating a watch loop. Match with errors.Is; the concrete error is an
// *AllExitedError carrying the final lost batch.
var ErrAllExited = errors.New("memtrack: all tracked processes exited")

// AllExitedError is the terminal condition of a session: the pass it came
// from measured nothing, and the tracked set would be empty.
type AllExitedError struct {
	Lost []*proc.LostPid
}

func (e *AllExitedError) Error() string {
	return fmt.Sprintf("all %d tracked processes exited", len(e.Lost))
}

func (e *AllExitedError) Is(target error) bool { return target == ErrAllExited }
