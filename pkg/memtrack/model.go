//go:build linux

package memtrack

import (
	"slices"
	"strings"

	"github.com/ja7ad/memtrack/pkg/system/proc"
	"github.com/ja7ad/memtrack/pkg/types"
)

// Key identifies one row of aggregated usage: either a single process
// (PID set, Name kept for display) or a program name shared by any number
// of processes (PID zero).
type Key struct {
	PID  int
	Name string
}

// Entry is one measured process: the input unit of aggregation.
type Entry struct {
	PID  int
	Name string
	Rec  proc.Record
}

// Totals is the summed memory usage behind one Key. All sums are exact
// integer kilobyte sums; PIDs lists every process that contributed.
type Totals struct {
	RssKB     uint64
	PssKB     uint64
	SwapKB    uint64
	SwapPssKB uint64
	PIDs      []int
}

func (t *Totals) add(pid int, r proc.Record) {
	t.RssKB += r.RssKB
	t.PssKB += r.PssKB
	t.SwapKB += r.SwapKB
	t.SwapPssKB += r.SwapPssKB
	t.PIDs = append(t.PIDs, pid)
}

// Rss returns the resident total in bytes.
func (t Totals) Rss() types.Bytes { return types.FromKB(t.RssKB) }

// Pss returns the proportional total in bytes.
func (t Totals) Pss() types.Bytes { return types.FromKB(t.PssKB) }

// Swap returns the swapped total in bytes.
func (t Totals) Swap() types.Bytes { return types.FromKB(t.SwapKB) }

// SwapPss returns the proportional swapped total in bytes.
func (t Totals) SwapPss() types.Bytes { return types.FromKB(t.SwapPssKB) }

// Usage maps aggregate keys to summed totals. It is rebuilt from scratch on
// every measurement pass, never patched incrementally.
type Usage map[Key]Totals

// Sum folds every row into one grand total.
func (u Usage) Sum() Totals {
	var sum Totals
	for _, t := range u {
		sum.RssKB += t.RssKB
		sum.PssKB += t.PssKB
		sum.SwapKB += t.SwapKB
		sum.SwapPssKB += t.SwapPssKB
		sum.PIDs = append(sum.PIDs, t.PIDs...)
	}
	slices.Sort(sum.PIDs)
	return sum
}

// SortedKeys returns the keys ordered by ascending proportional size, ties
// broken by name then pid, so the largest consumers render last.
func (u Usage) SortedKeys() []Key {
	keys := make([]Key, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		ta, tb := u[a], u[b]
		switch {
		case ta.PssKB < tb.PssKB:
			return -1
		case ta.PssKB > tb.PssKB:
			return 1
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.PID - b.PID
	})
	return keys
}
