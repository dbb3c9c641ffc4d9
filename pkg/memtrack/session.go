//go:build linux

package memtrack

import (
	"errors"
	"sync"
	"time"

	"github.com/ja7ad/memtrack/pkg/system/proc"
)

// Config controls how a Session aggregates and repeats.
type Config struct {
	// ByPID keys the resulting usage by process id instead of program name.
	ByPID bool
	// Strategy selects the program-name derivation (exe link vs cmdline).
	Strategy proc.NameStrategy
	// Interval is the delay Watch applies before each pass.
	Interval time.Duration
}

// Snapshot is the outcome of one measurement pass. Usage and Lost partition
// the pass's tracked set completely: every pid appears in exactly one of the
// two.
type Snapshot struct {
	Taken time.Time
	Usage Usage
	// Lost lists the pids that could not be measured this pass, with the
	// step that failed. In a watched session they are dropped from the
	// tracked set and never reappear.
	Lost []*proc.LostPid
	// Approximate is set when proportional totals come from the legacy
	// statm approximation rather than kernel-reported PSS.
	Approximate bool
}

// Session owns a capability descriptor and drives measurement passes over
// its shrinking tracked set. A Session is not safe for concurrent use; each
// pass itself parallelizes its per-process reads internally.
type Session struct {
	cfg  Config
	desc *proc.Descriptor
}

// NewSession validates the candidate pids and probes the kernel's accounting
// capabilities once. It fails with proc.ErrNoPIDs when no candidate exists
// and proc.ErrNoAccounting when no memory accounting interface is exposed.
func NewSession(candidates []int, cfg Config) (*Session, error) {
	desc, err := proc.Probe(candidates)
	if err != nil {
		return nil, err
	}
	return &Session{cfg: cfg, desc: desc}, nil
}

// Descriptor returns the session's current capability descriptor.
func (s *Session) Descriptor() *proc.Descriptor { return s.desc }

// Snapshot runs one measurement pass over the tracked set.
//
// Every tracked pid is resolved to a name and read into a record; the reads
// are independent, so they run in parallel with one result slot per pid and
// are merged after all complete. A pid failing at any stage is excluded from
// the totals and removed from the tracked set carried into the next pass.
//
// When every tracked pid fails the pass returns an *AllExitedError carrying
// the final lost batch (errors.Is(err, ErrAllExited) matches).
func (s *Session) Snapshot() (*Snapshot, error) {
	pids := s.desc.Tracked()
	if len(pids) == 0 {
		return nil, &AllExitedError{}
	}

	type slot struct {
		entry Entry
		lost  *proc.LostPid
	}
	slots := make([]slot, len(pids))

	var wg sync.WaitGroup
	for i, pid := range pids {
		wg.Add(1)
		go func(i, pid int) {
			defer wg.Done()
			name, err := proc.ProcName(pid, s.cfg.Strategy)
			if err != nil {
				slots[i].lost = asLost(pid, err)
				return
			}
			rec, err := proc.ReadRecord(pid, s.desc)
			if err != nil {
				slots[i].lost = asLost(pid, err)
				return
			}
			slots[i].entry = Entry{PID: pid, Name: name, Rec: rec}
		}(i, pid)
	}
	wg.Wait()

	var (
		entries = make([]Entry, 0, len(pids))
		lostAll []*proc.LostPid
		gone    []int
	)
	for _, sl := range slots {
		if sl.lost != nil {
			lostAll = append(lostAll, sl.lost)
			gone = append(gone, sl.lost.PID)
			continue
		}
		entries = append(entries, sl.entry)
	}

	s.desc = s.desc.WithoutPIDs(gone)
	if len(entries) == 0 {
		return nil, &AllExitedError{Lost: lostAll}
	}

	var usage Usage
	if s.cfg.ByPID {
		usage = AggregateByPID(entries)
	} else {
		usage = AggregateByName(entries)
	}
	return &Snapshot{
		Taken:       time.Now(),
		Usage:       usage,
		Lost:        lostAll,
		Approximate: s.desc.Approximate(),
	}, nil
}

// Watch waits the configured interval, then runs one pass. The tracked set
// only ever shrinks across calls; exited processes are never rediscovered.
func (s *Session) Watch() (*Snapshot, error) {
	if s.cfg.Interval > 0 {
		time.Sleep(s.cfg.Interval)
	}
	return s.Snapshot()
}

// Lookup measures a single process: its name and memory record, or a
// definitive failure. It probes capabilities for just that pid; a pid that
// exposes no accounting file at all fails with a per-pid no-memory-record
// error rather than the session-level probe failure.
func Lookup(pid int, strategy proc.NameStrategy) (string, proc.Record, error) {
	desc, err := proc.Probe([]int{pid})
	if errors.Is(err, proc.ErrNoAccounting) {
		return "", proc.Record{}, &proc.LostPid{PID: pid, Reason: proc.ErrNoMemRecord}
	}
	if err != nil {
		return "", proc.Record{}, err
	}
	name, err := proc.ProcName(pid, strategy)
	if err != nil {
		return "", proc.Record{}, err
	}
	rec, err := proc.ReadRecord(pid, desc)
	if err != nil {
		return "", proc.Record{}, err
	}
	return name, rec, nil
}

// asLost normalizes a per-pid failure into *LostPid form.
func asLost(pid int, err error) *proc.LostPid {
	var lp *proc.LostPid
	if errors.As(err, &lp) {
		return lp
	}
	return &proc.LostPid{PID: pid, Reason: err}
}
