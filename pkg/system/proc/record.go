//go:build linux

package proc

// Record is a normalized memory measurement for one process at one instant.
// All values are kilobytes. A Record is created fresh per read and never
// mutated afterwards.
type Record struct {
	RssKB     uint64 // resident set size
	PssKB     uint64 // proportional set size (or its statm approximation)
	SwapKB    uint64 // swapped-out size
	SwapPssKB uint64 // proportional swapped-out size (zero when unavailable)
}

// ReadRecord reads one memory record for pid using the interface selected by
// the descriptor. It never retries: a single unreadable or malformed file is
// a definitive failure for this pass, returned as a *LostPid.
//
// Under SourceSmaps the rollup file is preferred (one pre-aggregated record);
// the full per-mapping file is summed as a fallback. Under SourceStatm the
// proportional size is approximated according to the descriptor's formula.
func ReadRecord(pid int, d *Descriptor) (Record, error) {
	switch d.Source {
	case SourceStatm:
		return readStatm(pid, d.Formula)
	default:
		if r, err := readSmapsFile(pidPath(pid, "smaps_rollup")); err == nil {
			return r, nil
		}
		if r, err := readSmapsFile(pidPath(pid, "smaps")); err == nil {
			return r, nil
		}
		return Record{}, lost(pid, ErrNoMemRecord)
	}
}
