//go:build linux

package proc

import (
	"os"
	"strconv"
	"strings"
)

// readStatm reads the legacy coarse statistics file. Its fields are page
// counts: size resident shared text lib data dt. Swap is not reported there,
// so the swap fields of the result are always zero.
//
// The proportional size cannot be measured from statm; it is approximated
// from resident and shared according to the formula fixed at probe time.
func readStatm(pid int, formula StatmFormula) (Record, error) {
	b, err := os.ReadFile(pidPath(pid, "statm"))
	if err != nil {
		return Record{}, lost(pid, ErrNoMemRecord)
	}

	fs := strings.Fields(string(b))
	if len(fs) < 3 {
		return Record{}, lost(pid, ErrBadStatm)
	}
	resident, err := strconv.ParseUint(fs[1], 10, 64)
	if err != nil {
		return Record{}, lost(pid, ErrBadStatm)
	}
	shared, err := strconv.ParseUint(fs[2], 10, 64)
	if err != nil {
		return Record{}, lost(pid, ErrBadStatm)
	}

	pageKB := uint64(PageSize()) / 1024
	rec := Record{RssKB: resident * pageKB}
	switch formula {
	case FormulaResident:
		// 2.6.1..2.6.9: the shared column is unusable, take resident whole.
		rec.PssKB = rec.RssKB
	default:
		sharedKB := shared * pageKB
		if sharedKB > rec.RssKB {
			sharedKB = rec.RssKB
		}
		rec.PssKB = rec.RssKB - sharedKB
	}
	return rec, nil
}
