//go:build linux

package proc

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"
)

var errNoSmapsFields = errors.New("proc: smaps carries no accounting fields")

// field returns the first whitespace-delimited token of an smaps-family line,
// i.e. the field label ("Pss:", "Swap:", ...). Mapping header lines yield
// their address range, which matches no label.
func field(line string) string {
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return line
	}
	return line[:i]
}

// readSmapsFile parses an smaps or smaps_rollup file into a Record.
//
// The same summation works for both shapes: smaps repeats the labelled fields
// once per mapping and the per-mapping values are added up, while the rollup
// carries each label exactly once. Unknown labels (Pss_Anon, Private_Dirty,
// VmFlags, ...) are skipped. A file with mappings but none of the labels this
// reader cares about is not a recognized record.
func readSmapsFile(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, err
	}
	defer f.Close()

	var (
		rec  Record
		seen bool
		sc   = bufio.NewScanner(f)
	)
	for sc.Scan() {
		line := sc.Text()
		var dst *uint64
		switch field(line) {
		case "Rss:":
			dst = &rec.RssKB
		case "Pss:":
			dst = &rec.PssKB
		case "Swap:":
			dst = &rec.SwapKB
		case "SwapPss:":
			dst = &rec.SwapPssKB
		default:
			continue
		}
		fs := strings.Fields(line)
		if len(fs) < 2 {
			continue
		}
		kb, err := strconv.ParseUint(fs[1], 10, 64)
		if err != nil {
			continue
		}
		*dst += kb
		seen = true
	}
	if err := sc.Err(); err != nil {
		return Record{}, err
	}
	if !seen {
		return Record{}, errNoSmapsFields
	}
	return rec, nil
}
