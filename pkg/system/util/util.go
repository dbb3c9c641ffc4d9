//go:build linux

package util

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ja7ad/memtrack/pkg/types"
)

// ParsePIDs parses CLI pid arguments. Each argument is either a single pid
// ("1234") or an inclusive range ("30000..30032"). The result is sorted and
// deduplicated.
func ParsePIDs(args []string) ([]int, error) {
	var pids []int
	for _, arg := range args {
		lo, hi, ok := strings.Cut(arg, "..")
		if !ok {
			pid, err := strconv.Atoi(arg)
			if err != nil || pid <= 0 {
				return nil, fmt.Errorf("invalid pid %q", arg)
			}
			pids = append(pids, pid)
			continue
		}
		a, err := strconv.Atoi(lo)
		if err != nil || a <= 0 {
			return nil, fmt.Errorf("invalid pid range %q", arg)
		}
		b, err := strconv.Atoi(hi)
		if err != nil || b < a {
			return nil, fmt.Errorf("invalid pid range %q", arg)
		}
		for pid := a; pid <= b; pid++ {
			pids = append(pids, pid)
		}
	}
	slices.Sort(pids)
	return slices.Compact(pids), nil
}

// SystemSummary returns host name, kernel release, CPU count and total RAM
// for the CLI banner. Fields that cannot be determined come back as "?".
func SystemSummary() (host, kernel, cpus, mem string) {
	host, kernel, cpus, mem = "?", "?", strconv.Itoa(runtime.NumCPU()), "?"
	if h, err := os.Hostname(); err == nil {
		host = h
	}
	var u unix.Utsname
	if err := unix.Uname(&u); err == nil {
		kernel = unix.ByteSliceToString(u.Release[:])
	}
	if kb, err := memTotalKB(); err == nil {
		mem = types.FromKB(kb).Humanized()
	}
	return
}

// memTotalKB reads the MemTotal line of /proc/meminfo.
func memTotalKB() (uint64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "MemTotal:"); ok {
			fs := strings.Fields(v)
			if len(fs) < 1 {
				break
			}
			return strconv.ParseUint(fs[0], 10, 64)
		}
	}
	return 0, fmt.Errorf("meminfo: no MemTotal line")
}
