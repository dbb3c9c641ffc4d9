//go:build linux

package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Root returns the procfs mount point. It first checks the env var
// PROC_ROOT (useful for testing against a fixture tree), otherwise
// falls back to /proc.
func Root() string {
	if r := os.Getenv("PROC_ROOT"); r != "" {
		return r
	}
	return "/proc"
}

// PageSize returns the system memory page size in bytes.
// It first checks an env override (PAGE_SIZE) to ease testing,
// then falls back to os.Getpagesize().
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, _ := strconv.Atoi(ps); v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

// pidPath joins the per-process directory for pid with optional sub-paths,
// e.g. pidPath(42, "smaps_rollup") -> /proc/42/smaps_rollup.
func pidPath(pid int, parts ...string) string {
	return filepath.Join(append([]string{Root(), strconv.Itoa(pid)}, parts...)...)
}

// Exists reports whether a given PID currently exists in procfs.
// It simply checks if <root>/<pid> is a valid directory.
func Exists(pid int) bool {
	_, err := os.Stat(pidPath(pid))
	return err == nil
}

// Kernel is a parsed kernel release number. Only the numeric prefix of the
// release string matters here; distro suffixes ("-generic", ".el9") are ignored.
type Kernel struct {
	Major, Minor, Patch int
}

func (k Kernel) String() string {
	return fmt.Sprintf("%d.%d.%d", k.Major, k.Minor, k.Patch)
}

// CurrentKernel returns the running kernel's release number via uname(2).
// The env var KERNEL_RELEASE overrides it (useful for testing legacy
// statm formula selection).
func CurrentKernel() (Kernel, error) {
	if r := os.Getenv("KERNEL_RELEASE"); r != "" {
		return parseKernelRelease(r)
	}
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return Kernel{}, fmt.Errorf("proc: uname: %w", err)
	}
	return parseKernelRelease(unix.ByteSliceToString(u.Release[:]))
}

// parseKernelRelease parses strings like "6.8.0-41-generic" or
// "2.6.32-754.35.1.el6.x86_64". Missing components default to zero.
func parseKernelRelease(rel string) (Kernel, error) {
	var k Kernel
	parts := strings.SplitN(rel, ".", 3)
	dst := []*int{&k.Major, &k.Minor, &k.Patch}
	for i, p := range parts {
		// strip any non-digit tail ("0-41-generic" -> "0")
		j := 0
		for j < len(p) && p[j] >= '0' && p[j] <= '9' {
			j++
		}
		if j == 0 {
			if i == 0 {
				return Kernel{}, fmt.Errorf("proc: unparsable kernel release %q", rel)
			}
			break
		}
		n, _ := strconv.Atoi(p[:j])
		*dst[i] = n
	}
	return k, nil
}
