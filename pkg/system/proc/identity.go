//go:build linux

package proc

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// NameStrategy selects how a program name is derived for a pid.
type NameStrategy int

const (
	// NameExecutable derives a short name from the exe link, with fallbacks
	// for replaced or deleted binaries and interpreter wrappers.
	NameExecutable NameStrategy = iota
	// NameCmdline uses the full command line, arguments joined with spaces.
	NameCmdline
)

const deletedSuffix = " (deleted)"

// ProcName derives a program name for pid. The result is never empty on
// success; failures are returned as *LostPid with the step that failed.
func ProcName(pid int, strategy NameStrategy) (string, error) {
	if strategy == NameCmdline {
		return cmdlineName(pid)
	}
	return exeName(pid)
}

// cmdlineName joins the non-empty cmdline arguments with single spaces.
func cmdlineName(pid int) (string, error) {
	args, err := readCmdline(pid)
	if err != nil || len(args) == 0 {
		return "", lost(pid, ErrNoCmdline)
	}
	return strings.Join(args, " "), nil
}

// exeName resolves the exe symlink into a short program name.
//
// A " (deleted)" suffix on the link target means the on-disk binary was
// replaced or removed after the process started. In that case the stripped
// path is re-checked: if a file exists there again the name is marked
// " [updated]", otherwise the first cmdline token decides between
// " [updated]" and " [deleted]".
//
// The candidate is then checked against the status record: when the kernel's
// short command name is not a prefix of the candidate and the parent's own
// exe name does not match it either, the status name wins. This compensates
// for interpreters and wrappers, where the exe link points at a shared binary
// but the kernel's comm names the actual program.
func exeName(pid int) (string, error) {
	target, err := os.Readlink(pidPath(pid, "exe"))
	if err != nil {
		return "", lost(pid, ErrNoExeLink)
	}

	var name string
	if path, wasDeleted := strings.CutSuffix(target, deletedSuffix); wasDeleted {
		switch {
		case fileExists(path):
			name = filepath.Base(path) + " [updated]"
		default:
			args, err := readCmdline(pid)
			if err != nil || len(args) == 0 {
				// exe deleted and no cmdline: inconsistent kernel state
				return "", lost(pid, ErrNoCmdline)
			}
			if fileExists(args[0]) {
				name = filepath.Base(args[0]) + " [updated]"
			} else {
				name = filepath.Base(args[0]) + " [deleted]"
			}
		}
	} else {
		name = filepath.Base(target)
	}

	comm, ppid, err := readStatus(pid)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(name, comm) {
		return name, nil
	}
	// Heuristic tie-break: only keep the exe-derived name when the parent
	// resolves to the very same one, otherwise trust the kernel's comm.
	if parent, err := exeName(ppid); err == nil && parent == name {
		return name, nil
	}
	return comm, nil
}

// readCmdline returns the NUL-separated cmdline tokens with empty tokens and
// trailing whitespace stripped.
func readCmdline(pid int) ([]string, error) {
	b, err := os.ReadFile(pidPath(pid, "cmdline"))
	if err != nil {
		return nil, err
	}
	var args []string
	for _, tok := range strings.Split(string(b), "\x00") {
		if tok = strings.TrimSpace(tok); tok != "" {
			args = append(args, tok)
		}
	}
	return args, nil
}

// readStatus extracts the Name and PPid fields from /proc/<pid>/status.
func readStatus(pid int) (comm string, ppid int, err error) {
	f, err := os.Open(pidPath(pid, "status"))
	if err != nil {
		return "", 0, lost(pid, ErrNoStatusName)
	}
	defer f.Close()

	ppid = -1
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, "Name:"); ok {
			comm = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(line, "PPid:"); ok {
			ppid, err = strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				ppid = -1
			}
		}
	}
	if comm == "" {
		return "", 0, lost(pid, ErrNoStatusName)
	}
	if ppid < 0 {
		return "", 0, lost(pid, ErrNoStatusParent)
	}
	return comm, ppid, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
