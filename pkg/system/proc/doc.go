// Package proc reads and interprets the Linux per-process memory accounting
// interfaces under /proc. It is the low-level layer behind pkg/memtrack.
//
// Overview
//
//   - Probe(pids) inspects procfs once and returns an immutable Descriptor:
//     which accounting source is available (smaps family vs legacy statm),
//     whether Pss/SwapPss fields are reported, which statm approximation
//     formula applies for the running kernel, and the validated tracked set.
//     Capability is fixed for the remainder of an invocation; only the
//     tracked set shrinks, via Descriptor.WithoutPIDs (returns a new value).
//
//   - ReadRecord(pid, desc) reads exactly one source into a normalized
//     Record (RssKB/PssKB/SwapKB/SwapPssKB, all kilobytes):
//
//   - smaps_rollup (preferred): one pre-aggregated record, read once.
//
//   - smaps: labelled fields summed across all mapping entries.
//
//   - statm: page counts times page size; Pss approximated per the
//     descriptor's StatmFormula (kernels 2.6.1–2.6.9 report a shared
//     column that cannot be trusted, so resident is taken whole there).
//
//   - ProcName(pid, strategy) derives a program name:
//
//   - NameCmdline: the argv tokens joined with single spaces.
//
//   - NameExecutable: base name of the exe link target, with
//     " [updated]"/" [deleted]" markers when the binary was replaced or
//     removed after exec, and a status-Name/parent tie-break for
//     interpreter and wrapper processes.
//
// Errors (errs.go)
//
// Per-pid failures are values, not aborts: every per-pid error is a *LostPid
// wrapping one of the sentinel reasons (ErrNoExeLink, ErrNoCmdline,
// ErrNoStatusName, ErrNoStatusParent, ErrBadStatm, ErrNoMemRecord), so a
// caller can both match the reason with errors.Is and recover the pid.
// ErrNoPIDs and ErrNoAccounting are session-level and fatal to a whole
// invocation. Nothing in this package retries: a file that fails to read
// once has failed for that pass.
//
// Testing
//
// The package reads env overrides to stay hermetic under test:
// PROC_ROOT points all readers at a fixture tree, PAGE_SIZE fixes the page
// size used for statm, KERNEL_RELEASE fixes the release used for formula
// selection.
package proc
