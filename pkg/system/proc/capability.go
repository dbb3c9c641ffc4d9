//go:build linux

package proc

import (
	"bufio"
	"os"
	"slices"
)

// Source identifies which kernel accounting interface a session reads.
type Source int

const (
	// SourceSmaps means per-mapping proportional accounting is available
	// (/proc/<pid>/smaps, preferring smaps_rollup when present).
	SourceSmaps Source = iota
	// SourceStatm means only the legacy coarse page counters are available;
	// proportional sizes are approximated.
	SourceStatm
)

func (s Source) String() string {
	switch s {
	case SourceSmaps:
		return "smaps"
	case SourceStatm:
		return "statm"
	default:
		return "unknown"
	}
}

// StatmFormula selects how a proportional-set size is approximated from
// statm when smaps is unavailable. The choice depends on the kernel:
// between 2.6.1 and 2.6.9 the statm "shared" column counted file-backed
// pages rather than truly shared ones and cannot be trusted.
type StatmFormula int

const (
	// FormulaShared approximates pss as resident minus the statm shared
	// page count.
	FormulaShared StatmFormula = iota
	// FormulaResident treats the whole resident set as proportional
	// (kernels 2.6.1 through 2.6.9).
	FormulaResident
)

// Descriptor captures, once per invocation, which accounting interface the
// running kernel exposes plus the validated set of pids being tracked.
//
// A Descriptor is immutable: the tracked set only ever shrinks, and shrinking
// produces a new value via WithoutPIDs. Capability fields never change
// mid-run.
type Descriptor struct {
	Source     Source
	HasPSS     bool // Pss fields present in the chosen source
	HasSwapPSS bool // SwapPss fields present (some kernels omit them)
	Formula    StatmFormula

	tracked []int // sorted, deduplicated
}

// Probe inspects procfs for the given candidate pids and builds a Descriptor.
//
// Candidates that no longer exist are dropped. It fails with ErrNoPIDs when
// the candidate set is empty or none of the candidates exist, and with
// ErrNoAccounting when no surviving candidate exposes smaps, smaps_rollup
// or statm.
func Probe(candidates []int) (*Descriptor, error) {
	if len(candidates) == 0 {
		return nil, ErrNoPIDs
	}

	valid := make([]int, 0, len(candidates))
	for _, pid := range candidates {
		if pid > 0 && Exists(pid) {
			valid = append(valid, pid)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoPIDs
	}
	slices.Sort(valid)
	valid = slices.Compact(valid)

	d := &Descriptor{tracked: valid}

	statmSeen := false
	for _, pid := range valid {
		for _, file := range []string{"smaps_rollup", "smaps"} {
			if hasPss, hasSwapPss, ok := probeSmaps(pidPath(pid, file)); ok {
				d.Source = SourceSmaps
				d.HasPSS = hasPss
				d.HasSwapPSS = hasSwapPss
				return d, nil
			}
		}
		if _, err := os.Stat(pidPath(pid, "statm")); err == nil {
			statmSeen = true
		}
	}
	if !statmSeen {
		return nil, ErrNoAccounting
	}

	// Legacy fallback. Proportional sizes become approximations whose
	// formula depends on the kernel release.
	d.Source = SourceStatm
	k, err := CurrentKernel()
	if err != nil {
		return nil, err
	}
	d.Formula = statmFormulaFor(k)
	return d, nil
}

// statmFormulaFor maps a kernel release to the statm approximation variant.
func statmFormulaFor(k Kernel) StatmFormula {
	if k.Major == 2 && k.Minor == 6 && k.Patch >= 1 && k.Patch <= 9 {
		return FormulaResident
	}
	return FormulaShared
}

// probeSmaps reports whether path is a readable smaps-family file and whether
// it carries Pss / SwapPss fields. A readable but empty smaps (a process with
// no mappings at probe time) still counts as present.
func probeSmaps(path string) (hasPss, hasSwapPss, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return false, false, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		switch field(sc.Text()) {
		case "Pss:":
			hasPss = true
		case "SwapPss:":
			hasSwapPss = true
		}
		if hasPss && hasSwapPss {
			break
		}
	}
	return hasPss, hasSwapPss, true
}

// Tracked returns a copy of the tracked pid set, sorted ascending.
func (d *Descriptor) Tracked() []int {
	return slices.Clone(d.tracked)
}

// Len returns the number of tracked pids.
func (d *Descriptor) Len() int { return len(d.tracked) }

// Approximate reports whether proportional-set totals derived under this
// descriptor are approximations rather than kernel-reported PSS.
func (d *Descriptor) Approximate() bool {
	return d.Source == SourceStatm || !d.HasPSS
}

// WithoutPIDs returns a new Descriptor whose tracked set excludes the given
// pids. The receiver is left untouched; capability fields carry over since
// capability does not change mid-run.
func (d *Descriptor) WithoutPIDs(gone []int) *Descriptor {
	next := *d
	next.tracked = make([]int, 0, len(d.tracked))
	for _, pid := range d.tracked {
		if !slices.Contains(gone, pid) {
			next.tracked = append(next.tracked, pid)
		}
	}
	return &next
}
