//go:build linux

package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/ja7ad/memtrack/pkg/memtrack"
	"github.com/ja7ad/memtrack/pkg/system/proc"
	"github.com/ja7ad/memtrack/pkg/system/util"
	"github.com/ja7ad/memtrack/pkg/types"
)

type cliOpts struct {
	// keying & naming
	byPID   bool
	cmdline bool

	// sampling
	watch   time.Duration
	samples int

	// display
	total bool

	// pid bootstrap
	match  string
	lookup int

	// file outputs
	csvPath  string
	jsonPath string
	htmlPath string
}

// row is one pass's grand total, kept for CSV/JSON/HTML outputs.
type row struct {
	At        time.Time `json:"time"`
	RssKB     uint64    `json:"rss_kb"`
	PssKB     uint64    `json:"pss_kb"`
	SwapKB    uint64    `json:"swap_kb"`
	SwapPssKB uint64    `json:"swap_pss_kb"`
	Procs     int       `json:"procs"`
	LostPIDs  []int     `json:"lost_pids,omitempty"`
}

func main() {
	var o cliOpts

	root := &cobra.Command{
		Use:   "memtrack [PID|PID..PID]...",
		Short: "Accurate RAM and swap accounting per process or program",
		Long: `memtrack measures physical memory usage (RSS, PSS, swap) of Linux
processes from the kernel's accounting files (smaps_rollup, smaps, or the
legacy statm fallback) and aggregates it per program name or per process.

Without arguments every process on the system is measured (root is usually
required to read other users' smaps).

Examples:
  memtrack 1234 5678..5690
  memtrack --match nginx -w 2s -s 30 --csv usage.csv
  memtrack --lookup 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, args)
		},
	}

	root.Flags().BoolVarP(&o.byPID, "per-pid", "S", false, "one row per process instead of merging by program name")
	root.Flags().BoolVarP(&o.cmdline, "cmdline", "c", false, "name processes by full command line instead of executable")
	root.Flags().DurationVarP(&o.watch, "watch", "w", 0, "repeat measurement at this interval (0 = single shot)")
	root.Flags().IntVarP(&o.samples, "samples", "s", 0, "stop after this many watch passes (0 = until Ctrl-C)")
	root.Flags().BoolVarP(&o.total, "total", "t", false, "print only the grand total")
	root.Flags().StringVarP(&o.match, "match", "m", "", "measure processes whose name contains this substring")
	root.Flags().IntVarP(&o.lookup, "lookup", "P", 0, "measure a single pid and exit")
	root.Flags().StringVar(&o.csvPath, "csv", "", "write per-pass totals to CSV file")
	root.Flags().StringVar(&o.jsonPath, "json", "", "write per-pass totals to JSON file")
	root.Flags().StringVar(&o.htmlPath, "html", "", "write an HTML chart of per-pass totals")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, o cliOpts, args []string) error {
	strategy := proc.NameExecutable
	if o.cmdline {
		strategy = proc.NameCmdline
	}

	if o.lookup > 0 {
		return runLookup(o.lookup, strategy)
	}

	pids, err := bootstrapPIDs(o, args)
	if err != nil {
		return err
	}

	sess, err := memtrack.NewSession(pids, memtrack.Config{
		ByPID:    o.byPID,
		Strategy: strategy,
		Interval: o.watch,
	})
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	host, kernel, cpus, mem := util.SystemSummary()
	fmt.Printf(_console, host, kernel, cpus, mem,
		sess.Descriptor().Source, sess.Descriptor().Len(),
		time.Now().Format("2006-01-02 15:04:05"))

	out, err := openOutputs(o)
	if err != nil {
		return err
	}
	defer out.close()

	if o.watch <= 0 {
		snap, err := sess.Snapshot()
		if err != nil {
			return err
		}
		warnLost(snap)
		render(os.Stdout, sess, snap, o.total)
		out.write(snap)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(o.watch)
	defer ticker.Stop()

	passN := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted")
			return nil
		case <-ticker.C:
			snap, err := sess.Snapshot()
			if err != nil {
				if errors.Is(err, memtrack.ErrAllExited) {
					fmt.Println("# all tracked processes exited")
					return nil
				}
				return err
			}
			warnLost(snap)
			render(os.Stdout, sess, snap, o.total)
			out.write(snap)

			passN++
			if o.samples > 0 && passN >= o.samples {
				return nil
			}
		}
	}
}

func runLookup(pid int, strategy proc.NameStrategy) error {
	name, rec, err := memtrack.Lookup(pid, strategy)
	if err != nil {
		return err
	}
	fmt.Printf("%d %s\n  rss:      %s\n  pss:      %s\n  swap:     %s\n  swap pss: %s\n",
		pid, name,
		types.FromKB(rec.RssKB).Humanized(),
		types.FromKB(rec.PssKB).Humanized(),
		types.FromKB(rec.SwapKB).Humanized(),
		types.FromKB(rec.SwapPssKB).Humanized())
	return nil
}

// bootstrapPIDs assembles the candidate set: explicit args, --match
// discovery, or every process on the system.
func bootstrapPIDs(o cliOpts, args []string) ([]int, error) {
	pids, err := util.ParsePIDs(args)
	if err != nil {
		return nil, err
	}
	if o.match != "" {
		procs, err := process.Processes()
		if err != nil {
			return nil, fmt.Errorf("list processes: %w", err)
		}
		for _, p := range procs {
			name, err := p.Name()
			if err == nil && strings.Contains(name, o.match) {
				pids = append(pids, int(p.Pid))
			}
		}
		if len(pids) == 0 {
			return nil, fmt.Errorf("no process matches %q", o.match)
		}
		return pids, nil
	}
	if len(pids) > 0 {
		return pids, nil
	}
	all, err := process.Pids()
	if err != nil {
		return nil, fmt.Errorf("list pids: %w", err)
	}
	for _, p := range all {
		pids = append(pids, int(p))
	}
	return pids, nil
}

func warnLost(snap *memtrack.Snapshot) {
	for _, lp := range snap.Lost {
		slog.Warn("process stopped", "pid", lp.PID, "reason", lp.Reason)
	}
}

func render(w *os.File, sess *memtrack.Session, snap *memtrack.Snapshot, totalOnly bool) {
	desc := sess.Descriptor()
	sum := snap.Usage.Sum()
	swapOf := func(t memtrack.Totals) types.Bytes {
		if desc.HasSwapPSS {
			return t.SwapPss()
		}
		return t.Swap()
	}

	if totalOnly {
		fmt.Fprintf(w, "%s  total pss=%s rss=%s swap=%s procs=%d\n",
			snap.Taken.Format("15:04:05"),
			sum.Pss().Humanized(), sum.Rss().Humanized(), swapOf(sum).Humanized(), len(sum.PIDs))
		return
	}

	pssHdr := "PSS"
	if snap.Approximate {
		pssHdr = "PSS*"
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if keyed := snap.Usage.SortedKeys(); len(keyed) > 0 && keyed[0].PID != 0 {
		fmt.Fprintf(tw, "PID\t%s\tRSS\tSWAP\t  NAME\n", pssHdr)
		for _, k := range keyed {
			t := snap.Usage[k]
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t  %s\n",
				k.PID, t.Pss().Humanized(), t.Rss().Humanized(), swapOf(t).Humanized(), k.Name)
		}
	} else {
		fmt.Fprintf(tw, "PROCS\t%s\tRSS\tSWAP\t  PROGRAM\n", pssHdr)
		for _, k := range keyed {
			t := snap.Usage[k]
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t  %s\n",
				len(t.PIDs), t.Pss().Humanized(), t.Rss().Humanized(), swapOf(t).Humanized(), k.Name)
		}
	}
	fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t  TOTAL\n",
		len(sum.PIDs), sum.Pss().Humanized(), sum.Rss().Humanized(), swapOf(sum).Humanized())
	tw.Flush()
	if snap.Approximate {
		fmt.Fprintln(w, "* proportional sizes approximated from statm; shared pages may be double counted")
	}
	fmt.Fprintln(w)
}

// outputs bundles the optional file sinks: CSV rows appended per pass,
// JSON streamed as one array, HTML chart rendered at close.
type outputs struct {
	sessionID string

	csvF *os.File
	csvW *csv.Writer

	jsonF *os.File
	jsonN int
	htmlF *os.File
	rows  []row
}

func openOutputs(o cliOpts) (*outputs, error) {
	out := &outputs{sessionID: uuid.NewString()}
	mk := func(path string) (*os.File, error) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return os.Create(path)
	}
	if o.csvPath != "" {
		f, err := mk(o.csvPath)
		if err != nil {
			return nil, fmt.Errorf("csv output: %w", err)
		}
		out.csvF = f
		out.csvW = csv.NewWriter(f)
		_ = out.csvW.Write([]string{"time", "rss_kb", "pss_kb", "swap_kb", "swap_pss_kb", "procs", "lost"})
		out.csvW.Flush()
	}
	if o.jsonPath != "" {
		f, err := mk(o.jsonPath)
		if err != nil {
			return nil, fmt.Errorf("json output: %w", err)
		}
		out.jsonF = f
		_, _ = f.WriteString("[\n")
	}
	if o.htmlPath != "" {
		f, err := mk(o.htmlPath)
		if err != nil {
			return nil, fmt.Errorf("html output: %w", err)
		}
		out.htmlF = f
	}
	return out, nil
}

func (out *outputs) write(snap *memtrack.Snapshot) {
	sum := snap.Usage.Sum()
	r := row{
		At:        snap.Taken,
		RssKB:     sum.RssKB,
		PssKB:     sum.PssKB,
		SwapKB:    sum.SwapKB,
		SwapPssKB: sum.SwapPssKB,
		Procs:     len(sum.PIDs),
	}
	for _, lp := range snap.Lost {
		r.LostPIDs = append(r.LostPIDs, lp.PID)
	}
	out.rows = append(out.rows, r)

	if out.csvW != nil {
		lostStr := make([]string, len(r.LostPIDs))
		for i, pid := range r.LostPIDs {
			lostStr[i] = strconv.Itoa(pid)
		}
		_ = out.csvW.Write([]string{
			r.At.Format(time.RFC3339),
			strconv.FormatUint(r.RssKB, 10),
			strconv.FormatUint(r.PssKB, 10),
			strconv.FormatUint(r.SwapKB, 10),
			strconv.FormatUint(r.SwapPssKB, 10),
			strconv.Itoa(r.Procs),
			strings.Join(lostStr, " "),
		})
		out.csvW.Flush()
	}
	if out.jsonF != nil {
		b, _ := json.MarshalIndent(r, "  ", "  ")
		if out.jsonN > 0 {
			_, _ = out.jsonF.WriteString(",\n")
		}
		_, _ = out.jsonF.Write(b)
		out.jsonN++
	}
}

func (out *outputs) close() {
	if out.csvW != nil {
		out.csvW.Flush()
	}
	if out.csvF != nil {
		_ = out.csvF.Close()
	}
	if out.jsonF != nil {
		_, _ = out.jsonF.WriteString("\n]\n")
		_ = out.jsonF.Close()
	}
	if out.htmlF != nil {
		if err := writeChart(out.htmlF, out.rows, out.sessionID); err != nil {
			slog.Error("write html", "err", err)
		}
		_ = out.htmlF.Close()
	}
}

// writeChart renders the per-pass totals as a line chart.
func writeChart(f *os.File, rows []row, sessionID string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "memtrack: memory usage over time",
			Subtitle: "session " + sessionID,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MB"}),
	)

	x := make([]string, 0, len(rows))
	pss := make([]opts.LineData, 0, len(rows))
	rss := make([]opts.LineData, 0, len(rows))
	swap := make([]opts.LineData, 0, len(rows))
	for _, r := range rows {
		x = append(x, r.At.Format("15:04:05"))
		pss = append(pss, opts.LineData{Value: types.FromKB(r.PssKB).MB()})
		rss = append(rss, opts.LineData{Value: types.FromKB(r.RssKB).MB()})
		swap = append(swap, opts.LineData{Value: types.FromKB(r.SwapKB).MB()})
	}
	line.SetXAxis(x).
		AddSeries("PSS", pss).
		AddSeries("RSS", rss).
		AddSeries("Swap", swap)
	return line.Render(f)
}

const _console = `memtrack - accurate RAM and swap accounting

       Host: %s
       Kernel: %s
       CPUs: %s
       Mem: %s
       Source: %s (%d pids tracked)

Report as of %s:

`
