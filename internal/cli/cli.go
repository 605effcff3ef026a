package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"thunderdash/internal/api"
	"thunderdash/internal/dashboard"
	"thunderdash/internal/results"
)

const rule = "======================================================================"

type Options struct {
	Out io.Writer
	// OutPrefix, when set, exports the charts to OutPrefix.csv and OutPrefix.json.
	OutPrefix string
	Log       zerolog.Logger
}

// Run creates a job from spec, starts it and watches it to completion.
func Run(ctx context.Context, backend api.Backend, panel *dashboard.Panel, spec api.JobSpec, opts Options) error {
	if err := spec.Validate(); err != nil {
		return errors.Wrap(err, "invalid job")
	}
	printHeader(opts.Out, spec)

	id, err := backend.CreateJob(ctx, spec)
	if err != nil {
		return errors.Wrap(err, "failed to create job")
	}
	if err := panel.LoadJob(id); err != nil {
		return err
	}
	fmt.Fprintf(opts.Out, "Job %s created\n\n", id)
	return Watch(ctx, panel, true, opts)
}

// Watch drives an already loaded panel until its job completes, printing each snapshot.
// When ctx is cancelled the job is stopped and its results are still collected.
func Watch(ctx context.Context, panel *dashboard.Panel, start bool, opts Options) error {
	l := &loop{panel: panel, out: opts.Out, log: opts.Log, msgs: make(chan tea.Msg), done: make(chan struct{})}
	defer close(l.done)

	begin := panel.Attach
	if start {
		begin = panel.Start
	}
	cmd, err := begin()
	if err != nil {
		return err
	}
	l.run(cmd)

	cancelled := ctx.Done()
	stopping := false
	for {
		if l.finished() {
			break
		}

		select {
		case <-cancelled:
			cancelled = nil
			stopping = true
			fmt.Fprintln(l.out, "\nInterrupted, stopping job...")
		case msg := <-l.msgs:
			l.inflight--
			l.handle(msg)
		}

		if stopping {
			done, err := l.tryStop()
			if err != nil {
				return err
			}
			if done {
				stopping = false
			}
		}
	}

	fmt.Fprintln(l.out)
	if err := panel.LastError(); err != nil && !panel.ChartsReady() {
		return err
	}
	if panel.State() != dashboard.Complete {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Errorf("job %s is %s, nothing to watch", panel.JobID(), panel.Labels().Status)
	}

	printSummary(l.out, panel)
	return export(l.out, panel.Report(), opts.OutPrefix)
}

// loop is a minimal event loop: commands run concurrently, their messages are handled one at a time.
type loop struct {
	panel    *dashboard.Panel
	out      io.Writer
	log      zerolog.Logger
	msgs     chan tea.Msg
	done     chan struct{}
	inflight int
	last     dashboard.Labels
}

func (l *loop) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	l.inflight++
	go func() {
		msg := cmd()
		select {
		case l.msgs <- msg:
		case <-l.done:
		}
	}()
}

func (l *loop) handle(msg tea.Msg) {
	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, cmd := range msg {
			l.run(cmd)
		}
	case dashboard.ChartsReadyMsg:
		l.log.Debug().Str("job", string(msg.JobID)).Msg("charts ready")
	case dashboard.EnableTabMsg, dashboard.ResetNewJobMsg:
		// navigation only matters to the TUI
	default:
		l.run(l.panel.Update(msg))
		l.printProgress()
	}
}

// finished reports whether the charts are in or nothing is left to wait for.
func (l *loop) finished() bool {
	return l.inflight == 0 || (l.panel.State() == dashboard.Complete && l.panel.ChartsReady())
}

func (l *loop) tryStop() (bool, error) {
	cmd, err := l.panel.Stop()
	switch {
	case err == nil:
		l.run(cmd)
		return true, nil
	case errors.Is(err, dashboard.ErrBusy):
		return false, nil
	case errors.Is(err, dashboard.ErrInvalidTransition):
		// already stopping or complete, or never started
		return true, nil
	}
	return true, err
}

func (l *loop) printProgress() {
	labels := l.panel.Labels()
	if labels == l.last {
		return
	}
	l.last = labels
	fmt.Fprintf(l.out, "\r%s %3.0f%% | %s/%s | %-8s | Iter: %d | Xfer: %s   ",
		progressBar(labels.Percent/100, 20), labels.Percent,
		dashboard.FormatClock(labels.Elapsed),
		dashboard.FormatClock(labels.Elapsed+labels.Remaining),
		labels.Status,
		labels.Iterations,
		dashboard.FormatBytes(labels.BytesTransferred),
	)
}

func printHeader(out io.Writer, spec api.JobSpec) {
	fmt.Fprintf(out, "\nSTARTING THUNDERDASH JOB\n")
	fmt.Fprintf(out, "%s\n", rule)
	fmt.Fprintf(out, "Target URL     : %s\n", spec.URL)
	fmt.Fprintf(out, "Profile        : %s\n", spec.Profile)
	fmt.Fprintf(out, "Duration       : %ds\n", spec.Duration)
	if spec.ClientFunction != "" {
		fmt.Fprintf(out, "Client function: %s\n", spec.ClientFunction)
	}
	if spec.TransferLimit > 0 {
		fmt.Fprintf(out, "Transfer limit : %s\n", dashboard.FormatBytes(spec.TransferLimit))
	}
	fmt.Fprintf(out, "Stats interval : %ds\n", spec.StatsInterval)
	fmt.Fprintf(out, "%s\n\n", rule)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(out io.Writer, panel *dashboard.Panel) {
	labels := panel.Labels()
	sum := panel.Summary()

	fmt.Fprintf(out, "\nJOB RESULTS\n")
	fmt.Fprintf(out, "%s\n", rule)
	fmt.Fprintf(out, "Job            : %s\n", panel.JobID())
	fmt.Fprintf(out, "Elapsed        : %s\n", dashboard.FormatClock(labels.Elapsed))
	fmt.Fprintf(out, "Iterations     : %d\n", labels.Iterations)
	fmt.Fprintf(out, "Transferred    : %s\n", dashboard.FormatBytes(labels.BytesTransferred))
	fmt.Fprintf(out, "Buckets        : %d\n", sum.Buckets)
	fmt.Fprintf(out, "Mean RPS       : %.2f\n", sum.MeanRPS)
	fmt.Fprintf(out, "Peak RPS       : %.2f\n", sum.PeakRPS)
	fmt.Fprintf(out, "\nRESPONSE TIMES (ms)\n")
	fmt.Fprintf(out, "   P50 : %.2f\n", sum.P50ResponseMs)
	fmt.Fprintf(out, "   P90 : %.2f\n", sum.P90ResponseMs)
	fmt.Fprintf(out, "   P99 : %.2f\n", sum.P99ResponseMs)
	fmt.Fprintf(out, "   Max : %.2f\n", sum.MaxResponseMs)
	fmt.Fprintf(out, "   Connect (mean)    : %.2f\n", sum.MeanConnectMs)
	fmt.Fprintf(out, "   First byte (mean) : %.2f\n", sum.MeanFirstByteMs)
	fmt.Fprintf(out, "%s\n", rule)
}

func export(out io.Writer, report results.Report, prefix string) error {
	if prefix == "" {
		return nil
	}
	if err := results.ExportCSV(report, prefix+".csv"); err != nil {
		return err
	}
	if err := results.ExportJSON(report, prefix+".json"); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nReports saved to %s.{csv,json}\n", prefix)
	return nil
}
