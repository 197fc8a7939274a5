package presentation

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"assetopt/internal/app"
	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"
)

type Printer struct {
	Writer  io.Writer
	Verbose bool
	mu      sync.Mutex
}

// PrintEvent prints one line per finished job.
func (p *Printer) PrintEvent(ev domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Status {
	case domain.EventProcessed:
		fmt.Fprintf(p.Writer, "✓ %s\n", ev.Job.MappingDestination)
	case domain.EventSkipped:
		if p.Verbose {
			fmt.Fprintf(p.Writer, "= %s (unchanged)\n", ev.Job.MappingDestination)
		}
	case domain.EventFailed:
		fmt.Fprintf(p.Writer, "✗ %s: %s\n", ev.Job.Source.Name, appErrors.UserMessage(ev.Err))
	}
}

func (p *Printer) PrintPassHeader(plan domain.Plan) {
	fmt.Fprintf(p.Writer, "\n%s (%d files)\n", passTitle(plan.Pass), len(plan.Jobs))
}

// PrintDryRun lists what a run would write, without writing anything.
func (p *Printer) PrintDryRun(plans []domain.Plan) {
	for i, plan := range plans {
		if i > 0 {
			fmt.Fprintln(p.Writer)
		}
		fmt.Fprintf(p.Writer, "%s:\n\n", passTitle(plan.Pass))
		if len(plan.Jobs) == 0 {
			fmt.Fprintln(p.Writer, "Nothing to do.")
		}
		for _, line := range formatJobLines(plan.Jobs, p.Verbose) {
			fmt.Fprintln(p.Writer, line)
		}
		if len(plan.Warnings) > 0 {
			fmt.Fprintln(p.Writer)
			fmt.Fprintln(p.Writer, "Warnings:")
			for _, warning := range plan.Warnings {
				fmt.Fprintln(p.Writer, "- "+warning)
			}
		}
	}

	total := 0
	for _, plan := range plans {
		total += len(plan.Jobs)
	}
	fmt.Fprintln(p.Writer)
	fmt.Fprintf(p.Writer, "Would write %d files. Dry run, nothing was written.\n", total)
}

func (p *Printer) PrintSummary(result domain.RunResult, reportPath string) {
	totals := result.Totals()
	fmt.Fprintln(p.Writer)
	fmt.Fprintf(p.Writer, "Brand:   %s\n", formatCounters(result.Brand.Counters))
	fmt.Fprintf(p.Writer, "Clients: %s\n", formatCounters(result.Clients.Counters))
	if totals.OutputBytes > 0 && totals.SourceBytes > 0 {
		fmt.Fprintf(p.Writer, "Size:    %s -> %s (%s saved)\n",
			humanize.Bytes(uint64(totals.SourceBytes)),
			humanize.Bytes(uint64(totals.OutputBytes)),
			savedPercent(totals.SourceBytes, totals.OutputBytes),
		)
	}
	if reportPath != "" {
		fmt.Fprintf(p.Writer, "Report:  %s\n", reportPath)
	}
}

func (p *Printer) PrintVariants(result app.VariantResult) {
	for _, out := range result.Written {
		fmt.Fprintf(p.Writer, "✓ %s  %dx%d  %s\n", out.Path, out.Width, out.Height, humanize.Bytes(uint64(out.Bytes)))
	}
	for _, width := range result.Skipped {
		fmt.Fprintf(p.Writer, "- %dw skipped, source is narrower\n", width)
	}
}

func (p *Printer) PrintClassification(path string, job domain.Job) {
	target := job.MappingDestination
	if job.Classification.Passthrough {
		target += " (copied)"
	}
	fmt.Fprintf(p.Writer, "%s\n  preset %s (%dpx, q%d) -> %s\n",
		path, job.Preset.Name, job.Preset.Width, job.Preset.Quality, target)
}

func (p *Printer) PrintPublished(result app.PublishResult, bucket string) {
	fmt.Fprintf(p.Writer, "Uploaded %d files (%s) to %s.\n", result.Uploaded, humanize.Bytes(uint64(result.Bytes)), bucket)
}

func formatJobLines(jobs []domain.Job, verbose bool) []string {
	lines := make([]string, 0, len(jobs))
	for _, job := range jobs {
		lines = append(lines, fmt.Sprintf("%s -> %s  [%s]", job.MappingSource, job.MappingDestination, job.Preset.Name))
	}

	if verbose || len(lines) <= 4 {
		return lines
	}
	head := lines[:2]
	tail := lines[len(lines)-2:]
	return append(append(head, fmt.Sprintf("... %d more ...", len(lines)-4)), tail...)
}

func formatCounters(c domain.Counters) string {
	return fmt.Sprintf("%d processed, %d skipped, %d errors", c.Processed, c.Skipped, c.Errors)
}

func savedPercent(before, after int64) string {
	if before <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", 100*(1-float64(after)/float64(before)))
}

func passTitle(pass domain.Pass) string {
	if pass == "" {
		return ""
	}
	return strings.ToUpper(string(pass[:1])) + string(pass[1:])
}
