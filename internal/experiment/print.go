package experiment

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// Printer writes coloured outcome summaries.
type Printer struct {
	w io.Writer

	green  func(a ...any) string
	red    func(a ...any) string
	yellow func(a ...any) string
	cyan   func(a ...any) string
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:      w,
		green:  color.New(color.FgGreen).SprintFunc(),
		red:    color.New(color.FgRed).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
	}
}

// Dataset prints the loaded dataset's shape.
func (p *Printer) Dataset(path string, rows, attrs int) {
	fmt.Fprintf(p.w, "%s %s: %d rows, %d attributes\n", p.cyan("Dataset"), path, rows, attrs)
}

// Outcome prints one algorithm's summary, report and chart paths.
func (p *Printer) Outcome(o *Outcome, verbose bool) {
	fmt.Fprintf(p.w, "\n%s %s\n", p.green("✓"), p.cyan(o.Algorithm))
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, l := range o.Summary {
		fmt.Fprintf(tw, "  %s\t%s\n", l.Key, p.yellow(l.Value))
	}
	tw.Flush()
	if verbose && o.Report != "" {
		fmt.Fprintln(p.w)
		for _, line := range strings.Split(strings.TrimRight(o.Report, "\n"), "\n") {
			fmt.Fprintf(p.w, "  %s\n", line)
		}
	}
	for _, c := range o.Charts {
		fmt.Fprintf(p.w, "  chart %s\n", c)
	}
}

// Failure prints an algorithm that returned an error.
func (p *Printer) Failure(name string, err error) {
	fmt.Fprintf(p.w, "\n%s %s: %v\n", p.red("✗"), p.cyan(name), err)
}

// alignTable renders rows as space-aligned columns.
func alignTable(rows [][]string) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
	return b.String()
}
