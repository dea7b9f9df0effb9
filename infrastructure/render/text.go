// Package render presents finished analysis reports. Renderers only
// format what the engine produced; they never recompute distributions.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

var _ ports.Renderer = (*TextRenderer)(nil)

// TextRenderer writes reports as aligned plain-text tables. Each
// comparison table lists the digit proportions of every included
// candidate next to the reference law.
type TextRenderer struct {
	mu         sync.Mutex
	w          io.Writer
	printer    *message.Printer
	showGroups bool
}

// NewTextRenderer creates a TextRenderer writing to w. With showGroups
// set, every individual group is printed with its digit counts before
// the comparison tables.
func NewTextRenderer(w io.Writer, showGroups bool) *TextRenderer {
	return &TextRenderer{
		w:          w,
		printer:    message.NewPrinter(language.English),
		showGroups: showGroups,
	}
}

// Render implements ports.Renderer.
func (r *TextRenderer) Render(ctx context.Context, report *domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	r.printer.Fprintf(&b, "== %s (%s digit test, run %s) ==\n\n", datasetTitle(report), report.Mode, report.RunID)

	for _, pass := range report.Passes {
		if r.showGroups {
			for _, g := range pass.Groups {
				r.writeGroup(&b, report, pass, g)
			}
		}
		for _, t := range pass.Comparisons {
			r.writeComparison(&b, report, pass, t)
		}
		if len(pass.Empty) > 0 {
			names := make([]string, len(pass.Empty))
			for i, k := range pass.Empty {
				names[i] = k.String()
			}
			fmt.Fprintf(&b, "%s: no eligible values for %s\n\n", pass.Description, strings.Join(names, ", "))
		}
	}

	if len(report.Shares) > 0 {
		b.WriteString("Vote share\n")
		for _, s := range report.Shares {
			r.printer.Fprintf(&b, "%-9s : %.4f%% (%d)\n", s.Candidate, s.Share*100, s.Votes)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func datasetTitle(report *domain.Report) string {
	if report.Label != "" {
		return report.Label
	}
	return report.Dataset
}

// title follows the "<label> (<pass>) <what> Vote Count - N, Size - M"
// wording of the published charts.
func (r *TextRenderer) title(report *domain.Report, pass domain.PassResult, what string, votes, size int64) string {
	return r.printer.Sprintf("%s (%s) %s Vote Count - %d, Size - %d",
		datasetTitle(report), pass.Description, what, votes, size)
}

func (r *TextRenderer) writeGroup(b *strings.Builder, report *domain.Report, pass domain.PassResult, g *domain.GroupResult) {
	b.WriteString(r.title(report, pass, g.Key.String(), g.TotalVotes, g.Observations))
	b.WriteString("\n")

	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\tCount\tProportion\t%s\t\n", report.Mode.Label(), domain.ReferenceLabel)
	for _, d := range report.Mode.Digits() {
		r.printer.Fprintf(tw, "%d\t%d\t%.3f\t%.3f\t\n",
			d, g.Histogram.Count(d), g.Distribution.Proportion(d), report.Reference.Proportion(d))
	}
	_ = tw.Flush()
	b.WriteString("\n")
}

func (r *TextRenderer) writeComparison(b *strings.Builder, report *domain.Report, pass domain.PassResult, t domain.ComparisonTable) {
	what := t.Caption
	if p := t.Panel.String(); p != "" {
		what = p + " " + what
	}
	b.WriteString(r.title(report, pass, what, t.TotalVotes, t.Observations))
	b.WriteString("\n")

	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, report.Mode.Label(), "\t")
	for _, s := range t.Series {
		fmt.Fprint(tw, s.Label, "\t")
	}
	fmt.Fprintln(tw)
	for _, d := range t.Digits {
		fmt.Fprintf(tw, "%d\t", d)
		for _, s := range t.Series {
			fmt.Fprintf(tw, "%.3f\t", s.Distribution.Proportion(d))
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
	b.WriteString("\n")
}
