package curate

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
)

// UntrustedBanner opens every report produced by an untrusted workflow.
const UntrustedBanner = `WARNING: UNTRUSTED PROVENANCE
This result set was produced by a workflow loaded without verification.
Its configuration, step implementations and dependency versions were not
checked against the workflow file, so these results may not be reproducible.`

// Report renders the audit trail of the run. It holds no timings or run id,
// so two runs of the same workflow over the same input render the same text.
func (r *ResultSet) Report() string {
	var sb strings.Builder
	if r.trust == Untrusted {
		sb.WriteString(UntrustedBanner)
		sb.WriteString("\n\n")
	}

	w := r.workflow
	sb.WriteString("Curation report\n")
	if w.name != "" {
		fmt.Fprintf(&sb, "Name: %s\n", w.name)
	}
	if w.description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", w.description)
	}
	fmt.Fprintf(&sb, "Workflow: %s\n", w.String())
	fmt.Fprintf(&sb, "Workflow hash: %s\n", w.workflowHash)
	fmt.Fprintf(&sb, "Source hash: %s\n", w.sourceHash)
	fmt.Fprintf(&sb, "Dependencies: %s\n", formatVersions(w.versions))
	fmt.Fprintf(&sb, "Trust: %s\n", r.trust)
	fmt.Fprintf(&sb, "History tracking: %t\n\n", w.history)

	sb.WriteString(r.statsTable())
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "%d records: %d passed, %d failed\n\n", len(r.records), r.NumPassed(), r.NumFailed())

	for _, rec := range r.records {
		status := "PASSED"
		if !rec.alive {
			status = "FAILED"
		}
		fmt.Fprintf(&sb, "[%d] %s %s", rec.position, rec.id, status)
		if smi := rec.Smiles(); smi != "" {
			fmt.Fprintf(&sb, " %s", smi)
		} else {
			fmt.Fprintf(&sb, " (input %q)", rec.input)
		}
		if !rec.label.IsMissing() {
			fmt.Fprintf(&sb, " label=%s", rec.label)
		}
		sb.WriteByte('\n')
		for _, entry := range rec.Trail() {
			kind := "note"
			if entry.Issue {
				kind = "issue"
			}
			fmt.Fprintf(&sb, "    %-5s step %d (%s): %s\n", kind, entry.Index, entry.Step, entry.Text)
		}
	}
	return sb.String()
}

// WriteReport writes Report to w.
func (r *ResultSet) WriteReport(w io.Writer) error {
	_, err := io.WriteString(w, r.Report())
	return errors.Wrap(err, "unable to write report")
}

func (r *ResultSet) statsTable() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Step", "Rank", "Kind", "Input", "Issues", "Notes", "Remaining"})
	for _, s := range r.stats {
		rank, kind := "-", "-"
		if s.Index > 0 {
			step := r.workflow.steps[s.Index-1]
			rank = strconv.Itoa(int(step.Rank()))
			kind = step.Kind().String()
			if isBatch(step) {
				kind += " (batch)"
			}
		}
		tw.AppendRow(table.Row{s.Index, s.Name, rank, kind, s.Input, s.Issues, s.Notes, s.Remaining})
	}
	configs := make([]table.ColumnConfig, 0, 8)
	for i := 1; i <= 8; i++ {
		align := text.AlignLeft
		if i == 1 || i >= 5 {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
