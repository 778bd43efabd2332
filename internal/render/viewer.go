package render

import (
	"fmt"
	"strings"

	"github.com/sourceplane/foldbatch/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════\n"

// ReportViewer provides human-readable views of batch outcomes
type ReportViewer struct {
	report *model.BatchRunReport
}

// NewReportViewer creates a new report viewer
func NewReportViewer(report *model.BatchRunReport) *ReportViewer {
	return &ReportViewer{report: report}
}

// ViewSummary returns counts followed by a tree of failures and rejected
// ligand records, in the order they happened.
func (rv *ReportViewer) ViewSummary() string {
	r := rv.report
	var sb strings.Builder

	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Batch %s: %d submitted, %d succeeded, %d failed\n",
		r.BatchID, r.Submitted, r.Succeeded, len(r.Failures)))

	if len(r.Failures) > 0 {
		sb.WriteString("Failed jobs\n")
		for i, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("%s✗ %s: %s\n", branch(i, len(r.Failures)), f.JobID, oneLine(f.Message)))
		}
	}

	if len(r.InvalidLigands) > 0 {
		sb.WriteString("Rejected ligand records\n")
		for i, f := range r.InvalidLigands {
			sb.WriteString(fmt.Sprintf("%s%s: %s\n", branch(i, len(r.InvalidLigands)), f.Path, oneLine(f.Message)))
		}
	}

	return sb.String()
}

// ViewJobs returns a tree of jobs and their chains
func ViewJobs(jobs []*model.JobDescriptor) string {
	if len(jobs) == 0 {
		return "No jobs"
	}

	var sb strings.Builder
	for i, job := range jobs {
		isLastJob := i == len(jobs)-1
		connector := "│  "
		if isLastJob {
			connector = "   "
		}

		sb.WriteString(fmt.Sprintf("%s%s", branch(i, len(jobs)), job.Name))
		if len(job.Seeds) > 0 {
			sb.WriteString(fmt.Sprintf(" (seeds:%v)", job.Seeds))
		}
		sb.WriteString("\n")

		for j, chain := range job.Chains {
			sb.WriteString(connector + branch(j, len(job.Chains)) + describeChain(chain) + "\n")
		}
	}

	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Summary: %d jobs\n", len(jobs)))
	return sb.String()
}

func describeChain(c model.ChainEntry) string {
	switch {
	case c.Protein != nil:
		msa := "no msa"
		if c.Protein.HasMSA() {
			msa = "msa: " + c.Protein.MSA.PrecomputedDir
		}
		return fmt.Sprintf("protein %s ×%d [%s]", truncate(c.Protein.Sequence, 40), c.Protein.Count, msa)
	case c.Ligand != nil:
		return fmt.Sprintf("ligand %s ×%d", truncate(c.Ligand.Ligand, 60), c.Ligand.Count)
	default:
		return c.Kind()
	}
}

func branch(i, n int) string {
	if i == n-1 {
		return "└─ "
	}
	return "├─ "
}

// Truncate long values for readability
func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
