package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Deploy Evaluation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Range: %s to %s\n\n", formatMillis(r.RangeStart), formatMillis(r.RangeEnd)))

	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Evaluations | %d |\n", s.Total))
	sb.WriteString(fmt.Sprintf("| Approved | %d |\n", s.Approved))
	sb.WriteString(fmt.Sprintf("| Rejected | %d |\n", s.Rejected))
	sb.WriteString(fmt.Sprintf("| Ineligible | %d |\n", s.Ineligible))
	sb.WriteString(fmt.Sprintf("| Approval Rate | %.2f%% |\n", s.ApprovalRate*100))
	sb.WriteString(fmt.Sprintf("| Mean Score | %.1f |\n", s.MeanScore))
	sb.WriteString(fmt.Sprintf("| Max Score | %d |\n", s.MaxScore))
	sb.WriteString("\n")

	sb.WriteString("## Rejection Reasons\n\n")
	if len(r.Reasons) > 0 {
		sb.WriteString("| Reason | Count |\n")
		sb.WriteString("|--------|-------|\n")
		for _, row := range r.Reasons {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", row.Reason, row.Count))
		}
	} else {
		sb.WriteString("No rejections.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Top Requesters\n\n")
	if len(r.TopUsers) > 0 {
		sb.WriteString("| Username | Requests | Approved |\n")
		sb.WriteString("|----------|----------|----------|\n")
		for _, u := range r.TopUsers {
			sb.WriteString(fmt.Sprintf("| @%s | %d | %d |\n", u.Username, u.Requests, u.Approved))
		}
	} else {
		sb.WriteString("No requests.\n")
	}

	return sb.String()
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
