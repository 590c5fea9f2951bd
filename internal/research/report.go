package research

import "strings"

const StatusGenerated = "generated"

// PreCallReport combines prospect and company research
type PreCallReport struct {
	ProspectSummary string `json:"prospect_summary"`
	CompanySummary  string `json:"company_summary"`
	Status          string `json:"status"`
}

// MakeReport is pure: no external calls, always StatusGenerated
func MakeReport(prospectSummary, companySummary string) PreCallReport {
	return PreCallReport{
		ProspectSummary: prospectSummary,
		CompanySummary:  companySummary,
		Status:          StatusGenerated,
	}
}

// Markdown renders the report for saving or display
func (r PreCallReport) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Pre-Call Report\n\n")
	sb.WriteString("## Prospect\n\n")
	sb.WriteString(orUnknown(r.ProspectSummary))
	sb.WriteString("\n\n## Company\n\n")
	sb.WriteString(orUnknown(r.CompanySummary))
	sb.WriteString("\n")
	return sb.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "_No information available._"
	}
	return strings.TrimSpace(s)
}
