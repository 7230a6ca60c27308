package render

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"phtrs/internal/domain"
)

// MarkdownWriter renders the snapshot as a GitHub-flavored markdown document
// with a mermaid pie chart of report priorities.
type MarkdownWriter struct {
	output io.Writer
}

func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: w}
}

func (m *MarkdownWriter) Write(s Snapshot) error {
	md := markdown.NewMarkdown(m.output)
	md.H1("Pothole Tracking Report")
	md.PlainText("")

	m.writeSummary(md, s)
	m.writeReports(md, s)
	m.writeWorkOrders(md, s)
	m.writeClaims(md, s)
	if len(s.Events) > 0 {
		m.writeEvents(md, s)
	}
	if len(s.Failures) > 0 {
		md.H2("Failures")
		md.PlainText("")
		md.BulletList(s.Failures...)
		md.PlainText("")
	}
	return md.Build()
}

func (m *MarkdownWriter) writeSummary(md *markdown.Markdown, s Snapshot) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Reports", strconv.Itoa(s.Summary.Reports)},
			{"Work orders", strconv.Itoa(s.Summary.WorkOrders)},
			{"Repaired", strconv.Itoa(s.Summary.ByStatus[domain.StatusRepaired])},
			{"Repair cost", money(s.Summary.TotalRepairCost)},
			{"Claims", strconv.Itoa(s.Summary.Claims)},
			{"Claimed", money(s.Summary.TotalClaimAmount)},
		},
	})
	md.PlainText("")

	if s.Summary.Reports == 0 {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Reports by Priority"),
		piechart.WithShowData(true),
	)
	for _, p := range priorities {
		if n := s.Summary.ByPriority[p]; n > 0 {
			chart.LabelAndIntValue(string(p), uint64(n))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (m *MarkdownWriter) writeReports(md *markdown.Markdown, s Snapshot) {
	md.H2("Reports")
	md.PlainText("")
	if len(s.Reports) == 0 {
		md.PlainText("No reports filed.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, len(s.Reports))
	for _, r := range s.Reports {
		rows = append(rows, []string{
			strconv.Itoa(r.ID), r.Address, strconv.Itoa(r.Severity), r.Location, r.District, string(r.Priority),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Address", "Severity", "Location", "District", "Priority"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (m *MarkdownWriter) writeWorkOrders(md *markdown.Markdown, s Snapshot) {
	md.H2("Work Orders")
	md.PlainText("")
	if len(s.WorkOrders) == 0 {
		md.PlainText("No work orders assigned.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, len(s.WorkOrders))
	for _, w := range s.WorkOrders {
		rows = append(rows, []string{
			strconv.Itoa(w.ReportID),
			strconv.Itoa(w.CrewID),
			strconv.Itoa(w.CrewSize),
			equipment(w),
			strconv.FormatFloat(w.Hours, 'f', -1, 64),
			strconv.FormatFloat(w.MaterialKg, 'f', -1, 64),
			string(w.Status),
			money(w.Cost),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Report", "Crew", "Size", "Equipment", "Hours", "Material (kg)", "Status", "Cost"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (m *MarkdownWriter) writeClaims(md *markdown.Markdown, s Snapshot) {
	md.H2("Damage Claims")
	md.PlainText("")
	if len(s.Claims) == 0 {
		md.PlainText("No damage claims submitted.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, len(s.Claims))
	for _, c := range s.Claims {
		rows = append(rows, []string{c.ID, strconv.Itoa(c.ReportID), c.ClaimantName, c.DamageType, money(c.Amount)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Report", "Claimant", "Damage", "Amount"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (m *MarkdownWriter) writeEvents(md *markdown.Markdown, s Snapshot) {
	md.H2("Event Log")
	md.PlainText("")
	rows := make([][]string, 0, len(s.Events))
	for i, e := range s.Events {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), e.TS.Format(timeLayout), e.Type, e.EntityKind + " " + e.EntityID, markdown.Code(e.Payload),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Time", "Type", "Entity", "Payload"},
		Rows:   rows,
	})
	md.PlainText("")
}
