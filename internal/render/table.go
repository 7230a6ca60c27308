package render

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableWriter renders each collection as a terminal table.
type TableWriter struct {
	output io.Writer
}

func NewTableWriter(w io.Writer) *TableWriter {
	return &TableWriter{output: w}
}

func (t *TableWriter) Write(s Snapshot) error {
	t.reports(s)
	t.workOrders(s)
	t.claims(s)
	t.summary(s)
	if len(s.Events) > 0 {
		t.events(s)
	}
	if len(s.Failures) > 0 {
		t.failures(s)
	}
	return nil
}

func (t *TableWriter) newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(t.output)
	tw.SetTitle(title)
	return tw
}

func (t *TableWriter) reports(s Snapshot) {
	tw := t.newTable("Reports")
	tw.AppendHeader(table.Row{"ID", "Address", "Severity", "Location", "District", "Priority", "Created"})
	for _, r := range s.Reports {
		tw.AppendRow(table.Row{r.ID, r.Address, r.Severity, r.Location, r.District, r.Priority, r.CreatedAt.Format(timeLayout)})
	}
	tw.Render()
}

func (t *TableWriter) workOrders(s Snapshot) {
	tw := t.newTable("Work Orders")
	tw.AppendHeader(table.Row{"Report", "Crew", "Size", "Equipment", "Hours", "Material (kg)", "Status", "Cost", "Completed"})
	for _, w := range s.WorkOrders {
		tw.AppendRow(table.Row{w.ReportID, w.CrewID, w.CrewSize, equipment(w), w.Hours, w.MaterialKg, w.Status, money(w.Cost), completedAt(w)})
	}
	tw.Render()
}

func (t *TableWriter) claims(s Snapshot) {
	tw := t.newTable("Damage Claims")
	tw.AppendHeader(table.Row{"ID", "Report", "Claimant", "Address", "Phone", "Damage", "Amount"})
	for _, c := range s.Claims {
		tw.AppendRow(table.Row{c.ID, c.ReportID, c.ClaimantName, c.ClaimantAddress, c.Phone, c.DamageType, money(c.Amount)})
	}
	tw.Render()
}

func (t *TableWriter) summary(s Snapshot) {
	tw := t.newTable("Summary")
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRow(table.Row{"Reports", s.Summary.Reports})
	for _, p := range priorities {
		tw.AppendRow(table.Row{"  " + string(p), s.Summary.ByPriority[p]})
	}
	tw.AppendRow(table.Row{"Work orders", s.Summary.WorkOrders})
	for _, st := range statuses {
		tw.AppendRow(table.Row{"  " + string(st), s.Summary.ByStatus[st]})
	}
	tw.AppendRow(table.Row{"Repair cost", money(s.Summary.TotalRepairCost)})
	tw.AppendRow(table.Row{"Claims", s.Summary.Claims})
	tw.AppendRow(table.Row{"Claimed", money(s.Summary.TotalClaimAmount)})
	tw.Render()
}

func (t *TableWriter) events(s Snapshot) {
	tw := t.newTable("Event Log")
	tw.AppendHeader(table.Row{"#", "Time", "Type", "Entity", "Payload"})
	for i, e := range s.Events {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), e.TS.Format(timeLayout), e.Type, e.EntityKind + " " + e.EntityID, e.Payload})
	}
	tw.Render()
}

func (t *TableWriter) failures(s Snapshot) {
	tw := t.newTable("Failures")
	for _, f := range s.Failures {
		tw.AppendRow(table.Row{f})
	}
	tw.Render()
}
