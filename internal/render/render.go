// Package render prints a registry snapshot as tables, markdown or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"phtrs/internal/domain"
	"phtrs/internal/registry"
)

const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Snapshot is a read-only view of registry contents at one point in time.
type Snapshot struct {
	Reports    []domain.Report      `json:"reports"`
	WorkOrders []domain.WorkOrder   `json:"work_orders"`
	Claims     []domain.DamageClaim `json:"claims"`
	Summary    domain.Summary       `json:"summary"`
	Events     []domain.Event       `json:"events,omitempty"`
	Failures   []string             `json:"failures,omitempty"`
}

// SnapshotOf copies the registry contents. Events are included only when
// withEvents is set.
func SnapshotOf(reg *registry.Registry, withEvents bool) Snapshot {
	s := Snapshot{
		Reports:    reg.Reports(),
		WorkOrders: reg.WorkOrders(),
		Claims:     reg.Claims(),
		Summary:    reg.Summary(),
	}
	if withEvents {
		s.Events = reg.Events.Events()
	}
	return s
}

type Writer interface {
	Write(s Snapshot) error
}

// New returns the Writer for format.
func New(format string, w io.Writer) (Writer, error) {
	switch format {
	case "", FormatTable:
		return NewTableWriter(w), nil
	case FormatMarkdown:
		return NewMarkdownWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

type JSONWriter struct {
	output io.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{output: w}
}

func (j *JSONWriter) Write(s Snapshot) error {
	return j.Encode(s)
}

// Encode writes any value as indented JSON.
func (j *JSONWriter) Encode(v any) error {
	enc := json.NewEncoder(j.output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func completedAt(w domain.WorkOrder) string {
	if w.CompletedAt == nil {
		return ""
	}
	return w.CompletedAt.Format(timeLayout)
}

const timeLayout = "2006-01-02 15:04:05"

var priorities = []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow}

var statuses = []domain.Status{domain.StatusNotStarted, domain.StatusInProgress, domain.StatusRepaired}

func equipment(w domain.WorkOrder) string {
	return strings.Join(w.Equipment, ", ")
}
