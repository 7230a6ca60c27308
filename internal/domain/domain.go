package domain

import "time"

// Priority is the severity band a report falls into.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Status is the lifecycle state of a work order.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusRepaired   Status = "Repaired"
)

const (
	MinSeverity = 1
	MaxSeverity = 10
)

// PriorityFor maps a severity to its band. It is total over int.
func PriorityFor(severity int) Priority {
	switch {
	case severity >= 8:
		return PriorityHigh
	case severity >= 4:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

type Report struct {
	ID        int       `json:"id"`
	Address   string    `json:"address"`
	Severity  int       `json:"severity"`
	Location  string    `json:"location"`
	District  string    `json:"district"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

type WorkOrder struct {
	ReportID    int        `json:"report_id"`
	CrewID      int        `json:"crew_id"`
	CrewSize    int        `json:"crew_size"`
	Equipment   []string   `json:"equipment,omitempty"`
	Hours       float64    `json:"hours"`
	MaterialKg  float64    `json:"material_kg"`
	Status      Status     `json:"status"`
	Cost        float64    `json:"cost"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with w.
func (w WorkOrder) Clone() WorkOrder {
	out := w
	if w.Equipment != nil {
		out.Equipment = append([]string(nil), w.Equipment...)
	}
	if w.CompletedAt != nil {
		ts := *w.CompletedAt
		out.CompletedAt = &ts
	}
	return out
}

type DamageClaim struct {
	ID              string    `json:"id"`
	ReportID        int       `json:"report_id"`
	ClaimantName    string    `json:"claimant_name"`
	ClaimantAddress string    `json:"claimant_address"`
	Phone           string    `json:"phone"`
	DamageType      string    `json:"damage_type"`
	Amount          float64   `json:"amount"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summary aggregates the registry contents.
type Summary struct {
	Reports          int              `json:"reports"`
	ByPriority       map[Priority]int `json:"by_priority"`
	WorkOrders       int              `json:"work_orders"`
	ByStatus         map[Status]int   `json:"by_status"`
	TotalRepairCost  float64          `json:"total_repair_cost"`
	Claims           int              `json:"claims"`
	TotalClaimAmount float64          `json:"total_claim_amount"`
}

type Event struct {
	ID         string    `json:"id"`
	TS         time.Time `json:"ts"`
	Type       string    `json:"type"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id,omitempty"`
	Payload    string    `json:"payload_json"`
}
