// Package registry owns every report, work order and damage claim and is the
// only place they are created or changed.
//
// A Registry is not safe for concurrent use. Hosts that share one between
// goroutines must serialize all calls, reads included.
package registry

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"phtrs/internal/config"
	"phtrs/internal/domain"
	"phtrs/internal/events"
	"phtrs/internal/observability"
)

type Registry struct {
	Config  *config.Config
	Events  *events.Writer
	Metrics *observability.Metrics
	Clock   clockwork.Clock
	Logger  *slog.Logger

	reports      map[int]domain.Report
	workOrders   map[int]domain.WorkOrder
	claims       map[string]domain.DamageClaim
	claimOrder   []string
	claimSeq     map[int]int
	nextReportID int
}

type Option func(*Registry)

// WithClock replaces the real clock, typically with a clockwork fake in tests.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) { r.Clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.Logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.Metrics = m }
}

// New returns an empty Registry. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) *Registry {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Registry{
		Config:       cfg,
		reports:      make(map[int]domain.Report),
		workOrders:   make(map[int]domain.WorkOrder),
		claims:       make(map[string]domain.DamageClaim),
		claimSeq:     make(map[int]int),
		nextReportID: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Clock == nil {
		r.Clock = clockwork.NewRealClock()
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}
	if r.Metrics == nil {
		r.Metrics = observability.NewMetrics(nil)
	}
	r.Events = &events.Writer{Logger: r.Logger, Now: r.Clock.Now}
	r.Logger.Debug("registry initialized",
		"labor_per_hour", cfg.Rates.LaborPerHour,
		"material_per_kg", cfg.Rates.MaterialPerKg,
		"severity_policy", cfg.Validation.Severity,
	)
	return r
}

func (r *Registry) now() time.Time {
	return r.Clock.Now().UTC()
}

// ReportPothole files a new report. The priority is derived from severity once
// and never recomputed.
func (r *Registry) ReportPothole(address string, severity int, location, district string) (domain.Report, error) {
	if severity < domain.MinSeverity || severity > domain.MaxSeverity {
		if r.Config.Validation.Severity != config.SeverityClamp {
			return domain.Report{}, r.fail("report_pothole", "report.create.failed", "report", "",
				fmt.Errorf("severity %d outside %d-%d: %w", severity, domain.MinSeverity, domain.MaxSeverity, ErrInvalidInput))
		}
		severity = clamp(severity, domain.MinSeverity, domain.MaxSeverity)
	}
	rep := domain.Report{
		ID:        r.nextReportID,
		Address:   address,
		Severity:  severity,
		Location:  location,
		District:  district,
		Priority:  domain.PriorityFor(severity),
		CreatedAt: r.now(),
	}
	r.reports[rep.ID] = rep
	r.nextReportID++

	r.Metrics.ReportsCreated.WithLabelValues(string(rep.Priority)).Inc()
	r.record("report.created", "report", itoa(rep.ID), events.EventPayload{
		"address":  rep.Address,
		"severity": rep.Severity,
		"location": rep.Location,
		"district": rep.District,
		"priority": string(rep.Priority),
	})
	return rep, nil
}

// AssignWorkOrder creates a fresh work order for reportID, replacing any
// existing one unless it is repaired and reassignment is disabled.
func (r *Registry) AssignWorkOrder(reportID, crewID, crewSize int, equipment []string) (domain.WorkOrder, error) {
	const op, failType = "assign_work_order", "workorder.assign.failed"
	if _, ok := r.reports[reportID]; !ok {
		return domain.WorkOrder{}, r.fail(op, failType, "report", itoa(reportID),
			fmt.Errorf("report %d: %w", reportID, ErrNotFound))
	}
	if crewSize <= 0 {
		return domain.WorkOrder{}, r.fail(op, failType, "report", itoa(reportID),
			fmt.Errorf("crew size %d must be positive: %w", crewSize, ErrInvalidInput))
	}
	prev, exists := r.workOrders[reportID]
	if exists && prev.Status == domain.StatusRepaired && !r.Config.Policies.AllowReassignRepaired {
		return domain.WorkOrder{}, r.fail(op, failType, "workorder", itoa(reportID),
			fmt.Errorf("report %d: %w", reportID, ErrAlreadyRepaired))
	}
	now := r.now()
	wo := domain.WorkOrder{
		ReportID:  reportID,
		CrewID:    crewID,
		CrewSize:  crewSize,
		Equipment: append([]string(nil), equipment...),
		Status:    domain.StatusNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.workOrders[reportID] = wo

	if exists {
		r.record("workorder.reassigned", "workorder", itoa(reportID), events.EventPayload{
			"previous_crew_id": prev.CrewID,
			"previous_status":  string(prev.Status),
		})
	}
	r.Metrics.WorkOrdersAssigned.Inc()
	r.record("workorder.assigned", "workorder", itoa(reportID), events.EventPayload{
		"crew_id":   crewID,
		"crew_size": crewSize,
		"equipment": wo.Equipment,
	})
	return wo.Clone(), nil
}

// LogRepairDetails adds hours and material to the work order and moves it to
// In Progress. Hours and material accumulate; cost is computed from this
// call's figures alone.
func (r *Registry) LogRepairDetails(reportID int, hours, material float64) (domain.WorkOrder, error) {
	const op, failType = "log_repair_details", "workorder.log.failed"
	wo, ok := r.workOrders[reportID]
	if !ok {
		return domain.WorkOrder{}, r.fail(op, failType, "workorder", itoa(reportID),
			fmt.Errorf("work order for report %d: %w", reportID, ErrNotFound))
	}
	if !validQuantity(hours) || !validQuantity(material) {
		return domain.WorkOrder{}, r.fail(op, failType, "workorder", itoa(reportID),
			fmt.Errorf("hours %v and material %v must be non-negative: %w", hours, material, ErrInvalidInput))
	}
	reopened := wo.Status == domain.StatusRepaired

	laborCost := hours * float64(wo.CrewSize) * r.Config.Rates.LaborPerHour
	materialCost := material * r.Config.Rates.MaterialPerKg
	wo.Hours += hours
	wo.MaterialKg += material
	wo.Cost = laborCost + materialCost
	wo.Status = domain.StatusInProgress
	wo.UpdatedAt = r.now()
	wo.CompletedAt = nil
	r.workOrders[reportID] = wo

	if reopened {
		r.record("workorder.reopened", "workorder", itoa(reportID), nil)
	}
	r.Metrics.RepairsLogged.Inc()
	r.Metrics.RepairCost.Observe(wo.Cost)
	r.record("workorder.repair_logged", "workorder", itoa(reportID), events.EventPayload{
		"hours":    hours,
		"material": material,
		"cost":     money(wo.Cost),
	})
	return wo.Clone(), nil
}

// CompleteRepair marks the work order repaired. Cost is left as the last
// LogRepairDetails call computed it.
func (r *Registry) CompleteRepair(reportID int) (domain.WorkOrder, error) {
	wo, ok := r.workOrders[reportID]
	if !ok {
		return domain.WorkOrder{}, r.fail("complete_repair", "workorder.complete.failed", "workorder", itoa(reportID),
			fmt.Errorf("work order for report %d: %w", reportID, ErrNotFound))
	}
	now := r.now()
	wo.Status = domain.StatusRepaired
	wo.UpdatedAt = now
	if wo.CompletedAt == nil {
		wo.CompletedAt = &now
	}
	r.workOrders[reportID] = wo

	r.Metrics.RepairsCompleted.Inc()
	r.record("workorder.completed", "workorder", itoa(reportID), events.EventPayload{
		"total_cost": money(wo.Cost),
	})
	return wo.Clone(), nil
}

// SubmitDamageClaim files a claim against an existing report. Claim ids are
// C<report>-<n> with n counting claims per report from 1.
func (r *Registry) SubmitDamageClaim(reportID int, name, address, phone, damageType string, amount float64) (domain.DamageClaim, error) {
	const op, failType = "submit_damage_claim", "claim.submit.failed"
	if _, ok := r.reports[reportID]; !ok {
		return domain.DamageClaim{}, r.fail(op, failType, "report", itoa(reportID),
			fmt.Errorf("report %d: %w", reportID, ErrNotFound))
	}
	if !validQuantity(amount) || (amount == 0 && !r.Config.Validation.AllowZeroClaim) {
		return domain.DamageClaim{}, r.fail(op, failType, "report", itoa(reportID),
			fmt.Errorf("claim amount %v: %w", amount, ErrInvalidInput))
	}
	seq := r.claimSeq[reportID] + 1
	c := domain.DamageClaim{
		ID:              fmt.Sprintf("C%d-%d", reportID, seq),
		ReportID:        reportID,
		ClaimantName:    name,
		ClaimantAddress: address,
		Phone:           phone,
		DamageType:      damageType,
		Amount:          amount,
		CreatedAt:       r.now(),
	}
	r.claimSeq[reportID] = seq
	r.claims[c.ID] = c
	r.claimOrder = append(r.claimOrder, c.ID)

	r.Metrics.ClaimsSubmitted.Inc()
	r.Metrics.ClaimAmount.Observe(amount)
	r.record("claim.submitted", "claim", c.ID, events.EventPayload{
		"report_id":   reportID,
		"name":        name,
		"damage_type": damageType,
		"amount":      money(amount),
	})
	return c, nil
}

func (r *Registry) Report(id int) (domain.Report, error) {
	rep, ok := r.reports[id]
	if !ok {
		return domain.Report{}, fmt.Errorf("report %d: %w", id, ErrNotFound)
	}
	return rep, nil
}

func (r *Registry) WorkOrder(reportID int) (domain.WorkOrder, error) {
	wo, ok := r.workOrders[reportID]
	if !ok {
		return domain.WorkOrder{}, fmt.Errorf("work order for report %d: %w", reportID, ErrNotFound)
	}
	return wo.Clone(), nil
}

func (r *Registry) Claim(id string) (domain.DamageClaim, error) {
	c, ok := r.claims[id]
	if !ok {
		return domain.DamageClaim{}, fmt.Errorf("claim %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// Reports lists reports by ascending id.
func (r *Registry) Reports() []domain.Report {
	out := make([]domain.Report, 0, len(r.reports))
	for _, rep := range r.reports {
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WorkOrders lists work orders by ascending report id.
func (r *Registry) WorkOrders() []domain.WorkOrder {
	out := make([]domain.WorkOrder, 0, len(r.workOrders))
	for _, wo := range r.workOrders {
		out = append(out, wo.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportID < out[j].ReportID })
	return out
}

// Claims lists claims in submission order.
func (r *Registry) Claims() []domain.DamageClaim {
	out := make([]domain.DamageClaim, 0, len(r.claimOrder))
	for _, id := range r.claimOrder {
		out = append(out, r.claims[id])
	}
	return out
}

func (r *Registry) ClaimsForReport(reportID int) ([]domain.DamageClaim, error) {
	if _, ok := r.reports[reportID]; !ok {
		return nil, fmt.Errorf("report %d: %w", reportID, ErrNotFound)
	}
	var out []domain.DamageClaim
	for _, id := range r.claimOrder {
		if c := r.claims[id]; c.ReportID == reportID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *Registry) Summary() domain.Summary {
	s := domain.Summary{
		Reports:    len(r.reports),
		ByPriority: map[domain.Priority]int{},
		WorkOrders: len(r.workOrders),
		ByStatus:   map[domain.Status]int{},
		Claims:     len(r.claims),
	}
	for _, rep := range r.reports {
		s.ByPriority[rep.Priority]++
	}
	for _, wo := range r.workOrders {
		s.ByStatus[wo.Status]++
		s.TotalRepairCost += wo.Cost
	}
	for _, c := range r.claims {
		s.TotalClaimAmount += c.Amount
	}
	return s
}

// record journals a successful state change.
func (r *Registry) record(evtType, entityKind, entityID string, payload events.EventPayload) {
	if _, err := r.Events.Append(evtType, entityKind, entityID, payload); err != nil {
		r.Logger.Error("append event", "type", evtType, "error", err)
	}
}

// fail journals and counts a rejected operation, then returns err unchanged.
func (r *Registry) fail(op, evtType, entityKind, entityID string, err error) error {
	kind := errorKind(err)
	r.Metrics.OperationErrors.WithLabelValues(op, kind).Inc()
	r.record(evtType, entityKind, entityID, events.EventPayload{
		"error": err.Error(),
		"kind":  kind,
	})
	return err
}

func validQuantity(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func itoa(id int) string {
	return strconv.Itoa(id)
}

// money renders a currency value the way the operator log shows it.
func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
