// Package scenario replays a YAML list of registry operations. It is how the
// CLI drives a Registry, since nothing survives between processes.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"phtrs/internal/registry"
)

type Scenario struct {
	Steps           []Step `yaml:"steps"`
	ContinueOnError bool   `yaml:"continue_on_error"`
}

// Step holds exactly one operation.
type Step struct {
	Report   *ReportStep   `yaml:"report,omitempty"`
	Assign   *AssignStep   `yaml:"assign,omitempty"`
	Log      *LogStep      `yaml:"log,omitempty"`
	Complete *CompleteStep `yaml:"complete,omitempty"`
	Claim    *ClaimStep    `yaml:"claim,omitempty"`
}

type ReportStep struct {
	Address  string `yaml:"address"`
	Severity int    `yaml:"severity"`
	Location string `yaml:"location"`
	District string `yaml:"district"`
}

type AssignStep struct {
	ReportID  int      `yaml:"report_id"`
	CrewID    int      `yaml:"crew_id"`
	CrewSize  int      `yaml:"crew_size"`
	Equipment []string `yaml:"equipment"`
}

type LogStep struct {
	ReportID int     `yaml:"report_id"`
	Hours    float64 `yaml:"hours"`
	Material float64 `yaml:"material"`
}

type CompleteStep struct {
	ReportID int `yaml:"report_id"`
}

type ClaimStep struct {
	ReportID   int     `yaml:"report_id"`
	Name       string  `yaml:"name"`
	Address    string  `yaml:"address"`
	Phone      string  `yaml:"phone"`
	DamageType string  `yaml:"damage_type"`
	Amount     float64 `yaml:"amount"`
}

// Op names the step's operation, or returns an error when the step does not
// carry exactly one.
func (s Step) Op() (string, error) {
	var ops []string
	if s.Report != nil {
		ops = append(ops, "report")
	}
	if s.Assign != nil {
		ops = append(ops, "assign")
	}
	if s.Log != nil {
		ops = append(ops, "log")
	}
	if s.Complete != nil {
		ops = append(ops, "complete")
	}
	if s.Claim != nil {
		ops = append(ops, "claim")
	}
	switch len(ops) {
	case 1:
		return ops[0], nil
	case 0:
		return "", errors.New("step has no operation")
	default:
		return "", fmt.Errorf("step has %d operations %v; want exactly one", len(ops), ops)
	}
}

// Validate checks the shape of every step without touching a registry.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	for i, st := range s.Steps {
		if _, err := st.Op(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// FromYAML parses and validates a scenario. Unknown keys are rejected so a
// misspelled field cannot turn into a zero-valued argument.
func FromYAML(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid scenario yaml: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// FromFile reads a YAML scenario from path.
func FromFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// StepError ties a failed registry call to its 1-based step number.
type StepError struct {
	Step int    `json:"step"`
	Op   string `json:"op"`
	Err  error  `json:"-"`
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

type Result struct {
	Executed int          `json:"executed"`
	Failures []*StepError `json:"failures,omitempty"`
}

// Err joins all step failures, or returns nil.
func (r Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Run applies the steps to reg in order. It stops at the first failure unless
// ContinueOnError is set.
func Run(reg *registry.Registry, sc *Scenario) Result {
	var res Result
	for i, st := range sc.Steps {
		op, err := st.Op()
		if err == nil {
			err = apply(reg, st)
		}
		res.Executed++
		if err != nil {
			res.Failures = append(res.Failures, &StepError{Step: i + 1, Op: op, Err: err})
			if !sc.ContinueOnError {
				break
			}
		}
	}
	return res
}

func apply(reg *registry.Registry, st Step) error {
	var err error
	switch {
	case st.Report != nil:
		s := st.Report
		_, err = reg.ReportPothole(s.Address, s.Severity, s.Location, s.District)
	case st.Assign != nil:
		s := st.Assign
		_, err = reg.AssignWorkOrder(s.ReportID, s.CrewID, s.CrewSize, s.Equipment)
	case st.Log != nil:
		s := st.Log
		_, err = reg.LogRepairDetails(s.ReportID, s.Hours, s.Material)
	case st.Complete != nil:
		_, err = reg.CompleteRepair(st.Complete.ReportID)
	case st.Claim != nil:
		s := st.Claim
		_, err = reg.SubmitDamageClaim(s.ReportID, s.Name, s.Address, s.Phone, s.DamageType, s.Amount)
	}
	return err
}

// Demo is the walkthrough of one report from filing to a damage claim.
func Demo() *Scenario {
	return &Scenario{Steps: []Step{
		{Report: &ReportStep{Address: "123 Main St", Severity: 7, Location: "curb", District: "North"}},
		{Assign: &AssignStep{ReportID: 1, CrewID: 42, CrewSize: 3, Equipment: []string{"Truck", "Shovel"}}},
		{Log: &LogStep{ReportID: 1, Hours: 2.5, Material: 50}},
		{Complete: &CompleteStep{ReportID: 1}},
		{Claim: &ClaimStep{ReportID: 1, Name: "Jane Doe", Address: "456 Oak Ave", Phone: "555-1234", DamageType: "Flat tire", Amount: 100.00}},
	}}
}
