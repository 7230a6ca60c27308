package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phtrs/internal/registry"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(viper.New(), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func initConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phtrs.yml")
	out, _, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)
	return path
}

func TestConfigInitValidateShow(t *testing.T) {
	path := initConfig(t)

	_, _, err := execute(t, "config", "init", "--config", path)
	require.Error(t, err)

	out, _, err := execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	out, _, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "labor_per_hour: 50")
}

func TestConfigShowAppliesOverrides(t *testing.T) {
	path := initConfig(t)

	out, _, err := execute(t, "config", "show", "--config", path, "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "level: debug")

	t.Setenv("PHTRS_LOG_FORMAT", "json")
	out, _, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "format: json")

	_, _, err = execute(t, "config", "show", "--config", path, "--log-level", "loud")
	require.Error(t, err)
}

func TestDemoJSON(t *testing.T) {
	path := initConfig(t)

	out, stderr, err := execute(t, "demo", "--config", path, "--json", "--events")
	require.NoError(t, err)

	var snap struct {
		Reports    []map[string]any `json:"reports"`
		WorkOrders []struct {
			Status string  `json:"status"`
			Cost   float64 `json:"cost"`
		} `json:"work_orders"`
		Claims []struct {
			ID     string  `json:"id"`
			Amount float64 `json:"amount"`
		} `json:"claims"`
		Events []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.WorkOrders, 1)
	assert.Equal(t, "Repaired", snap.WorkOrders[0].Status)
	assert.InDelta(t, 475.0, snap.WorkOrders[0].Cost, 1e-9)
	require.Len(t, snap.Claims, 1)
	assert.Equal(t, "C1-1", snap.Claims[0].ID)
	assert.Len(t, snap.Events, 5)
	assert.Contains(t, stderr, "scenario finished")
}

func TestDemoMarkdownWithMetrics(t *testing.T) {
	path := initConfig(t)

	out, _, err := execute(t, "demo", "--config", path, "--format", "markdown", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "# Pothole Tracking Report")
	assert.Contains(t, out, "phtrs_claims_submitted_total")
}

func TestRunScenarioFailure(t *testing.T) {
	path := initConfig(t)
	scenarioPath := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(`steps:
  - report: {address: "1 Elm", severity: 9, location: middle, district: East}
  - assign: {report_id: 5, crew_id: 1, crew_size: 2}
  - complete: {report_id: 1}
`), 0o644))

	out, _, err := execute(t, "run", "--config", path, "--file", scenarioPath)
	require.ErrorIs(t, err, registry.ErrNotFound)
	assert.Contains(t, out, "1 Elm")
	assert.Contains(t, out, "step 2 (assign)")

	_, _, err = execute(t, "run", "--config", path, "--file", scenarioPath, "--continue-on-error")
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRunRequiresFile(t *testing.T) {
	_, _, err := execute(t, "run")
	require.Error(t, err)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, _, err := execute(t, "demo", "--config", filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestUnknownFormat(t *testing.T) {
	path := initConfig(t)
	_, _, err := execute(t, "demo", "--config", path, "--format", "xml")
	require.Error(t, err)
}
