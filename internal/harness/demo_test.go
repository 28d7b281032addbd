package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDir = "testdata/scenarios"

// TestScenarios runs every scenario under testdata/scenarios.
func TestScenarios(t *testing.T) {
	paths, err := FindScenarios(scenarioDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err, "failed to load scenario from %s", path)
			assert.Equal(t, name, scenario.Name, "scenario name should match file name")
			assert.NotEmpty(t, scenario.Description)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario should pass:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRunSuite(t *testing.T) {
	paths, err := FindScenarios(scenarioDir, "midnight_*")
	require.NoError(t, err)
	require.Len(t, paths, 1)

	result := RunSuite(append(paths, filepath.Join(scenarioDir, "missing.yaml")))
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Errors[0], "failed to load scenario")
}

func TestFindScenarios_BadFilter(t *testing.T) {
	_, err := FindScenarios(scenarioDir, "[")
	assert.Error(t, err)
}
