package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertions failed:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "delivery_failure_retried.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_FailingAssertionReported(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_expectation
description: "expects two deliveries where there is one"
accounts: [max]
cycles:
  - fetch:
      max:
        transactions:
          - {id: X1, date: "2024-01-01", amount: "-50", description: Cafe, status: final}
assertions:
  - type: trace_count
    event: sent
    count: 2
  - type: final_state
    where: {description: Cafe}
    expect: {notified: false}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "2 occurrences of sent")
	assert.Contains(t, result.Errors[0], "Actual: 1 occurrences")
	assert.Contains(t, result.Errors[1], `column "notified"`)
}

func TestRun_UnscriptedAccountFetchesNothing(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: quiet
description: "no fetch plan"
accounts: [max, leumi]
cycles:
  - {}
assertions:
  - type: final_state
    rows: 0
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Trace)
}
