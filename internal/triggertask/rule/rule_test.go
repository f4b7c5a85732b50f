package rule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionHolds(t *testing.T) {
	cases := []struct {
		name      string
		condition Condition
		observed  float64
		threshold float64
		want      bool
	}{
		{name: "greater_than_true", condition: ConditionGreaterThan, observed: 30.5, threshold: 30, want: true},
		{name: "greater_than_equal", condition: ConditionGreaterThan, observed: 30, threshold: 30, want: false},
		{name: "less_than_true", condition: ConditionLessThan, observed: 10, threshold: 12, want: true},
		{name: "less_than_false", condition: ConditionLessThan, observed: 12, threshold: 12, want: false},
		{name: "equals_within_tolerance", condition: ConditionEquals, observed: 20.005, threshold: 20, want: true},
		{name: "equals_exact", condition: ConditionEquals, observed: 20, threshold: 20, want: true},
		{name: "equals_at_tolerance", condition: ConditionEquals, observed: 20.5, threshold: 20.49, want: false},
		{name: "equals_outside", condition: ConditionEquals, observed: 20.02, threshold: 20, want: false},
		{name: "unknown", condition: Condition("between"), observed: 1, threshold: 1, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.condition.Holds(tc.observed, tc.threshold))
		})
	}
}

func TestEqualsBoundaryIsExclusive(t *testing.T) {
	assert.False(t, ConditionEquals.Holds(0, EqualsTolerance))
	assert.False(t, ConditionEquals.Holds(EqualsTolerance, 0))
	assert.True(t, ConditionEquals.Holds(0, EqualsTolerance/2))
}

func TestActionPumpState(t *testing.T) {
	on, ok := ActionPowerOnAllPumps.PumpState()
	assert.True(t, on)
	assert.True(t, ok)

	on, ok = ActionPowerOffAllPumps.PumpState()
	assert.False(t, on)
	assert.True(t, ok)

	_, ok = Action("water_plants").PumpState()
	assert.False(t, ok)
}

func TestParseEnumerations(t *testing.T) {
	m, err := ParseMetric(" humidity ")
	require.NoError(t, err)
	assert.Equal(t, MetricHumidity, m)

	_, err = ParseMetric("pressure")
	assert.ErrorIs(t, err, ErrInvalidMetric)

	_, err = ParseCondition("greater_or_equal")
	assert.ErrorIs(t, err, ErrInvalidCondition)

	_, err = ParseAction("")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestFromJSONDropsUnknownNullAndNonNumeric(t *testing.T) {
	data := FromJSON(map[string]json.RawMessage{
		"temperature": json.RawMessage(`21`),
		"humidity":    json.RawMessage(`null`),
		"wind_speed":  json.RawMessage(`"windy"`),
		"pressure":    json.RawMessage(`1013`),
		"city":        json.RawMessage(`"London"`),
	})
	assert.Len(t, data, 1)
	v, ok := data.Lookup(MetricTemperature)
	assert.True(t, ok)
	assert.Equal(t, 21.0, v)

	_, ok = data.Lookup(MetricHumidity)
	assert.False(t, ok)
	_, ok = data.Lookup(MetricWindSpeed)
	assert.False(t, ok)
}

func TestFromJSONKeepsZero(t *testing.T) {
	data := FromJSON(map[string]json.RawMessage{"humidity": json.RawMessage(`0`)})
	v, ok := data.Lookup(MetricHumidity)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}
