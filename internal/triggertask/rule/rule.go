package rule

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// EqualsTolerance bounds the equals condition: |observed - threshold| < EqualsTolerance.
const EqualsTolerance = 0.01

type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricWindSpeed   Metric = "wind_speed"
)

type Condition string

const (
	ConditionGreaterThan Condition = "greater_than"
	ConditionLessThan    Condition = "less_than"
	ConditionEquals      Condition = "equals"
)

type Action string

const (
	ActionPowerOnAllPumps  Action = "power_on_all_pumps"
	ActionPowerOffAllPumps Action = "power_off_all_pumps"
)

// WeatherData is one observation keyed by metric.
type WeatherData map[Metric]float64

var (
	ErrInvalidMetric    = errors.New("invalid_weather_metric")
	ErrInvalidCondition = errors.New("invalid_condition")
	ErrInvalidAction    = errors.New("invalid_action")
)

func ParseMetric(value string) (Metric, error) {
	m := Metric(strings.TrimSpace(value))
	switch m {
	case MetricTemperature, MetricHumidity, MetricWindSpeed:
		return m, nil
	default:
		return "", ErrInvalidMetric
	}
}

func ParseCondition(value string) (Condition, error) {
	c := Condition(strings.TrimSpace(value))
	switch c {
	case ConditionGreaterThan, ConditionLessThan, ConditionEquals:
		return c, nil
	default:
		return "", ErrInvalidCondition
	}
}

func ParseAction(value string) (Action, error) {
	a := Action(strings.TrimSpace(value))
	switch a {
	case ActionPowerOnAllPumps, ActionPowerOffAllPumps:
		return a, nil
	default:
		return "", ErrInvalidAction
	}
}

// Holds reports whether observed satisfies the condition against threshold.
// Unknown conditions never hold.
func (c Condition) Holds(observed, threshold float64) bool {
	switch c {
	case ConditionGreaterThan:
		return observed > threshold
	case ConditionLessThan:
		return observed < threshold
	case ConditionEquals:
		return math.Abs(observed-threshold) < EqualsTolerance
	default:
		return false
	}
}

// PumpState returns the pump state an action drives. ok is false for actions
// that leave pumps untouched.
func (a Action) PumpState() (on bool, ok bool) {
	switch a {
	case ActionPowerOnAllPumps:
		return true, true
	case ActionPowerOffAllPumps:
		return false, true
	default:
		return false, false
	}
}

// Lookup returns the observed value for metric.
func (w WeatherData) Lookup(metric Metric) (float64, bool) {
	v, ok := w[metric]
	return v, ok
}

// FromJSON keeps the known metrics of a loosely typed payload.
// Unknown keys, null values and non-numeric values are dropped, so a task
// whose metric arrived as null reports it as missing.
func FromJSON(values map[string]json.RawMessage) WeatherData {
	out := make(WeatherData, len(values))
	for key, raw := range values {
		m, err := ParseMetric(key)
		if err != nil {
			continue
		}
		var value *float64
		if err := json.Unmarshal(raw, &value); err != nil || value == nil {
			continue
		}
		if math.IsNaN(*value) || math.IsInf(*value, 0) {
			continue
		}
		out[m] = *value
	}
	return out
}
