package statistics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/race-insights/internal/models"
)

func TestMarginRequiresTwoFinishers(t *testing.T) {
	race := newRace(horse("A", 1, 2.0), horse("X", models.NonFinisherPosition, 3.0))

	stats := Compute(race)

	assert.Nil(t, stats.Margin)
}

func TestMarginFromRawValue(t *testing.T) {
	tests := []struct {
		raw   string
		label string
		class models.MarginClass
	}{
		{"courte tête", "short head", models.MarginClose},
		{"Courte Tete", "short head", models.MarginClose},
		{"Nez", "nose", models.MarginClose},
		{"encolure", "neck", models.MarginClose},
		{"dh", "dead heat", models.MarginClose},
		{"1/2", "1/2 length", models.MarginClose},
		{"3/4 L", "3/4 length", models.MarginComfortable},
		{"1", "1 length", models.MarginComfortable},
		{"1 1/2 lengths", "1 1/2 lengths", models.MarginComfortable},
		{"2,5 longueurs", "2 1/2 lengths", models.MarginComfortable},
		{"1½", "1 1/2 lengths", models.MarginComfortable},
		{"6", "6 lengths", models.MarginDecisive},
		{"Dist.", "distance", models.MarginDecisive},
		{"a street", "a street", models.MarginUnknown},
		{"nan", "nan", models.MarginUnknown},
		{"inf", "inf", models.MarginUnknown},
		{"Infinity", "Infinity", models.MarginUnknown},
		{"1/inf", "1/inf", models.MarginUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a, b := horse("A", 1, 2.0), horse("B", 2, 3.0)
			b.Performance.Margin = strPtr(tt.raw)

			stats := Compute(newRace(a, b))

			require.NotNil(t, stats.Margin)
			assert.Equal(t, tt.label, stats.Margin.Label)
			assert.Equal(t, tt.class, stats.Margin.Class)
		})
	}
}

func TestNonFiniteMarginStaysEncodable(t *testing.T) {
	for _, raw := range []string{"nan", "-inf", "+Inf"} {
		t.Run(raw, func(t *testing.T) {
			a, b := horse("A", 1, 2.0), horse("B", 2, 3.0)
			b.Performance.Margin = strPtr(raw)
			race := newRace(a, b)

			withStats := race.WithStatistics(Compute(race))

			require.NotNil(t, withStats.Statistics.Margin)
			assert.Equal(t, models.MarginUnknown, withStats.Statistics.Margin.Class)
			_, err := json.Marshal(withStats)
			assert.NoError(t, err)
		})
	}
}

func TestDistanceMarginHasFiniteLengths(t *testing.T) {
	a, b := horse("A", 1, 2.0), horse("B", 2, 3.0)
	b.Performance.Margin = strPtr("45")

	stats := Compute(newRace(a, b))

	require.NotNil(t, stats.Margin)
	assert.Equal(t, "distance", stats.Margin.Label)
	assert.Equal(t, distanceLengths, stats.Margin.Lengths)
}

func TestMarginFromFinishingTimes(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
		label  string
		class  models.MarginClass
	}{
		{"same time", `1'34"56`, `1'34"56`, "dead heat", models.MarginClose},
		{"two hundredths", `1'34"56`, `1'34"58`, "short head", models.MarginClose},
		{"one second", "1:34.50", "1:35.50", "5 lengths", models.MarginDecisive},
		{"three tenths", "94.2", "94.5", "1 1/2 lengths", models.MarginComfortable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := horse("A", 1, 2.0), horse("B", 2, 3.0)
			a.Performance.FinishingTime = strPtr(tt.first)
			b.Performance.FinishingTime = strPtr(tt.second)

			stats := Compute(newRace(a, b))

			require.NotNil(t, stats.Margin)
			assert.Equal(t, tt.label, stats.Margin.Label)
			assert.Equal(t, tt.class, stats.Margin.Class)
		})
	}
}

func TestMarginNotRecorded(t *testing.T) {
	a, b := horse("A", 1, 2.0), horse("B", 2, 3.0)
	a.Performance.FinishingTime = strPtr(`1'34"56`)

	stats := Compute(newRace(a, b))

	require.NotNil(t, stats.Margin)
	assert.Equal(t, "not recorded", stats.Margin.Label)
	assert.Equal(t, models.MarginUnknown, stats.Margin.Class)
	assert.Equal(t, -1.0, stats.Margin.Lengths)
}

func TestParseFinishingTime(t *testing.T) {
	tests := []struct {
		raw      string
		expected time.Duration
		ok       bool
	}{
		{`1'34"56`, 94560 * time.Millisecond, true},
		{`1'34''5`, 94500 * time.Millisecond, true},
		{"1:34.56", 94560 * time.Millisecond, true},
		{"1m34.56s", 94560 * time.Millisecond, true},
		{"94,56", 94560 * time.Millisecond, true},
		{"", 0, false},
		{"soon", 0, false},
		{"1:34:56", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d, ok := ParseFinishingTime(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, d)
			}
		})
	}
}
