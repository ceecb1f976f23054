package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/battery-health/core/model"
)

func TestHealthLabelIdealConditions(t *testing.T) {
	assert.InDelta(t, 100.0, HealthLabel(25, 20, 0.5, 0, 50, 0), 1e-12)
}

func TestHealthLabelWorstCase(t *testing.T) {
	// 0.4*15 + 0.3*20 + 0.2*10 + 0.05*5 + 0.03*5 + 0.02*5
	h := HealthLabel(50, 95, 2.5, 15, 300, 3)
	assert.InDelta(t, 100-14.5, h, 1e-9)
	// Factors saturate at their caps.
	assert.InDelta(t, h, HealthLabel(90, 150, 9, -40, 900, 10), 1e-9)
}

func TestDistanceLabel(t *testing.T) {
	assert.InDelta(t, 400.0, DistanceLabel(100, 25, 20, 0.5), 1e-9)
	assert.InDelta(t, 200.0, DistanceLabel(50, 25, 20, 0.5), 1e-9)
	// tempEffect 0.5, dodEffect 0.8, rateEffect 0.9
	assert.InDelta(t, 400*(0.9+0.1*0.5*0.8*0.9), DistanceLabel(100, 50, 95, 2.5), 1e-9)
}

func TestSynthesizeDeterministicAndBounded(t *testing.T) {
	a := Synthesize(500, 7)
	b := Synthesize(500, 7)
	require.Equal(t, 500, a.Len())
	assert.Equal(t, a, b)

	c := Synthesize(500, 8)
	assert.NotEqual(t, a.X, c.X)

	for i, row := range a.X {
		require.Len(t, row, model.NumFeatures)
		for f, v := range row {
			assert.GreaterOrEqual(t, v, trainingBounds[f][0])
			assert.LessOrEqual(t, v, trainingBounds[f][1])
		}
		h := HealthLabel(row[0], row[1], row[2], row[3], row[4], row[5])
		assert.Equal(t, h, a.Y[i][0])
		assert.Equal(t, DistanceLabel(h, row[0], row[1], row[2]), a.Y[i][1])
	}
}

func TestTrainTestSplit(t *testing.T) {
	d := Synthesize(101, 1)
	train, test := TrainTestSplit(d, 0.2, 42)
	assert.Equal(t, 21, test.Len())
	assert.Equal(t, 80, train.Len())

	seen := map[*float64]bool{}
	for _, x := range append(train.X, test.X...) {
		seen[&x[0]] = true
	}
	assert.Len(t, seen, 101, "every sample lands in exactly one partition")

	train2, test2 := TrainTestSplit(d, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}
