package prediction

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/battery-health/core/model"
)

// NumOutputs is the number of regression targets: health and distance.
const NumOutputs = 2

// BaseDistanceKM is the range of a healthy battery in ideal conditions.
const BaseDistanceKM = 400.0

// Sampling bounds for synthetic training data. They are wider than the
// simulator's operating ranges for temperature.
var trainingBounds = [model.NumFeatures][2]float64{
	{20, 50},   // temperature
	{10, 95},   // dod
	{0.5, 2.5}, // c_rate
	{-15, 15},  // inclination
	{50, 300},  // load
	{0.1, 3.0}, // jerk
}

// Dataset holds feature rows and their two targets.
type Dataset struct {
	X [][]float64
	Y [][NumOutputs]float64
}

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d.X) }

// Subset returns the samples at the given indices.
func (d Dataset) Subset(idx []int) Dataset {
	out := Dataset{X: make([][]float64, len(idx)), Y: make([][NumOutputs]float64, len(idx))}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Y[i] = d.Y[j]
	}
	return out
}

// Synthesize draws n samples with a generator seeded by seed. Columns are
// drawn one after the other so a given seed always yields the same data.
func Synthesize(n int, seed uint64) Dataset {
	src := rand.NewPCG(seed, seed)
	cols := make([][]float64, model.NumFeatures)
	for c := range cols {
		u := distuv.Uniform{Min: trainingBounds[c][0], Max: trainingBounds[c][1], Src: src}
		cols[c] = make([]float64, n)
		for i := range cols[c] {
			cols[c][i] = u.Rand()
		}
	}
	d := Dataset{X: make([][]float64, n), Y: make([][NumOutputs]float64, n)}
	for i := 0; i < n; i++ {
		row := make([]float64, model.NumFeatures)
		for c := range cols {
			row[c] = cols[c][i]
		}
		d.X[i] = row
		h := HealthLabel(row[0], row[1], row[2], row[3], row[4], row[5])
		d.Y[i] = [NumOutputs]float64{h, DistanceLabel(h, row[0], row[1], row[2])}
	}
	return d
}

// HealthLabel is the ground-truth health used for training: 100 minus a
// weighted sum of per-factor degradation, each capped before weighting.
func HealthLabel(temperature, dod, cRate, inclination, load, jerk float64) float64 {
	return 100 - (0.4*model.Clamp((temperature-25)/25*15, 0, 15) +
		0.3*model.Clamp((dod-20)/75*20, 0, 20) +
		0.2*model.Clamp((cRate-0.5)/2*10, 0, 10) +
		0.05*model.Clamp(math.Abs(inclination)/15*5, 0, 5) +
		0.03*model.Clamp((load-50)/250*5, 0, 5) +
		0.02*model.Clamp(jerk/3*5, 0, 5))
}

// DistanceLabel is the ground-truth remaining distance in km for a battery
// at the given health.
func DistanceLabel(health, temperature, dod, cRate float64) float64 {
	tempEffect := 25 / model.Clamp(temperature, 25, 50)
	dodEffect := 1 - 0.2*(model.Clamp(dod, 20, 95)-20)/75
	rateEffect := 1 - 0.1*(model.Clamp(cRate, 0.5, 2.5)-0.5)/2
	return BaseDistanceKM * (health / 100) * (0.9 + 0.1*tempEffect*dodEffect*rateEffect)
}

// TrainTestSplit shuffles the sample indices with seed and returns the
// training and test partitions. testFraction of the samples, rounded up, go
// to the test set.
func TrainTestSplit(d Dataset, testFraction float64, seed uint64) (train, test Dataset) {
	n := d.Len()
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest > n {
		nTest = n
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return d.Subset(perm[nTest:]), d.Subset(perm[:nTest])
}
