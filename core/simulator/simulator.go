package simulator

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kilianp07/battery-health/core/model"
)

const (
	// InitialHealth is the health of a new battery in percent.
	InitialHealth = 100.0

	baseConsumptionKWh = 5.0
)

// Operating ranges drawn by Generate.
const (
	MinTemperature = 25.0
	MaxTemperature = 45.0
	MinDoD         = 10
	MaxDoD         = 95
	MinCRate       = 0.5
	MaxCRate       = 2.5
	MinInclination = -15
	MaxInclination = 15
	MinLoad        = 50
	MaxLoad        = 300
	MinJerk        = 0.1
	MaxJerk        = 3.0
	MinVoltage     = 45.0
	MaxVoltage     = 52.0
	MinCurrent     = 50.0
	MaxCurrent     = 200.0
)

// Simulator produces synthetic readings and tracks cumulative battery health.
type Simulator struct {
	mu            sync.Mutex
	rng           *rand.Rand
	now           func() time.Time
	initialHealth float64
	currentHealth float64
	history       *History
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithRand sets the random source. Useful for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithSeed seeds the random source deterministically.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithHistoryCapacity overrides the history buffer size.
func WithHistoryCapacity(n int) Option {
	return func(s *Simulator) { s.history = NewHistory(n) }
}

// New creates a simulator starting at full health.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		now:           time.Now,
		initialHealth: InitialHealth,
		currentHealth: InitialHealth,
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if s.history == nil {
		s.history = NewHistory(DefaultHistoryCapacity)
	}
	return s
}

// Generate draws one reading, degrades the battery accordingly and records
// the reading in the history.
func (s *Simulator) Generate() model.Reading {
	s.mu.Lock()
	f := model.Features{
		Temperature: model.Round1(uniform(s.rng, MinTemperature, MaxTemperature)),
		DoD:         float64(intBetween(s.rng, MinDoD, MaxDoD)),
		CRate:       model.Round1(uniform(s.rng, MinCRate, MaxCRate)),
		Inclination: float64(intBetween(s.rng, MinInclination, MaxInclination)),
		Load:        float64(intBetween(s.rng, MinLoad, MaxLoad)),
		Jerk:        model.Round1(uniform(s.rng, MinJerk, MaxJerk)),
	}
	health := s.step(f)
	r := model.Reading{
		Timestamp:        s.now(),
		Temperature:      f.Temperature,
		DoD:              int(f.DoD),
		CRate:            f.CRate,
		Inclination:      int(f.Inclination),
		Load:             int(f.Load),
		Jerk:             f.Jerk,
		PowerConsumption: PowerConsumption(int(f.Load), int(f.Inclination), f.Jerk),
		Health:           model.Round1(health),
		Voltage:          model.Round1(uniform(s.rng, MinVoltage, MaxVoltage)),
		Current:          model.Round1(uniform(s.rng, MinCurrent, MaxCurrent)),
	}
	s.mu.Unlock()

	s.history.Add(r)
	return r
}

// Step applies the degradation caused by f and returns the new health.
func (s *Simulator) Step(f model.Features) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(f)
}

func (s *Simulator) step(f model.Features) float64 {
	// Below 1C the c-rate term is negative; health must never recover.
	d := math.Max(0, Degradation(f.Temperature, int(f.DoD), f.CRate, f.Jerk))
	s.currentHealth = model.Clamp(s.currentHealth-d, 0, s.initialHealth)
	return s.currentHealth
}

// CurrentHealth returns the unrounded cumulative health.
func (s *Simulator) CurrentHealth() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentHealth
}

// History exposes the reading buffer.
func (s *Simulator) History() *History { return s.history }

// Degradation returns the health lost during one tick under the given
// conditions. The sum can be slightly negative at low c-rate and jerk.
func Degradation(temperature float64, dod int, cRate, jerk float64) float64 {
	temp := math.Max(0, (temperature-30)/1000)
	var depth float64
	if dod > 20 {
		depth = float64(dod-20) / 5000
	}
	rate := (cRate - 1) / 2000
	harsh := jerk / 1000
	return temp + depth + rate + harsh
}

// PowerConsumption estimates the energy used in kWh, rounded to 0.1.
func PowerConsumption(load, inclination int, jerk float64) float64 {
	loadFactor := float64(load) / 100
	inclinationFactor := 1 + math.Abs(float64(inclination))/45
	jerkFactor := 1 + jerk/5
	return model.Round1(baseConsumptionKWh * loadFactor * inclinationFactor * jerkFactor)
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func intBetween(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
