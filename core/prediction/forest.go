package prediction

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ForestConfig controls random forest fitting.
type ForestConfig struct {
	Trees     int
	Seed      uint64
	Bootstrap bool
	Tree      TreeConfig
	// Workers bounds the number of trees fitted concurrently. Zero uses
	// GOMAXPROCS.
	Workers int
}

// Forest is an ensemble of regression trees whose prediction is the mean of
// its trees. It is immutable once fitted and safe for concurrent use.
type Forest struct {
	Trees []*Tree
}

// FitForest fits cfg.Trees trees on d. Each tree draws from its own generator
// derived from cfg.Seed and its index, so the result does not depend on
// scheduling.
func FitForest(ctx context.Context, d Dataset, cfg ForestConfig) (*Forest, error) {
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("forest needs at least one tree, got %d", cfg.Trees)
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("empty training set")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]*Tree, cfg.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)+1))
			idx := make([]int, d.Len())
			for j := range idx {
				if cfg.Bootstrap {
					idx[j] = rng.IntN(d.Len())
				} else {
					idx[j] = j
				}
			}
			trees[i] = fitTree(d, idx, cfg.Tree, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Forest{Trees: trees}, nil
}

// Predict averages the tree outputs for x.
func (f *Forest) Predict(x []float64) [NumOutputs]float64 {
	var out [NumOutputs]float64
	for _, t := range f.Trees {
		v := t.Predict(x)
		for o := range out {
			out[o] += v[o]
		}
	}
	for o := range out {
		out[o] /= float64(len(f.Trees))
	}
	return out
}

// Score returns the coefficient of determination averaged uniformly over the
// outputs.
func (f *Forest) Score(d Dataset) float64 {
	n := d.Len()
	if n == 0 {
		return 0
	}
	est := make([][]float64, NumOutputs)
	obs := make([][]float64, NumOutputs)
	for o := 0; o < NumOutputs; o++ {
		est[o] = make([]float64, n)
		obs[o] = make([]float64, n)
	}
	for i, x := range d.X {
		p := f.Predict(x)
		for o := 0; o < NumOutputs; o++ {
			est[o][i] = p[o]
			obs[o][i] = d.Y[i][o]
		}
	}
	var sum float64
	for o := 0; o < NumOutputs; o++ {
		sum += stat.RSquaredFrom(est[o], obs[o], nil)
	}
	return sum / NumOutputs
}

// Nodes returns the total node count across all trees.
func (f *Forest) Nodes() int {
	n := 0
	for _, t := range f.Trees {
		n += t.Nodes()
	}
	return n
}
