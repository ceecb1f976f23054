package prediction

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

const leafFeature = -1

// Tree is a binary regression tree stored as parallel node arrays. Node 0 is
// the root. Leaves have Feature == -1 and carry NumOutputs values in Value.
type Tree struct {
	Feature   []int8
	Threshold []float64
	Left      []int32
	Right     []int32
	Value     []float64
}

// TreeConfig controls tree growth.
type TreeConfig struct {
	// MaxDepth limits the depth of the tree. Zero means unlimited.
	MaxDepth int
	// MinSamplesSplit is the minimum number of samples needed to split a node.
	MinSamplesSplit int
	// MinSamplesLeaf is the minimum number of samples in each child.
	MinSamplesLeaf int
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = 1
	}
	return c
}

// Nodes returns the number of nodes in the tree.
func (t *Tree) Nodes() int { return len(t.Feature) }

// Predict walks the tree for x and returns the leaf values.
func (t *Tree) Predict(x []float64) [NumOutputs]float64 {
	i := int32(0)
	for t.Feature[i] != leafFeature {
		if x[t.Feature[i]] <= t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	var out [NumOutputs]float64
	copy(out[:], t.Value[int(i)*NumOutputs:])
	return out
}

// treeBuilder grows a tree with the squared-error criterion summed over all
// outputs.
type treeBuilder struct {
	cfg  TreeConfig
	data Dataset
	rng  *rand.Rand
	tree *Tree
}

// fitTree grows a tree on the samples at idx. Indices may repeat, which is
// how bootstrap samples are represented.
func fitTree(d Dataset, idx []int, cfg TreeConfig, rng *rand.Rand) *Tree {
	b := &treeBuilder{cfg: cfg.withDefaults(), data: d, rng: rng, tree: &Tree{}}
	work := slices.Clone(idx)
	b.grow(work, 0)
	return b.tree
}

func (b *treeBuilder) addNode() int32 {
	t := b.tree
	t.Feature = append(t.Feature, leafFeature)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, -1)
	t.Right = append(t.Right, -1)
	t.Value = append(t.Value, make([]float64, NumOutputs)...)
	return int32(len(t.Feature) - 1)
}

type split struct {
	feature   int
	threshold float64
	score     float64
}

func (b *treeBuilder) grow(idx []int, depth int) int32 {
	node := b.addNode()
	n := len(idx)

	var sum [NumOutputs]float64
	for _, i := range idx {
		for o := 0; o < NumOutputs; o++ {
			sum[o] += b.data.Y[i][o]
		}
	}
	for o := 0; o < NumOutputs; o++ {
		b.tree.Value[int(node)*NumOutputs+o] = sum[o] / float64(n)
	}

	if n < b.cfg.MinSamplesSplit || n < 2*b.cfg.MinSamplesLeaf {
		return node
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return node
	}
	if b.pure(idx) {
		return node
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return node
	}

	// Partition in place: samples going left first.
	mid := 0
	for i := range idx {
		if b.data.X[idx[i]][best.feature] <= best.threshold {
			idx[i], idx[mid] = idx[mid], idx[i]
			mid++
		}
	}

	b.tree.Feature[node] = int8(best.feature)
	b.tree.Threshold[node] = best.threshold
	left := b.grow(idx[:mid], depth+1)
	right := b.grow(idx[mid:], depth+1)
	b.tree.Left[node] = left
	b.tree.Right[node] = right
	return node
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.data.Y[idx[0]]
	for _, i := range idx[1:] {
		if b.data.Y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit maximises sum(S_left²)/n_left + sum(S_right²)/n_right over all
// features and thresholds, which is equivalent to minimising the weighted
// squared error of the children.
func (b *treeBuilder) bestSplit(idx []int, total [NumOutputs]float64) (split, bool) {
	n := len(idx)
	var parent float64
	for o := 0; o < NumOutputs; o++ {
		parent += total[o] * total[o]
	}
	parent /= float64(n)

	best := split{score: parent}
	found := false
	sorted := make([]int, n)
	minLeaf := b.cfg.MinSamplesLeaf

	for _, f := range b.rng.Perm(len(b.data.X[idx[0]])) {
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.data.X[a][f], b.data.X[c][f])
		})
		if b.data.X[sorted[0]][f] == b.data.X[sorted[n-1]][f] {
			continue
		}

		var left [NumOutputs]float64
		for i := 0; i < n-1; i++ {
			y := b.data.Y[sorted[i]]
			for o := 0; o < NumOutputs; o++ {
				left[o] += y[o]
			}
			nl := i + 1
			nr := n - nl
			if nl < minLeaf {
				continue
			}
			if nr < minLeaf {
				break
			}
			xi, xn := b.data.X[sorted[i]][f], b.data.X[sorted[i+1]][f]
			if xi == xn {
				continue
			}
			var sl, sr float64
			for o := 0; o < NumOutputs; o++ {
				r := total[o] - left[o]
				sl += left[o] * left[o]
				sr += r * r
			}
			score := sl/float64(nl) + sr/float64(nr)
			if score > best.score {
				thr := xi + (xn-xi)/2
				if thr >= xn {
					thr = xi
				}
				best = split{feature: f, threshold: thr, score: score}
				found = true
			}
		}
	}
	return best, found
}
