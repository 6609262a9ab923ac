package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	// MaxFeatures is the number of candidate features per split; 0 means sqrt(width).
	MaxFeatures int
	Seed        int64
	// Workers bounds concurrent tree fitting; 0 means GOMAXPROCS.
	Workers int
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

// TrainForest fits a bagged ensemble of Gini trees. Each tree draws a bootstrap sample
// and its own RNG seeded from cfg.Seed, so results do not depend on scheduling.
func TrainForest(ctx context.Context, X [][]float64, y []int, cfg ForestConfig) (*RandomForest, error) {
	if len(X) == 0 || len(y) == 0 {
		return nil, errors.New("features or labels empty")
	}
	if len(X) != len(y) {
		return nil, errors.New("features and labels size mismatch")
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MaxFeatures <= 0 || cfg.MaxFeatures > width {
		cfg.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(width)))))
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	classes := uniqueSorted(y)
	if len(classes) < 2 {
		return nil, errors.New("need at least two classes to train")
	}
	classIdx := make(map[int]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}
	yIdx := make([]int, len(y))
	for i, label := range y {
		yIdx[i] = classIdx[label]
	}

	trees := make([]*DecisionTree, cfg.Trees)
	importances := make([][]float64, cfg.Trees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Trees; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			sample := make([]int, len(X))
			for j := range sample {
				sample[j] = rng.Intn(len(X))
			}
			b := &treeBuilder{
				X:           X,
				y:           yIdx,
				classes:     classes,
				width:       width,
				maxDepth:    cfg.MaxDepth,
				minSplit:    cfg.MinSamplesSplit,
				maxFeatures: cfg.MaxFeatures,
				rng:         rng,
				importance:  make([]float64, width),
				nTotal:      float64(len(sample)),
			}
			b.build(sample, 0)
			trees[i] = &DecisionTree{Nodes: b.nodes}
			importances[i] = normalized(b.importance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	forest := NewRandomForest(width, classes, trees)
	mean := make([]float64, width)
	for _, imp := range importances {
		for j, v := range imp {
			mean[j] += v
		}
	}
	forest.importances = normalized(mean)
	return forest, nil
}

type treeBuilder struct {
	X           [][]float64
	y           []int
	classes     []int
	width       int
	maxDepth    int
	minSplit    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []Node
	importance  []float64
	nTotal      float64
}

type split struct {
	feature   int
	threshold float64
	decrease  float64
}

// build appends the subtree for samples in pre-order and returns its root index.
func (b *treeBuilder) build(samples []int, depth int) int {
	counts := make([]int, len(b.classes))
	for _, s := range samples {
		counts[b.y[s]]++
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, b.leafNode(counts, len(samples)))

	if depth >= b.maxDepth || len(samples) < b.minSplit || isPure(counts) {
		return idx
	}
	best, ok := b.bestSplit(samples, counts)
	if !ok {
		return idx
	}

	left := make([]int, 0, len(samples))
	right := make([]int, 0, len(samples))
	for _, s := range samples {
		if b.X[s][best.feature] <= best.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	b.importance[best.feature] += float64(len(samples)) / b.nTotal * best.decrease

	leftIdx := b.build(left, depth+1)
	rightIdx := b.build(right, depth+1)

	b.nodes[idx].Feature = best.feature
	b.nodes[idx].Threshold = best.threshold
	b.nodes[idx].Left = leftIdx
	b.nodes[idx].Right = rightIdx
	b.nodes[idx].Value = nil
	return idx
}

func (b *treeBuilder) leafNode(counts []int, n int) Node {
	value := make([]float64, len(counts))
	best := 0
	for c, count := range counts {
		value[c] = float64(count) / float64(n)
		if count > counts[best] {
			best = c
		}
	}
	return Node{
		Feature: leafIndex,
		Left:    leafIndex,
		Right:   leafIndex,
		Label:   b.classes[best],
		Value:   value,
	}
}

// bestSplit scans midpoints between consecutive distinct values of up to maxFeatures
// non-constant features drawn in random order.
func (b *treeBuilder) bestSplit(samples []int, parent []int) (split, bool) {
	n := len(samples)
	parentGini := gini(parent, n)
	order := make([]int, n)
	leftCounts := make([]int, len(parent))
	rightCounts := make([]int, len(parent))

	var best split
	found := false
	evaluated := 0

	for _, f := range b.rng.Perm(b.width) {
		if evaluated >= b.maxFeatures {
			break
		}
		copy(order, samples)
		sort.Slice(order, func(i, j int) bool { return b.X[order[i]][f] < b.X[order[j]][f] })
		if b.X[order[0]][f] == b.X[order[n-1]][f] {
			continue
		}
		evaluated++

		for c := range leftCounts {
			leftCounts[c] = 0
			rightCounts[c] = parent[c]
		}
		for i := 0; i < n-1; i++ {
			c := b.y[order[i]]
			leftCounts[c]++
			rightCounts[c]--

			v, next := b.X[order[i]][f], b.X[order[i+1]][f]
			if v == next {
				continue
			}
			nl := i + 1
			nr := n - nl
			impurity := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(n)
			decrease := parentGini - impurity
			if !found || decrease > best.decrease {
				threshold := v + (next-v)/2
				if threshold >= next {
					threshold = v
				}
				best = split{feature: f, threshold: threshold, decrease: decrease}
				found = true
			}
		}
	}
	return best, found
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, count := range counts {
		p := float64(count) / float64(n)
		impurity -= p * p
	}
	return impurity
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func uniqueSorted(labels []int) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0, 2)
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}

func normalized(values []float64) []float64 {
	out := make([]float64, len(values))
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / total
	}
	return out
}
