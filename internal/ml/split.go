package ml

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions ds into train and test sets, keeping each label's share
// roughly equal in both.
func StratifiedSplit(ds *Dataset, testRatio float64, seed int64) (train, test *Dataset, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	if ds.Len() < 2 {
		return nil, nil, errors.New("need at least two rows to split")
	}

	byLabel := make(map[int][]int)
	for i, l := range ds.Labels {
		byLabel[l] = append(byLabel[l], i)
	}
	labels := make([]int, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, l := range labels {
		idx := byLabel[l]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(math.Round(float64(len(idx)) * testRatio))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}
	if len(testIdx) == 0 {
		return nil, nil, errors.New("test split is empty; dataset too small for the ratio")
	}
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })

	return ds.subset(trainIdx), ds.subset(testIdx), nil
}

func (d *Dataset) subset(idx []int) *Dataset {
	out := &Dataset{
		Features: make([][]float64, len(idx)),
		Labels:   make([]int, len(idx)),
	}
	for i, j := range idx {
		out.Features[i] = d.Features[j]
		out.Labels[i] = d.Labels[j]
	}
	return out
}
