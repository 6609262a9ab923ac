package ml

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
)

// syntheticPassengers builds n rows where survival is decided by the Sex column alone.
func syntheticPassengers(n int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := &Dataset{}
	for i := 0; i < n; i++ {
		sex := float64(i % 2)
		ds.Features = append(ds.Features, []float64{
			float64(1 + rng.Intn(3)),
			sex,
			rng.Float64() * 70,
			float64(rng.Intn(4)),
			float64(rng.Intn(3)),
			rng.Float64() * 200,
			float64(rng.Intn(3)),
		})
		ds.Labels = append(ds.Labels, int(sex))
	}
	return ds
}

// ============================================================================
// TrainForest Tests
// ============================================================================

func TestTrainForest_LearnsSeparableLabel(t *testing.T) {
	ds := syntheticPassengers(200, 1)
	cfg := ForestConfig{Trees: 15, MaxDepth: 6, Seed: 7}

	forest, err := TrainForest(context.Background(), ds.Features, ds.Labels, cfg)
	require.NoError(t, err)

	assert.Len(t, forest.Trees(), 15)
	assert.Equal(t, []int{0, 1}, forest.Classes())

	pred, err := PredictAll(forest, ds.Features)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, Score(ds.Labels, pred).Accuracy, 0.95)

	for i, tree := range forest.Trees() {
		assert.NoError(t, tree.validate(domain.FeatureCount, 2, true), "tree %d", i)
	}
}

func TestTrainForest_DeterministicAcrossWorkerCounts(t *testing.T) {
	ds := syntheticPassengers(120, 3)

	serial, err := TrainForest(context.Background(), ds.Features, ds.Labels, ForestConfig{Trees: 8, MaxDepth: 5, Seed: 42, Workers: 1})
	require.NoError(t, err)
	parallel, err := TrainForest(context.Background(), ds.Features, ds.Labels, ForestConfig{Trees: 8, MaxDepth: 5, Seed: 42, Workers: 4})
	require.NoError(t, err)

	a, err := EncodeForest(serial)
	require.NoError(t, err)
	b, err := EncodeForest(parallel)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestTrainForest_RejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := TrainForest(ctx, nil, nil, DefaultForestConfig())
	assert.Error(t, err)

	_, err = TrainForest(ctx, [][]float64{{1}, {2}}, []int{1}, DefaultForestConfig())
	assert.Error(t, err)

	_, err = TrainForest(ctx, [][]float64{{1}, {2}}, []int{1, 1}, DefaultForestConfig())
	assert.Error(t, err, "single class")
}

func TestTrainForest_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ds := syntheticPassengers(20, 1)

	_, err := TrainForest(ctx, ds.Features, ds.Labels, ForestConfig{Trees: 4})
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// Dataset / Split / Score Tests
// ============================================================================

const titanicSample = `PassengerId,Survived,Pclass,Name,Sex,Age,SibSp,Parch,Ticket,Fare,Cabin,Embarked
1,0,3,"Braund, Mr. Owen Harris",male,22,1,0,A/5 21171,7.25,,S
2,1,1,"Cumings, Mrs. John Bradley",female,38,1,0,PC 17599,71.2833,C85,C
3,1,3,"Heikkinen, Miss. Laina",female,,0,0,STON/O2. 3101282,7.925,,S
4,1,1,"Futrelle, Mrs. Jacques Heath",female,35,1,0,113803,53.1,C123,
5,0,3,"Allen, Mr. William Henry",male,35,0,0,373450,8.05,,Q
`

func TestReadTitanicCSV_Preprocessing(t *testing.T) {
	ds, err := ReadTitanicCSV(strings.NewReader(titanicSample))
	require.NoError(t, err)

	require.Equal(t, 5, ds.Len())
	assert.Equal(t, []int{0, 1, 1, 1, 0}, ds.Labels)
	assert.Equal(t, []float64{3, 0, 22, 1, 0, 7.25, 0}, ds.Features[0])
	assert.Equal(t, []float64{1, 1, 38, 1, 0, 71.2833, 1}, ds.Features[1])

	// Median of 22, 38, 35, 35.
	assert.Equal(t, 35.0, ds.Features[2][2])
	// Missing port takes the modal value S.
	assert.Equal(t, 0.0, ds.Features[3][6])
	assert.Equal(t, 2.0, ds.Features[4][6])
	assert.Equal(t, map[int]int{0: 2, 1: 3}, ds.ClassCounts())
}

func TestReadTitanicCSV_Errors(t *testing.T) {
	_, err := ReadTitanicCSV(strings.NewReader("Survived,Pclass\n1,3\n"))
	assert.ErrorContains(t, err, "missing column")

	_, err = ReadTitanicCSV(strings.NewReader("Survived,Pclass,Sex,Age,SibSp,Parch,Fare,Embarked\n2,3,male,1,0,0,1,S\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadTitanicCSV(strings.NewReader("Survived,Pclass,Sex,Age,SibSp,Parch,Fare,Embarked\n"))
	assert.Error(t, err)
}

func TestStratifiedSplit(t *testing.T) {
	ds := &Dataset{}
	for i := 0; i < 100; i++ {
		label := 0
		if i < 40 {
			label = 1
		}
		ds.Features = append(ds.Features, []float64{float64(i)})
		ds.Labels = append(ds.Labels, label)
	}

	train, test, err := StratifiedSplit(ds, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, 80, train.Len())
	assert.Equal(t, 20, test.Len())
	assert.Equal(t, map[int]int{0: 12, 1: 8}, test.ClassCounts())

	seen := make(map[float64]bool)
	for _, row := range append(train.Features, test.Features...) {
		assert.False(t, seen[row[0]], "row %v duplicated", row)
		seen[row[0]] = true
	}
	assert.Len(t, seen, 100)
}

func TestScore(t *testing.T) {
	s := Score([]int{1, 0, 1, 1, 0}, []int{1, 0, 0, 1, 1})

	assert.InDelta(t, 0.6, s.Accuracy, 1e-9)
	assert.InDelta(t, 2.0/3, s.Precision, 1e-9)
	assert.InDelta(t, 2.0/3, s.Recall, 1e-9)
	assert.InDelta(t, 2.0/3, s.F1, 1e-9)

	none := Score([]int{0, 0}, []int{0, 0})
	assert.Equal(t, 1.0, none.Accuracy)
	assert.Zero(t, none.Precision)
	assert.Zero(t, none.F1)
}

// ============================================================================
// Pipeline Tests
// ============================================================================

func TestTrainTitanic_WritesLoadableArtifacts(t *testing.T) {
	ds := syntheticPassengers(300, 11)
	opts := TrainingOptions{
		Forest:    ForestConfig{Trees: 10, MaxDepth: 5, Seed: 42},
		TestRatio: 0.2,
	}

	result, err := TrainTitanic(context.Background(), ds, opts)
	require.NoError(t, err)

	assert.Equal(t, 240, result.TrainSize)
	assert.Equal(t, 60, result.TestSize)
	assert.Equal(t, "1.0", result.Version)
	for _, v := range []float64{result.Metrics.TrainAccuracy, result.Metrics.TestAccuracy, result.Metrics.Precision, result.Metrics.Recall, result.Metrics.F1} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.GreaterOrEqual(t, result.Metrics.TestAccuracy, 0.9)
	require.Len(t, result.Importances, domain.FeatureCount)
	assert.Equal(t, "Sex", result.Importances[0].Feature)

	dir := t.TempDir()
	files := DefaultArtifactFiles()
	written, err := WriteArtifacts(dir, files, result)
	require.NoError(t, err)
	assert.Len(t, written, 4)

	read := func(name string) []byte {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return data
	}
	bundle, err := DecodeBundle(&ports.RawArtifacts{
		Model:  read(files.Model),
		Scaler: read(files.Scaler),
		Info:   read(files.Info),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0", bundle.Info.Version)
	require.NotNil(t, bundle.Info.Metrics)
	assert.Equal(t, result.Metrics, *bundle.Info.Metrics)

	scaled, err := bundle.Scaler.Transform([]float64{1, 1, 30, 0, 0, 100, 0})
	require.NoError(t, err)
	label, err := bundle.Classifier.Predict(scaled)
	require.NoError(t, err)
	assert.Equal(t, domain.LabelSurvived, label)
}
