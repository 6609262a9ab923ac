package ml

import (
	"errors"
	"fmt"
)

const leafIndex = -1

// Node is one entry of a flattened tree. Leaves have Left == Right == -1.
// Value holds the class distribution at a leaf and may be empty for hard-label trees.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Label     int       `json:"label"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) IsLeaf() bool {
	return n.Left == leafIndex && n.Right == leafIndex
}

// DecisionTree stores its nodes in pre-order; the root is nodes[0].
type DecisionTree struct {
	Nodes []Node `json:"nodes"`
}

var (
	errEmptyTree   = errors.New("tree has no nodes")
	errInvalidTree = errors.New("invalid tree state")
)

// leaf walks the tree for x and returns the leaf it lands in.
func (t *DecisionTree) leaf(x []float64) (*Node, error) {
	if len(t.Nodes) == 0 {
		return nil, errEmptyTree
	}
	idx := 0
	// A well-formed tree never revisits a node, so len(Nodes) steps is an upper bound.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := &t.Nodes[idx]
		if node.IsLeaf() {
			return node, nil
		}
		if node.Feature < 0 || node.Feature >= len(x) {
			return nil, fmt.Errorf("feature index %d out of range for vector of %d", node.Feature, len(x))
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, errInvalidTree
		}
	}
	return nil, errInvalidTree
}

func (t *DecisionTree) Predict(x []float64) (int, error) {
	node, err := t.leaf(x)
	if err != nil {
		return 0, err
	}
	return node.Label, nil
}

// distribution returns the leaf class distribution for x.
func (t *DecisionTree) distribution(x []float64) ([]float64, error) {
	node, err := t.leaf(x)
	if err != nil {
		return nil, err
	}
	if len(node.Value) == 0 {
		return nil, errors.New("leaf carries no class distribution")
	}
	return node.Value, nil
}

// validate checks structural integrity against the expected feature and class counts.
// nClasses <= 0 skips the distribution width check.
func (t *DecisionTree) validate(nFeatures, nClasses int, needDistribution bool) error {
	if len(t.Nodes) == 0 {
		return errEmptyTree
	}
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			if needDistribution && len(n.Value) == 0 {
				return fmt.Errorf("node %d: leaf has no class distribution", i)
			}
			if nClasses > 0 && len(n.Value) > 0 && len(n.Value) != nClasses {
				return fmt.Errorf("node %d: distribution has %d classes, want %d", i, len(n.Value), nClasses)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		// Pre-order layout: children always sit after their parent.
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

// TreeClassifier is a single hard-label decision tree. It does not produce probabilities.
type TreeClassifier struct {
	tree      *DecisionTree
	nFeatures int
}

func NewTreeClassifier(tree *DecisionTree, nFeatures int) *TreeClassifier {
	return &TreeClassifier{tree: tree, nFeatures: nFeatures}
}

func (c *TreeClassifier) Type() string { return ModelTypeDecisionTree }

func (c *TreeClassifier) NumFeatures() int { return c.nFeatures }

func (c *TreeClassifier) SupportsProbability() bool { return false }

func (c *TreeClassifier) Predict(x []float64) (int, error) {
	if len(x) != c.nFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", c.nFeatures, len(x))
	}
	return c.tree.Predict(x)
}

func (c *TreeClassifier) PredictProbability(x []float64) (float64, error) {
	return 0, errProbabilityUnsupported
}
