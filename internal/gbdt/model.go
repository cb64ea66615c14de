package gbdt

import "math"

// Node is one node of a regression tree. Feature == -1 marks a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a single boosted regression tree over raw (log-odds) space.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value for x.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a trained binary gradient-boosted tree ensemble. Leaf
// values already include shrinkage, so prediction is a plain sum.
type Model struct {
	Trees         []Tree    `json:"trees"`
	BaseScore     float64   `json:"base_score"`
	BestIteration int       `json:"best_iteration"`
	BestScore     float64   `json:"best_score"`
	Importances   []float64 `json:"feature_importances"`
	NumFeatures   int       `json:"num_features"`
}

// Raw returns the log-odds score for x using trees up to BestIteration.
func (m *Model) Raw(x []float64) float64 {
	s := m.BaseScore
	for i := range m.Trees {
		s += m.Trees[i].Predict(x)
	}
	return s
}

// PredictProba returns the positive-class probability for x.
func (m *Model) PredictProba(x []float64) float64 {
	return sigmoid(m.Raw(x))
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
