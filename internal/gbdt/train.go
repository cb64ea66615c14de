package gbdt

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const (
	regLambda      = 1.0
	defaultMinLeaf = 20
	probEps        = 1e-15
)

// Params mirrors the hyperparameter surface of the boosted-tree
// learner the training presets are defined in terms of.
type Params struct {
	NumLeaves           int
	LearningRate        float64
	FeatureFraction     float64
	BaggingFraction     float64
	BaggingFreq         int
	NumBoostRound       int
	EarlyStoppingRounds int
	MinDataInLeaf       int
	Seed                int64
}

func (p Params) withDefaults() Params {
	if p.NumLeaves <= 1 {
		p.NumLeaves = 31
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.1
	}
	if p.FeatureFraction <= 0 || p.FeatureFraction > 1 {
		p.FeatureFraction = 1.0
	}
	if p.BaggingFraction <= 0 || p.BaggingFraction > 1 {
		p.BaggingFraction = 1.0
	}
	if p.NumBoostRound <= 0 {
		p.NumBoostRound = 100
	}
	if p.MinDataInLeaf <= 0 {
		p.MinDataInLeaf = defaultMinLeaf
	}
	return p
}

// Train fits a binary-objective ensemble with Newton boosting and
// leaf-wise tree growth. validX/validY drive logloss/AUC early
// stopping and may be nil. onIter, when non-nil, is invoked after
// every completed boosting iteration; it must not block.
func Train(ctx context.Context, X [][]float64, y []float64, validX [][]float64, validY []float64, p Params, onIter func(iteration int)) (*Model, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("training data is empty or misaligned")
	}
	p = p.withDefaults()
	numFeatures := len(X[0])
	rng := rand.New(rand.NewSource(p.Seed))

	base := baseScore(y)
	rawTrain := fill(len(y), base)
	rawValid := fill(len(validY), base)

	model := &Model{
		BaseScore:   base,
		NumFeatures: numFeatures,
	}

	grad := make([]float64, len(y))
	hess := make([]float64, len(y))
	treeGains := make([][]float64, 0, p.NumBoostRound)

	bestScore := math.Inf(-1)
	bestIteration := 0
	roundsSinceBest := 0
	bagged := allRows(len(y))

	for iter := 1; iter <= p.NumBoostRound; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range y {
			prob := sigmoid(rawTrain[i])
			grad[i] = prob - y[i]
			hess[i] = math.Max(prob*(1-prob), 1e-16)
		}

		if p.BaggingFraction < 1 && p.BaggingFreq > 0 && (iter-1)%p.BaggingFreq == 0 {
			bagged = sampleRows(rng, len(y), p.BaggingFraction)
		}
		feats := sampleFeatures(rng, numFeatures, p.FeatureFraction)

		tree, gains := growTree(X, grad, hess, bagged, feats, p)
		model.Trees = append(model.Trees, tree)
		treeGains = append(treeGains, gains)

		for i := range rawTrain {
			rawTrain[i] += tree.Predict(X[i])
		}
		for i := range rawValid {
			rawValid[i] += tree.Predict(validX[i])
		}

		if len(validY) > 0 {
			score := AUC(validY, probsFromRaw(rawValid))
			if score > bestScore {
				bestScore = score
				bestIteration = iter
				roundsSinceBest = 0
			} else {
				roundsSinceBest++
			}
			if p.EarlyStoppingRounds > 0 && roundsSinceBest >= p.EarlyStoppingRounds {
				if onIter != nil {
					onIter(iter)
				}
				break
			}
		} else {
			bestIteration = iter
		}

		if onIter != nil {
			onIter(iter)
		}
	}

	if len(validY) == 0 {
		bestScore = AUC(y, probsFromRaw(rawTrain))
	}

	// Keep only the trees up to the best validation iteration so
	// prediction and importances reflect the early-stopped model.
	model.Trees = model.Trees[:bestIteration]
	model.BestIteration = bestIteration
	model.BestScore = bestScore
	model.Importances = sumGains(treeGains[:bestIteration], numFeatures)

	return model, nil
}

func baseScore(y []float64) float64 {
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	mean := sum / float64(len(y))
	mean = math.Min(math.Max(mean, probEps), 1-probEps)
	return math.Log(mean / (1 - mean))
}

func fill(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func sampleRows(rng *rand.Rand, n int, fraction float64) []int {
	k := int(math.Ceil(fraction * float64(n)))
	if k >= n {
		return allRows(n)
	}
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

func sampleFeatures(rng *rand.Rand, d int, fraction float64) []int {
	k := int(math.Ceil(fraction * float64(d)))
	if k >= d {
		return allRows(d)
	}
	perm := rng.Perm(d)[:k]
	sort.Ints(perm)
	return perm
}

func probsFromRaw(raw []float64) []float64 {
	probs := make([]float64, len(raw))
	for i, r := range raw {
		probs[i] = sigmoid(r)
	}
	return probs
}

func sumGains(perTree [][]float64, d int) []float64 {
	total := make([]float64, d)
	for _, gains := range perTree {
		for f, g := range gains {
			total[f] += g
		}
	}
	return total
}

// split is the best found partition of a leaf's rows.
type split struct {
	gain      float64
	feature   int
	threshold float64
	left      []int
	right     []int
}

// leaf is a grown but not yet finalized tree node.
type leaf struct {
	nodeID int
	rows   []int
	best   *split
}

// growTree builds one tree leaf-wise: the leaf whose best split has
// the highest gain is expanded until num_leaves is reached or no leaf
// improves. Returns the tree and accumulated per-feature gain.
func growTree(X [][]float64, grad, hess []float64, rows, feats []int, p Params) (Tree, []float64) {
	gains := make([]float64, len(X[0]))

	tree := Tree{Nodes: []Node{leafNode(grad, hess, rows, p.LearningRate)}}
	leaves := []*leaf{{nodeID: 0, rows: rows}}
	leaves[0].best = findBestSplit(X, grad, hess, rows, feats, p.MinDataInLeaf)

	for len(leaves) < p.NumLeaves {
		idx := -1
		for i, l := range leaves {
			if l.best == nil {
				continue
			}
			if idx < 0 || l.best.gain > leaves[idx].best.gain {
				idx = i
			}
		}
		if idx < 0 {
			break
		}

		l := leaves[idx]
		s := l.best

		leftID := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, leafNode(grad, hess, s.left, p.LearningRate))
		rightID := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, leafNode(grad, hess, s.right, p.LearningRate))

		tree.Nodes[l.nodeID].Feature = s.feature
		tree.Nodes[l.nodeID].Threshold = s.threshold
		tree.Nodes[l.nodeID].Left = leftID
		tree.Nodes[l.nodeID].Right = rightID
		gains[s.feature] += s.gain

		leftLeaf := &leaf{nodeID: leftID, rows: s.left}
		leftLeaf.best = findBestSplit(X, grad, hess, s.left, feats, p.MinDataInLeaf)
		rightLeaf := &leaf{nodeID: rightID, rows: s.right}
		rightLeaf.best = findBestSplit(X, grad, hess, s.right, feats, p.MinDataInLeaf)

		leaves[idx] = leftLeaf
		leaves = append(leaves, rightLeaf)
	}

	return tree, gains
}

func leafNode(grad, hess []float64, rows []int, shrinkage float64) Node {
	var g, h float64
	for _, r := range rows {
		g += grad[r]
		h += hess[r]
	}
	return Node{
		Feature: -1,
		Value:   -g / (h + regLambda) * shrinkage,
	}
}

// findBestSplit scans every allowed feature with an exact sorted sweep
// and returns the split maximizing the Newton gain, or nil when no
// split satisfies min_data_in_leaf with positive gain.
func findBestSplit(X [][]float64, grad, hess []float64, rows, feats []int, minLeaf int) *split {
	if len(rows) < 2*minLeaf {
		return nil
	}

	var totalG, totalH float64
	for _, r := range rows {
		totalG += grad[r]
		totalH += hess[r]
	}
	parentScore := totalG * totalG / (totalH + regLambda)

	type rowVal struct {
		row int
		val float64
	}
	sorted := make([]rowVal, len(rows))

	var best *split
	for _, f := range feats {
		for i, r := range rows {
			sorted[i] = rowVal{row: r, val: X[r][f]}
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].val < sorted[j].val })

		var gl, hl float64
		for i := 0; i < len(sorted)-1; i++ {
			gl += grad[sorted[i].row]
			hl += hess[sorted[i].row]

			// Cannot split between identical values.
			if sorted[i].val == sorted[i+1].val {
				continue
			}
			nLeft := i + 1
			nRight := len(sorted) - nLeft
			if nLeft < minLeaf || nRight < minLeaf {
				continue
			}

			gr := totalG - gl
			hr := totalH - hl
			gain := gl*gl/(hl+regLambda) + gr*gr/(hr+regLambda) - parentScore
			if gain <= 0 {
				continue
			}
			if best == nil || gain > best.gain {
				best = &split{
					gain:      gain,
					feature:   f,
					threshold: (sorted[i].val + sorted[i+1].val) / 2,
				}
				left := make([]int, 0, nLeft)
				right := make([]int, 0, nRight)
				for j := 0; j <= i; j++ {
					left = append(left, sorted[j].row)
				}
				for j := i + 1; j < len(sorted); j++ {
					right = append(right, sorted[j].row)
				}
				best.left = left
				best.right = right
			}
		}
	}
	return best
}
