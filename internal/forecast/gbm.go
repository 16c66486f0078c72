package forecast

import (
	"math"

	"github.com/pkg/errors"
)

// Hyperparameters are the fixed fitting knobs for the boosted ensemble.
// They come from configuration and are never tuned at request time.
type Hyperparameters struct {
	NEstimators  int
	MaxDepth     int
	LearningRate float64
}

// DefaultHyperparameters mirrors the settings the forecasts were
// originally calibrated with.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{NEstimators: 100, MaxDepth: 3, LearningRate: 0.1}
}

// Validate rejects hyperparameters that cannot produce a usable fit.
func (hp Hyperparameters) Validate() error {
	if hp.NEstimators < 1 {
		return errors.New("n_estimators must be >= 1")
	}
	if hp.MaxDepth < 1 {
		return errors.New("max_depth must be >= 1")
	}
	if hp.LearningRate <= 0 || hp.LearningRate > 1 {
		return errors.New("learning_rate must be in (0, 1]")
	}
	return nil
}

// treeNode is one node of a least-squares regression tree. Leaves carry
// the mean residual of the samples routed to them.
type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// ensemble is a fitted gradient-boosted forest: base prediction plus
// learning-rate-scaled tree corrections.
type ensemble struct {
	base  float64
	lr    float64
	trees []*treeNode
}

func (e *ensemble) predict(row []float64) float64 {
	p := e.base
	for _, t := range e.trees {
		p += e.lr * t.predict(row)
	}
	return p
}

// residualFloor stops boosting once residuals are numerically negligible
// (degenerate all-equal targets converge on the first round).
const residualFloor = 1e-12

// fitEnsemble fits least-squares gradient boosting: start from the target
// mean, then repeatedly fit a depth-limited tree to the residuals.
// Deterministic: no subsampling, no randomized splits.
func fitEnsemble(x [][]float64, y []float64, hp Hyperparameters) (*ensemble, error) {
	if err := hp.Validate(); err != nil {
		return nil, errors.Wrap(ErrTrainingFailed, err.Error())
	}
	if len(x) == 0 || len(x) != len(y) {
		return nil, errors.Wrap(ErrTrainingFailed, "empty or mismatched training set")
	}
	for i, row := range x {
		for _, v := range row {
			if !finite(v) {
				return nil, errors.Wrapf(ErrTrainingFailed, "non-finite feature in row %d", i)
			}
		}
		if !finite(y[i]) {
			return nil, errors.Wrapf(ErrTrainingFailed, "non-finite target in row %d", i)
		}
	}

	e := &ensemble{base: mean(y), lr: hp.LearningRate}

	indices := make([]int, len(x))
	for i := range indices {
		indices[i] = i
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = e.base
	}
	resid := make([]float64, len(y))

	for round := 0; round < hp.NEstimators; round++ {
		maxResid := 0.0
		for i := range y {
			resid[i] = y[i] - pred[i]
			if r := math.Abs(resid[i]); r > maxResid {
				maxResid = r
			}
		}
		if maxResid < residualFloor {
			break
		}

		tree := growTree(x, resid, indices, hp.MaxDepth)
		e.trees = append(e.trees, tree)

		for i := range pred {
			pred[i] += e.lr * tree.predict(x[i])
			if !finite(pred[i]) {
				return nil, errors.Wrapf(ErrTrainingFailed, "fit diverged at round %d", round)
			}
		}
	}
	return e, nil
}

// growTree builds a regression tree on the residuals of the given sample
// indices. Splits maximize the variance reduction of the squared error;
// a node with no improving split becomes a leaf.
func growTree(x [][]float64, resid []float64, indices []int, depth int) *treeNode {
	if depth == 0 || len(indices) < 2 {
		return &treeNode{leaf: true, value: meanAt(resid, indices)}
	}

	feature, threshold, ok := bestSplit(x, resid, indices)
	if !ok {
		return &treeNode{leaf: true, value: meanAt(resid, indices)}
	}

	var left, right []int
	for _, i := range indices {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(x, resid, left, depth-1),
		right:     growTree(x, resid, right, depth-1),
	}
}

// bestSplit scans every feature for the threshold with the highest SSE
// reduction, exhaustive over the sample midpoints.
func bestSplit(x [][]float64, resid []float64, indices []int) (feature int, threshold float64, ok bool) {
	nFeatures := len(x[indices[0]])

	total := 0.0
	for _, i := range indices {
		total += resid[i]
	}
	n := float64(len(indices))
	baseScore := total * total / n

	bestGain := 0.0
	for f := 0; f < nFeatures; f++ {
		order := sortedIndicesByFeature(x, indices, f)

		sumLeft := 0.0
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			sumLeft += resid[i]

			// Can't split between equal feature values.
			if x[i][f] == x[order[pos+1]][f] {
				continue
			}

			nLeft := float64(pos + 1)
			nRight := n - nLeft
			sumRight := total - sumLeft
			gain := sumLeft*sumLeft/nLeft + sumRight*sumRight/nRight - baseScore
			if gain > bestGain+1e-12 {
				bestGain = gain
				feature = f
				threshold = (x[i][f] + x[order[pos+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func sortedIndicesByFeature(x [][]float64, indices []int, f int) []int {
	order := make([]int, len(indices))
	copy(order, indices)
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && x[order[j]][f] < x[order[j-1]][f]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanAt(values []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += values[i]
	}
	return sum / float64(len(indices))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
