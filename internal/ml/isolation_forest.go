package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// IsolationForest is an unsupervised outlier detector: anomalous rows isolate
// in fewer random splits, yielding shorter average path lengths. The decision
// function follows the usual convention of negative values for outliers,
// with the offset set so the configured contamination fraction of the
// training rows scores negative.
type IsolationForest struct {
	Trees      []*isoNode `json:"trees"`
	SampleSize int        `json:"sample_size"`
	Offset     float64    `json:"offset"`
}

type isoNode struct {
	Feature int      `json:"f"`
	Split   float64  `json:"s"`
	Size    int      `json:"n"` // leaf only: rows that ended here
	Left    *isoNode `json:"l,omitempty"`
	Right   *isoNode `json:"r,omitempty"`
}

const isoDefaultSample = 256

// FitIsolationForest builds nTrees trees on random subsamples and calibrates
// the decision offset from the contamination rate.
func FitIsolationForest(matrix [][]float64, nTrees int, contamination float64, rng *rand.Rand) (*IsolationForest, error) {
	if len(matrix) < 2 {
		return nil, fmt.Errorf("isolation forest: need at least 2 rows, got %d", len(matrix))
	}
	if contamination <= 0 || contamination >= 0.5 {
		return nil, fmt.Errorf("isolation forest: contamination out of range: %f", contamination)
	}

	sample := isoDefaultSample
	if sample > len(matrix) {
		sample = len(matrix)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))

	forest := &IsolationForest{
		Trees:      make([]*isoNode, 0, nTrees),
		SampleSize: sample,
	}
	for t := 0; t < nTrees; t++ {
		idx := rng.Perm(len(matrix))[:sample]
		rows := make([][]float64, sample)
		for i, r := range idx {
			rows[i] = matrix[r]
		}
		forest.Trees = append(forest.Trees, buildIsoTree(rows, 0, maxDepth, rng))
	}

	// Calibrate the offset: contamination fraction of training scores must
	// fall above it (and hence score negative).
	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		scores[i] = forest.anomalyScore(row)
	}
	sort.Float64s(scores)
	forest.Offset = quantileSorted(scores, 1-contamination)

	return forest, nil
}

func buildIsoTree(rows [][]float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(rows) <= 1 {
		return &isoNode{Feature: -1, Size: len(rows)}
	}

	dim := len(rows[0])
	// Try a few features before giving up on constant data.
	for attempt := 0; attempt < dim; attempt++ {
		f := rng.Intn(dim)
		lo, hi := rows[0][f], rows[0][f]
		for _, row := range rows {
			if row[f] < lo {
				lo = row[f]
			}
			if row[f] > hi {
				hi = row[f]
			}
		}
		if hi <= lo {
			continue
		}
		split := lo + rng.Float64()*(hi-lo)
		var left, right [][]float64
		for _, row := range rows {
			if row[f] < split {
				left = append(left, row)
			} else {
				right = append(right, row)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}
		return &isoNode{
			Feature: f,
			Split:   split,
			Left:    buildIsoTree(left, depth+1, maxDepth, rng),
			Right:   buildIsoTree(right, depth+1, maxDepth, rng),
		}
	}
	return &isoNode{Feature: -1, Size: len(rows)}
}

// pathLength walks a row down one tree, adding the average-path correction
// term c(n) at leaves holding more than one row.
func (n *isoNode) pathLength(row []float64, depth float64) float64 {
	if n.Feature < 0 {
		return depth + avgPathLength(n.Size)
	}
	if row[n.Feature] < n.Split {
		return n.Left.pathLength(row, depth+1)
	}
	return n.Right.pathLength(row, depth+1)
}

// avgPathLength is c(n), the average unsuccessful-search path of a BST of n
// nodes.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	f := float64(n)
	return 2*(math.Log(f-1)+0.5772156649) - 2*(f-1)/f
}

// anomalyScore is the standard s(x) in (0, 1]; higher means more anomalous.
func (f *IsolationForest) anomalyScore(row []float64) float64 {
	var total float64
	for _, t := range f.Trees {
		total += t.pathLength(row, 0)
	}
	mean := total / float64(len(f.Trees))
	return math.Pow(2, -mean/avgPathLength(f.SampleSize))
}

// DecisionFunction is positive for inliers and negative for outliers.
func (f *IsolationForest) DecisionFunction(row []float64) float64 {
	return f.Offset - f.anomalyScore(row)
}

// quantileSorted returns the q-quantile of an ascending slice by linear
// interpolation.
func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
