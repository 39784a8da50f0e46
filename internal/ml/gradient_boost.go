package ml

import (
	"fmt"
	"math"
	"sort"
)

// GradientBoostClassifier is a supervised binary classifier: an additive
// model of depth-1 regression stumps fitted to logistic-loss gradients, the
// corpus-sized equivalent of a boosted-tree library. PredictProba returns the
// fraud-class probability in [0, 1].
type GradientBoostClassifier struct {
	Base         float64 `json:"base"` // prior log-odds
	LearningRate float64 `json:"learning_rate"`
	Stumps       []stump `json:"stumps"`
}

type stump struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	LeftVal   float64 `json:"lv"` // value when row[f] <= t
	RightVal  float64 `json:"rv"`
}

const boostCandidateSplits = 16

// FitGradientBoost trains rounds stumps with shrinkage 0.1. Labels are 0/1;
// the class prior is clamped so single-class data still fits.
func FitGradientBoost(matrix [][]float64, labels []int, rounds int) (*GradientBoostClassifier, error) {
	if len(matrix) == 0 || len(matrix) != len(labels) {
		return nil, fmt.Errorf("gradient boost: got %d rows and %d labels", len(matrix), len(labels))
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("gradient boost: rounds must be positive, got %d", rounds)
	}

	n := len(matrix)
	pos := 0
	for _, y := range labels {
		pos += y
	}
	prior := clamp(float64(pos)/float64(n), 1e-4, 1-1e-4)

	model := &GradientBoostClassifier{
		Base:         math.Log(prior / (1 - prior)),
		LearningRate: 0.1,
		Stumps:       make([]stump, 0, rounds),
	}

	// Running margin F(x) per training row.
	margin := make([]float64, n)
	for i := range margin {
		margin[i] = model.Base
	}

	candidates := splitCandidates(matrix)
	residual := make([]float64, n)

	for r := 0; r < rounds; r++ {
		for i := range residual {
			residual[i] = float64(labels[i]) - sigmoid(margin[i])
		}

		best, ok := bestStump(matrix, residual, candidates)
		if !ok {
			break // residuals are flat, nothing left to fit
		}
		model.Stumps = append(model.Stumps, best)
		for i, row := range matrix {
			margin[i] += model.LearningRate * best.apply(row)
		}
	}

	return model, nil
}

// PredictProba returns the fraud-class probability for one row.
func (m *GradientBoostClassifier) PredictProba(row []float64) float64 {
	f := m.Base
	for _, s := range m.Stumps {
		f += m.LearningRate * s.apply(row)
	}
	return sigmoid(f)
}

func (s *stump) apply(row []float64) float64 {
	if row[s.Feature] <= s.Threshold {
		return s.LeftVal
	}
	return s.RightVal
}

// bestStump scans every feature and its candidate thresholds for the split
// minimizing squared error against the residuals.
func bestStump(matrix [][]float64, residual []float64, candidates [][]float64) (stump, bool) {
	var best stump
	bestErr := math.Inf(1)
	found := false

	var totalSum float64
	for _, r := range residual {
		totalSum += r
	}
	total := float64(len(residual))

	for f, thresholds := range candidates {
		for _, t := range thresholds {
			var leftSum, leftCount float64
			for i, row := range matrix {
				if row[f] <= t {
					leftSum += residual[i]
					leftCount++
				}
			}
			rightCount := total - leftCount
			if leftCount == 0 || rightCount == 0 {
				continue
			}
			leftVal := leftSum / leftCount
			rightVal := (totalSum - leftSum) / rightCount

			// SSE decomposes to a constant minus the weighted squared means.
			gain := leftCount*leftVal*leftVal + rightCount*rightVal*rightVal
			if -gain < bestErr {
				bestErr = -gain
				best = stump{Feature: f, Threshold: t, LeftVal: leftVal, RightVal: rightVal}
				found = true
			}
		}
	}
	if !found {
		return stump{}, false
	}
	return best, true
}

// splitCandidates picks up to boostCandidateSplits quantile thresholds per
// feature.
func splitCandidates(matrix [][]float64) [][]float64 {
	dim := len(matrix[0])
	out := make([][]float64, dim)
	col := make([]float64, len(matrix))
	for f := 0; f < dim; f++ {
		for i, row := range matrix {
			col[i] = row[f]
		}
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)

		seen := make(map[float64]bool)
		for k := 1; k <= boostCandidateSplits; k++ {
			q := float64(k) / float64(boostCandidateSplits+1)
			t := quantileSorted(sorted, q)
			if !seen[t] {
				seen[t] = true
				out[f] = append(out[f], t)
			}
		}
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
