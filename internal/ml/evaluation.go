package ml

import (
	"math"
	"sort"

	"github.com/fraudguard/fraudguard/internal/domain/models"
)

// EvaluateModels computes holdout metrics for each sub-model and for the
// fused ensemble. Scores are the continuous sub-score values; predictions
// use 0.5 as the binary cut for every model so the metrics are comparable.
func EvaluateModels(state *EnsembleState, holdX [][]float64, holdY []int) []models.ModelMetrics {
	scaled := state.Scaler.TransformMatrix(holdX)

	scores := map[string][]float64{
		ModelIsolationForest: make([]float64, len(scaled)),
		ModelOneClass:        make([]float64, len(scaled)),
		ModelGradientBoost:   make([]float64, len(scaled)),
		ModelAutoencoder:     make([]float64, len(scaled)),
		ModelEnsemble:        make([]float64, len(scaled)),
	}
	for i, row := range scaled {
		iso := binaryOutlier(state.Forest.DecisionFunction(row))
		occ := binaryOutlier(state.Boundary.DecisionFunction(row))
		gb := state.Booster.PredictProba(row)
		ae := math.Min(state.Autoencoder.MSE(row)/state.ReconThreshold, 1.0)

		scores[ModelIsolationForest][i] = iso
		scores[ModelOneClass][i] = occ
		scores[ModelGradientBoost][i] = gb
		scores[ModelAutoencoder][i] = ae
		scores[ModelEnsemble][i] = clamp(
			state.Weights.IsolationForest*iso+
				state.Weights.OneClass*occ+
				state.Weights.GradientBoost*gb+
				state.Weights.Autoencoder*ae, 0, 1)
	}

	specs := []struct {
		key  string
		name string
		typ  string
	}{
		{ModelIsolationForest, "Isolation Forest", "anomaly_detection"},
		{ModelOneClass, "One-Class Boundary", "anomaly_detection"},
		{ModelGradientBoost, "Gradient Boosting", "classification"},
		{ModelAutoencoder, "Autoencoder", "reconstruction"},
		{ModelEnsemble, "Ensemble", "weighted_fusion"},
	}

	out := make([]models.ModelMetrics, 0, len(specs))
	for _, spec := range specs {
		m := binaryMetrics(scores[spec.key], holdY)
		m.Name = spec.name
		m.Type = spec.typ
		out = append(out, m)
	}
	return out
}

// binaryMetrics computes accuracy/precision/recall/F1 at a 0.5 cut plus the
// rank-based AUC over the continuous scores. Degenerate denominators yield
// zero rather than NaN.
func binaryMetrics(scores []float64, labels []int) models.ModelMetrics {
	var tp, fp, tn, fn float64
	for i, s := range scores {
		pred := 0
		if s > 0.5 {
			pred = 1
		}
		switch {
		case pred == 1 && labels[i] == 1:
			tp++
		case pred == 1 && labels[i] == 0:
			fp++
		case pred == 0 && labels[i] == 0:
			tn++
		default:
			fn++
		}
	}

	var m models.ModelMetrics
	total := tp + fp + tn + fn
	if total > 0 {
		m.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.AUC = rankAUC(scores, labels)
	return m
}

// rankAUC is the Mann-Whitney U statistic normalized to [0,1]: the
// probability that a random positive outranks a random negative, with ties
// counted as half. Returns 0.5 when either class is empty.
func rankAUC(scores []float64, labels []int) float64 {
	type pair struct {
		score float64
		label int
	}
	pairs := make([]pair, len(scores))
	for i := range scores {
		pairs[i] = pair{scores[i], labels[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	// Average ranks over tie groups.
	ranks := make([]float64, len(pairs))
	for i := 0; i < len(pairs); {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		avg := float64(i+j+1) / 2 // 1-based ranks i+1..j averaged
		for k := i; k < j; k++ {
			ranks[k] = avg
		}
		i = j
	}

	var posRankSum, nPos, nNeg float64
	for i, p := range pairs {
		if p.label == 1 {
			posRankSum += ranks[i]
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}
	return (posRankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}
