// Package ml implements the fraud scoring ensemble: feature scaling, the four
// sub-models, weighted score fusion, holdout evaluation and feature
// attribution. All model math is plain Go over float64 slices.
package ml

import (
	"fmt"
	"math"
)

// StandardScaler centers and scales features to zero mean and unit variance.
// Fitted once per training pass and applied to every sub-model input.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and standard deviation. Columns with
// zero variance scale by 1 so constant features pass through centered.
func FitScaler(matrix [][]float64) (*StandardScaler, error) {
	if len(matrix) == 0 {
		return nil, fmt.Errorf("scaler: empty training matrix")
	}
	dim := len(matrix[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)

	for _, row := range matrix {
		if len(row) != dim {
			return nil, fmt.Errorf("scaler: ragged matrix, want width %d got %d", dim, len(row))
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(matrix))
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range matrix {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return &StandardScaler{Mean: mean, Std: std}, nil
}

// Transform scales a single row.
func (s *StandardScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformMatrix scales every row.
func (s *StandardScaler) TransformMatrix(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = s.Transform(row)
	}
	return out
}
