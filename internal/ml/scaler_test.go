package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitScaler_CentersAndScales(t *testing.T) {
	matrix := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
	}
	scaler, err := FitScaler(matrix)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, scaler.Mean[0], 1e-9)
	assert.InDelta(t, 20.0, scaler.Mean[1], 1e-9)
	// Constant column keeps std 1 so it passes through centered.
	assert.Equal(t, 1.0, scaler.Std[2])

	scaled := scaler.TransformMatrix(matrix)
	for j := 0; j < 2; j++ {
		var mean, variance float64
		for _, row := range scaled {
			mean += row[j]
		}
		mean /= float64(len(scaled))
		for _, row := range scaled {
			d := row[j] - mean
			variance += d * d
		}
		variance /= float64(len(scaled))

		assert.InDelta(t, 0.0, mean, 1e-9)
		assert.InDelta(t, 1.0, math.Sqrt(variance), 1e-9)
	}
	for _, row := range scaled {
		assert.Equal(t, 0.0, row[2])
	}
}

func TestFitScaler_EmptyMatrix(t *testing.T) {
	_, err := FitScaler(nil)
	assert.Error(t, err)
}

func TestFitScaler_RaggedMatrix(t *testing.T) {
	_, err := FitScaler([][]float64{{1, 2}, {1}})
	assert.Error(t, err)
}
