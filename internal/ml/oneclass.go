package ml

import (
	"fmt"
	"math"
	"sort"
)

// OneClassBoundary is a hypersphere boundary fitted to the normal class only:
// the centroid of the normal rows plus a radius chosen so that at most the nu
// fraction of them fall outside. The decision function is negative outside
// the boundary, matching the outlier convention of the other detectors.
type OneClassBoundary struct {
	Center []float64 `json:"center"`
	Radius float64   `json:"radius"`
	Nu     float64   `json:"nu"`
}

// FitOneClassBoundary fits the boundary on rows of the normal class.
func FitOneClassBoundary(normalRows [][]float64, nu float64) (*OneClassBoundary, error) {
	if len(normalRows) == 0 {
		return nil, fmt.Errorf("one-class boundary: no normal rows to fit")
	}
	if nu <= 0 || nu >= 1 {
		return nil, fmt.Errorf("one-class boundary: nu out of range: %f", nu)
	}

	dim := len(normalRows[0])
	center := make([]float64, dim)
	for _, row := range normalRows {
		for j, v := range row {
			center[j] += v
		}
	}
	for j := range center {
		center[j] /= float64(len(normalRows))
	}

	dists := make([]float64, len(normalRows))
	for i, row := range normalRows {
		dists[i] = euclidean(row, center)
	}
	sort.Float64s(dists)

	return &OneClassBoundary{
		Center: center,
		Radius: quantileSorted(dists, 1-nu),
		Nu:     nu,
	}, nil
}

// DecisionFunction is positive inside the boundary, negative outside.
func (b *OneClassBoundary) DecisionFunction(row []float64) float64 {
	return b.Radius - euclidean(row, b.Center)
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
