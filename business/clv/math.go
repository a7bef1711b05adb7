package clv

import (
	"errors"
	"math"
)

const pivotTolerance = 1e-9

var errSingular = errors.New("matrix is singular")

// solveLinear solves A x = b with Gauss-Jordan elimination on [A | b].
func solveLinear(A [][]float64, b []float64) ([]float64, error) {
	n := len(A)
	if n == 0 || len(b) != n {
		return nil, errors.New("dimension mismatch")
	}

	// Build augmented [A | b]
	aug := make([][]float64, n)
	scale := 0.0
	for i := 0; i < n; i++ {
		if len(A[i]) != n {
			return nil, errors.New("matrix is not square")
		}
		aug[i] = make([]float64, n+1)
		copy(aug[i], A[i])
		aug[i][n] = b[i]
		scale = math.Max(scale, math.Abs(A[i][i]))
	}
	if scale == 0 {
		return nil, errSingular
	}

	for col := 0; col < n; col++ {
		// Partial pivoting
		p := col
		for i := col + 1; i < n; i++ {
			if math.Abs(aug[i][col]) > math.Abs(aug[p][col]) {
				p = i
			}
		}
		if math.Abs(aug[p][col]) < pivotTolerance*scale {
			return nil, errSingular
		}
		aug[col], aug[p] = aug[p], aug[col]

		// Normalize pivot row
		pivot := aug[col][col]
		for j := col; j <= n; j++ {
			aug[col][j] /= pivot
		}

		// Eliminate other rows
		for i := 0; i < n; i++ {
			if i == col {
				continue
			}
			factor := aug[i][col]
			if factor == 0 {
				continue
			}
			for j := col; j <= n; j++ {
				aug[i][j] -= factor * aug[col][j]
			}
		}
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = aug[i][n]
	}
	return x, nil
}

// meanStd returns the mean and population standard deviation.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
