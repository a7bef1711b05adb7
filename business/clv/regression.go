package clv

import (
	"fmt"

	"salesInsight/domain"
)

const featureDim = 2

// FeatureNames are the model inputs, in order.
var FeatureNames = [featureDim]string{"Recency", "Frequency"}

const minStd = 1e-12

// linearModel is ordinary least squares on standardized features.
// coef[0] is the intercept.
type linearModel struct {
	means [featureDim]float64
	stds  [featureDim]float64
	coef  [featureDim + 1]float64
}

func (m linearModel) predict(x [featureDim]float64) float64 {
	y := m.coef[0]
	for i := 0; i < featureDim; i++ {
		y += m.coef[i+1] * (x[i] - m.means[i]) / m.stds[i]
	}
	return y
}

func (m linearModel) valid() bool {
	for i := 0; i < featureDim; i++ {
		if !finite(m.means[i]) || !finite(m.stds[i]) || m.stds[i] < minStd {
			return false
		}
	}
	for _, c := range m.coef {
		if !finite(c) {
			return false
		}
	}
	return true
}

func fitLinear(rows []Row) (linearModel, error) {
	var m linearModel
	if len(rows) < featureDim+1 {
		return m, &domain.ModelFitError{Reason: fmt.Sprintf("%d training rows for %d parameters", len(rows), featureDim+1)}
	}

	cols := [featureDim][]float64{}
	for i := 0; i < featureDim; i++ {
		cols[i] = make([]float64, len(rows))
	}
	for r, row := range rows {
		x := row.features()
		for i := 0; i < featureDim; i++ {
			cols[i][r] = x[i]
		}
	}
	for i := 0; i < featureDim; i++ {
		m.means[i], m.stds[i] = meanStd(cols[i])
		if m.stds[i] < minStd {
			return linearModel{}, &domain.ModelFitError{
				Reason: fmt.Sprintf("feature %s has zero variance over %d training rows", FeatureNames[i], len(rows)),
			}
		}
	}

	// Normal equations: (Z^T Z) w = Z^T y, Z = [1 | standardized X]
	const dim = featureDim + 1
	A := make([][]float64, dim)
	for i := range A {
		A[i] = make([]float64, dim)
	}
	b := make([]float64, dim)
	for r, row := range rows {
		z := [dim]float64{1}
		for i := 0; i < featureDim; i++ {
			z[i+1] = (cols[i][r] - m.means[i]) / m.stds[i]
		}
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				A[i][j] += z[i] * z[j]
			}
			b[i] += row.Monetary * z[i]
		}
	}

	w, err := solveLinear(A, b)
	if err != nil {
		return linearModel{}, &domain.ModelFitError{Reason: "normal equations", Err: err}
	}
	copy(m.coef[:], w)

	if !m.valid() {
		return linearModel{}, &domain.ModelFitError{Reason: "non-finite coefficients"}
	}
	return m, nil
}
