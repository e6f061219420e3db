package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"crime-analytics/models"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LabelEncoder maps category strings to stable integer codes. Classes are
// sorted, so codes do not depend on row order.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabelEncoder learns the distinct values
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewLabelEncoder(classes)
}

// NewLabelEncoder restores an encoder from its sorted classes
func NewLabelEncoder(classes []string) *LabelEncoder {
	e := &LabelEncoder{classes: classes, index: make(map[string]int, len(classes))}
	for i, c := range classes {
		e.index[c] = i
	}
	return e
}

// Transform returns the code of value, or ErrUnknownCategory if it was never fitted
func (e *LabelEncoder) Transform(value string) (int, error) {
	code, ok := e.index[value]
	if !ok {
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownCategory, value)
	}
	return code, nil
}

// Classes returns the fitted values in code order
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// ridgePenalty keeps the normal equations solvable when a feature is constant
const ridgePenalty = 1e-6

// LinearRegressor is a ridge regression over standardized features
type LinearRegressor struct {
	params models.RegressionParams
}

// NewLinearRegressor restores a fitted regressor
func NewLinearRegressor(params models.RegressionParams) *LinearRegressor {
	return &LinearRegressor{params: params}
}

// Params returns the fitted state for persistence
func (m *LinearRegressor) Params() models.RegressionParams {
	return m.params
}

// Fit solves (ZᵀZ + λI)β = Zᵀ(y - ȳ) where Z is the standardized feature matrix
func (m *LinearRegressor) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || n != len(y) {
		return fmt.Errorf("fit: %d samples for %d targets", n, len(y))
	}
	p := len(x[0])

	means := make([]float64, p)
	scales := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		means[j], scales[j] = mean, std
	}

	z := mat.NewDense(n, p, nil)
	for i := range x {
		for j := 0; j < p; j++ {
			z.Set(i, j, (x[i][j]-means[j])/scales[j])
		}
	}
	yMean := stat.Mean(y, nil)
	centered := mat.NewVecDense(n, nil)
	for i, v := range y {
		centered.SetVec(i, v-yMean)
	}

	var gram mat.Dense
	gram.Mul(z.T(), z)
	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+ridgePenalty*float64(n))
	}
	var rhs mat.VecDense
	rhs.MulVec(z.T(), centered)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("fit: %w", err)
		}
	}

	coefficients := make([]float64, p)
	for j := range coefficients {
		coefficients[j] = beta.AtVec(j)
	}
	m.params = models.RegressionParams{
		Intercept:    yMean,
		Means:        means,
		Scales:       scales,
		Coefficients: coefficients,
	}
	return nil
}

// Predict evaluates the fitted model on one feature vector
func (m *LinearRegressor) Predict(x []float64) (float64, error) {
	p := m.params
	if len(x) != len(p.Coefficients) || len(p.Means) != len(x) || len(p.Scales) != len(x) {
		return 0, fmt.Errorf("predict: expected %d features, got %d", len(p.Coefficients), len(x))
	}
	out := p.Intercept
	for j, v := range x {
		out += p.Coefficients[j] * (v - p.Means[j]) / p.Scales[j]
	}
	return out, nil
}

// trainTestSplit shuffles indices with a fixed seed and holds out testFraction of them.
// With fewer than five samples everything is used for both sets.
func trainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if n < 5 {
		return idx, idx
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	nTest := int(math.Ceil(float64(n) * testFraction))
	return idx[nTest:], idx[:nTest]
}

// meanAbsoluteError averages |estimate - actual|
func meanAbsoluteError(estimates, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(estimates[i] - actual[i])
	}
	return sum / float64(len(actual))
}
