package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var weightSrc rand.Source

// Seed fixes the stream used to draw starting weights. Networks built
// after the call are deterministic for a given seed.
func Seed(seed uint64) {
	weightSrc = rand.NewSource(seed)
}

// randomWeights returns a rows x cols matrix with entries drawn uniformly
// from ±1/sqrt(rows), scaling the spread by the incoming width.
func randomWeights(rows, cols int) *mat.Dense {
	dist := distuv.Uniform{
		Min: -1 / math.Sqrt(float64(rows)),
		Max: 1 / math.Sqrt(float64(rows)),
		Src: weightSrc,
	}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

// sized returns m if it already has the requested shape, otherwise a fresh
// rows x cols matrix. Contents are unspecified; callers overwrite them.
func sized(m *mat.Dense, rows, cols int) *mat.Dense {
	if m != nil {
		if r, c := m.Dims(); r == rows && c == cols {
			return m
		}
	}
	return mat.NewDense(rows, cols, nil)
}

func fillColumn(m *mat.Dense, col int, v float64) {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		m.Set(i, col, v)
	}
}

// argmax returns the index of the largest value, taking the first on ties.
func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
