// Package dataset loads and prepares labeled sample sets for training.
package dataset

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Dataset is an in-memory labeled sample set. The feature matrix carries
// the constant bias column as its last column, targets hold one one-hot
// row per sample.
type Dataset struct {
	features *mat.Dense
	targets  *mat.Dense
	labels   []int
}

// New builds a dataset from raw feature rows and one-hot target rows. The
// bias column is appended to a copy of features and labels are derived
// from the targets.
func New(features, targets *mat.Dense) (*Dataset, error) {
	fr, fc := features.Dims()
	tr, _ := targets.Dims()
	if fr != tr {
		return nil, errors.Errorf("feature rows %d do not match target rows %d", fr, tr)
	}
	aug := mat.NewDense(fr, fc+1, nil)
	aug.Copy(features)
	labels := make([]int, fr)
	for i := 0; i < fr; i++ {
		aug.Set(i, fc, 1)
		labels[i] = argmax(targets.RawRowView(i))
	}
	return &Dataset{features: aug, targets: mat.DenseCopyOf(targets), labels: labels}, nil
}

// Rows is the number of samples.
func (d *Dataset) Rows() int { r, _ := d.features.Dims(); return r }

// Cols is the feature width including the bias column.
func (d *Dataset) Cols() int { _, c := d.features.Dims(); return c }

// Classes is the target width.
func (d *Dataset) Classes() int { _, c := d.targets.Dims(); return c }

func (d *Dataset) Features() *mat.Dense { return d.features }
func (d *Dataset) Targets() *mat.Dense  { return d.targets }
func (d *Dataset) Labels() []int        { return d.labels }

// Shuffle permutes the samples in place, deterministically for a given
// seed.
func (d *Dataset) Shuffle(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := d.Rows() - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		swapRows(d.features, i, j)
		swapRows(d.targets, i, j)
		d.labels[i], d.labels[j] = d.labels[j], d.labels[i]
	}
}

// Split carves off the first validFrac of the rows as a validation set
// and returns the rest as the training set. Both share the receiver's
// storage. The fraction must leave at least one row on each side.
func (d *Dataset) Split(validFrac float64) (train, valid *Dataset, err error) {
	n := d.Rows()
	nValid := int(float64(n) * validFrac)
	if nValid < 1 || nValid >= n {
		return nil, nil, errors.Errorf("split fraction %g leaves no rows on one side of %d samples", validFrac, n)
	}
	return d.slice(nValid, n), d.slice(0, nValid), nil
}

// Mean returns the per-feature means, excluding the bias column.
func (d *Dataset) Mean() []float64 {
	w := d.Cols() - 1
	mean := make([]float64, w)
	col := make([]float64, d.Rows())
	for j := 0; j < w; j++ {
		mat.Col(col, j, d.features)
		mean[j] = stat.Mean(col, nil)
	}
	return mean
}

// StdDev returns the per-feature population standard deviations,
// excluding the bias column.
func (d *Dataset) StdDev() []float64 {
	w := d.Cols() - 1
	std := make([]float64, w)
	col := make([]float64, d.Rows())
	for j := 0; j < w; j++ {
		mat.Col(col, j, d.features)
		std[j] = stat.PopStdDev(col, nil)
	}
	return std
}

// Normalize shifts and scales every feature column to the given
// statistics, leaving the bias column alone. A column with zero deviation
// is only shifted. Validation and test sets should be normalized with the
// training set's statistics.
func (d *Dataset) Normalize(mean, std []float64) error {
	w := d.Cols() - 1
	if len(mean) != w || len(std) != w {
		return errors.Errorf("normalization statistics cover %d features, dataset has %d", len(mean), w)
	}
	for i := 0; i < d.Rows(); i++ {
		row := d.features.RawRowView(i)
		for j := 0; j < w; j++ {
			row[j] -= mean[j]
			if std[j] != 0 {
				row[j] /= std[j]
			}
		}
	}
	return nil
}

func (d *Dataset) slice(i, k int) *Dataset {
	return &Dataset{
		features: d.features.Slice(i, k, 0, d.Cols()).(*mat.Dense),
		targets:  d.targets.Slice(i, k, 0, d.Classes()).(*mat.Dense),
		labels:   d.labels[i:k],
	}
}

func swapRows(m *mat.Dense, i, j int) {
	a := m.RawRowView(i)
	b := m.RawRowView(j)
	for k := range a {
		a[k], b[k] = b[k], a[k]
	}
}

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
