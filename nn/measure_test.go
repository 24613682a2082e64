package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestErrorSignalShape(t *testing.T) {
	target := mat.NewDense(10, 3, nil)
	for i := 0; i < 10; i++ {
		target.Set(i, i%3, 1)
	}
	output := mat.NewDense(4, 3, []float64{
		0.5, 0.3, 0.2,
		0.1, 0.8, 0.1,
		0.2, 0.2, 0.6,
		0.3, 0.4, 0.3,
	})

	for _, m := range []ErrorMeasure{SquaredError{}, CrossEntropy{}} {
		sig := m.ErrorSignal(output, target, 2, 4)
		r, c := sig.Dims()
		assert.Equal(t, 4, r, m.String())
		assert.Equal(t, 4, c, m.String())
		for i := 0; i < 4; i++ {
			assert.Zero(t, sig.At(i, 3), m.String())
		}
	}
}

func TestSquaredErrorValues(t *testing.T) {
	output := mat.NewDense(1, 2, []float64{0.2, 0.7})
	target := mat.NewDense(1, 2, []float64{1, 0})

	sig := SquaredError{}.ErrorSignal(output, target, 0, 1)
	assert.InDelta(t, 0.64, sig.At(0, 0), 1e-12)
	assert.InDelta(t, 0.49, sig.At(0, 1), 1e-12)
	assert.Zero(t, sig.At(0, 2))
}

func TestCrossEntropyValues(t *testing.T) {
	output := mat.NewDense(1, 2, []float64{0.25, 0.75})
	target := mat.NewDense(1, 2, []float64{1, 0})

	sig := CrossEntropy{}.ErrorSignal(output, target, 0, 1)
	assert.InDelta(t, 4, sig.At(0, 0), 1e-12)
	assert.Zero(t, sig.At(0, 1))
	assert.Zero(t, sig.At(0, 2))
}

func TestCrossEntropyFloorsTinyOutputs(t *testing.T) {
	output := mat.NewDense(1, 2, []float64{0.0005, 0.9995})
	target := mat.NewDense(1, 2, []float64{1, 0})

	sig := CrossEntropy{}.ErrorSignal(output, target, 0, 1)
	assert.InDelta(t, 1000, sig.At(0, 0), 1e-9)
}

func TestErrorSignalUsesOffsetRows(t *testing.T) {
	target := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 0,
	})
	output := mat.NewDense(1, 2, []float64{0.5, 0.5})

	sig := CrossEntropy{}.ErrorSignal(output, target, 1, 1)
	assert.Zero(t, sig.At(0, 0))
	assert.InDelta(t, 2, sig.At(0, 1), 1e-12)
}

func TestErrorSignalShapePanics(t *testing.T) {
	target := mat.NewDense(2, 2, nil)
	output := mat.NewDense(2, 2, nil)

	assert.Panics(t, func() {
		CrossEntropy{}.ErrorSignal(output, target, 1, 2)
	})
	assert.Panics(t, func() {
		SquaredError{}.ErrorSignal(mat.NewDense(2, 3, nil), target, 0, 2)
	})
}

func TestMeasureByName(t *testing.T) {
	ce, err := MeasureByName("cross-entropy")
	require.NoError(t, err)
	assert.Equal(t, "cross-entropy", ce.String())

	se, err := MeasureByName("squared-error")
	require.NoError(t, err)
	assert.Equal(t, "squared-error", se.String())

	_, err = MeasureByName("hinge")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown error measure")
}
