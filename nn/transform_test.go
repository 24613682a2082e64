package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAffineLinearFeedForward(t *testing.T) {
	lin := NewAffineLinear(2, 2)
	lin.W().Copy(mat.NewDense(3, 3, []float64{
		1, 2, 0,
		3, 4, 0,
		5, 6, 1,
	}))

	in := mat.NewDense(1, 3, []float64{1, 2, 1})
	out := mat.NewDense(1, 3, nil)
	lin.FeedForward(out, in, 0, 1)

	assert.InDelta(t, 12, out.At(0, 0), 1e-12)
	assert.InDelta(t, 16, out.At(0, 1), 1e-12)
	assert.InDelta(t, 1, out.At(0, 2), 1e-12)
}

func TestAffineLinearFeedForwardOffset(t *testing.T) {
	lin := NewAffineLinear(1, 1)
	lin.W().Copy(mat.NewDense(2, 2, []float64{
		2, 0,
		1, 1,
	}))

	in := mat.NewDense(3, 2, []float64{
		10, 1,
		3, 1,
		-4, 1,
	})
	out := mat.NewDense(3, 2, nil)
	lin.FeedForward(out, in, 1, 2)

	// Row 0 lies outside the batch and stays untouched.
	assert.Zero(t, out.At(0, 0))
	assert.Zero(t, out.At(0, 1))
	assert.InDelta(t, 7, out.At(1, 0), 1e-12)
	assert.InDelta(t, -7, out.At(2, 0), 1e-12)
}

func TestAffineLinearPassThroughColumn(t *testing.T) {
	lin := NewAffineLinear(4, 3)
	w := lin.W()

	r, c := w.Dims()
	require.Equal(t, 5, r)
	require.Equal(t, 4, c)
	for i := 0; i < 4; i++ {
		assert.Zero(t, w.At(i, 3))
	}
	assert.Equal(t, 1.0, w.At(4, 3))
}

func TestAffineLinearBackPropagate(t *testing.T) {
	lin := NewAffineLinear(1, 1)
	lin.W().Copy(mat.NewDense(2, 2, []float64{
		3, 0,
		5, 1,
	}))

	in := mat.NewDense(1, 2, []float64{2, 1})
	out := mat.NewDense(1, 2, nil)
	lin.FeedForward(out, in, 0, 1)

	errSig := mat.NewDense(1, 2, []float64{1, 0})
	lin.BackPropagate(in, out, errSig)

	// Gradient is input^T times signal over the batch size.
	assert.InDelta(t, 2, lin.dw.At(0, 0), 1e-12)
	assert.InDelta(t, 1, lin.dw.At(1, 0), 1e-12)

	// The signal is rewritten in place with the input-side signal,
	// using the weights from before any update.
	er, ec := errSig.Dims()
	require.Equal(t, 1, er)
	require.Equal(t, 2, ec)
	assert.InDelta(t, 3, errSig.At(0, 0), 1e-12)
	assert.InDelta(t, 5, errSig.At(0, 1), 1e-12)
}

func TestAffineLinearUpdateTwiceAppliesTwice(t *testing.T) {
	lin := NewAffineLinear(1, 1)
	lin.W().Copy(mat.NewDense(2, 2, []float64{
		3, 0,
		5, 1,
	}))

	in := mat.NewDense(1, 2, []float64{2, 1})
	out := mat.NewDense(1, 2, nil)
	lin.FeedForward(out, in, 0, 1)
	lin.BackPropagate(in, out, mat.NewDense(1, 2, []float64{1, 0}))

	lin.Update(0.1)
	assert.InDelta(t, 3.2, lin.W().At(0, 0), 1e-12)
	assert.InDelta(t, 5.1, lin.W().At(1, 0), 1e-12)

	lin.Update(0.1)
	assert.InDelta(t, 3.4, lin.W().At(0, 0), 1e-12)
	assert.InDelta(t, 5.2, lin.W().At(1, 0), 1e-12)
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	sm := NewSoftmax(3, 4)

	in := mat.NewDense(2, 4, []float64{
		0.2, -1.5, 0.7, 1,
		-0.3, 0.9, 2.1, 1,
	})
	out := mat.NewDense(2, 5, nil)
	sm.FeedForward(out, in, 0, 2)

	for i := 0; i < 2; i++ {
		var sum float64
		for j := 0; j < 4; j++ {
			v := out.At(i, j)
			assert.Greater(t, v, 0.0)
			sum += v
		}
		assert.InDelta(t, 1, sum, 1e-12)
	}
}

func TestSoftmaxLargeActivationsStayFinite(t *testing.T) {
	sm := NewSoftmax(1, 2)
	sm.W().Copy(mat.NewDense(2, 3, []float64{
		1000, -1000, 0,
		0, 0, 1,
	}))

	in := mat.NewDense(1, 2, []float64{1, 1})
	out := mat.NewDense(1, 3, nil)
	sm.FeedForward(out, in, 0, 1)

	require.False(t, math.IsNaN(out.At(0, 0)))
	require.False(t, math.IsNaN(out.At(0, 1)))
	assert.InDelta(t, 1, out.At(0, 0), 1e-12)
	assert.InDelta(t, 0, out.At(0, 1), 1e-12)
}

func TestTransformTags(t *testing.T) {
	assert.Equal(t, "affine-linear", NewAffineLinear(2, 2).String())
	assert.Equal(t, "softmax", NewSoftmax(2, 2).String())
}

func TestFeedForwardShapePanics(t *testing.T) {
	lin := NewAffineLinear(2, 2)

	assert.Panics(t, func() {
		lin.FeedForward(mat.NewDense(1, 3, nil), mat.NewDense(1, 4, nil), 0, 1)
	})
	assert.Panics(t, func() {
		lin.FeedForward(mat.NewDense(2, 3, nil), mat.NewDense(2, 3, nil), 1, 2)
	})
	assert.Panics(t, func() {
		bad := mat.NewDense(1, 3, nil)
		NewAffineLinear(1, 1).BackPropagate(bad, bad, bad)
	})
}
