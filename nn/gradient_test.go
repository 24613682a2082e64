package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// gradientTestNet builds a 2-2-2 network with fixed small weights so
// softmax outputs stay far from the cross-entropy floor.
func gradientTestNet(t *testing.T) *Network {
	t.Helper()
	net, err := NewNetwork([]int{2, 2, 2})
	require.NoError(t, err)
	net.transforms[0].W().Copy(mat.NewDense(3, 3, []float64{
		0.3, -0.2, 0,
		-0.1, 0.4, 0,
		0.05, 0.1, 1,
	}))
	net.transforms[1].W().Copy(mat.NewDense(3, 3, []float64{
		0.2, -0.3, 0,
		0.15, 0.25, 0,
		-0.05, 0.1, 1,
	}))
	return net
}

func gradientTestBatch() (x, targets *mat.Dense) {
	x = mat.NewDense(2, 3, []float64{
		1, 0, 1,
		0, 1, 1,
	})
	targets = mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})
	return x, targets
}

func layerGrad(tr Transform) *mat.Dense {
	switch v := tr.(type) {
	case *Softmax:
		return &v.dw
	case *AffineLinear:
		return &v.dw
	}
	return nil
}

// packStored flattens the stored weight blocks of every transform, the
// full bias-augmented columns without the pass-through column, in layer
// order.
func packStored(net *Network) []float64 {
	var vals []float64
	for i, tr := range net.transforms {
		in, out := net.layerSizes[i], net.layerSizes[i+1]
		w := tr.W()
		for r := 0; r <= in; r++ {
			for c := 0; c < out; c++ {
				vals = append(vals, w.At(r, c))
			}
		}
	}
	return vals
}

func unpackStored(net *Network, vals []float64) {
	k := 0
	for i, tr := range net.transforms {
		in, out := net.layerSizes[i], net.layerSizes[i+1]
		w := tr.W()
		for r := 0; r <= in; r++ {
			for c := 0; c < out; c++ {
				w.Set(r, c, vals[k])
				k++
			}
		}
	}
}

func packGrads(net *Network) []float64 {
	var vals []float64
	for i, tr := range net.transforms {
		in, out := net.layerSizes[i], net.layerSizes[i+1]
		dw := layerGrad(tr)
		for r := 0; r <= in; r++ {
			for c := 0; c < out; c++ {
				vals = append(vals, dw.At(r, c))
			}
		}
	}
	return vals
}

func crossEntropyLoss(out, targets *mat.Dense) float64 {
	rows, cols := targets.Dims()
	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if tv := targets.At(i, j); tv != 0 {
				sum += tv * math.Log(out.At(i, j))
			}
		}
	}
	return -sum / float64(rows)
}

// The accumulated gradient must match a central-difference gradient of
// the batch cross-entropy loss. Error signals follow the negative
// gradient, so the comparison negates the numerical result.
func TestBackPropagateMatchesNumericalGradient(t *testing.T) {
	net := gradientTestNet(t)
	x, targets := gradientTestBatch()

	out := net.feedForward(x, 0, 2)
	errSig := CrossEntropy{}.ErrorSignal(out, targets, 0, 2)
	net.widenFinal()
	net.backPropagate(errSig)
	analytic := packGrads(net)

	loss := func(vals []float64) float64 {
		probe := net.Copy()
		unpackStored(probe, vals)
		return crossEntropyLoss(probe.feedForward(x, 0, 2), targets)
	}
	numeric := fd.Gradient(nil, loss, packStored(net), &fd.Settings{Formula: fd.Central})

	require.Len(t, analytic, len(numeric))
	for k := range numeric {
		assert.InDelta(t, -numeric[k], analytic[k], 1e-6, "weight %d", k)
	}
}

// Running the backward pass front to back instead of back to front feeds
// each transform a signal meant for a different layer. The layer widths
// here are all equal, so the shapes still line up and only the gradient
// values betray the broken order.
func TestBackPropagateOrderMatters(t *testing.T) {
	x, targets := gradientTestBatch()

	correct := gradientTestNet(t)
	out := correct.feedForward(x, 0, 2)
	errSig := CrossEntropy{}.ErrorSignal(out, targets, 0, 2)
	correct.widenFinal()
	correct.backPropagate(errSig)
	want := packGrads(correct)

	flipped := gradientTestNet(t)
	out = flipped.feedForward(x, 0, 2)
	errSig = CrossEntropy{}.ErrorSignal(out, targets, 0, 2)
	flipped.widenFinal()
	for i := 0; i < len(flipped.transforms); i++ {
		flipped.transforms[i].BackPropagate(flipped.buffers[i], flipped.buffers[i+1], errSig)
	}
	got := packGrads(flipped)

	var maxDiff float64
	for k := range want {
		if d := math.Abs(want[k] - got[k]); d > maxDiff {
			maxDiff = d
		}
	}
	assert.Greater(t, maxDiff, 1e-3)
}
