package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Softmax is an affine map followed by row-wise softmax normalization of
// the real output columns. It is the terminal transform of a network.
type Softmax struct {
	AffineLinear
}

// NewSoftmax returns a softmax output transform from in inputs to out
// outputs with freshly drawn weights.
func NewSoftmax(in, out int) *Softmax {
	return &Softmax{AffineLinear: *NewAffineLinear(in, out)}
}

func (t *Softmax) FeedForward(out, in *mat.Dense, offset, batchSize int) {
	t.AffineLinear.FeedForward(out, in, offset, batchSize)
	for i := offset; i < offset+batchSize; i++ {
		softmaxRow(out.RawRowView(i)[:t.out])
	}
}

func (t *Softmax) BackPropagate(in, out, errSig *mat.Dense) {
	backPropShape(in, out, errSig, t.in, t.out)
	rows, cols := errSig.Dims()

	// Fold the normalization Jacobian into the signal row by row:
	// e[j] <- y[j] * (e[j] - dot(e, y)). The bias columns of out and
	// errSig hold zeros at this point, so they stay zero.
	for i := 0; i < rows; i++ {
		y := out.RawRowView(i)
		e := errSig.RawRowView(i)
		var dot float64
		for j := 0; j < cols; j++ {
			dot += e[j] * y[j]
		}
		for j := 0; j < cols; j++ {
			e[j] = y[j] * (e[j] - dot)
		}
	}

	t.AffineLinear.BackPropagate(in, out, errSig)
}

func (t *Softmax) String() string { return softmaxTag }

// softmaxRow normalizes vals in place. The running max is subtracted
// before exponentiating so large activations cannot overflow.
func softmaxRow(vals []float64) {
	max := vals[0]
	for _, v := range vals[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for i, v := range vals {
		e := math.Exp(v - max)
		vals[i] = e
		sum += e
	}
	for i := range vals {
		vals[i] /= sum
	}
}
