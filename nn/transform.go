package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transform is a single trainable stage of a network. A transform owns one
// augmented weight matrix of shape (in+1) x (out+1): row `in` holds the
// biases and column `out` passes the constant bias feature through to the
// next stage.
//
// Buffers are row-major activation matrices owned by the caller, one row
// per sample. BackPropagate must be called in strict reverse layer order:
// each call consumes the error signal for its output and overwrites it in
// place with the signal for its input, so the matrix a caller passes to
// layer i is only meaningful after layer i+1 has rewritten it.
type Transform interface {
	// FeedForward reads rows [offset, offset+batchSize) of in and writes
	// the corresponding rows of out.
	FeedForward(out, in *mat.Dense, offset, batchSize int)

	// BackPropagate consumes the input activations and output activations
	// of the most recent forward pass together with the error signal for
	// the output, accumulates the weight gradient, and overwrites errSig
	// with the error signal for the input.
	BackPropagate(in, out, errSig *mat.Dense)

	// Update applies the gradient accumulated by the most recent
	// BackPropagate, scaled by learnRate. Calling it twice applies the
	// same step twice.
	Update(learnRate float64)

	// W exposes the augmented weight matrix. Mutations write through.
	W() *mat.Dense

	// String returns the transform's tag as it appears in model files.
	fmt.Stringer
}

const (
	affineLinearTag = "affine-linear"
	softmaxTag      = "softmax"
)

// transformLookup maps a model-file tag to a constructor taking the
// un-augmented input and output widths.
var transformLookup = map[string]func(in, out int) Transform{
	affineLinearTag: func(in, out int) Transform { return NewAffineLinear(in, out) },
	softmaxTag:      func(in, out int) Transform { return NewSoftmax(in, out) },
}
