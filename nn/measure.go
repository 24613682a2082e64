package nn

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrorMeasure turns a batch of network outputs and the matching target
// rows into the error signal that drives back-propagation. The returned
// matrix has batchSize rows and one column more than the target width,
// with zeros in the trailing bias column. A signal points in the direction
// of steepest loss decrease, which is why Update adds the accumulated step
// to the weights.
type ErrorMeasure interface {
	// ErrorSignal compares output row i against target row offset+i for
	// i in [0, batchSize).
	ErrorSignal(output, target *mat.Dense, offset, batchSize int) *mat.Dense
	fmt.Stringer
}

const (
	squaredErrorTag = "squared-error"
	crossEntropyTag = "cross-entropy"
)

var measureLookup = map[string]ErrorMeasure{
	squaredErrorTag: SquaredError{},
	crossEntropyTag: CrossEntropy{},
}

// MeasureByName resolves an error measure from its tag.
func MeasureByName(name string) (ErrorMeasure, error) {
	m, ok := measureLookup[name]
	if !ok {
		return nil, errors.Errorf("unknown error measure %q", name)
	}
	return m, nil
}

// SquaredError signals the elementwise square of the residual between
// output and target.
type SquaredError struct{}

func (SquaredError) ErrorSignal(output, target *mat.Dense, offset, batchSize int) *mat.Dense {
	w := measureShape(output, target, offset, batchSize)
	sig := mat.NewDense(batchSize, w+1, nil)
	block := sig.Slice(0, batchSize, 0, w).(*mat.Dense)
	block.Sub(output, target.Slice(offset, offset+batchSize, 0, w))
	block.MulElem(block, block)
	return sig
}

func (SquaredError) String() string { return squaredErrorTag }

// ceFloor bounds cross-entropy denominators away from zero so a collapsed
// output probability cannot blow up the signal.
const ceFloor = 1e-3

// CrossEntropy signals target/output elementwise, the negative gradient of
// the cross-entropy loss. Against a softmax output layer the propagated
// pre-activation signal reduces to target minus output.
type CrossEntropy struct{}

func (CrossEntropy) ErrorSignal(output, target *mat.Dense, offset, batchSize int) *mat.Dense {
	w := measureShape(output, target, offset, batchSize)
	sig := mat.NewDense(batchSize, w+1, nil)
	for i := 0; i < batchSize; i++ {
		o := output.RawRowView(i)
		t := target.RawRowView(offset + i)
		row := sig.RawRowView(i)
		for j := 0; j < w; j++ {
			row[j] = t[j] / math.Max(o[j], ceFloor)
		}
	}
	return sig
}

func (CrossEntropy) String() string { return crossEntropyTag }

func measureShape(output, target *mat.Dense, offset, batchSize int) int {
	rows, w := target.Dims()
	if offset < 0 || batchSize <= 0 || offset+batchSize > rows {
		panic(fmt.Sprintf("nn: batch [%d, %d) out of range for %d target rows", offset, offset+batchSize, rows))
	}
	if or, oc := output.Dims(); or != batchSize || oc != w {
		panic(fmt.Sprintf("nn: output %dx%d, want %dx%d", or, oc, batchSize, w))
	}
	return w
}
