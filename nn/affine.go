package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// AffineLinear maps a batch through its weight matrix with no activation:
// out = in * W.
type AffineLinear struct {
	in, out int
	w       *mat.Dense
	dw      mat.Dense
}

// NewAffineLinear returns a transform from in inputs to out outputs with
// freshly drawn weights. Widths are un-augmented sample widths; the stored
// matrix carries the extra bias row and pass-through column.
func NewAffineLinear(in, out int) *AffineLinear {
	w := randomWeights(in+1, out+1)
	fillColumn(w, out, 0)
	w.Set(in, out, 1)
	return &AffineLinear{in: in, out: out, w: w}
}

func (t *AffineLinear) FeedForward(out, in *mat.Dense, offset, batchSize int) {
	src := batchRows(in, offset, batchSize, t.in)
	dst := batchRows(out, offset, batchSize, t.out)
	dst.Mul(src, t.w)
}

func (t *AffineLinear) BackPropagate(in, out, errSig *mat.Dense) {
	n := backPropShape(in, out, errSig, t.in, t.out)
	t.dw.Mul(in.T(), errSig)
	t.dw.Scale(1/float64(n), &t.dw)

	var prev mat.Dense
	prev.Mul(errSig, t.w.T())
	errSig.CloneFrom(&prev)
}

func (t *AffineLinear) Update(learnRate float64) {
	var step mat.Dense
	step.Scale(learnRate, &t.dw)
	t.w.Add(t.w, &step)
}

func (t *AffineLinear) W() *mat.Dense { return t.w }

func (t *AffineLinear) String() string { return affineLinearTag }

// batchRows views rows [offset, offset+batchSize) of a buffer after
// checking that the buffer matches the un-augmented width.
func batchRows(m *mat.Dense, offset, batchSize, width int) *mat.Dense {
	rows, cols := m.Dims()
	if cols != width+1 {
		panic(fmt.Sprintf("nn: buffer width %d, want %d", cols, width+1))
	}
	if offset < 0 || batchSize <= 0 || offset+batchSize > rows {
		panic(fmt.Sprintf("nn: batch [%d, %d) out of range for %d rows", offset, offset+batchSize, rows))
	}
	return m.Slice(offset, offset+batchSize, 0, cols).(*mat.Dense)
}

func backPropShape(in, out, errSig *mat.Dense, inWidth, outWidth int) int {
	inRows, inCols := in.Dims()
	outRows, outCols := out.Dims()
	if inCols != inWidth+1 || outCols != outWidth+1 {
		panic(fmt.Sprintf("nn: buffer widths %d and %d, want %d and %d", inCols, outCols, inWidth+1, outWidth+1))
	}
	if inRows != outRows {
		panic(fmt.Sprintf("nn: buffer rows %d and %d differ", inRows, outRows))
	}
	if er, ec := errSig.Dims(); er != outRows || ec != outCols {
		panic(fmt.Sprintf("nn: error signal %dx%d, want %dx%d", er, ec, outRows, outCols))
	}
	return outRows
}
