// Package nn implements feed-forward classification networks trained by
// mini-batch gradient descent.
//
// A network is a chain of affine transforms ending in a softmax output
// layer. Samples travel through it as rows of dense matrices with a
// constant bias feature appended, so a layer of width w occupies w+1
// columns in flight. Models round-trip through a line-oriented text
// format, see Save and Load.
package nn

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset is the view of a sample collection the network consumes. The
// feature matrix carries the constant bias column last, so Cols is one
// more than the raw feature width. Targets hold one-hot rows and Labels
// the matching class indices.
type Dataset interface {
	Rows() int
	Cols() int
	Features() *mat.Dense
	Targets() *mat.Dense
	Labels() []int
}

// Network chains transforms into a classifier. The activation buffers
// between transforms belong to the network and are reused from batch to
// batch, so views returned by internal passes are only valid until the
// next pass.
type Network struct {
	layerSizes []int
	transforms []Transform
	buffers    []*mat.Dense
}

// NewNetwork builds a network from un-augmented layer widths: sizes[0]
// inputs, sizes[len(sizes)-1] outputs, hidden widths in between. Hidden
// transforms are affine-linear and the output transform is a softmax.
func NewNetwork(sizes []int) (*Network, error) {
	if len(sizes) < 2 {
		return nil, errors.Errorf("architecture must have at least 2 layers (input and output), got %d", len(sizes))
	}
	for _, s := range sizes {
		if s < 1 {
			return nil, errors.Errorf("layer width must be positive, got %d", s)
		}
	}
	n := &Network{
		layerSizes: append([]int(nil), sizes...),
		transforms: make([]Transform, len(sizes)-1),
		buffers:    make([]*mat.Dense, len(sizes)),
	}
	for i := range n.transforms {
		if i == len(n.transforms)-1 {
			n.transforms[i] = NewSoftmax(sizes[i], sizes[i+1])
		} else {
			n.transforms[i] = NewAffineLinear(sizes[i], sizes[i+1])
		}
	}
	return n, nil
}

// LayerSizes returns a copy of the un-augmented layer widths, input first.
func (n *Network) LayerSizes() []int {
	return append([]int(nil), n.layerSizes...)
}

// Depth is the number of hidden layers.
func (n *Network) Depth() int {
	return len(n.layerSizes) - 2
}

// Copy returns a deep copy. Weight matrices are duplicated, so training
// the copy leaves the receiver untouched.
func (n *Network) Copy() *Network {
	c := &Network{
		layerSizes: append([]int(nil), n.layerSizes...),
		transforms: make([]Transform, len(n.transforms)),
		buffers:    make([]*mat.Dense, len(n.layerSizes)),
	}
	for i, t := range n.transforms {
		nt := transformLookup[t.String()](n.layerSizes[i], n.layerSizes[i+1])
		nt.W().Copy(t.W())
		c.transforms[i] = nt
	}
	return c
}

// Assign replaces the receiver's state with a deep copy of src. The copy
// is completed before the receiver is touched.
func (n *Network) Assign(src *Network) {
	c := src.Copy()
	n.layerSizes, n.transforms, n.buffers = c.layerSizes, c.transforms, c.buffers
}

// Predict runs every row of ds through the network and returns the class
// probabilities, one row per sample. The returned matrix is the caller's
// to keep.
func (n *Network) Predict(ds Dataset) (*mat.Dense, error) {
	if err := n.checkData(ds, false); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(n.feedForward(ds.Features(), 0, ds.Rows())), nil
}

// feedForward runs rows [offset, offset+batchSize) of x through every
// transform, refilling each buffer's bias column with ones behind the
// transform that wrote it. It returns the final activations with the bias
// column stripped, a view into the output buffer valid until the next
// pass.
func (n *Network) feedForward(x *mat.Dense, offset, batchSize int) *mat.Dense {
	if _, c := x.Dims(); c != n.layerSizes[0]+1 {
		panic(fmt.Sprintf("nn: input width %d, want %d", c, n.layerSizes[0]+1))
	}
	O := n.buffers
	O[0] = sized(O[0], batchSize, n.layerSizes[0]+1)
	O[0].Copy(x.Slice(offset, offset+batchSize, 0, n.layerSizes[0]+1))
	for i, t := range n.transforms {
		width := n.layerSizes[i+1] + 1
		O[i+1] = sized(O[i+1], batchSize, width)
		t.FeedForward(O[i+1], O[i], 0, batchSize)
		fillColumn(O[i+1], width-1, 1)
	}
	last := len(O) - 1
	O[last] = O[last].Slice(0, batchSize, 0, n.layerSizes[last]).(*mat.Dense)
	return O[last]
}

// widenFinal restores the bias column slot on the output buffer, zero
// filled, so buffer and error signal widths agree during the backward
// pass.
func (n *Network) widenFinal() {
	last := len(n.buffers) - 1
	n.buffers[last] = n.buffers[last].Grow(0, 1).(*mat.Dense)
	fillColumn(n.buffers[last], n.layerSizes[last], 0)
}

// backPropagate walks the transforms in strict reverse order, handing
// each the buffers of the most recent forward pass. errSig is consumed
// destructively.
func (n *Network) backPropagate(errSig *mat.Dense) {
	for i := len(n.transforms) - 1; i >= 0; i-- {
		n.transforms[i].BackPropagate(n.buffers[i], n.buffers[i+1], errSig)
	}
}

func (n *Network) update(learnRate float64) {
	for _, t := range n.transforms {
		t.Update(learnRate)
	}
}

func (n *Network) checkData(ds Dataset, withTargets bool) error {
	if ds.Rows() == 0 {
		return errors.New("dataset is empty")
	}
	if got, want := ds.Cols(), n.layerSizes[0]+1; got != want {
		return errors.Errorf("dataset feature width %d does not match network input width %d", got-1, want-1)
	}
	if withTargets {
		if _, tc := ds.Targets().Dims(); tc != n.layerSizes[len(n.layerSizes)-1] {
			return errors.Errorf("dataset target width %d does not match network output width %d",
				tc, n.layerSizes[len(n.layerSizes)-1])
		}
		if len(ds.Labels()) != ds.Rows() {
			return errors.Errorf("dataset has %d labels for %d rows", len(ds.Labels()), ds.Rows())
		}
	}
	return nil
}
