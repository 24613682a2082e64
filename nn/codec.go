package nn

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Sentinel errors for model files. Returned errors wrap them with detail,
// test with errors.Is.
var (
	ErrCorruptModel     = errors.New("corrupt model file")
	ErrUnsupportedLayer = errors.New("unsupported layer type")
)

// biasMarker separates a weight block from its bias row in model files.
const biasMarker = "<sigmoid>"

// Save writes the network to a model file, replacing it if it exists.
func (n *Network) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "creating model file %s", filename)
	}
	if err := n.Write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing model file %s", filename)
	}
	return errors.Wrapf(f.Close(), "closing model file %s", filename)
}

// Write writes the network as whitespace-separated text, one record per
// transform:
//
//	<affine-linear> 2 3
//	 [
//	  w00 w01 w02
//	  w10 w11 w12
//	 ]
//	<sigmoid>
//	 [ b0 b1 b2 ]
//	 ]
//
// Records of consecutive transforms are concatenated. The header widths
// are un-augmented sample widths, the bias row follows its weight block
// under the bias marker, and the pass-through column is not stored.
// Values carry six significant digits.
func (n *Network) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, t := range n.transforms {
		in, out := n.layerSizes[i], n.layerSizes[i+1]
		W := t.W()
		fmt.Fprintf(bw, "<%s> %d %d\n", t, in, out)
		fmt.Fprintln(bw, " [")
		for r := 0; r < in; r++ {
			bw.WriteString(" ")
			for c := 0; c < out; c++ {
				fmt.Fprintf(bw, " %.6g", W.At(r, c))
			}
			bw.WriteByte('\n')
		}
		fmt.Fprintln(bw, " ]")
		fmt.Fprintln(bw, biasMarker)
		bw.WriteString(" [")
		for c := 0; c < out; c++ {
			fmt.Fprintf(bw, " %.6g", W.At(in, c))
		}
		fmt.Fprintln(bw, " ]")
		fmt.Fprintln(bw, " ]")
	}
	return errors.Wrap(bw.Flush(), "writing model")
}

// Load reads a model file written by Save.
func Load(filename string) (*Network, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening model file %s", filename)
	}
	defer f.Close()
	net, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model file %s", filename)
	}
	return net, nil
}

// Read parses a network from model text. The layout is token-oriented, so
// any whitespace between tokens is accepted. Read fails with
// ErrUnsupportedLayer on an unknown layer tag and ErrCorruptModel on
// anything malformed, including a width chain that does not line up and a
// final layer that is not a softmax.
func Read(r io.Reader) (*Network, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	p := &modelParser{sc: sc}

	var (
		sizes      []int
		transforms []Transform
	)
	for p.err == nil {
		if !p.sc.Scan() {
			if err := p.sc.Err(); err != nil {
				p.fail(errors.Wrap(err, "reading model"))
			}
			break
		}
		t := p.readTransform(p.sc.Text(), &sizes)
		if p.err != nil {
			break
		}
		transforms = append(transforms, t)
	}
	if p.err != nil {
		return nil, p.err
	}
	if len(transforms) == 0 {
		return nil, errors.Wrap(ErrCorruptModel, "no layers")
	}
	if tag := transforms[len(transforms)-1].String(); tag != softmaxTag {
		return nil, errors.Wrapf(ErrCorruptModel, "final layer is %q, want %q", tag, softmaxTag)
	}
	return &Network{
		layerSizes: sizes,
		transforms: transforms,
		buffers:    make([]*mat.Dense, len(sizes)),
	}, nil
}

// modelParser walks whitespace-separated tokens with a sticky error, so
// parsing code reads straight through and checks err once per record.
type modelParser struct {
	sc  *bufio.Scanner
	err error
}

func (p *modelParser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *modelParser) next(want string) string {
	if p.err != nil {
		return ""
	}
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			p.fail(errors.Wrap(err, "reading model"))
		} else {
			p.fail(errors.Wrapf(ErrCorruptModel, "unexpected end of file, want %s", want))
		}
		return ""
	}
	return p.sc.Text()
}

func (p *modelParser) expect(tok string) {
	got := p.next(strconv.Quote(tok))
	if p.err == nil && got != tok {
		p.fail(errors.Wrapf(ErrCorruptModel, "got %q, want %q", got, tok))
	}
}

func (p *modelParser) width(what string) int {
	tok := p.next(what)
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(tok)
	if err != nil || v < 1 {
		p.fail(errors.Wrapf(ErrCorruptModel, "bad %s %q", what, tok))
		return 0
	}
	return v
}

func (p *modelParser) value() float64 {
	tok := p.next("weight value")
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		p.fail(errors.Wrapf(ErrCorruptModel, "bad weight value %q", tok))
		return 0
	}
	return v
}

// readTransform parses one transform record. header is the already
// consumed layer tag; sizes accumulates the width chain across records.
func (p *modelParser) readTransform(header string, sizes *[]int) Transform {
	if len(header) < 3 || header[0] != '<' || header[len(header)-1] != '>' {
		p.fail(errors.Wrapf(ErrCorruptModel, "bad layer tag %q", header))
		return nil
	}
	tag := header[1 : len(header)-1]
	build, ok := transformLookup[tag]
	if !ok {
		p.fail(errors.Wrapf(ErrUnsupportedLayer, "%q", tag))
		return nil
	}

	in := p.width("input width")
	out := p.width("output width")
	if p.err != nil {
		return nil
	}
	if len(*sizes) == 0 {
		*sizes = append(*sizes, in)
	} else if prev := (*sizes)[len(*sizes)-1]; prev != in {
		p.fail(errors.Wrapf(ErrCorruptModel, "layer input width %d does not match previous output width %d", in, prev))
		return nil
	}
	*sizes = append(*sizes, out)

	t := build(in, out)
	w := t.W()
	p.expect("[")
	for r := 0; r < in; r++ {
		for c := 0; c < out; c++ {
			w.Set(r, c, p.value())
		}
	}
	p.expect("]")
	p.expect(biasMarker)
	p.expect("[")
	for c := 0; c < out; c++ {
		w.Set(in, c, p.value())
	}
	p.expect("]")
	p.expect("]")
	if p.err != nil {
		return nil
	}

	// The pass-through column is not stored, restore it.
	fillColumn(w, out, 0)
	w.Set(in, out, 1)
	return t
}
