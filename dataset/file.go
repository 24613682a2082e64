package dataset

import (
	"bufio"
	"context"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Load reads a sample file. Each line is one sample of comma-separated
// values, the class label first and inputs feature values after it:
//
//	3,0.25,0.5,0.125
//
// Labels must lie in [0, classes). Blank lines are skipped.
func Load(ctx context.Context, filename string, inputs, classes int) (*Dataset, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset %s", filename)
	}
	defer f.Close()
	ds, err := Read(ctx, f, inputs, classes)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %s", filename)
	}
	return ds, nil
}

// Read parses samples in the Load format. Lines are parsed on all
// available CPUs; the first malformed line wins and aborts the rest.
func Read(ctx context.Context, r io.Reader, inputs, classes int) (*Dataset, error) {
	if inputs < 1 {
		return nil, errors.Errorf("inputs must be positive, got %d", inputs)
	}
	if classes < 2 {
		return nil, errors.Errorf("need at least 2 classes, got %d", classes)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	var lines []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading samples")
	}
	if len(lines) == 0 {
		return nil, errors.New("no samples")
	}

	n := len(lines)
	features := mat.NewDense(n, inputs+1, nil)
	targets := mat.NewDense(n, classes, nil)
	labels := make([]int, n)

	g, ctx := errgroup.WithContext(ctx)
	procs := runtime.GOMAXPROCS(0)
	chunk := (n + procs - 1) / procs
	for start := 0; start < n; start += chunk {
		start := start
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				err := parseLine(lines[i], features.RawRowView(i), targets.RawRowView(i), &labels[i])
				if err != nil {
					return errors.Wrapf(err, "line %d", i+1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Dataset{features: features, targets: targets, labels: labels}, nil
}

// parseLine fills one feature row, including the trailing bias entry, and
// the matching one-hot target row.
func parseLine(line string, feat, target []float64, label *int) error {
	fields := strings.Split(line, ",")
	if len(fields) != len(feat) {
		return errors.Errorf("expected %d comma-separated values, got %d", len(feat), len(fields))
	}
	cls, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return errors.Wrapf(err, "parsing label %q", fields[0])
	}
	if cls < 0 || cls >= len(target) {
		return errors.Errorf("label %d out of range [0, %d)", cls, len(target))
	}
	for i, s := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errors.Wrapf(err, "parsing feature %d", i+1)
		}
		feat[i] = v
	}
	feat[len(feat)-1] = 1
	target[cls] = 1
	*label = cls
	return nil
}
