// dnn-predict: Classify samples with a trained model and report accuracy.
//
// Usage:
//
//	dnn-predict --model=mnist.dnn --data=test.csv
//	dnn-predict --model=mnist.dnn --data=test.csv --output=predictions.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/sspeng/libdnn-2/dataset"
	"github.com/sspeng/libdnn-2/nn"
	"github.com/sspeng/libdnn-2/utils"
)

var (
	modelFile  = flag.String("model", "", "Trained model file")
	dataFile   = flag.String("data", "", "Samples to classify (label-first CSV)")
	outputFile = flag.String("output", "", "Write per-sample predictions to this CSV file")
	normalize  = flag.Bool("normalize", false, "Normalize features with the data's own statistics")
	verbose    = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if *modelFile == "" || *dataFile == "" {
		fmt.Fprintln(os.Stderr, "both --model and --data are required")
		flag.Usage()
		os.Exit(1)
	}

	start := time.Now()
	net, err := nn.Load(*modelFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sizes := net.LayerSizes()
	inputs, classes := sizes[0], sizes[len(sizes)-1]
	if utils.Verbose {
		fmt.Printf("Loaded %d-layer model (%d inputs, %d classes) in %.2fs\n",
			len(sizes), inputs, classes, time.Since(start).Seconds())
	}

	ds, err := dataset.Load(context.Background(), *dataFile, inputs, classes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *normalize {
		if err := ds.Normalize(ds.Mean(), ds.StdDev()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	start = time.Now()
	probs, err := net.Predict(ds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	_, cols := probs.Dims()
	correct := 0
	for i, label := range ds.Labels() {
		if argmaxRow(probs, i, cols) == label {
			correct++
		}
	}
	fmt.Printf("Accuracy: %d/%d (%.2f%%)\n",
		correct, ds.Rows(), 100*float64(correct)/float64(ds.Rows()))
	if utils.Verbose {
		fmt.Printf("Classified %d samples in %.2fs (%.1fµs/sample)\n",
			ds.Rows(), elapsed.Seconds(), utils.DurationUS(elapsed)/float64(ds.Rows()))
	}

	if *outputFile != "" {
		if err := writePredictions(*outputFile, ds, probs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if utils.Verbose {
			fmt.Printf("Wrote predictions to %s\n", *outputFile)
		}
	}
}

// argmaxRow returns the column with the largest value in row i, taking
// the first on ties.
func argmaxRow(m *mat.Dense, i, cols int) int {
	best := 0
	for j := 1; j < cols; j++ {
		if m.At(i, j) > m.At(i, best) {
			best = j
		}
	}
	return best
}

// writePredictions writes one CSV record per sample: the true label, the
// predicted class, and the per-class probabilities.
func writePredictions(filename string, ds *dataset.Dataset, probs *mat.Dense) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "creating %s", filename)
	}
	defer f.Close()

	_, cols := probs.Dims()
	w := csv.NewWriter(f)
	header := []string{"label", "predicted"}
	for j := 0; j < cols; j++ {
		header = append(header, fmt.Sprintf("p%d", j))
	}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing predictions")
	}
	for i, label := range ds.Labels() {
		rec := []string{strconv.Itoa(label), strconv.Itoa(argmaxRow(probs, i, cols))}
		for j := 0; j < cols; j++ {
			rec = append(rec, strconv.FormatFloat(probs.At(i, j), 'f', 6, 64))
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "writing predictions")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "writing predictions")
}
