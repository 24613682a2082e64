// softmax_regression: Minimal end-to-end demo of the training engine.
//
// Generates three Gaussian clusters in the plane, trains a network with
// no hidden layers (plain softmax regression) to separate them, and
// classifies a few probe points.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/sspeng/libdnn-2/dataset"
	"github.com/sspeng/libdnn-2/nn"
)

const (
	samplesPerClass = 60
	classes         = 3
	reportEvery     = 20
)

// clusterCenters are far enough apart that a linear model separates them.
var clusterCenters = [classes][2]float64{{3, 0}, {-3, 0}, {0, 3}}

func makeClusters(seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	n := classes * samplesPerClass
	features := mat.NewDense(n, 2, nil)
	targets := mat.NewDense(n, classes, nil)
	for c := 0; c < classes; c++ {
		for s := 0; s < samplesPerClass; s++ {
			i := c*samplesPerClass + s
			features.Set(i, 0, clusterCenters[c][0]+rng.NormFloat64())
			features.Set(i, 1, clusterCenters[c][1]+rng.NormFloat64())
			targets.Set(i, c, 1)
		}
	}
	ds, err := dataset.New(features, targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return ds
}

// demoReporter prints progress every reportEvery epochs.
type demoReporter struct{}

func (demoReporter) EpochDone(e nn.EpochResult) {
	if e.Epoch%reportEvery == 0 {
		fmt.Printf("Epoch %d, validation errors: %d/%d\n", e.Epoch, e.ValidErrors, e.ValidTotal)
	}
}

func (demoReporter) TrainDone(r nn.TrainResult) {
	fmt.Printf("Finished after %d epochs (early stop: %v)\n", r.Epochs, r.EarlyStopped)
	fmt.Printf("In-sample error: %.2f%%, out-of-sample error: %.2f%%\n",
		100*r.InSampleErr, 100*r.OutSampleErr)
}

func main() {
	ds := makeClusters(7)
	ds.Shuffle(7)
	train, valid, err := ds.Split(0.25)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Training on %d samples, validating on %d\n", train.Rows(), valid.Rows())

	nn.Seed(1)
	net, err := nn.NewNetwork([]int{2, classes})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	_, err = net.Train(train, valid, nn.TrainOptions{
		BatchSize: 16,
		LearnRate: 0.5,
		MaxEpochs: 200,
		Reporter:  demoReporter{},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Probe one point near each cluster center.
	probeFeatures := mat.NewDense(classes, 2, nil)
	probeTargets := mat.NewDense(classes, classes, nil)
	for c := 0; c < classes; c++ {
		probeFeatures.Set(c, 0, clusterCenters[c][0])
		probeFeatures.Set(c, 1, clusterCenters[c][1])
		probeTargets.Set(c, c, 1)
	}
	probes, err := dataset.New(probeFeatures, probeTargets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nProbe points at the cluster centers:")
	out, err := net.Predict(probes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for c := 0; c < classes; c++ {
		fmt.Printf("  (%+.1f, %+.1f) ->", clusterCenters[c][0], clusterCenters[c][1])
		for j := 0; j < classes; j++ {
			fmt.Printf(" %.3f", out.At(c, j))
		}
		fmt.Println()
	}
}
