// dnn-train: Train a feed-forward classifier on labeled samples.
//
// Usage:
//
//	dnn-train --arch="784 128 10" --train=train.csv --output=mnist.dnn
//	dnn-train --model=mnist.dnn --train=train.csv --valid=valid.csv --output=mnist.dnn
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/sspeng/libdnn-2/dataset"
	"github.com/sspeng/libdnn-2/nn"
	"github.com/sspeng/libdnn-2/utils"
)

var (
	modelFile  = flag.String("model", "", "Existing model file to continue training")
	archStr    = flag.String("arch", "", "Layer widths for a fresh model (e.g. \"784 128 10\")")
	trainFile  = flag.String("train", "", "Training samples (label-first CSV)")
	validFile  = flag.String("valid", "", "Validation samples; omit to split them off the training data")
	splitFrac  = flag.Float64("split", 0.2, "Validation fraction when --valid is omitted")
	batchSize  = flag.Int("batch", 32, "Mini-batch size")
	learnRate  = flag.Float64("lr", nn.DefaultLearnRate, "Learning rate")
	maxEpochs  = flag.Int("epochs", nn.DefaultMaxEpochs, "Maximum training epochs")
	measure    = flag.String("measure", "cross-entropy", "Error measure: cross-entropy, squared-error")
	normalize  = flag.Bool("normalize", false, "Normalize features with training set statistics")
	shuffle    = flag.Bool("shuffle", true, "Shuffle samples before splitting")
	seed       = flag.Int64("seed", 42, "Shuffle seed")
	weightSeed = flag.Uint64("weight-seed", 0, "Weight initialization seed (0 uses a random stream)")
	outputFile = flag.String("output", "", "Output model file")
	verbose    = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if *trainFile == "" || *outputFile == "" {
		fmt.Fprintln(os.Stderr, "both --train and --output are required")
		flag.Usage()
		os.Exit(1)
	}
	if (*modelFile == "") == (*archStr == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --model and --arch is required")
		os.Exit(1)
	}

	meas, err := nn.MeasureByName(*measure)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                        libdnn Trainer                        ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nConfiguration:\n")
	if *modelFile != "" {
		fmt.Printf("  Model:         %s\n", *modelFile)
	} else {
		fmt.Printf("  Architecture:  %s\n", *archStr)
	}
	fmt.Printf("  Batch size:    %d\n", *batchSize)
	fmt.Printf("  Learning rate: %.4f\n", *learnRate)
	fmt.Printf("  Max epochs:    %d\n", *maxEpochs)
	fmt.Printf("  Measure:       %s\n", meas)
	fmt.Println()

	stats := &utils.TimingStats{}
	totalStart := time.Now()

	// The model comes first: its widths decide how the sample files are
	// read.
	start := time.Now()
	net := buildNetwork()
	stats.ModelInitTime = time.Since(start)
	sizes := net.LayerSizes()
	inputs, classes := sizes[0], sizes[len(sizes)-1]

	start = time.Now()
	trainSet, validSet := loadData(inputs, classes)
	stats.DataLoadTime = time.Since(start)
	fmt.Printf("Loaded %d training and %d validation samples\n\n", trainSet.Rows(), validSet.Rows())

	var reporter nn.Reporter
	if utils.Verbose {
		reporter = nn.LogReporter{Out: utils.Output}
	} else {
		reporter = newBarReporter(*maxEpochs)
	}

	start = time.Now()
	res, err := net.Train(trainSet, validSet, nn.TrainOptions{
		BatchSize: *batchSize,
		LearnRate: *learnRate,
		MaxEpochs: *maxEpochs,
		Measure:   meas,
		Reporter:  reporter,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	stats.TrainTime = time.Since(start)

	start = time.Now()
	if err := net.Save(*outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	stats.SaveTime = time.Since(start)
	stats.TotalTime = time.Since(totalStart)

	fmt.Printf("\nTraining complete! Saved model to %s\n", *outputFile)
	utils.PrintTimingStats(stats, res.Epochs)
}

// buildNetwork loads --model or initializes a fresh one from --arch.
func buildNetwork() *nn.Network {
	if *modelFile != "" {
		net, err := nn.Load(*modelFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return net
	}

	arch, err := utils.ParseArchitecture(*archStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := &utils.Config{
		Architecture: arch,
		BatchSize:    *batchSize,
		LearnRate:    *learnRate,
		MaxEpochs:    *maxEpochs,
		Measure:      *measure,
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *weightSeed != 0 {
		nn.Seed(*weightSeed)
	}
	net, err := nn.NewNetwork(arch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return net
}

// loadData reads the sample files, shuffles, splits off a validation set
// when no --valid file is given, and normalizes on request.
func loadData(inputs, classes int) (trainSet, validSet *dataset.Dataset) {
	ctx := context.Background()

	trainSet, err := dataset.Load(ctx, *trainFile, inputs, classes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *shuffle {
		trainSet.Shuffle(*seed)
	}

	if *validFile != "" {
		validSet, err = dataset.Load(ctx, *validFile, inputs, classes)
	} else {
		trainSet, validSet, err = trainSet.Split(*splitFrac)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *normalize {
		mean, std := trainSet.Mean(), trainSet.StdDev()
		if err := trainSet.Normalize(mean, std); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := validSet.Normalize(mean, std); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	return trainSet, validSet
}

// barReporter drives a progress bar over epochs for quiet runs.
type barReporter struct {
	bar *progressbar.ProgressBar
}

func newBarReporter(maxEpochs int) *barReporter {
	return &barReporter{bar: progressbar.Default(int64(maxEpochs), "training")}
}

func (r *barReporter) EpochDone(e nn.EpochResult) {
	r.bar.Describe(fmt.Sprintf("epoch %d/%d, %d validation errors", e.Epoch, e.MaxEpochs, e.ValidErrors))
	r.bar.Add(1)
}

func (r *barReporter) TrainDone(res nn.TrainResult) {
	r.bar.Finish()
	if res.EarlyStopped {
		fmt.Printf("\nStopped early after %d epochs\n", res.Epochs)
	}
	fmt.Printf("In-sample error: %.2f%% | Out-of-sample error: %.2f%%\n",
		100*res.InSampleErr, 100*res.OutSampleErr)
}
