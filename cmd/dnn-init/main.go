// dnn-init: Create a fresh model file from an architecture description.
//
// Usage:
//
//	dnn-init --arch="784 128 10" --output=mnist.dnn
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sspeng/libdnn-2/nn"
	"github.com/sspeng/libdnn-2/utils"
)

var (
	archStr    = flag.String("arch", "", "Layer widths, input first (e.g. \"784 128 10\")")
	outputFile = flag.String("output", "", "Output model file")
	seed       = flag.Uint64("seed", 0, "Weight initialization seed (0 uses a random stream)")
	verbose    = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if *archStr == "" || *outputFile == "" {
		fmt.Fprintln(os.Stderr, "both --arch and --output are required")
		flag.Usage()
		os.Exit(1)
	}

	arch, err := utils.ParseArchitecture(*archStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		nn.Seed(*seed)
	}

	net, err := nn.NewNetwork(arch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := net.Save(*outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if utils.Verbose {
		sizes := net.LayerSizes()
		fmt.Printf("Initialized network: %d inputs, %d outputs, depth %d\n",
			sizes[0], sizes[len(sizes)-1], net.Depth())
		fmt.Printf("Saved model to %s\n", *outputFile)
	}
}
