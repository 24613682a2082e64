package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds timing information for the pipeline stages
type TimingStats struct {
	TotalTime      time.Duration
	DataLoadTime   time.Duration
	ModelInitTime  time.Duration
	TrainTime      time.Duration
	EvaluationTime time.Duration
	SaveTime       time.Duration
}

// PrintTimingStats prints detailed timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats, epochs int) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Epochs completed: %d\n", epochs)
	fmt.Fprintln(Output, "\nBreakdown by stage:")
	fmt.Fprintf(Output, "  Data loading: %v (%.1f%%)\n", stats.DataLoadTime, float64(stats.DataLoadTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Model initialization: %v (%.1f%%)\n", stats.ModelInitTime, float64(stats.ModelInitTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Training: %v (%.1f%%)\n", stats.TrainTime, float64(stats.TrainTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Evaluation: %v (%.1f%%)\n", stats.EvaluationTime, float64(stats.EvaluationTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "  Model saving: %v (%.1f%%)\n", stats.SaveTime, float64(stats.SaveTime)/float64(stats.TotalTime)*100)
	fmt.Fprintf(Output, "\nAverage time per epoch: %v\n", stats.TrainTime/time.Duration(epochs))
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
