package nn

import (
	"fmt"
	"io"
	"time"
)

// EpochResult carries the per-epoch figures handed to a Reporter.
type EpochResult struct {
	Epoch       int
	MaxEpochs   int
	ValidErrors int
	ValidTotal  int
	Elapsed     time.Duration
}

// Reporter receives training progress. Implementations must not retain
// the arguments past the call.
type Reporter interface {
	EpochDone(r EpochResult)
	TrainDone(r TrainResult)
}

// NopReporter discards all progress.
type NopReporter struct{}

func (NopReporter) EpochDone(EpochResult) {}
func (NopReporter) TrainDone(TrainResult) {}

// LogReporter prints one line per epoch and a final summary to Out.
type LogReporter struct {
	Out io.Writer
}

func (l LogReporter) EpochDone(r EpochResult) {
	fmt.Fprintf(l.Out, "Epoch %d/%d | Validation errors: %d/%d (%.2f%%) | Time: %.2fs\n",
		r.Epoch, r.MaxEpochs, r.ValidErrors, r.ValidTotal,
		100*float64(r.ValidErrors)/float64(r.ValidTotal), r.Elapsed.Seconds())
}

func (l LogReporter) TrainDone(r TrainResult) {
	if r.EarlyStopped {
		fmt.Fprintf(l.Out, "Stopped early after %d epochs\n", r.Epochs)
	}
	fmt.Fprintf(l.Out, "In-sample error: %.2f%% | Out-of-sample error: %.2f%%\n",
		100*r.InSampleErr, 100*r.OutSampleErr)
}
