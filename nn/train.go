package nn

import (
	"time"

	"github.com/pkg/errors"
)

// Training defaults, filled in by Train when the matching option is zero.
const (
	DefaultLearnRate = 0.1
	DefaultMaxEpochs = 1024
)

// earlyStopRate is the validation error rate below which a worsening
// epoch ends training.
const earlyStopRate = 0.2

// TrainOptions configures a training run. BatchSize is required; zero
// values elsewhere fall back to the defaults, with a nil Measure meaning
// cross-entropy and a nil Reporter discarding progress.
type TrainOptions struct {
	BatchSize int
	LearnRate float64
	MaxEpochs int
	Measure   ErrorMeasure
	Reporter  Reporter
}

// TrainResult summarizes a finished training run.
type TrainResult struct {
	// Epochs is the number of epochs actually run.
	Epochs int

	// EarlyStopped reports whether the validation stop rule ended the
	// run before MaxEpochs.
	EarlyStopped bool

	// ValidErrors holds the validation misclassification count after
	// each epoch.
	ValidErrors []int

	// InSampleErr and OutSampleErr are the final misclassification
	// rates on the training and validation sets.
	InSampleErr  float64
	OutSampleErr float64
}

// Train fits the network to the training set by mini-batch gradient
// descent, walking contiguous batches in order and counting validation
// misclassifications after every epoch. Training ends at MaxEpochs, or
// early as soon as the validation errors rise from one epoch to the next
// while the validation error rate is already under 20%.
func (n *Network) Train(train, valid Dataset, opt TrainOptions) (TrainResult, error) {
	if opt.BatchSize < 1 {
		return TrainResult{}, errors.Errorf("batch size must be positive, got %d", opt.BatchSize)
	}
	if opt.LearnRate < 0 {
		return TrainResult{}, errors.Errorf("learning rate must not be negative, got %g", opt.LearnRate)
	}
	if err := n.checkData(train, true); err != nil {
		return TrainResult{}, errors.Wrap(err, "training set")
	}
	if err := n.checkData(valid, true); err != nil {
		return TrainResult{}, errors.Wrap(err, "validation set")
	}

	learnRate := opt.LearnRate
	if learnRate == 0 {
		learnRate = DefaultLearnRate
	}
	maxEpochs := opt.MaxEpochs
	if maxEpochs == 0 {
		maxEpochs = DefaultMaxEpochs
	}
	measure := opt.Measure
	if measure == nil {
		measure = CrossEntropy{}
	}
	reporter := opt.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	nTrain := train.Rows()
	numBatches := (nTrain + opt.BatchSize - 1) / opt.BatchSize

	var res TrainResult
	prevErrs := 0
	for epoch := 1; epoch <= maxEpochs; epoch++ {
		start := time.Now()
		for b := 0; b < numBatches; b++ {
			offset := b * opt.BatchSize
			batchSize := opt.BatchSize
			if offset+batchSize > nTrain {
				batchSize = nTrain - offset
			}
			n.trainBatch(train, offset, batchSize, measure, learnRate)
		}

		errs := n.countErrors(valid)
		res.ValidErrors = append(res.ValidErrors, errs)
		res.Epochs = epoch
		reporter.EpochDone(EpochResult{
			Epoch:       epoch,
			MaxEpochs:   maxEpochs,
			ValidErrors: errs,
			ValidTotal:  valid.Rows(),
			Elapsed:     time.Since(start),
		})
		if epoch > 1 && shouldStop(prevErrs, errs, valid.Rows()) {
			res.EarlyStopped = true
			break
		}
		prevErrs = errs
	}

	res.InSampleErr = float64(n.countErrors(train)) / float64(nTrain)
	res.OutSampleErr = float64(n.countErrors(valid)) / float64(valid.Rows())
	reporter.TrainDone(res)
	return res, nil
}

// trainBatch runs one forward/measure/backward/update cycle over rows
// [offset, offset+batchSize) of ds.
func (n *Network) trainBatch(ds Dataset, offset, batchSize int, measure ErrorMeasure, learnRate float64) {
	out := n.feedForward(ds.Features(), offset, batchSize)
	errSig := measure.ErrorSignal(out, ds.Targets(), offset, batchSize)
	n.widenFinal()
	n.backPropagate(errSig)
	n.update(learnRate)
}

// countErrors runs ds through the network and counts the rows whose
// highest output does not sit at the labeled class.
func (n *Network) countErrors(ds Dataset) int {
	out := n.feedForward(ds.Features(), 0, ds.Rows())
	errs := 0
	for i, label := range ds.Labels() {
		if argmax(out.RawRowView(i)) != label {
			errs++
		}
	}
	return errs
}

// shouldStop reports whether training should halt: the validation errors
// rose since the previous epoch while the error rate is already under
// earlyStopRate. A rise on its own keeps training.
func shouldStop(prevErrs, currErrs, validRows int) bool {
	return currErrs > prevErrs && float64(currErrs)/float64(validRows) < earlyStopRate
}
