package net

import (
	"fmt"
	"io"
	"math"
	"os"
)

// Callback defines the interface for training callbacks. Epochs are numbered
// from 1.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	OnEpochEnd(epoch int, loss float64, n *Network)
}

// Stopper is implemented by callbacks that can end training early.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network)                        {}
func (c BaseCallback) OnTrainEnd(n *Network)                          {}
func (c BaseCallback) OnEpochBegin(epoch int, n *Network)             {}
func (c BaseCallback) OnEpochEnd(epoch int, loss float64, n *Network) {}

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// EarlyStopping stops training when the epoch loss has not improved by more
// than Threshold for Patience consecutive epochs.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64
	// Out receives the stop notice; nil means stdout.
	Out io.Writer

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
	StoppedEpoch int
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.Inf(1),
	}
}

// OnTrainBegin resets the monitor so the callback can be reused.
func (c *EarlyStopping) OnTrainBegin(n *Network) {
	c.bestLoss = math.Inf(1)
	c.numBadEpochs = 0
	c.Stopped = false
	c.StoppedEpoch = 0
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float64, n *Network) {
	if loss < c.bestLoss-c.Threshold {
		c.bestLoss = loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		fmt.Fprintf(writerOrStdout(c.Out), "\nEarly stopping at epoch %d: loss %.6f did not improve for %d epochs\n", epoch, loss, c.Patience)
		c.Stopped = true
		c.StoppedEpoch = epoch
	}
}

func (c *EarlyStopping) ShouldStop() bool {
	return c.Stopped
}

// Logger logs training progress every Interval epochs.
type Logger struct {
	BaseCallback
	Interval int
	// Out defaults to stdout.
	Out io.Writer
}

func (c Logger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.Interval > 0 && epoch%c.Interval == 0 {
		fmt.Fprintf(writerOrStdout(c.Out), "Epoch %d: loss = %.6f\n", epoch, loss)
	}
}
