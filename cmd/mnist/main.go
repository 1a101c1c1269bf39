package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/FlavioCFOliveira/matnet/internal/activations"
	"github.com/FlavioCFOliveira/matnet/internal/dataset"
	"github.com/FlavioCFOliveira/matnet/internal/layer"
	"github.com/FlavioCFOliveira/matnet/internal/net"
)

// MNIST digit classification from IDX files, e.g. train-images-idx3-ubyte
// and train-labels-idx1-ubyte.
func main() {
	images := flag.String("images", "train-images-idx3-ubyte", "IDX image file")
	labels := flag.String("labels", "train-labels-idx1-ubyte", "IDX label file")
	limit := flag.Int("limit", 2000, "use at most this many samples (0 for all)")
	epochs := flag.Int("epochs", 5, "training epochs")
	lr := flag.Float64("lr", 0.01, "learning rate")
	csvPath := flag.String("csv", "", "write the loss history to this CSV file")
	flag.Parse()

	fmt.Println("=== MNIST Digit Classification ===")

	data, err := dataset.LoadIDX(*images, *labels, 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load dataset: %v\n", err)
		os.Exit(1)
	}
	if *limit > 0 && data.Len() > *limit {
		data.Samples = data.Samples[:*limit]
		data.Labels = data.Labels[:*limit]
	}
	train, test := data.Split(0.9)
	if train.Len() == 0 {
		fmt.Fprintln(os.Stderr, "no training samples")
		os.Exit(1)
	}
	fmt.Printf("Train samples: %d, test samples: %d\n\n", train.Len(), test.Len())

	network := net.New(train.Samples[0].Shape(), *lr).
		MustAdd(layer.NewConv2DSized(3, 3, 2, 1)).
		MustAdd(layer.NewActivation(activations.ReLU{})).
		MustAdd(layer.NewFlatten()).
		MustAdd(layer.NewDense(64)).
		MustAdd(layer.NewActivation(activations.Tanh{})).
		MustAdd(layer.NewDense(10)).
		MustAdd(layer.NewActivation(activations.Sigmoid{}))
	if err := network.Summary(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	network.AddCallback(net.Logger{Interval: 1})
	network.AddCallback(net.NewEarlyStopping(2, 1e-4))
	if *csvPath != "" {
		network.AddCallback(net.NewCSVLogger(*csvPath, false))
	}

	if _, err := network.Train(train.Samples, train.Labels, *epochs); err != nil {
		fmt.Fprintf(os.Stderr, "training failed: %v\n", err)
		os.Exit(1)
	}

	testLoss, err := network.Evaluate(test.Samples, test.Labels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evaluate: %v\n", err)
		os.Exit(1)
	}
	correct := 0
	for i := range test.Samples {
		pred, err := network.Predict(test.Samples[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "predict: %v\n", err)
			os.Exit(1)
		}
		if dataset.ArgMax(pred) == dataset.ArgMax(test.Labels[i]) {
			correct++
		}
	}
	fmt.Printf("\nTest loss: %.4f\n", testLoss)
	if test.Len() > 0 {
		fmt.Printf("Test accuracy: %.1f%%\n", float64(correct)/float64(test.Len())*100)
	}
}
