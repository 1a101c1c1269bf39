package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/activations"
	"github.com/FlavioCFOliveira/matnet/internal/dataset"
	"github.com/FlavioCFOliveira/matnet/internal/layer"
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
	"github.com/FlavioCFOliveira/matnet/internal/net"
)

// Synthetic 6x6 pattern classification: vertical bars, horizontal bars and
// diagonals, each with a little noise.
func main() {
	epochs := flag.Int("epochs", 200, "training epochs")
	lr := flag.Float64("lr", 0.05, "learning rate")
	samples := flag.Int("samples", 30, "samples per class")
	seed := flag.Uint64("seed", net.DefaultSeed, "seed for data and initialisation")
	flag.Parse()

	fmt.Println("=== CNN Pattern Classification ===")

	src := rand.NewSource(*seed)
	data := generatePatterns(*samples, src)
	train, test := data.Split(0.8)
	fmt.Printf("Train samples: %d, test samples: %d\n\n", train.Len(), test.Len())

	network := net.New(matrix.Shape{Rows: 6, Cols: 6}, *lr)
	network.SetSource(src)
	network.
		MustAdd(layer.NewConv2DSized(3, 3, 1, 1)).
		MustAdd(layer.NewActivation(activations.ReLU{})).
		MustAdd(layer.NewFlatten()).
		MustAdd(layer.NewDense(numClasses)).
		MustAdd(layer.NewActivation(activations.Sigmoid{}))
	if err := network.Summary(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	network.AddCallback(net.Logger{Interval: *epochs / 10})
	if _, err := network.Train(train.Samples, train.Labels, *epochs); err != nil {
		fmt.Fprintf(os.Stderr, "training failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nTrain accuracy: %.1f%%\n", accuracy(network, train)*100)
	fmt.Printf("Test accuracy: %.1f%%\n", accuracy(network, test)*100)
}

const numClasses = 3

// generatePatterns returns samples per class, interleaved by class.
func generatePatterns(samples int, src rand.Source) *dataset.Dataset {
	rng := rand.New(src)
	d := &dataset.Dataset{}
	for i := 0; i < samples; i++ {
		for class := 0; class < numClasses; class++ {
			img := matrix.Random(6, 6, src).Scale(0.1)
			offset := rng.Intn(6)
			for k := 0; k < 6; k++ {
				switch class {
				case 0:
					img.Set(k, offset, 1)
				case 1:
					img.Set(offset, k, 1)
				case 2:
					img.Set(k, (k+offset)%6, 1)
				}
			}
			d.Samples = append(d.Samples, img)
			d.Labels = append(d.Labels, dataset.OneHot(class, numClasses))
		}
	}
	return d
}

func accuracy(n *net.Network, d *dataset.Dataset) float64 {
	if d.Len() == 0 {
		return 0
	}
	correct := 0
	for i := range d.Samples {
		pred, err := n.Predict(d.Samples[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "predict failed: %v\n", err)
			os.Exit(1)
		}
		if dataset.ArgMax(pred) == dataset.ArgMax(d.Labels[i]) {
			correct++
		}
	}
	return float64(correct) / float64(d.Len())
}
