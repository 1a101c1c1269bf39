package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/activations"
	"github.com/FlavioCFOliveira/matnet/internal/layer"
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
	"github.com/FlavioCFOliveira/matnet/internal/net"
)

func main() {
	epochs := flag.Int("epochs", 5000, "training epochs")
	lr := flag.Float64("lr", 0.5, "learning rate")
	hidden := flag.Int("hidden", 4, "hidden units")
	actName := flag.String("act", "sigmoid", "hidden activation: sigmoid, tanh, relu, leaky_relu or linear")
	seed := flag.Uint64("seed", net.DefaultSeed, "initialisation seed")
	logEvery := flag.Int("log-every", 500, "print the loss every n epochs (0 disables)")
	csvPath := flag.String("csv", "", "write the loss history to this CSV file")
	flag.Parse()

	act, err := activations.ByName(*actName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Println("=== XOR Training Example ===")
	fmt.Printf("Network architecture: 2-%d-1\n", *hidden)
	fmt.Printf("Activation functions: %s (hidden), Sigmoid (output)\n", *actName)
	fmt.Printf("Loss function: MSE, SGD with learning rate %g\n\n", *lr)

	network := net.New(matrix.Shape{Rows: 1, Cols: 2}, *lr)
	network.SetSource(rand.NewSource(*seed))
	network.
		MustAdd(layer.NewDense(*hidden)).
		MustAdd(layer.NewActivation(act)).
		MustAdd(layer.NewDense(1)).
		MustAdd(layer.NewActivation(activations.Sigmoid{}))

	network.AddCallback(net.Logger{Interval: *logEvery})
	var csvLogger *net.CSVLogger
	if *csvPath != "" {
		csvLogger = net.NewCSVLogger(*csvPath, false)
		network.AddCallback(csvLogger)
	}

	trainX, trainY := xorData()
	history, err := network.Train(trainX, trainY, *epochs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "training failed: %v\n", err)
		os.Exit(1)
	}
	if csvLogger != nil && csvLogger.Err() != nil {
		fmt.Fprintf(os.Stderr, "%v\n", csvLogger.Err())
	}
	if len(history) > 0 {
		fmt.Printf("\nFinal loss: %.6f\n", history[len(history)-1])
	}

	fmt.Println("\nTesting trained network:")
	for i := range trainX {
		pred, err := network.Predict(trainX[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "predict failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n", trainX[i], pred.At(0, 0), trainY[i].At(0, 0))
	}
}

func xorData() (x, y []*matrix.Matrix) {
	rows := [][2]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	for _, r := range rows {
		x = append(x, matrix.New(1, 2).Set(0, 0, r[0]).Set(0, 1, r[1]))
		target := 0.0
		if r[0] != r[1] {
			target = 1
		}
		y = append(y, matrix.New(1, 1).Set(0, 0, target))
	}
	return x, y
}
