package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/FlavioCFOliveira/matnet/internal/activations"
	"github.com/FlavioCFOliveira/matnet/internal/layer"
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
	"github.com/FlavioCFOliveira/matnet/internal/net"
	"github.com/FlavioCFOliveira/matnet/internal/serve"
)

// Trains an XOR network and serves it over HTTP:
//
//	curl localhost:8080/model
//	curl -d '{"rows":1,"cols":2,"data":[0,1]}' localhost:8080/predict
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	epochs := flag.Int("epochs", 5000, "training epochs")
	flag.Parse()

	network := net.New(matrix.Shape{Rows: 1, Cols: 2}, 0.5).
		MustAdd(layer.NewDense(4)).
		MustAdd(layer.NewActivation(activations.Sigmoid{})).
		MustAdd(layer.NewDense(1)).
		MustAdd(layer.NewActivation(activations.Sigmoid{}))

	var x, y []*matrix.Matrix
	for _, r := range [][3]float64{{0, 0, 0}, {0, 1, 1}, {1, 0, 1}, {1, 1, 0}} {
		x = append(x, matrix.New(1, 2).Set(0, 0, r[0]).Set(0, 1, r[1]))
		y = append(y, matrix.New(1, 1).Set(0, 0, r[2]))
	}
	history, err := network.Train(x, y, *epochs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "training failed: %v\n", err)
		os.Exit(1)
	}
	if len(history) > 0 {
		fmt.Printf("Trained %d epochs, final loss %.6f\n", len(history), history[len(history)-1])
	}

	if err := serve.NewServer(network, history).Run(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}
