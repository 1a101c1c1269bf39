package net

import (
	"fmt"
	"io"
	"strings"

	"github.com/FlavioCFOliveira/matnet/internal/layer"
)

const summaryRule = "_________________________________________________________________"

// Summary writes a table of the network architecture to w.
func (n *Network) Summary(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintln(&b, "Model: Network")
	fmt.Fprintln(&b, summaryRule)
	fmt.Fprintf(&b, "%-36s %-16s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(&b, strings.Repeat("=", len(summaryRule)))
	fmt.Fprintf(&b, "%-36s %-16s %-10d\n", "Input", n.InputShape(), 0)

	for i, l := range n.layers {
		params := 0
		if p, ok := l.(layer.Parametrized); ok {
			params = p.NumParams()
		}
		fmt.Fprintf(&b, "%-36s %-16s %-10d\n", fmt.Sprintf("%s_%d", layer.Describe(l), i), l.OutputShape(), params)
	}
	fmt.Fprintln(&b, strings.Repeat("=", len(summaryRule)))
	fmt.Fprintf(&b, "Total params: %d\n", n.NumParams())
	fmt.Fprintf(&b, "Learning rate: %g\n", n.learningRate)
	fmt.Fprintln(&b, summaryRule)

	_, err := io.WriteString(w, b.String())
	return err
}
