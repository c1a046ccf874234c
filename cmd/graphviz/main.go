package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/delaneyj/signalgraph/dot"
	"github.com/delaneyj/signalgraph/reactive"
	"github.com/urfave/cli/v3"
)

const (
	shapeKey = "shape"
	sizeKey  = "size"
	outKey   = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "graphviz",
		Usage: "Build a sample reactive graph and print it as Graphviz DOT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  shapeKey,
				Usage: "diamond, chain or grid",
				Value: "diamond",
			},
			&cli.UintFlag{
				Name:  sizeKey,
				Usage: "Chain length or grid width",
				Value: 3,
			},
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Output file, - for stdout",
				Value: "-",
			},
		},
		Action: render,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func render(ctx context.Context, cmd *cli.Command) error {
	rs := reactive.CreateReactiveSystem(func(from reactive.NodeID, err error) {
		log.Printf("%s: %v", from, err)
	})

	size := int(cmd.Uint(sizeKey))
	if size < 1 {
		size = 1
	}

	var err error
	switch shape := cmd.String(shapeKey); shape {
	case "diamond":
		err = buildDiamond(rs)
	case "chain":
		err = buildChain(rs, size)
	case "grid":
		err = buildGrid(rs, size)
	default:
		return fmt.Errorf("unknown shape %q", shape)
	}
	if err != nil {
		return fmt.Errorf("building graph: %w", err)
	}

	var w io.Writer = os.Stdout
	if out := cmd.String(outKey); out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}
	dot.WriteGraph(w, rs.Snapshot())
	return nil
}

// buildDiamond wires one signal through two memos into an effect:
//
//	  a
//	 / \
//	b   c
//	 \ /
//	  e
func buildDiamond(rs *reactive.ReactiveSystem) error {
	a := reactive.Signal(rs, 1).Named("a")
	b := reactive.Computed(rs, func(oldValue int) int {
		return a.Value() * 2
	}).Named("b")
	c := reactive.Computed(rs, func(oldValue int) int {
		return a.Value() + 1
	}).Named("c")
	e, err := reactive.Effect(rs, func() error {
		b.Value()
		c.Value()
		return nil
	})
	if err != nil {
		return err
	}
	e.Named("e")
	return nil
}

func buildChain(rs *reactive.ReactiveSystem, size int) error {
	src := reactive.Signal(rs, 0).Named("src")
	read := src.Value
	for i := 0; i < size; i++ {
		prev := read
		m := reactive.Computed(rs, func(oldValue int) int {
			return prev() + 1
		}).Named(fmt.Sprintf("m%d", i))
		read = m.Value
	}
	e, err := reactive.Effect(rs, func() error {
		read()
		return nil
	})
	if err != nil {
		return err
	}
	e.Named("sink")
	return nil
}

func buildGrid(rs *reactive.ReactiveSystem, size int) error {
	row := make([]func() int, size)
	for i := range row {
		row[i] = reactive.Signal(rs, i).Named(fmt.Sprintf("s%d", i)).Value
	}
	for layer := 0; layer < 2; layer++ {
		next := make([]func() int, size)
		for i := range next {
			left, right := row[i], row[(i+1)%size]
			next[i] = reactive.Computed(rs, func(oldValue int) int {
				return left() + right()
			}).Named(fmt.Sprintf("m%d.%d", layer, i)).Value
		}
		row = next
	}
	for i, read := range row {
		e, err := reactive.Effect(rs, func() error {
			read()
			return nil
		})
		if err != nil {
			return err
		}
		e.Named(fmt.Sprintf("e%d", i))
	}
	return nil
}
