package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/signalgraph/reactive"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	maxWidthKey   = "width"
	maxHeightKey  = "height"
	iterationsKey = "iterations"
	renderKey     = "render"
	profileKey    = "profile"
)

var sizes = []int{1, 10, 100, 1_000}

func propagateCommand() *cli.Command {
	return &cli.Command{
		Name:  "propagate",
		Usage: "Time one write fanning out through width chains of height memos",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  maxWidthKey,
				Usage: "Largest number of chains",
				Value: 1_000,
			},
			&cli.UintFlag{
				Name:  maxHeightKey,
				Usage: "Largest number of memos per chain",
				Value: 1_000,
			},
			&cli.UintFlag{
				Name:  iterationsKey,
				Usage: "Writes timed per graph",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  renderKey,
				Usage: "Print the results table",
				Value: true,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: propagate,
	}
}

func propagate(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("starting profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	maxWidth, maxHeight := int(cmd.Uint(maxWidthKey)), int(cmd.Uint(maxHeightKey))
	iters := int(cmd.Uint(iterationsKey))

	tbl := table.NewWriter()
	tbl.SetTitle("signalgraph propagate")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range sizes {
		if w > maxWidth {
			break
		}
		for _, h := range sizes {
			if h > maxHeight {
				break
			}
			calc, err := timePropagate(w, h, iters)
			if err != nil {
				return fmt.Errorf("propagate %d * %d: %w", w, h, err)
			}
			tbl.AppendRow(table.Row{
				fmt.Sprintf("propagate: %d * %d", w, h),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			})
		}
	}

	if cmd.Bool(renderKey) {
		tbl.Render()
	}
	return nil
}

func timePropagate(w, h, iters int) (*tachymeter.Metrics, error) {
	rs := reactive.CreateReactiveSystem(func(from reactive.NodeID, err error) {
		log.Panicf("%s: %v", from, err)
	}, reactive.WithCapacity(w*(h+1)+1))

	src := reactive.Signal(rs, 1)
	for i := 0; i < w; i++ {
		last := reactive.Computed(rs, func(oldValue int) int {
			return src.Value() + 1
		})
		for j := 1; j < h; j++ {
			prev := last
			last = reactive.Computed(rs, func(oldValue int) int {
				return prev.Value() + 1
			})
		}
		if _, err := reactive.Effect(rs, func() error {
			last.Value()
			return nil
		}); err != nil {
			return nil, err
		}
	}

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 0; i < iters; i++ {
		start := time.Now()
		if err := src.SetValue(src.Peek() + 1); err != nil {
			return nil, err
		}
		tach.AddTime(time.Since(start))
	}
	return tach.Calc(), nil
}
