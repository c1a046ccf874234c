package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/signalgraph/reactive"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	repeatsKey = "repeats"
	onlyKey    = "only"
)

type dynamicConfig struct {
	name           string  // unique name of the scenario
	width          int     // nodes per layer
	totalLayers    int     // layers including the sources
	staticFraction float64 // fraction of nodes that always read every source
	nSources       int     // sources read by each node
	readFraction   float64 // fraction of leaves read after each write
	iterations     int64
}

var dynamicConfigs = []dynamicConfig{
	{name: "simple component", width: 10, totalLayers: 5, staticFraction: 1, nSources: 2, readFraction: 0.2, iterations: 600_000},
	{name: "dynamic component", width: 10, totalLayers: 10, staticFraction: 0.75, nSources: 6, readFraction: 0.2, iterations: 15_000},
	{name: "large web app", width: 1000, totalLayers: 12, staticFraction: 0.95, nSources: 4, readFraction: 1, iterations: 7_000},
	{name: "wide dense", width: 1000, totalLayers: 5, staticFraction: 1, nSources: 25, readFraction: 1, iterations: 3_000},
	{name: "deep", width: 5, totalLayers: 500, staticFraction: 1, nSources: 3, readFraction: 1, iterations: 500},
	{name: "very dynamic", width: 100, totalLayers: 15, staticFraction: 0.5, nSources: 6, readFraction: 1, iterations: 2_000},
}

func dynamicCommand() *cli.Command {
	return &cli.Command{
		Name:  "dynamic",
		Usage: "Run layered graphs where some nodes change what they read",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  repeatsKey,
				Usage: "Runs per scenario, the best is reported",
				Value: 5,
			},
			&cli.StringFlag{
				Name:  onlyKey,
				Usage: "Only run scenarios whose name contains this",
			},
		},
		Action: dynamic,
	}
}

type dynamicResult struct {
	sum      int
	count    int64
	duration time.Duration
}

func dynamic(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting dynamic benchmark, please wait...")
	defer log.Print("Finished dynamic benchmark")

	repeats := int(cmd.Uint(repeatsKey))
	only := cmd.String(onlyKey)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "updateRate", "title",
	})

	for _, cfg := range dynamicConfigs {
		if only != "" && !strings.Contains(cfg.name, only) {
			continue
		}
		log.Printf("Running '%s' config", cfg.name)

		best := dynamicResult{duration: time.Hour}
		for i := 0; i < repeats+1; i++ {
			res, err := runDynamic(cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.name, err)
			}
			// first run warms up
			if i > 0 && res.duration < best.duration {
				best = res
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
			dynamicTitle(cfg),
		})
	}
	table.Render()
	return nil
}

func dynamicTitle(cfg dynamicConfig) string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
	}
	return sb.String()
}

type dynamicGraph struct {
	rs      *reactive.ReactiveSystem
	sources []*reactive.WriteableSignal[int]
	layers  [][]*reactive.ReadonlySignal[int]
}

type reader interface {
	Value() int
}

func runDynamic(cfg dynamicConfig) (dynamicResult, error) {
	counter := new(int64)
	g := makeDynamicGraph(cfg, counter)

	random := rand.New(rand.NewSource(0))
	leaves := g.layers[len(g.layers)-1]
	skip := int(math.Round(float64(len(leaves)) * (1 - cfg.readFraction)))
	readLeaves := removeElems(leaves, skip, random)

	start := time.Now()
	for i := 0; i < int(cfg.iterations); i++ {
		sourceDex := i % len(g.sources)
		if err := g.sources[sourceDex].SetValue(i + sourceDex); err != nil {
			return dynamicResult{}, err
		}
		for _, leaf := range readLeaves {
			leaf.Value()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf.Value()
	}
	return dynamicResult{
		sum:      sum,
		count:    *counter,
		duration: time.Since(start),
	}, nil
}

func makeDynamicGraph(cfg dynamicConfig, counter *int64) *dynamicGraph {
	rs := reactive.CreateReactiveSystem(func(from reactive.NodeID, err error) {
		log.Panicf("%s: %v", from, err)
	}, reactive.WithCapacity(cfg.width*cfg.totalLayers))

	g := &dynamicGraph{
		rs:      rs,
		sources: make([]*reactive.WriteableSignal[int], cfg.width),
	}
	prevRow := make([]reader, cfg.width)
	for i := range g.sources {
		g.sources[i] = reactive.Signal(rs, i)
		prevRow[i] = g.sources[i]
	}

	random := rand.New(rand.NewSource(0))
	for l := 0; l < cfg.totalLayers-1; l++ {
		row := makeDynamicRow(rs, cfg, prevRow, counter, random)
		g.layers = append(g.layers, row)
		prevRow = make([]reader, len(row))
		for i, m := range row {
			prevRow[i] = m
		}
	}
	return g
}

func makeDynamicRow(
	rs *reactive.ReactiveSystem,
	cfg dynamicConfig,
	sources []reader,
	counter *int64,
	random *rand.Rand,
) []*reactive.ReadonlySignal[int] {
	row := make([]*reactive.ReadonlySignal[int], len(sources))
	for myDex := range sources {
		mySources := make([]reader, 0, cfg.nSources)
		for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
			mySources = append(mySources, sources[(myDex+sourceDex)%len(sources)])
		}

		if random.Float64() < cfg.staticFraction {
			row[myDex] = reactive.Computed(rs, func(oldValue int) int {
				*counter++
				sum := 0
				for _, src := range mySources {
					sum += src.Value()
				}
				return sum
			})
			continue
		}

		first, tail := mySources[0], mySources[1:]
		row[myDex] = reactive.Computed(rs, func(oldValue int) int {
			*counter++
			sum := first.Value()
			shouldDrop := sum&0x1 > 0
			dropDex := sum % len(tail)
			for i := range tail {
				if shouldDrop && i == dropDex {
					continue
				}
				sum += tail[i].Value()
			}
			return sum
		})
	}
	return row
}

func removeElems[T any](src []T, rmCount int, random *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := 0; i < rmCount; i++ {
		rmDex := random.Intn(len(out))
		out[rmDex] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
