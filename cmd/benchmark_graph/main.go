package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	configKey   = "config"
	repeatsKey  = "repeats"
	markdownKey = "markdown"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark_graph",
		Usage: "Drive layered graphs of derived values with writes and reads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "YAML file with the cases to run, the built-in cases otherwise",
			},
			&cli.IntFlag{
				Name:  repeatsKey,
				Usage: "Runs per case, the fastest one is reported",
				Value: 5,
			},
			&cli.StringFlag{
				Name:  markdownKey,
				Usage: "Also write the results as markdown to this file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting graph benchmark, please wait...")
	defer log.Print("Finished graph benchmark")

	cases := defaultCases
	repeats := int(cmd.Int(repeatsKey))
	if path := cmd.String(configKey); path != "" {
		cf, err := loadCases(path)
		if err != nil {
			return err
		}
		cases = cf.Cases
		if cf.Repeats > 0 && !cmd.IsSet(repeatsKey) {
			repeats = cf.Repeats
		}
	}
	if repeats < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", repeatsKey, repeats)
	}

	results := make([]caseResult, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := runCase(c, repeats)
		if err != nil {
			return fmt.Errorf("case %q: %w", c.Name, err)
		}
		if !r.sumOK() {
			log.Printf("'%s' sum mismatch: got %d, expected %d", c.Name, r.sum, c.ExpectedSum)
		}
		results = append(results, r)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(tableHeader)
	for _, r := range results {
		table.Append(r.row())
	}
	table.Render()

	if path := cmd.String(markdownKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		writeMarkdown(f, results)
	}
	return nil
}

func runCase(c benchmarkCase, repeats int) (caseResult, error) {
	log.Printf("Running '%s' config", c.Name)

	counter := new(int64)
	g := makeGraph(&makeGraphConfig{
		counter:        counter,
		width:          c.Width,
		totalLayers:    c.Layers,
		nSources:       c.Sources,
		staticFraction: c.StaticFraction,
	})

	// warm up
	if _, err := runGraph(g, c.Iterations, c.ReadFraction); err != nil {
		return caseResult{}, err
	}

	best := caseResult{benchmarkCase: c, duration: time.Hour}
	for i := 0; i < repeats; i++ {
		log.Printf("Running '%s' config, iteration %d/%d %d%%", c.Name, i+1, repeats, (i+1)*100/repeats)
		*counter = 0
		start := time.Now()
		sum, err := runGraph(g, c.Iterations, c.ReadFraction)
		if err != nil {
			return caseResult{}, err
		}
		duration := time.Since(start)

		if duration < best.duration {
			best.duration = duration
			best.sum = sum
			best.count = *counter
		}
	}

	for _, row := range g.isDynamic {
		for _, dynamic := range row {
			if dynamic {
				best.dynamic++
			}
		}
	}
	best.stats = g.rs.Stats().String()
	return best, nil
}
