package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/trackparty/pkg/observable"
	"github.com/delaneyj/trackparty/reactor"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	widthsKey     = "width"
	heightsKey    = "height"
	iterationsKey = "iterations"
	profileKey    = "cpuprofile"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Propagate writes through w chains of h derived values",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{
				Name:  widthsKey,
				Usage: "Number of independent chains",
				Value: []int64{1, 10, 100, 1_000},
			},
			&cli.IntSliceFlag{
				Name:  heightsKey,
				Usage: "Derived values per chain",
				Value: []int64{1, 10, 100, 1_000},
			},
			&cli.IntFlag{
				Name:  iterationsKey,
				Usage: "Writes per case",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Int(iterationsKey))
	if iters <= 0 {
		return fmt.Errorf("%s must be positive, got %d", iterationsKey, iters)
	}

	log.Printf("warming up")
	if _, err := benchmarkPropagate([]int64{10}, []int64{10}, iters); err != nil {
		return err
	}

	tbl, err := benchmarkPropagate(cmd.IntSlice(widthsKey), cmd.IntSlice(heightsKey), iters)
	if err != nil {
		return err
	}
	tbl.Render()
	return nil
}

func readPlusOne(prev *reactor.Derived[int]) reactor.Callback[int] {
	return func() (int, error) {
		v, err := prev.Value()
		return v + 1, err
	}
}

func benchmarkPropagate(ww, hh []int64, iters int) (table.Writer, error) {
	tbl := table.NewWriter()
	tbl.SetTitle("trackparty propagate")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "registry"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := reactor.CreateReactiveSystem(reactor.WithOnError(func(from *reactor.Effect, err error) {
				log.Panic(err)
			}))
			src := observable.FromMap(rs, map[string]any{"v": 1})
			for i := int64(0); i < w; i++ {
				last := reactor.Computed(rs, func() (int, error) {
					return src.Get("v").(int) + 1, nil
				})
				for j := int64(1); j < h; j++ {
					last = reactor.Computed(rs, readPlusOne(last))
				}

				if _, err := reactor.CreateEffect(rs, func() error {
					_, err := last.Value()
					return err
				}); err != nil {
					return nil, err
				}
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := src.Set("v", src.Get("v").(int)+1); err != nil {
					return nil, err
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
					rs.Stats().String(),
				},
			})
		}
	}
	return tbl, nil
}
