package main

import (
	"math"
	"math/rand"

	"github.com/delaneyj/trackparty/pkg/observable"
	"github.com/delaneyj/trackparty/reactor"
)

// node is anything a layer can read an int from.
type node interface {
	Value() (int, error)
}

// sourceNode reads one index of the source list.
type sourceNode struct {
	list  *observable.List
	index int
}

func (s sourceNode) Value() (int, error) {
	v, _ := s.list.At(s.index).(int)
	return v, nil
}

type benchmarkGraph struct {
	rs        *reactor.ReactiveSystem
	sources   *observable.List
	layers    [][]*reactor.Derived[int]
	isDynamic [][]bool
}

type makeGraphConfig struct {
	counter                      *int64
	width, totalLayers, nSources int
	staticFraction               float64
}

func makeGraph(cfg *makeGraphConfig) *benchmarkGraph {
	rs := reactor.CreateReactiveSystem()
	initial := make([]any, cfg.width)
	for i := range initial {
		initial[i] = i
	}
	g := &benchmarkGraph{
		rs:      rs,
		sources: observable.NewList(rs, initial...),
	}

	prevRow := make([]node, cfg.width)
	for i := range prevRow {
		prevRow[i] = sourceNode{list: g.sources, index: i}
	}

	random := rand.New(rand.NewSource(0))
	for l := 0; l < cfg.totalLayers-1; l++ {
		row, isDynamic := makeRow(rs, prevRow, cfg, random)
		g.layers = append(g.layers, row)
		g.isDynamic = append(g.isDynamic, isDynamic)

		prevRow = make([]node, len(row))
		for i, d := range row {
			prevRow[i] = d
		}
	}
	return g
}

func makeRow(rs *reactor.ReactiveSystem, sources []node, cfg *makeGraphConfig, random *rand.Rand) ([]*reactor.Derived[int], []bool) {
	row := make([]*reactor.Derived[int], len(sources))
	isDynamic := make([]bool, len(sources))

	for myDex := range sources {
		mySources := make([]node, 0, cfg.nSources)
		for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
			mySources = append(mySources, sources[(myDex+sourceDex)%len(sources)])
		}

		if random.Float64() < cfg.staticFraction {
			row[myDex] = reactor.Computed(rs, func() (int, error) {
				*cfg.counter++
				sum := 0
				for _, source := range mySources {
					v, err := source.Value()
					if err != nil {
						return 0, err
					}
					sum += v
				}
				return sum, nil
			})
			continue
		}

		// dynamic node, skips one of its tail sources on odd values
		first, tail := mySources[0], mySources[1:]
		row[myDex] = reactor.Computed(rs, func() (int, error) {
			*cfg.counter++
			sum, err := first.Value()
			if err != nil {
				return 0, err
			}
			shouldDrop := sum&0x1 > 0
			dropDex := 0
			if len(tail) > 0 {
				dropDex = sum % len(tail)
			}
			for i, source := range tail {
				if shouldDrop && i == dropDex {
					continue
				}
				v, err := source.Value()
				if err != nil {
					return 0, err
				}
				sum += v
			}
			return sum, nil
		})
		isDynamic[myDex] = true
	}
	return row, isDynamic
}

// runGraph writes one source per iteration and reads a fixed random subset
// of the leaves. It returns the sum of those leaves after the last write.
func runGraph(g *benchmarkGraph, iterations int, readFraction float64) (int, error) {
	random := rand.New(rand.NewSource(0))
	leaves := g.layers[len(g.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - readFraction)))
	readLeaves := removeElems(leaves, skipCount, random)
	width := len(g.layers[0])

	for i := 0; i < iterations; i++ {
		sourceDex := i % width
		if err := g.sources.Set(sourceDex, i+sourceDex); err != nil {
			return 0, err
		}
		for _, leaf := range readLeaves {
			if _, err := leaf.Value(); err != nil {
				return 0, err
			}
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		v, err := leaf.Value()
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

func removeElems[T any](src []T, rmCount int, random *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := 0; i < rmCount && len(out) > 0; i++ {
		rmDex := random.Intn(len(out))
		out[rmDex] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
