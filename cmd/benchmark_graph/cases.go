package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// benchmarkCase describes one graph shape and how hard to drive it.
type benchmarkCase struct {
	// Name should be unique within a run.
	Name string `yaml:"name"`

	// Width and Layers are the dimensions of the dependency graph.
	Width  int `yaml:"width"`
	Layers int `yaml:"layers"`

	// StaticFraction of nodes always read all of their sources.
	StaticFraction float64 `yaml:"static_fraction"`

	// Sources is the number of inputs of each node.
	Sources int `yaml:"sources"`

	// ReadFraction of the last layer is read after every write.
	ReadFraction float64 `yaml:"read_fraction"`

	Iterations int `yaml:"iterations"`

	// ExpectedSum is checked when non-zero.
	ExpectedSum int `yaml:"expected_sum,omitempty"`
}

type caseFile struct {
	Repeats int             `yaml:"repeats,omitempty"`
	Cases   []benchmarkCase `yaml:"cases"`
}

var defaultCases = []benchmarkCase{
	{
		Name:           "simple component",
		Width:          10,
		StaticFraction: 1,
		Sources:        2,
		Layers:         5,
		ReadFraction:   0.2,
		Iterations:     600000,
		ExpectedSum:    19199968,
	},
	{
		Name:           "dynamic component",
		Width:          10,
		Layers:         10,
		StaticFraction: 0.75,
		Sources:        6,
		ReadFraction:   0.2,
		Iterations:     15000,
		ExpectedSum:    302310782860,
	},
	{
		Name:           "large web app",
		Width:          1000,
		Layers:         12,
		StaticFraction: 0.95,
		Sources:        4,
		ReadFraction:   1,
		Iterations:     7000,
		ExpectedSum:    29355933696000,
	},
	{
		Name:           "wide dense",
		Width:          1000,
		Layers:         5,
		StaticFraction: 1,
		Sources:        25,
		ReadFraction:   1,
		Iterations:     3000,
		ExpectedSum:    1171484375000,
	},
	{
		Name:           "deep",
		Width:          5,
		Layers:         500,
		StaticFraction: 1,
		Sources:        3,
		ReadFraction:   1,
		Iterations:     500,
	},
	{
		Name:           "very dynamic",
		Width:          100,
		Layers:         15,
		StaticFraction: 0.5,
		Sources:        6,
		ReadFraction:   1,
		Iterations:     2000,
		ExpectedSum:    15664996402790400,
	},
}

func (c benchmarkCase) validate() error {
	switch {
	case c.Width < 1:
		return fmt.Errorf("case %q: width must be at least 1", c.Name)
	case c.Layers < 2:
		return fmt.Errorf("case %q: layers must be at least 2", c.Name)
	case c.Sources < 1:
		return fmt.Errorf("case %q: sources must be at least 1", c.Name)
	case c.Iterations < 1:
		return fmt.Errorf("case %q: iterations must be at least 1", c.Name)
	case c.ReadFraction < 0 || c.ReadFraction > 1:
		return fmt.Errorf("case %q: read_fraction must be within [0, 1]", c.Name)
	case c.StaticFraction < 0 || c.StaticFraction > 1:
		return fmt.Errorf("case %q: static_fraction must be within [0, 1]", c.Name)
	}
	return nil
}

func loadCases(path string) (*caseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %w", err)
	}
	return parseCases(data)
}

func parseCases(data []byte) (*caseFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cf caseFile
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("parsing case file: %w", err)
	}
	if len(cf.Cases) == 0 {
		return nil, fmt.Errorf("case file has no cases")
	}
	for _, c := range cf.Cases {
		if err := c.validate(); err != nil {
			return nil, err
		}
	}
	return &cf, nil
}
