package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/valyala/quicktemplate"
)

type caseResult struct {
	benchmarkCase
	sum      int
	count    int64
	duration time.Duration
	dynamic  int
	stats    string
}

// updateRate is node computations per millisecond.
func (r caseResult) updateRate() float64 {
	ms := float64(r.duration) / float64(time.Millisecond)
	if ms == 0 {
		return 0
	}
	return float64(r.count) / ms
}

func (r caseResult) sumOK() bool {
	return r.ExpectedSum == 0 || r.ExpectedSum == r.sum
}

func (r caseResult) title() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", r.Width, r.Layers, r.Sources))
	if r.StaticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if r.ReadFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*r.ReadFraction))
	}
	return sb.String()
}

func (r caseResult) row() []string {
	return []string{
		r.Name,
		fmt.Sprintf("%dx%d", r.Width, r.Layers),
		fmt.Sprint(r.Sources),
		fmt.Sprint(r.ReadFraction),
		fmt.Sprint(r.StaticFraction),
		humanize.Comma(int64(r.Iterations)),
		fmt.Sprint(r.duration),
		humanize.Comma(int64(r.updateRate())),
		fmt.Sprint(r.sumOK()),
		r.title(),
	}
}

var tableHeader = []string{
	"test", "size", "nSources", "read%", "static%",
	"nTimes", "time", "updateRate", "sum ok", "title",
}

// writeMarkdown renders the results as a markdown table.
func writeMarkdown(w io.Writer, results []caseResult) {
	qw := quicktemplate.AcquireWriter(w)
	defer quicktemplate.ReleaseWriter(qw)
	q := qw.N()

	q.S("# trackparty graph benchmark\n\n")
	q.S("| ")
	q.S(strings.Join(tableHeader, " | "))
	q.S(" |\n|")
	for range tableHeader {
		q.S(" --- |")
	}
	q.S("\n")

	for _, r := range results {
		q.S("| ")
		q.S(strings.Join(r.row(), " | "))
		q.S(" |\n")
	}

	q.S("\n## Registry after each case\n\n")
	for _, r := range results {
		q.S("- **")
		q.S(r.Name)
		q.S("**: ")
		q.S(r.stats)
		q.S(", ")
		q.D(r.dynamic)
		q.S(" dynamic nodes, ")
		q.F(r.updateRate())
		q.S(" updates/ms\n")
	}
}
