// Command benchcmp turns `go test -bench` output for the pool package into a
// markdown table comparing the pool sub-benchmarks against the heap ones.
//
//	go test -bench . -benchmem ./pool | go run ./scripts/benchcmp
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Result is one parsed benchmark line.
type Result struct {
	Name        string
	Operation   string
	Impl        string // "pool", "heap", or "" for single-variant benchmarks
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// Comparison pairs the pool and heap variants of one operation.
type Comparison struct {
	Operation  string
	Pool       Result
	Heap       Result
	HasHeap    bool
	Speedup    float64 // heap ns/op divided by pool ns/op
	AllocSaved int64
}

var (
	inputFile  = flag.String("input", "", "Input file with benchmark output (stdin if not specified)")
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	results := parseBenchmarks(bufio.NewScanner(in))
	comparisons := compare(results)
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results, %d comparisons\n", len(results), len(comparisons))
	}

	report := markdownReport(comparisons, time.Now())
	if *outputFile == "" {
		fmt.Fprint(os.Stdout, report)
		return
	}
	if err := os.WriteFile(*outputFile, []byte(report), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
	}
}

// BenchmarkAlloc/pool-8    10000000    12.4 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+(\d+)\s+B/op)?(?:\s+(\d+)\s+allocs/op)?`,
)

func parseBenchmarks(scanner *bufio.Scanner) []Result {
	var results []Result
	for scanner.Scan() {
		line := scanner.Text()

		// Accept `go test -json` events too.
		var event struct{ Output string }
		if err := json.Unmarshal([]byte(line), &event); err == nil && event.Output != "" {
			line = event.Output
		}

		m := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		r := Result{Name: m[1]}
		r.Iterations, _ = strconv.Atoi(m[2])
		r.NsPerOp, _ = strconv.ParseFloat(m[3], 64)
		if m[4] != "" {
			r.BytesPerOp, _ = strconv.ParseInt(m[4], 10, 64)
		}
		if m[5] != "" {
			r.AllocsPerOp, _ = strconv.ParseInt(m[5], 10, 64)
		}
		r.Operation, r.Impl = splitName(r.Name)
		results = append(results, r)
	}
	return results
}

// splitName breaks Benchmark<Op>[/<impl>]-<procs> into its parts.
func splitName(name string) (op, impl string) {
	name = strings.TrimPrefix(name, "Benchmark")
	if i := strings.LastIndex(name, "-"); i > 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			name = name[:i]
		}
	}
	op, impl, _ = strings.Cut(name, "/")
	return op, impl
}

func compare(results []Result) []Comparison {
	byOp := make(map[string]map[string]Result)
	for _, r := range results {
		if byOp[r.Operation] == nil {
			byOp[r.Operation] = make(map[string]Result)
		}
		byOp[r.Operation][r.Impl] = r
	}

	var out []Comparison
	for op, impls := range byOp {
		p, ok := impls["pool"]
		if !ok {
			p, ok = impls[""]
		}
		if !ok {
			continue
		}
		c := Comparison{Operation: op, Pool: p}
		if h, ok := impls["heap"]; ok {
			c.Heap, c.HasHeap = h, true
			if p.NsPerOp > 0 {
				c.Speedup = h.NsPerOp / p.NsPerOp
			}
			c.AllocSaved = h.AllocsPerOp - p.AllocsPerOp
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

func markdownReport(comparisons []Comparison, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("# Pool Benchmark Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	sb.WriteString("| Operation | pool (ns/op) | heap (ns/op) | Speedup | Allocs (pool vs heap) |\n")
	sb.WriteString("|-----------|--------------|--------------|---------|-----------------------|\n")
	for _, c := range comparisons {
		if !c.HasHeap {
			fmt.Fprintf(&sb, "| %s | %.2f | *N/A* | *pool only* | %d |\n",
				c.Operation, c.Pool.NsPerOp, c.Pool.AllocsPerOp)
			continue
		}
		fmt.Fprintf(&sb, "| %s | %.2f | %.2f | %.2fx | %d vs %d |\n",
			c.Operation, c.Pool.NsPerOp, c.Heap.NsPerOp, c.Speedup, c.Pool.AllocsPerOp, c.Heap.AllocsPerOp)
	}
	return sb.String()
}
