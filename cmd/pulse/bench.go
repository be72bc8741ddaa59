package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulse-ui/pulse/pkg/reactive"
)

// benchResult is one shape's measurement, serializable for --json.
type benchResult struct {
	Shape        string        `json:"shape"`
	Nodes        int           `json:"nodes"`
	Writes       int           `json:"writes"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	WritesPerSec float64       `json:"writes_per_sec"`
	EffectRuns   int           `json:"effect_runs"`
}

func benchCmd() *cobra.Command {
	var (
		shape  string
		size   int
		writes int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark propagation on common dependency-graph shapes",
		Long: `Benchmark signal-write propagation through the reactive graph.

Shapes:

  chain    signal → memo → memo → … → effect, depth controlled by --size
  diamond  one signal fanning out into --size memos that feed one effect
  fanout   one signal observed directly by --size effects
  all      run every shape`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shapes := []string{shape}
			if shape == "all" {
				shapes = []string{"chain", "diamond", "fanout"}
			}

			var results []benchResult
			for _, s := range shapes {
				res, err := runBench(s, size, writes)
				if err != nil {
					return err
				}
				results = append(results, res)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printResults(results)
			return nil
		},
	}

	cmd.Flags().StringVar(&shape, "shape", "all", "Graph shape: chain, diamond, fanout, all")
	cmd.Flags().IntVar(&size, "size", 100, "Depth (chain) or width (diamond, fanout)")
	cmd.Flags().IntVar(&writes, "writes", 10_000, "Number of signal writes to drive through the graph")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit results as JSON")

	return cmd
}

func runBench(shape string, size, writes int) (benchResult, error) {
	if size < 1 || writes < 1 {
		return benchResult{}, fmt.Errorf("bench: --size and --writes must be positive")
	}

	rt := reactive.NewRuntime(reactive.WithEffectBudget(writes*size + size + 1))
	defer rt.Dispose()

	res := benchResult{Shape: shape, Writes: writes}
	var (
		start    time.Time
		shapeErr error
	)

	rt.Run(func() {
		src := reactive.NewSignal(0)
		runs := 0

		switch shape {
		case "chain":
			prev := reactive.NewMemo(src.Get)
			for i := 1; i < size; i++ {
				inner := prev
				prev = reactive.NewMemo(func() int { return inner.Get() + 1 })
			}
			reactive.NewEffect(func() { _ = prev.Get(); runs++ })
			res.Nodes = size + 2

		case "diamond":
			memos := make([]*reactive.Memo[int], size)
			for i := range memos {
				offset := i
				memos[i] = reactive.NewMemo(func() int { return src.Get() + offset })
			}
			reactive.NewEffect(func() {
				sum := 0
				for _, m := range memos {
					sum += m.Get()
				}
				runs++
			})
			res.Nodes = size + 2

		case "fanout":
			for i := 0; i < size; i++ {
				reactive.NewEffect(func() { _ = src.Get(); runs++ })
			}
			res.Nodes = size + 1

		default:
			shapeErr = fmt.Errorf("bench: unknown shape %q", shape)
			return
		}

		start = time.Now()
		for i := 1; i <= writes; i++ {
			src.Set(i)
		}
		res.Elapsed = time.Since(start)
		res.EffectRuns = runs
	})
	if shapeErr != nil {
		return benchResult{}, shapeErr
	}

	res.WritesPerSec = float64(writes) / res.Elapsed.Seconds()
	return res, nil
}

func printResults(results []benchResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Shape < results[j].Shape })

	printBanner()
	fmt.Println()
	for _, r := range results {
		fmt.Printf("  %-8s  %6d nodes  %8d writes  %12s  %12.0f writes/s  %8d effect runs\n",
			r.Shape, r.Nodes, r.Writes, r.Elapsed.Round(time.Microsecond), r.WritesPerSec, r.EffectRuns)
	}
	fmt.Println()
}
