package command

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cryptogen-go/internal/cli/output"
	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/pkg/cryptogen"
)

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure token throughput and request latency",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "requests",
				Aliases: []string{"r"},
				Usage:   "Total number of requests",
				Value:   1000,
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Tokens per request",
				Value:   1,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of concurrent callers",
				Value: 8,
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar on stderr",
			},
		},
		Action: runBench,
	}
}

// benchResult summarizes a bench run.
type benchResult struct {
	Requests      int           `json:"requests" yaml:"requests"`
	Failed        int           `json:"failed" yaml:"failed"`
	Tokens        int           `json:"tokens" yaml:"tokens"`
	Concurrency   int           `json:"concurrency" yaml:"concurrency"`
	Elapsed       time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
	RequestsPerS  float64       `json:"requests_per_second" yaml:"requests_per_second"`
	TokensPerS    float64       `json:"tokens_per_second" yaml:"tokens_per_second"`
	LatencyP50    time.Duration `json:"latency_p50_ns" yaml:"latency_p50_ns"`
	LatencyP90    time.Duration `json:"latency_p90_ns" yaml:"latency_p90_ns"`
	LatencyP99    time.Duration `json:"latency_p99_ns" yaml:"latency_p99_ns"`
	LatencyMax    time.Duration `json:"latency_max_ns" yaml:"latency_max_ns"`
	GenerationAvg time.Duration `json:"generation_avg_ns" yaml:"generation_avg_ns"`
	FirstError    string        `json:"first_error,omitempty" yaml:"first_error,omitempty"`
}

// benchConfig holds the parsed bench flags.
type benchConfig struct {
	requests    int
	count       int
	concurrency int
}

func (b benchConfig) validate() error {
	if b.requests < 1 {
		return domain.InvalidArgument("--requests must be at least 1")
	}
	if b.count < 1 {
		return domain.InvalidArgument("--count must be at least 1")
	}
	if b.concurrency < 1 {
		return domain.InvalidArgument("--concurrency must be at least 1")
	}
	return nil
}

func runBench(c *cli.Context) error {
	bc := benchConfig{
		requests:    c.Int("requests"),
		count:       c.Int("count"),
		concurrency: c.Int("concurrency"),
	}
	if err := bc.validate(); err != nil {
		return err
	}

	cfg, err := loadConfig(c, nil)
	if err != nil {
		return err
	}
	log, err := setupLogger(c, cfg)
	if err != nil {
		return err
	}

	sess, err := newSession(c.Context, cfg, log, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	var bar *output.ProgressBar
	if c.Bool("progress") {
		bar = output.NewProgressBar(c.App.ErrWriter, "bench", "req")
		bar.SetTotal(int64(bc.requests))
	}

	res := bench(c.Context, sess, bc, bar)
	if bar != nil {
		bar.Finish()
	}
	return printResult(c, res)
}

// bench issues bc.requests Get calls from bc.concurrency goroutines.
func bench(ctx context.Context, sess *cryptogen.Session, bc benchConfig, bar *output.ProgressBar) benchResult {
	var (
		next       atomic.Int64
		mu         sync.Mutex
		latencies  = make([]time.Duration, 0, bc.requests)
		generation time.Duration
		tokens     int
		failed     int
		firstErr   error
		wg         sync.WaitGroup
	)

	start := time.Now()
	for w := 0; w < bc.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for next.Add(1) <= int64(bc.requests) {
				t0 := time.Now()
				got, took, err := sess.Get(ctx, bc.count)
				lat := time.Since(t0)

				mu.Lock()
				if err != nil {
					failed++
					if firstErr == nil {
						firstErr = err
					}
				} else {
					latencies = append(latencies, lat)
					generation += took
					tokens += len(got)
				}
				mu.Unlock()

				if bar != nil {
					bar.Increment(1)
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	res := benchResult{
		Requests:    bc.requests,
		Failed:      failed,
		Tokens:      tokens,
		Concurrency: bc.concurrency,
		Elapsed:     elapsed,
	}
	if firstErr != nil {
		res.FirstError = firstErr.Error()
	}
	if secs := elapsed.Seconds(); secs > 0 {
		res.RequestsPerS = float64(len(latencies)) / secs
		res.TokensPerS = float64(tokens) / secs
	}
	if n := len(latencies); n > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		res.LatencyP50 = percentile(latencies, 0.50)
		res.LatencyP90 = percentile(latencies, 0.90)
		res.LatencyP99 = percentile(latencies, 0.99)
		res.LatencyMax = latencies[n-1]
		res.GenerationAvg = generation / time.Duration(n)
	}
	return res
}

// percentile returns the nearest-rank percentile of sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
