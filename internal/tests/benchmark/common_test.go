package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/cryptogen-go/internal/telemetry/logger"
	"github.com/yndnr/cryptogen-go/pkg/cryptogen"
)

// PoolSizes are the pool ceilings benchmarked. 0 disables pooling.
var PoolSizes = []int{0, 100, 1000, 10000}

// BatchCounts are the per-request token counts benchmarked.
var BatchCounts = []int{1, 10, 100}

// newSession creates a session that is closed when b finishes.
func newSession(b *testing.B, opts ...cryptogen.Option) *cryptogen.Session {
	b.Helper()
	opts = append([]cryptogen.Option{cryptogen.WithLogger(logger.Discard())}, opts...)
	sess, err := cryptogen.Create(context.Background(), opts...)
	if err != nil {
		b.Fatalf("Create failed: %v", err)
	}
	b.Cleanup(func() { sess.Close() })
	return sess
}

// reportMemory reports heap usage after a forced GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithPoolSizes runs benchFn once per pool ceiling.
func runWithPoolSizes(b *testing.B, sizes []int, benchFn func(b *testing.B, size int)) {
	for _, size := range sizes {
		b.Run(fmt.Sprintf("pool_%d", size), func(b *testing.B) {
			benchFn(b, size)
		})
	}
}
