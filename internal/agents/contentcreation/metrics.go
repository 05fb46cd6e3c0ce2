package contentcreation

import (
	"context"
	"fmt"
	"hash/fnv"
)

// MetricsSource supplies per-variation performance numbers at test
// completion. Supplemented feature (this module's Open Question on
// telemetry): pluggable so a real analytics backend can replace the
// fabricated placeholder without touching the agent.
type MetricsSource interface {
	// Metrics returns engagement rate and conversion rate as
	// percentages (e.g. 3.2 means 3.2%).
	Metrics(ctx context.Context, variationID string, variationIndex int) (engagementRate, conversionRate float64, err error)
}

// FabricatedMetricsSource derives deterministic placeholder metrics
// from the variation id (FNV hash, not math/rand) so repeated runs
// over the same test are reproducible. Index 0 is nudged upward to
// keep a clear, deterministic winner for demos.
type FabricatedMetricsSource struct{}

func (FabricatedMetricsSource) Metrics(_ context.Context, variationID string, variationIndex int) (float64, float64, error) {
	h := fnv.New32a()
	h.Write([]byte(variationID))
	sum := h.Sum32()

	engagement := 2.0 + float64(sum%601)/100.0  // 2.00 .. 8.00
	conversion := 1.0 + float64((sum/601)%301)/100.0 // 1.00 .. 4.00
	if variationIndex == 0 {
		engagement += 1.5
		conversion += 0.8
	}
	return round2(engagement), round2(conversion), nil
}

// RealMetricsSource is a stub for wiring a genuine telemetry backend;
// it intentionally returns an error until one is configured.
type RealMetricsSource struct{}

func (RealMetricsSource) Metrics(context.Context, string, int) (float64, float64, error) {
	return 0, 0, errMetricsNotConfigured
}

var errMetricsNotConfigured = fmt.Errorf("contentcreation: no real metrics source configured")

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
