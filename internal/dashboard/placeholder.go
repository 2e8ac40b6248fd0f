package dashboard

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/catalog"
)

// fallbackBase is the synthetic daily volume for APIs without a quota.
const fallbackBase = 100

// PlaceholderProvider fabricates display values for views that have no real
// data yet. Its output is never written anywhere and every view built from
// it is marked placeholder.
type PlaceholderProvider struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPlaceholderProvider(seed int64) *PlaceholderProvider {
	return &PlaceholderProvider{rnd: rand.New(rand.NewSource(seed))}
}

// Daily returns one synthetic count per day: a sine trend around a tenth of
// the daily quota plus gaussian noise, never below zero.
func (p *PlaceholderProvider) Daily(api catalog.API, days []time.Time) []Point {
	base := float64(api.QuotaDaily) / 10
	if base == 0 {
		base = fallbackBase
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Point, len(days))
	for i, d := range days {
		trend := math.Sin(float64(i)/5) * (base / 2)
		noise := p.rnd.NormFloat64() * (base / 4)
		count := int(base + trend + noise)
		if count < 0 {
			count = 0
		}
		out[i] = Point{Date: d, Count: count}
	}
	return out
}

// Today returns a synthetic usage count for the current day in [0, quota].
func (p *PlaceholderProvider) Today(quota int) int {
	if quota <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(quota + 1)
}

// Usage returns synthetic per-API totals for the summary table.
func (p *PlaceholderProvider) Usage(apis []catalog.API) []UsageRow {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]UsageRow, len(apis))
	for i, a := range apis {
		out[i] = UsageRow{
			API:   a.Name,
			Calls: 500 + p.rnd.Intn(4500),
			Cost:  math.Round(p.rnd.Float64()*10*100) / 100,
		}
	}
	return out
}
