package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler keeps per-scope CPU timings smoothed over frames and named counters.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string
	// Smoothing is the weight of the newest sample, in (0,1]. 1 disables smoothing.
	Smoothing float64
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
		Smoothing:  0.1,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = time.Now()
	if _, seen := p.Scopes[name]; !seen {
		p.Order = append(p.Order, name)
		p.Scopes[name] = 0
	}
}

func (p *Profiler) EndScope(name string) {
	start, ok := p.StartTimes[name]
	if !ok {
		return
	}
	delete(p.StartTimes, name)
	p.Record(name, time.Since(start))
}

// Record folds one sample for name into its smoothed duration.
func (p *Profiler) Record(name string, d time.Duration) {
	prev, seen := p.Scopes[name]
	if !seen {
		p.Order = append(p.Order, name)
	}
	if !seen || prev == 0 || p.Smoothing <= 0 || p.Smoothing >= 1 {
		p.Scopes[name] = d
		return
	}
	p.Scopes[name] = time.Duration(float64(prev)*(1-p.Smoothing) + float64(d)*p.Smoothing)
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

func (p *Profiler) GetStatsString() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}
