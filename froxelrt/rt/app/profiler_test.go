package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerOrderAndCounts(t *testing.T) {
	p := NewProfiler()
	p.BeginScope("Collect Lights")
	p.EndScope("Collect Lights")
	p.BeginScope("Record Froxels")
	p.EndScope("Record Froxels")
	p.BeginScope("Collect Lights")
	p.EndScope("Collect Lights")
	p.SetCount("Spot Lights", 3)

	assert.Equal(t, []string{"Collect Lights", "Record Froxels"}, p.Order)

	stats := p.GetStatsString()
	assert.True(t, strings.Index(stats, "Collect Lights") < strings.Index(stats, "Record Froxels"))
	assert.Contains(t, stats, "Spot Lights    : 3")
}

func TestProfilerSmoothing(t *testing.T) {
	p := NewProfiler()
	p.Smoothing = 0.5
	p.Record("Submit", 10*time.Millisecond)
	p.Record("Submit", 20*time.Millisecond)
	assert.Equal(t, 15*time.Millisecond, p.Scopes["Submit"])

	p.Smoothing = 1
	p.Record("Submit", 4*time.Millisecond)
	assert.Equal(t, 4*time.Millisecond, p.Scopes["Submit"])
}

func TestProfilerEndWithoutBegin(t *testing.T) {
	p := NewProfiler()
	p.EndScope("missing")
	assert.Empty(t, p.Scopes)
	assert.Empty(t, p.Order)
}
