package observ

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	assert.Empty(t, timer.Report().Phases)

	a := timer.Begin("parse")
	b := timer.Begin("check")
	timer.End(b, "success")
	timer.End(a, "")
	timer.End(42, "ignored")

	report := timer.Report()
	require.Len(t, report.Phases, 2)
	assert.Equal(t, "parse", report.Phases[0].Name)
	assert.Equal(t, "success", report.Phases[1].Note)
	assert.GreaterOrEqual(t, report.TotalMS, report.Phases[0].DurationMS)

	summary := timer.Summary()
	assert.True(t, strings.HasPrefix(summary, "timings:\n"))
	assert.Contains(t, summary, "(success)")
	assert.Contains(t, summary, "total")
}

func TestTimerConcurrent(t *testing.T) {
	timer := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			timer.End(timer.Begin("phase"), "")
		}()
	}
	wg.Wait()
	assert.Len(t, timer.Report().Phases, 16)
}
