package main

import (
	"fmt"
	"io"
	"time"

	"whistle/internal/buildpipeline"
	"whistle/internal/observ"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings, includeRun bool) {
	if out == nil {
		return
	}
	front := timings.Sum(buildpipeline.StagePreprocess, buildpipeline.StageParse)
	if timings.Has(buildpipeline.StageParse) {
		fmt.Fprintf(out, "parsed %.1f ms\n", toMillis(front))
	}
	if timings.Has(buildpipeline.StageCheck) {
		fmt.Fprintf(out, "checked %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageCheck)))
	}
	if timings.Has(buildpipeline.StageGenerate) || timings.Has(buildpipeline.StageWrite) {
		built := timings.Sum(buildpipeline.StageGenerate, buildpipeline.StageWrite)
		fmt.Fprintf(out, "built %.1f ms\n", toMillis(built))
	}
	if includeRun && timings.Has(buildpipeline.StageRun) {
		fmt.Fprintf(out, "ran %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageRun)))
	}
}

// printTimerSummary writes the per-file breakdown gathered by timer.
func printTimerSummary(out io.Writer, timer *observ.Timer) {
	if timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
