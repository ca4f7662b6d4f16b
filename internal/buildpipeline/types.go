package buildpipeline

import "time"

// Stage names a step reported to progress sinks and timings. The four
// compile stages mirror diag.Stage; write and run belong to the commands
// that wrap Compile.
type Stage string

const (
	StagePreprocess Stage = "preprocess"
	StageParse      Stage = "parse"
	StageCheck      Stage = "check"
	StageGenerate   Stage = "generate"
	StageWrite      Stage = "write"
	StageRun        Stage = "run"
)

// CompileStages lists the compilation stages in execution order.
var CompileStages = []Stage{StagePreprocess, StageParse, StageCheck, StageGenerate}

// Status is the state a file is in within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event is one progress notification. File is empty for events about the
// whole run.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events to Ch. Sends block, so the reader has to
// drain Ch until the producer closes it.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch != nil {
		s.Ch <- evt
	}
}

type stageTiming struct {
	stage Stage
	dur   time.Duration
}

// Timings records one duration per stage in first-recorded order. The
// zero value is ready to use.
type Timings struct {
	entries []stageTiming
}

// Set records dur for stage, replacing an earlier value.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	for i := range t.entries {
		if t.entries[i].stage == stage {
			t.entries[i].dur = dur
			return
		}
	}
	t.entries = append(t.entries, stageTiming{stage: stage, dur: dur})
}

// Merge copies every duration recorded in other.
func (t *Timings) Merge(other Timings) {
	for _, e := range other.entries {
		t.Set(e.stage, e.dur)
	}
}

func (t Timings) Has(stage Stage) bool {
	_, ok := t.lookup(stage)
	return ok
}

// Duration returns the time recorded for stage, or zero.
func (t Timings) Duration(stage Stage) time.Duration {
	dur, _ := t.lookup(stage)
	return dur
}

// Sum adds the durations of stages; missing stages count as zero.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, st := range stages {
		total += t.Duration(st)
	}
	return total
}

// Stages returns the recorded stages in the order they were first set.
func (t Timings) Stages() []Stage {
	out := make([]Stage, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.stage
	}
	return out
}

func (t Timings) lookup(stage Stage) (time.Duration, bool) {
	for _, e := range t.entries {
		if e.stage == stage {
			return e.dur, true
		}
	}
	return 0, false
}
