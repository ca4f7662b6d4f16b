package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/buildpipeline"
)

func newModel(t *testing.T, files ...string) *progressModel {
	t.Helper()
	m, ok := NewProgressModel("build", files, buildpipeline.StageWrite, nil).(*progressModel)
	require.True(t, ok)
	return m
}

func TestApplyEventTracksStages(t *testing.T) {
	m := newModel(t, "a.wh", "b.wh")
	assert.Zero(t, m.percent())

	m.applyEvent(buildpipeline.Event{File: "a.wh", Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusWorking})
	assert.Equal(t, "checking", m.items[0].status)
	assert.InDelta(t, 0.2, m.percent(), 1e-9)

	m.applyEvent(buildpipeline.Event{File: "a.wh", Stage: buildpipeline.StageGenerate, Status: buildpipeline.StatusDone})
	assert.InDelta(t, 0.85/2, m.percent(), 1e-9, "a finished generate counts as having reached write")

	m.applyEvent(buildpipeline.Event{File: "a.wh", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{File: "b.wh", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusError})
	assert.InDelta(t, 1.0, m.percent(), 1e-9)

	m.applyEvent(buildpipeline.Event{File: "unknown.wh", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageRun, Status: buildpipeline.StatusWorking})
	assert.Equal(t, "running", m.stageLabel)
}

func TestViewListsFiles(t *testing.T) {
	m := newModel(t, "main.wh")
	m.applyEvent(buildpipeline.Event{File: "main.wh", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})
	view := m.View()
	assert.Contains(t, view, "build")
	assert.Contains(t, view, "parsing")
	assert.Contains(t, view, "main.wh")

	empty := newModel(t)
	assert.Empty(t, empty.View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "anything", truncate("anything", 0))
}

func TestViewShowsElapsedAndStatusColors(t *testing.T) {
	m := newModel(t, "main.wh")
	m.applyEvent(buildpipeline.Event{File: "main.wh", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusDone, Elapsed: 1500 * time.Microsecond})
	assert.Contains(t, m.View(), "1.5ms")

	assert.NotEqual(t, statusStyle("done").GetForeground(), statusStyle("error").GetForeground())
	assert.Equal(t, statusStyle("parsing").GetForeground(), statusStyle("writing").GetForeground())
}
