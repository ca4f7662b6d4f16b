package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/artifact"
	"whistle/internal/cache"
	"whistle/internal/diag"
	"whistle/internal/observ"
	"whistle/internal/source"
)

type recordingSink struct {
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.events = append(s.events, evt)
}

func compile(t *testing.T, src string) (CompileResult, error) {
	t.Helper()
	return Compile(context.Background(), &CompileRequest{Unit: source.NewUnit("main.wh", src)})
}

func failure(t *testing.T, err error) *PipelineFailure {
	t.Helper()
	var pf *PipelineFailure
	require.ErrorAs(t, err, &pf)
	return pf
}

func TestCompileMinimalProgram(t *testing.T) {
	res, err := compile(t, "fn main() { return 0; }")
	require.NoError(t, err)
	require.NotNil(t, res.Artifact)
	assert.Empty(t, res.Diagnostics)

	text, err := artifact.ToText(res.Artifact)
	require.NoError(t, err)
	assert.Contains(t, text, `(export "_start"`)
	assert.Equal(t, CompileStages, res.Timings.Stages())
}

func TestTimingsKeepOrder(t *testing.T) {
	var tm Timings
	assert.False(t, tm.Has(StageParse))
	tm.Set(StageCheck, 3)
	tm.Set(StageParse, 2)
	tm.Set(StageCheck, 5)

	var other Timings
	other.Set(StageWrite, 7)
	tm.Merge(other)

	assert.Equal(t, []Stage{StageCheck, StageParse, StageWrite}, tm.Stages())
	assert.EqualValues(t, 5, tm.Duration(StageCheck))
	assert.EqualValues(t, 12, tm.Sum(StageCheck, StageWrite, StageRun))

	var nilTimings *Timings
	nilTimings.Set(StageRun, 1)
}

func TestCompileUnresolvedIdentifier(t *testing.T) {
	res, err := compile(t, "fn main() { return missing; }")
	pf := failure(t, err)
	assert.Nil(t, res.Artifact)
	require.Len(t, pf.Diagnostics, 1)
	d := pf.Diagnostics[0]
	assert.Equal(t, diag.StageCheck, d.Stage)
	assert.Equal(t, diag.SemaUnresolvedSymbol, d.Code)
	assert.Equal(t, diag.StageCheck, pf.Stage)
	assert.Equal(t, 1, pf.ErrorCount())
	assert.Contains(t, pf.Error(), "main.wh")
	assert.Equal(t, pf.Diagnostics, res.Diagnostics)
}

func TestCompileFatalStopsPipeline(t *testing.T) {
	_, err := compile(t, "fn main() { return @; }")
	pf := failure(t, err)
	assert.Equal(t, diag.StagePreprocess, pf.Stage)
	for _, d := range pf.Diagnostics {
		assert.Equal(t, diag.StagePreprocess, d.Stage, "no later stage may run after a fatal one")
	}

	_, err = compile(t, "fn main( { return 0; }")
	pf = failure(t, err)
	assert.Equal(t, diag.StageParse, pf.Stage)
	require.Len(t, pf.Diagnostics, 1)
}

func TestCompileRecoverableStillGenerates(t *testing.T) {
	// check errors are recoverable; generation still runs and reports its own
	// problems after them.
	_, err := compile(t, "fn helper() { return missing; }")
	pf := failure(t, err)
	require.Len(t, pf.Diagnostics, 2)
	assert.Equal(t, diag.SemaUnresolvedSymbol, pf.Diagnostics[0].Code)
	assert.Equal(t, diag.GenMissingEntry, pf.Diagnostics[1].Code)
	assert.Equal(t, diag.StageCheck, pf.Stage)
}

func TestCompileMissingMain(t *testing.T) {
	_, err := compile(t, "fn other() { return 1; }")
	pf := failure(t, err)
	assert.Equal(t, diag.StageGenerate, pf.Stage)
	require.Len(t, pf.Diagnostics, 1)
	assert.Equal(t, diag.GenMissingEntry, pf.Diagnostics[0].Code)
}

func TestCompileWarningsKeepArtifact(t *testing.T) {
	res, err := compile(t, "#define ANSWER 42\n#define ANSWER 41\nfn main() { var x = ANSWER; return 0; }")
	require.NoError(t, err)
	require.NotNil(t, res.Artifact)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, diag.PreMacroRedefined, res.Diagnostics[0].Code)
	assert.Equal(t, diag.SemaUnusedVariable, res.Diagnostics[1].Code)

	res, err = Compile(context.Background(), &CompileRequest{
		Unit:             source.NewUnit("main.wh", "fn main() { var x = 1; return 0; }"),
		NoUnusedWarnings: true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
}

func TestCompileEmitsProgress(t *testing.T) {
	sink := &recordingSink{}
	timer := observ.NewTimer()
	_, err := Compile(context.Background(), &CompileRequest{
		Unit:     source.NewUnit("p.wh", "fn main() { return 0; }"),
		Progress: sink,
		Timer:    timer,
	})
	require.NoError(t, err)
	require.NotEmpty(t, sink.events)
	assert.Equal(t, StatusQueued, sink.events[0].Status)
	last := sink.events[len(sink.events)-1]
	assert.Equal(t, StageGenerate, last.Stage)
	assert.Equal(t, StatusDone, last.Status)
	assert.Len(t, timer.Report().Phases, len(CompileStages))
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, &CompileRequest{Unit: source.NewUnit("x.wh", "fn main() { return 0; }")})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Diagnose(ctx, source.NewUnit("x.wh", "fn main() { return 0; }"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiagnose(t *testing.T) {
	ds, err := Diagnose(context.Background(), source.NewUnit("x.wh", "fn main() { return missing; }"))
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, diag.SemaUnresolvedSymbol, ds[0].Code)

	ds, err = Diagnose(context.Background(), source.NewUnit("x.wh", "fn main() { return 0; }"))
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestBuildWritesAndCaches(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.Open(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	req := &BuildRequest{
		CompileRequest: CompileRequest{Unit: source.NewUnit("main.wh", "fn main() { print(\"hi\"); return 0; }")},
		OutputPath:     filepath.Join(dir, "out.wasm"),
		Cache:          c,
		ToolVersion:    "test",
	}
	res, err := Build(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, artifact.FormatBinary, res.Format)
	written, err := os.ReadFile(req.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, artifact.ToBinary(res.Artifact), written)

	req.OutputPath = filepath.Join(dir, "out.wat")
	res2, err := Build(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res2.Cached)
	assert.Equal(t, artifact.FormatText, res2.Format)
	assert.Equal(t, res.Artifact.Digest(), res2.Artifact.Digest())
	text, err := os.ReadFile(req.OutputPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(text), "(module"))
}

func TestBuildFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.wasm")
	_, err := Build(context.Background(), &BuildRequest{
		CompileRequest: CompileRequest{Unit: source.NewUnit("main.wh", "fn main() { return missing; }")},
		OutputPath:     out,
	})
	failure(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}
