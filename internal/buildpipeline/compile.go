package buildpipeline

import (
	"context"
	"log/slog"
	"time"

	"whistle/internal/artifact"
	"whistle/internal/ast"
	"whistle/internal/check"
	"whistle/internal/codegen"
	"whistle/internal/diag"
	"whistle/internal/observ"
	"whistle/internal/parser"
	"whistle/internal/preprocess"
	"whistle/internal/source"
	"whistle/internal/stage"
	"whistle/internal/token"
)

// CompileRequest describes one compilation.
type CompileRequest struct {
	Unit     source.Unit
	Progress ProgressSink
	Timer    *observ.Timer
	Logger   *slog.Logger
	// NoUnusedWarnings silences unused-variable warnings.
	NoUnusedWarnings bool
}

// CompileResult is returned by a successful Compile. Diagnostics contain
// any warnings that rode along.
type CompileResult struct {
	Artifact    *artifact.Artifact
	Diagnostics []diag.Diagnostic
	Files       *source.FileSet
	FileID      source.FileID
	Timings     Timings
}

// pipeline is the fixed stage list, built once per request so the check
// stage sees the request options.
type pipeline struct {
	preprocess stage.Stage[source.Unit, *token.Stream]
	parse      stage.Stage[*token.Stream, *ast.File]
	check      stage.Stage[*ast.File, *ast.File]
	generate   stage.Stage[*ast.File, *artifact.Artifact]
}

func newPipeline(fileID source.FileID, req *CompileRequest) pipeline {
	return pipeline{
		preprocess: stage.Stage[source.Unit, *token.Stream]{
			ID: diag.StagePreprocess,
			Fn: func(_ context.Context, u source.Unit, r diag.Reporter) (*token.Stream, bool) {
				return preprocess.New(r).Process(fileID, u.Text()), true
			},
		},
		parse: stage.Stage[*token.Stream, *ast.File]{
			ID: diag.StageParse,
			Fn: func(_ context.Context, s *token.Stream, r diag.Reporter) (*ast.File, bool) {
				return parser.ParseFile(s, r)
			},
		},
		check: stage.Stage[*ast.File, *ast.File]{
			ID:             diag.StageCheck,
			PartialOnError: true,
			Fn: func(_ context.Context, f *ast.File, r diag.Reporter) (*ast.File, bool) {
				check.Check(f, check.Options{Reporter: r, NoUnusedWarnings: req.NoUnusedWarnings})
				return f, true
			},
		},
		generate: stage.Stage[*ast.File, *artifact.Artifact]{
			ID: diag.StageGenerate,
			Fn: func(_ context.Context, f *ast.File, r diag.Reporter) (*artifact.Artifact, bool) {
				b, ok := codegen.Generate(f, codegen.Options{Reporter: r})
				if !ok {
					return nil, false
				}
				return artifact.New(b), true
			},
		},
	}
}

// Compile runs preprocess, parse, check and generate in that order.
//
// A Fatal stage stops the run. A Recoverable stage lets later stages run
// so their diagnostics are collected too, but the run then ends in a
// *PipelineFailure even when generation produced bytes. Diagnostics are
// returned in emission order without deduplication.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	files := source.NewFileSet()
	fileID := files.AddUnit(req.Unit)
	res := CompileResult{Files: files, FileID: fileID}
	pl := newPipeline(fileID, req)
	path := req.Unit.Path()

	var (
		diags    []diag.Diagnostic
		failedAt diag.Stage
	)
	fail := func() (CompileResult, error) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Diagnostics = diags
		return res, &PipelineFailure{Path: path, Stage: failedAt, Diagnostics: diags}
	}
	// record folds one stage result into the run state and reports
	// whether the pipeline may continue.
	record := func(id diag.Stage, st Stage, kind stage.Kind, ds []diag.Diagnostic, began time.Time, timerIdx int) bool {
		elapsed := time.Since(began)
		res.Timings.Set(st, elapsed)
		if req.Timer != nil {
			req.Timer.End(timerIdx, kind.String())
		}
		diags = append(diags, ds...)
		logDebug(req.Logger, "stage finished", "path", path, "stage", st, "result", kind, "diagnostics", len(ds))
		if kind != stage.Success && failedAt == diag.StageUnknown {
			failedAt = id
		}
		status := StatusDone
		if kind == stage.Fatal {
			status = StatusError
		}
		emitStage(req.Progress, path, st, status, elapsed)
		return kind != stage.Fatal
	}

	emitQueued(req.Progress, path)

	began, idx := startStage(req, path, StagePreprocess)
	pre := pl.preprocess.Run(ctx, req.Unit)
	if !record(diag.StagePreprocess, StagePreprocess, pre.Kind, pre.Diagnostics, began, idx) {
		return fail()
	}

	began, idx = startStage(req, path, StageParse)
	parsed := pl.parse.Run(ctx, pre.Output)
	if !record(diag.StageParse, StageParse, parsed.Kind, parsed.Diagnostics, began, idx) {
		return fail()
	}

	began, idx = startStage(req, path, StageCheck)
	checked := pl.check.Run(ctx, parsed.Output)
	if !record(diag.StageCheck, StageCheck, checked.Kind, checked.Diagnostics, began, idx) {
		return fail()
	}

	began, idx = startStage(req, path, StageGenerate)
	gen := pl.generate.Run(ctx, checked.Output)
	if !record(diag.StageGenerate, StageGenerate, gen.Kind, gen.Diagnostics, began, idx) {
		return fail()
	}
	if failedAt != diag.StageUnknown {
		return fail()
	}

	res.Artifact = gen.Output
	res.Diagnostics = diags
	return res, nil
}

// Diagnose runs Compile and discards the artifact. The error is non-nil
// only when ctx was canceled.
func Diagnose(ctx context.Context, unit source.Unit) ([]diag.Diagnostic, error) {
	res, err := Compile(ctx, &CompileRequest{Unit: unit})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return res.Diagnostics, nil
}

func startStage(req *CompileRequest, path string, st Stage) (time.Time, int) {
	idx := -1
	if req.Timer != nil {
		idx = req.Timer.Begin(string(st))
	}
	emitStage(req.Progress, path, st, StatusWorking, 0)
	return time.Now(), idx
}

func emitStage(sink ProgressSink, file string, st Stage, status Status, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: st, Status: status, Elapsed: elapsed})
}

func emitQueued(sink ProgressSink, file string) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: StagePreprocess, Status: StatusQueued})
}

func logDebug(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Debug(msg, args...)
}
