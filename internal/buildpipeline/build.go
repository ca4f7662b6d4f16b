package buildpipeline

import (
	"context"
	"fmt"
	"time"

	"whistle/internal/artifact"
	"whistle/internal/cache"
	"whistle/internal/diag"
	"whistle/internal/source"
)

// BuildRequest compiles a unit and writes the artifact to OutputPath.
type BuildRequest struct {
	CompileRequest
	OutputPath string
	// Cache is optional. Hits skip compilation entirely.
	Cache       *cache.Cache
	ToolVersion string
}

// BuildResult describes a written artifact.
type BuildResult struct {
	OutputPath  string
	Format      artifact.Format
	Artifact    *artifact.Artifact
	Diagnostics []diag.Diagnostic
	// Files resolves diagnostic spans. Nil on a cache hit.
	Files   *source.FileSet
	Timings Timings
	Cached  bool
}

// Build compiles req.Unit (or loads it from the cache) and writes the
// artifact. The output format follows the extension of OutputPath.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	res := BuildResult{OutputPath: req.OutputPath}
	if req.OutputPath == "" {
		return res, fmt.Errorf("build %s: no output path", req.Unit.Path())
	}
	key := cache.KeyFor(req.ToolVersion, req.Unit.Text())

	if a, ok := lookupCache(req, key); ok {
		res.Artifact = a
		res.Cached = true
		emitStage(req.Progress, req.Unit.Path(), StageGenerate, StatusDone, 0)
	} else {
		compiled, err := Compile(ctx, &req.CompileRequest)
		res.Diagnostics = compiled.Diagnostics
		res.Files = compiled.Files
		res.Timings.Merge(compiled.Timings)
		if err != nil {
			return res, err
		}
		res.Artifact = compiled.Artifact
		if req.Cache != nil {
			if err := req.Cache.Put(key, req.Unit.Path(), compiled.Artifact); err != nil {
				logDebug(req.Logger, "cache store failed", "path", req.Unit.Path(), "err", err)
			}
		}
	}

	began := time.Now()
	emitStage(req.Progress, req.Unit.Path(), StageWrite, StatusWorking, 0)
	format, err := artifact.WriteFile(req.OutputPath, res.Artifact)
	elapsed := time.Since(began)
	res.Timings.Set(StageWrite, elapsed)
	if err != nil {
		emitStage(req.Progress, req.Unit.Path(), StageWrite, StatusError, elapsed)
		return res, fmt.Errorf("write %s: %w", req.OutputPath, err)
	}
	emitStage(req.Progress, req.Unit.Path(), StageWrite, StatusDone, elapsed)
	res.Format = format
	return res, nil
}

func lookupCache(req *BuildRequest, key cache.Key) (*artifact.Artifact, bool) {
	if req.Cache == nil {
		return nil, false
	}
	a, ok, err := req.Cache.Get(key)
	if err != nil {
		logDebug(req.Logger, "cache lookup failed", "path", req.Unit.Path(), "err", err)
		return nil, false
	}
	return a, ok
}
