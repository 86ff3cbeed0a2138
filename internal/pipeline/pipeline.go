// Package pipeline runs call-edge extraction over many class files with
// per-file failure isolation.
//
// Files are processed as bounded parallel tasks and their results are handed
// to sinks strictly in input order. Each file reaches a sink as one
// FileResult, so a file's edges are emitted together or not at all.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"jcallgraph/internal/callgraph"
	"jcallgraph/internal/classfile"
)

// Options configures a run.
type Options struct {
	Jobs   int // parallel file tasks; 0 = GOMAXPROCS
	Mode   Mode
	Logger *slog.Logger // defaults to slog.Default()
	Sinks  []Sink
}

// FileResult is the outcome of processing one file.
type FileResult struct {
	Index    int // position in the input list
	Path     string
	Size     int                  // bytes read
	File     *classfile.ClassFile // nil if parsing failed
	Class    *callgraph.Class     // nil on failure
	Err      error
	Duration time.Duration
}

// OK reports whether the file was processed successfully.
func (r *FileResult) OK() bool { return r.Err == nil }

// Edges returns the file's call edges, numbered in run-wide discovery order.
func (r *FileResult) Edges() []callgraph.CallEdge {
	if r.Class == nil {
		return nil
	}
	return r.Class.Edges
}

// Summary describes a finished run.
type Summary struct {
	Files    int           `json:"files"`
	Failed   int           `json:"failed"`
	Classes  int           `json:"classes"`
	Methods  int           `json:"methods"`
	Edges    int           `json:"edges"`
	Duration time.Duration `json:"duration_ns"`
	Failures []Failure     `json:"failures,omitempty"`
}

// Run processes files and feeds each result to every sink in input order.
//
// In ModeBestEffort a failing file is logged, recorded in the summary and
// skipped. In ModeStrict the first failing file (in input order) stops the
// run and its error is returned; results for earlier files have already been
// delivered. A sink error always stops the run.
func Run(ctx context.Context, files []string, opts Options) (Summary, error) {
	start := time.Now()
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan *FileResult, len(files))
	for i := range results {
		results[i] = make(chan *FileResult, 1)
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, path := range files {
			if ctx.Err() != nil {
				return
			}
			g.Go(func() error {
				results[i] <- process(ctx, i, path)
				return nil
			})
		}
	}()

	sum, err := emit(ctx, results, opts, log)
	cancel()
	<-launched
	g.Wait()

	sum.Files = len(files)
	sum.Duration = time.Since(start)
	log.Info("run complete",
		"files", sum.Files,
		"failed", sum.Failed,
		"classes", sum.Classes,
		"edges", sum.Edges,
		"duration", sum.Duration.Round(time.Millisecond))
	return sum, err
}

func emit(ctx context.Context, results []chan *FileResult, opts Options, log *slog.Logger) (Summary, error) {
	var sum Summary
	order := 0
	for i := range results {
		var r *FileResult
		select {
		case r = <-results[i]:
		case <-ctx.Done():
			return sum, ctx.Err()
		}

		if r.Err != nil {
			kind := Classify(r.Err)
			if kind == FailCanceled {
				return sum, r.Err
			}
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{Path: r.Path, Kind: kind, Msg: r.Err.Error()})
			if opts.Mode == ModeStrict {
				log.Error("class file failed", "path", r.Path, "kind", kind, "err", r.Err)
				return sum, fmt.Errorf("%s: %w", r.Path, r.Err)
			}
			log.Warn("skipping class file", "path", r.Path, "kind", kind, "err", r.Err)
		} else {
			for j := range r.Class.Edges {
				r.Class.Edges[j].Order = order
				order++
			}
			sum.Classes++
			sum.Methods += len(r.Class.Methods)
			sum.Edges += len(r.Class.Edges)
			log.Debug("class file done",
				"path", r.Path,
				"class", r.Class.Name,
				"version", r.Class.Version,
				"edges", len(r.Class.Edges),
				"duration", r.Duration)
		}

		for _, s := range opts.Sinks {
			if err := s.Consume(ctx, r); err != nil {
				return sum, fmt.Errorf("pipeline: sink: %w", err)
			}
		}
	}
	return sum, nil
}

// process reads, parses and extracts one file.
func process(ctx context.Context, index int, path string) *FileResult {
	start := time.Now()
	r := &FileResult{Index: index, Path: path}
	defer func() { r.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.Err = err
		return r
	}
	r.Size = len(data)
	r.File, r.Class, r.Err = ProcessBytes(data)
	return r
}

// ProcessBytes parses one class file image and extracts its methods and
// call edges. Edge order is relative to the file. The parsed file is
// returned whenever parsing succeeded, even if extraction failed.
func ProcessBytes(data []byte) (*classfile.ClassFile, *callgraph.Class, error) {
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	class, err := callgraph.Analyze(cf)
	if err != nil {
		return cf, nil, err
	}
	return cf, class, nil
}
