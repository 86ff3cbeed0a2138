package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"jcallgraph/internal/config"
	"jcallgraph/internal/discover"
	"jcallgraph/internal/metrics"
	"jcallgraph/internal/output"
	"jcallgraph/internal/pipeline"
	"jcallgraph/internal/store"
	"jcallgraph/internal/watcher"
)

// extractor holds the sinks shared by the initial run and watch re-runs.
type extractor struct {
	root  string
	cfg   *config.Config
	mode  pipeline.Mode
	log   *slog.Logger
	edges *output.EdgeWriter
	db    *store.Store
	rec   *metrics.Recorder
}

func runExtract(ctx context.Context, root string, cfg *config.Config, watch bool, stdout io.Writer, log *slog.Logger) error {
	mode, err := pipeline.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	x := &extractor{
		root:  root,
		cfg:   cfg,
		mode:  mode,
		log:   log,
		edges: output.NewEdgeWriter(stdout),
	}

	files, err := discover.Walk(root, discover.Options{
		Extension:  cfg.Extension,
		ExcludeDir: cfg.IsExcludedDir,
		OnSkip: func(path string, err error) {
			log.Warn("skipping unreadable path", "path", path, "err", err)
		},
	})
	if err != nil {
		return err
	}
	log.Info("discovered class files", "root", root, "files", len(files), "jobs", cfg.Jobs, "mode", mode)

	if cfg.Output.DB != "" {
		x.db, err = store.Open(cfg.Output.DB)
		if err != nil {
			return err
		}
		defer x.db.Close()
	}
	if cfg.Output.MetricsFile != "" {
		x.rec = metrics.New()
	}

	if err := x.run(ctx, files, cfg.Output.DOTDir); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	return x.watch(ctx)
}

// run extracts files once, feeding every configured sink.
func (x *extractor) run(ctx context.Context, files []string, dotDir string) error {
	sinks := []pipeline.Sink{pipeline.EdgeSink(x.edges)}

	var runID store.RunID
	if x.db != nil {
		id, err := x.db.BeginRun(ctx, x.root)
		if err != nil {
			return err
		}
		runID = id
		sinks = append(sinks, pipeline.SinkFunc(func(ctx context.Context, r *pipeline.FileResult) error {
			if !r.OK() {
				return nil
			}
			return x.db.InsertFile(ctx, runID, r.Path, r.Edges())
		}))
	}
	if x.rec != nil {
		sinks = append(sinks, x.rec)
	}
	var graphs *graphSink
	if dotDir != "" {
		graphs = newGraphSink(dotDir, x.cfg.Output.MaxNodes, x.log)
		sinks = append(sinks, graphs)
	}

	sum, runErr := pipeline.Run(ctx, files, pipeline.Options{
		Jobs:   x.cfg.Jobs,
		Mode:   x.mode,
		Logger: x.log,
		Sinks:  sinks,
	})

	// Record what was delivered even when the run stopped early.
	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if x.db != nil {
		totals := store.RunTotals{Files: sum.Files, Failed: sum.Failed, Edges: sum.Edges}
		if err := x.db.FinishRun(context.WithoutCancel(ctx), runID, totals); err != nil {
			errs = append(errs, err)
		} else {
			x.log.Info("stored run", "db", x.db.DBPath(), "run", runID)
		}
	}
	if x.rec != nil {
		x.rec.ObserveRun(sum)
		if err := x.rec.WriteTextfile(x.cfg.Output.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}
	if graphs != nil {
		if err := graphs.finish(sum); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// watch re-runs extraction on changed class files until ctx is done.
// Failures of a re-run are logged; the watch continues.
func (x *extractor) watch(ctx context.Context) error {
	w, err := watcher.New(x.root,
		watcher.WithExtension(x.cfg.Extension),
		watcher.WithExcludeDir(x.cfg.IsExcludedDir),
		watcher.WithDebounceDelay(x.cfg.Watch.Debounce),
		watcher.WithOnChange(func(files []string) {
			x.log.Info("class files changed", "files", len(files))
			if err := x.run(ctx, files, ""); err != nil && ctx.Err() == nil {
				x.log.Error("re-run failed", "err", err)
			}
		}),
		watcher.WithOnError(func(err error) {
			x.log.Warn("watch error", "err", err)
		}),
	)
	if err != nil {
		return err
	}
	x.log.Info("watching for changes", "root", x.root)
	return w.Run(ctx)
}
