package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"jcallgraph/internal/output"
	"jcallgraph/internal/pipeline"
	"jcallgraph/internal/render"
)

// graphSink collects the run for rendering and writes one CFG per class as
// results arrive.
type graphSink struct {
	pipeline.Collector
	dir      string
	maxNodes int
	log      *slog.Logger
	cfgs     int
}

func newGraphSink(dir string, maxNodes int, log *slog.Logger) *graphSink {
	return &graphSink{dir: dir, maxNodes: maxNodes, log: log}
}

func (g *graphSink) Consume(ctx context.Context, r *pipeline.FileResult) error {
	if !r.OK() {
		return nil
	}
	if err := g.Collector.Consume(ctx, r); err != nil {
		return err
	}
	dot, err := classCFGDOT(r.File)
	if err != nil {
		g.log.Warn("skipping class CFG", "path", r.Path, "err", err)
		return nil
	}
	if err := output.WriteClassCFGDOT(g.dir, r.Class.Name, dot); err != nil {
		return err
	}
	g.cfgs++
	return nil
}

// finish writes the whole-run graphs and statistics.
func (g *graphSink) finish(sum pipeline.Summary) error {
	methods, edges := g.Methods(), g.Edges()
	title := fmt.Sprintf("%d classes, %d methods, %d edges", sum.Classes, sum.Methods, sum.Edges)

	entryPoints := render.FindEntryPoints(methods, edges)
	reachable := render.ReachableSet(entryPoints, edges)
	g.log.Info("reachability", "entry_points", len(entryPoints), "reachable", len(reachable))

	docs := []struct{ name, dot string }{
		{"callgraph.dot", latticeCallGraphDOT(methods, edges, title)},
		{"callgraph_clustered.dot", render.CallgraphDOT(methods, edges, title, render.NASA, g.maxNodes)},
		{"classgraph.dot", render.ClassgraphDOT(methods, edges, title+" (class level)", render.NASA, g.maxNodes)},
		{"reachable.dot", render.ReachabilityDOT(methods, edges, reachable, entryPoints, title+" (reachable)", render.NASA)},
	}
	for _, d := range docs {
		if err := output.WriteDOT(g.dir, d.name, d.dot); err != nil {
			return err
		}
		g.log.Info("wrote graph", "path", filepath.Join(g.dir, d.name), "bytes", len(d.dot))
	}
	g.log.Info("wrote class CFGs", "dir", filepath.Join(g.dir, "cfg"), "classes", g.cfgs)

	if err := output.WriteSummaryJSON(filepath.Join(g.dir, "stats.json"), render.ComputeStats(methods, edges)); err != nil {
		return err
	}
	return output.WriteSummaryJSON(filepath.Join(g.dir, "summary.json"), sum)
}
