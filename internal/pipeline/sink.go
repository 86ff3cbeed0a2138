package pipeline

import (
	"context"
	"sync"

	"jcallgraph/internal/callgraph"
	"jcallgraph/internal/output"
)

// Sink consumes file results in input order. Consume is called for failed
// files too; sinks that only want edges check FileResult.OK.
type Sink interface {
	Consume(ctx context.Context, r *FileResult) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r *FileResult) error

func (f SinkFunc) Consume(ctx context.Context, r *FileResult) error { return f(ctx, r) }

// EdgeSink writes each successful file's edges to w as one batch.
func EdgeSink(w *output.EdgeWriter) Sink {
	return SinkFunc(func(_ context.Context, r *FileResult) error {
		if !r.OK() {
			return nil
		}
		return w.Emit(r.Edges())
	})
}

// Collector accumulates the methods and edges of successful files, for
// rendering after the run.
type Collector struct {
	mu      sync.Mutex
	Classes []*callgraph.Class
}

func (c *Collector) Consume(_ context.Context, r *FileResult) error {
	if !r.OK() {
		return nil
	}
	c.mu.Lock()
	c.Classes = append(c.Classes, r.Class)
	c.mu.Unlock()
	return nil
}

// Methods returns all collected methods in input order.
func (c *Collector) Methods() []callgraph.Method {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []callgraph.Method
	for _, cl := range c.Classes {
		out = append(out, cl.Methods...)
	}
	return out
}

// Edges returns all collected edges in discovery order.
func (c *Collector) Edges() []callgraph.CallEdge {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []callgraph.CallEdge
	for _, cl := range c.Classes {
		out = append(out, cl.Edges...)
	}
	return out
}
