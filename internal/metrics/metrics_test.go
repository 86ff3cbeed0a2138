package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcallgraph/internal/bytecode"
	"jcallgraph/internal/callgraph"
	"jcallgraph/internal/classfile"
	"jcallgraph/internal/pipeline"
)

func TestRecorder(t *testing.T) {
	r := New()
	ctx := context.Background()

	ok := &pipeline.FileResult{
		Path:     "A.class",
		Size:     120,
		Duration: time.Millisecond,
		Class: &callgraph.Class{Name: "A", Edges: []callgraph.CallEdge{
			{Opcode: bytecode.InvokeStatic},
			{Opcode: bytecode.InvokeStatic},
			{Opcode: bytecode.InvokeDynamic},
		}},
	}
	bad := &pipeline.FileResult{
		Path: "B.class",
		Size: 3,
		Err:  errors.Join(classfile.ErrMalformedContainer, errors.New("bad magic")),
	}
	require.NoError(t, r.Consume(ctx, ok))
	require.NoError(t, r.Consume(ctx, bad))
	r.ObserveRun(pipeline.Summary{Edges: 3})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.filesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.filesTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failuresTotal.WithLabelValues("malformed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.edgesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.invokesTotal.WithLabelValues("invokestatic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.invokesTotal.WithLabelValues("invokedynamic")))
	assert.Equal(t, 123.0, testutil.ToFloat64(r.bytesTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.lastRunEdges))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	require.NoError(t, r.Consume(context.Background(), &pipeline.FileResult{Class: &callgraph.Class{}}))

	path := filepath.Join(t.TempDir(), "jcallgraph.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `jcallgraph_files_total{result="ok"} 1`), text)
	assert.Contains(t, text, "jcallgraph_file_duration_seconds_bucket")
}
