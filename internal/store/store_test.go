package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jcallgraph/internal/bytecode"
	"jcallgraph/internal/callgraph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "jcallgraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.BeginRun(ctx, "/src/classes")
	require.NoError(t, err)
	_, err = uuid.Parse(string(run))
	require.NoError(t, err, "run id should be a UUID")

	fileA := []callgraph.CallEdge{
		{Caller: "A.m()V", Callee: "B.n()V", Order: 0, Offset: 0, Opcode: bytecode.InvokeStatic},
		{Caller: "A.m()V", Callee: "B.n()V", Order: 1, Offset: 3, Opcode: bytecode.InvokeStatic},
	}
	fileC := []callgraph.CallEdge{
		{Caller: "C.<init>()V", Callee: "java/lang/Object.<init>()V", Order: 2, Offset: 1, Opcode: bytecode.InvokeSpecial},
	}
	require.NoError(t, s.InsertFile(ctx, run, "A.class", fileA))
	require.NoError(t, s.InsertFile(ctx, run, "C.class", fileC))
	require.NoError(t, s.InsertFile(ctx, run, "Empty.class", nil))
	require.NoError(t, s.FinishRun(ctx, run, RunTotals{Files: 4, Failed: 1, Edges: 3}))

	edges, err := s.Edges(ctx, run)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	assert.Equal(t, Edge{Seq: 0, ClassFile: "A.class", Caller: "A.m()V", Callee: "B.n()V", Opcode: "invokestatic", Offset: 0}, edges[0])
	assert.Equal(t, 3, edges[1].Offset)
	assert.Equal(t, "invokespecial", edges[2].Opcode)

	r, err := s.GetRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, "/src/classes", r.Root)
	assert.Equal(t, 4, r.Files)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 3, r.Edges)
	assert.False(t, r.FinishedAt.IsZero())
	assert.WithinDuration(t, time.Now(), r.StartedAt, time.Minute)

	callers, err := s.CallersOf(ctx, run, "B.n()V")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.m()V"}, callers)
}

func TestInsertFile_DuplicateSeqRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	run, err := s.BeginRun(ctx, ".")
	require.NoError(t, err)

	dup := []callgraph.CallEdge{
		{Caller: "A.m()V", Callee: "B.n()V", Order: 0},
		{Caller: "A.m()V", Callee: "B.o()V", Order: 0},
	}
	require.Error(t, s.InsertFile(ctx, run, "A.class", dup))

	edges, err := s.Edges(ctx, run)
	require.NoError(t, err)
	assert.Empty(t, edges, "a failed file must leave no rows")
}

func TestRunsAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	r1, err := s.BeginRun(ctx, ".")
	require.NoError(t, err)
	r2, err := s.BeginRun(ctx, ".")
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)

	e := []callgraph.CallEdge{{Caller: "A.m()V", Callee: "B.n()V"}}
	require.NoError(t, s.InsertFile(ctx, r1, "A.class", e))
	require.NoError(t, s.InsertFile(ctx, r2, "A.class", e))

	edges, err := s.Edges(ctx, r2)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestUnknownRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownRun)
	assert.ErrorIs(t, s.FinishRun(ctx, "missing", RunTotals{}), ErrUnknownRun)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "jcallgraph.db")
	s, err := Open(path)
	require.NoError(t, err)
	run, err := s.BeginRun(ctx, ".")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.GetRun(ctx, run)
	assert.NoError(t, err)
	assert.Equal(t, path, s.DBPath())
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }

	first, err := s.BeginRun(ctx, "a")
	require.NoError(t, err)
	second, err := s.BeginRun(ctx, "b")
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)
	assert.Equal(t, base.Add(time.Second), runs[0].StartedAt)
	assert.True(t, runs[0].FinishedAt.IsZero())
}
