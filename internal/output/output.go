// Package output writes jcallgraph results: the NDJSON edge stream, DOT
// renderings and JSON summaries.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"jcallgraph/internal/callgraph"
)

// EdgeRecord is one line of the NDJSON edge stream.
type EdgeRecord struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// EdgeWriter writes call edges as newline-delimited JSON. It is safe for
// concurrent use; each Emit call is written as one contiguous block.
type EdgeWriter struct {
	mu  sync.Mutex
	w   io.Writer
	buf bytes.Buffer
	enc *json.Encoder
	n   int
}

// NewEdgeWriter returns an EdgeWriter writing to w.
func NewEdgeWriter(w io.Writer) *EdgeWriter {
	ew := &EdgeWriter{w: w}
	ew.enc = json.NewEncoder(&ew.buf)
	ew.enc.SetEscapeHTML(false) // keep "<init>" readable
	return ew
}

// Emit writes edges in order. Nothing is written if encoding fails.
func (ew *EdgeWriter) Emit(edges []callgraph.CallEdge) error {
	if len(edges) == 0 {
		return nil
	}
	ew.mu.Lock()
	defer ew.mu.Unlock()

	ew.buf.Reset()
	for _, e := range edges {
		if err := ew.enc.Encode(EdgeRecord{Caller: e.Caller, Callee: e.Callee}); err != nil {
			return fmt.Errorf("output: encode edge: %w", err)
		}
	}
	if _, err := ew.w.Write(ew.buf.Bytes()); err != nil {
		return fmt.Errorf("output: write edges: %w", err)
	}
	ew.n += len(edges)
	return nil
}

// Count returns the number of edges written so far.
func (ew *EdgeWriter) Count() int {
	ew.mu.Lock()
	defer ew.mu.Unlock()
	return ew.n
}

// WriteDOT writes a DOT document to dir/name, creating parent directories.
// name may contain path separators for grouping.
func WriteDOT(dir, name, dot string) error {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

// WriteClassCFGDOT writes the CFG of one class to dir/cfg/<class>.dot.
// Internal class names map onto the directory layout of their package.
func WriteClassCFGDOT(dir, class, dot string) error {
	return WriteDOT(dir, filepath.Join("cfg", CFGFileName(class)), dot)
}

// CFGFileName maps an internal class name to a relative .dot path.
// "java/util/Map$Entry" → "java/util/Map$Entry.dot".
func CFGFileName(class string) string {
	clean := strings.NewReplacer("..", "_", "\\", "_", ":", "_").Replace(class)
	return filepath.FromSlash(strings.TrimLeft(clean, "/")) + ".dot"
}

// WriteSummaryJSON writes v as indented JSON to path.
func WriteSummaryJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir %s: %w", filepath.Dir(path), err)
	}
	return writeJSON(path, v)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
