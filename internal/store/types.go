package store

import "time"

// RunID identifies one extraction run (a UUID v4 string).
type RunID string

// Run is a row of the runs table.
type Run struct {
	ID         RunID     `json:"id"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Files      int       `json:"files"`
	Failed     int       `json:"failed"`
	Edges      int       `json:"edges"`
}

// Edge is a row of the call_edges table.
type Edge struct {
	Seq       int    `json:"seq"`
	ClassFile string `json:"class_file"`
	Caller    string `json:"caller"`
	Callee    string `json:"callee"`
	Opcode    string `json:"opcode"`
	Offset    int    `json:"offset"`
}

// RunTotals are the counts recorded when a run finishes.
type RunTotals struct {
	Files  int
	Failed int
	Edges  int
}
