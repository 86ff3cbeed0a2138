// Package discover finds compiled class files under a root path.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrRoot is returned when the root path cannot be read.
var ErrRoot = errors.New("discover: unreadable root")

// Options controls which files are returned.
type Options struct {
	Extension  string                       // file suffix to match, e.g. ".class"
	ExcludeDir func(path string) bool       // skip matching directories below root
	OnSkip     func(path string, err error) // called for unreadable entries below root
}

// Walk returns the files under root whose names end in opts.Extension, in
// lexical order. A root that is itself a matching file is returned alone.
// Failure to read the root is fatal; unreadable entries below it are
// reported to OnSkip and skipped.
func Walk(root string, opts Options) ([]string, error) {
	ext := opts.Extension
	if ext == "" {
		ext = ".class"
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoot, err)
	}
	if !info.IsDir() {
		if strings.HasSuffix(root, ext) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if opts.OnSkip != nil {
				opts.OnSkip(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && opts.ExcludeDir != nil && opts.ExcludeDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoot, err)
	}
	return files, nil
}
