// Package logging tees the standard logger to stdout and a size-capped file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

const DefaultMaxSize = 2 * 1024 * 1024 // 2MB

// RotatingWriter appends to a file and, once it grows past maxSize, moves
// it to path+".1" and starts over. One backup is kept.
type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
}

// Setup opens logPath and points the standard logger at stdout and the file.
func Setup(logPath string) (*RotatingWriter, error) {
	rw, err := NewRotatingWriter(logPath, DefaultMaxSize)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rw))
	return rw, nil
}

func NewRotatingWriter(path string, maxSize int64) (*RotatingWriter, error) {
	// Oversized leftovers from a previous run are dropped
	if info, err := os.Stat(path); err == nil && info.Size() > maxSize {
		if err := os.Truncate(path, 0); err != nil {
			return nil, fmt.Errorf("truncate %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	return &RotatingWriter{file: f, path: path, size: size, maxSize: maxSize}, nil
}

func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err = w.file.Write(p)
	w.size += int64(n)

	if w.size > w.maxSize {
		if rerr := w.rotate(); rerr != nil && err == nil {
			err = rerr
		}
	}

	return n, err
}

func (w *RotatingWriter) rotate() error {
	w.file.Close()

	if err := os.Rename(w.path, w.path+".1"); err != nil {
		return fmt.Errorf("rotate %s: %w", w.path, err)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("reopen %s: %w", w.path, err)
	}

	w.file = f
	w.size = 0
	return nil
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
