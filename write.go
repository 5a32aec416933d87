package patterntree

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// logger receives a trace of tree construction and emission.
// A nil logger discards everything.
var logger *indentWriter

// LogTo causes a trace of tree construction and code
// emission to be written to w.
// Passing a nil writer turns tracing off again.
//
// LogTo must not be called while any tree is being built or
// emitted. Traces of concurrent emissions are interleaved
// and their indentation is not meaningful.
func LogTo(w io.Writer) {
	if w == nil {
		logger = nil
		return
	}
	logger = &indentWriter{
		w: w,
	}
}

// indentWriter writes lines prefixed with one tab per indent level.
// All methods are no-ops on a nil *indentWriter and are safe
// to call concurrently.
type indentWriter struct {
	mu      sync.Mutex
	w       io.Writer
	indent  int
	midline bool
}

// Write implements [io.Writer]. All lines written
// will be indented by the current indent level.
func (w *indentWriter) Write(buf []byte) (int, error) {
	if w == nil {
		return len(buf), nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.write(buf)
}

func (w *indentWriter) write(buf []byte) (int, error) {
	total := 0
	for line := range bytes.SplitAfterSeq(buf, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if !w.midline && w.indent > 0 {
			if _, err := io.WriteString(w.w, strings.Repeat("\t", w.indent)); err != nil {
				return total, err
			}
		}
		w.midline = true
		n, err := w.w.Write(line)
		total += n
		if err != nil {
			return total, err
		}
		if line[len(line)-1] == '\n' {
			w.midline = false
		}
	}
	return total, nil
}

// Indent increments the current indent level.
func (w *indentWriter) Indent() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indent++
}

// Unindent decrements the current indent level.
func (w *indentWriter) Unindent() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indent--
}

// Printf formats according to f and always ends
// the output with a newline.
func (w *indentWriter) Printf(f string, a ...any) {
	if w == nil {
		return
	}
	s := fmt.Sprintf(f, a...)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.write([]byte(s))
}
