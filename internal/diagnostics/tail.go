// internal/diagnostics/tail.go
//
// Log tailing for the dashboard.  Files are the daily JSON logs under
// <root>/logs; TailFile reads backwards in chunks so a 50 MB file does
// not get slurped for its last hundred lines.
package diagnostics

import (
	"bytes"
	"errors"
	"io"
	"os"
)

const tailChunk = 32 * 1024

var nl = []byte("\n")

// TailFile returns the last n lines of path, oldest first.  A missing
// file yields no lines and no error; "no log yet today" is a normal
// state.
func TailFile(path string, n int) ([]string, error) {
	if n <= 0 {
		n = 100
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var buf []byte
	off := info.Size()
	for off > 0 && bytes.Count(buf, nl) <= n {
		step := int64(tailChunk)
		if off < step {
			step = off
		}
		off -= step
		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, off); err != nil && err != io.EOF {
			return nil, err
		}
		buf = append(chunk, buf...)
	}

	lines := splitLines(buf)
	if len(lines) > n {
		// The oldest element may be a partial line cut mid-chunk; the
		// slice drops it along with any surplus.
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func splitLines(b []byte) []string {
	b = bytes.TrimRight(b, "\n")
	if len(b) == 0 {
		return nil
	}
	parts := bytes.Split(b, nl)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}
