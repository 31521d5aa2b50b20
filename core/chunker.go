package core

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
)

// Chunk is one line-aligned byte range of an input file. Start is inclusive,
// End exclusive. Chunks produced by SplitFile never split a line and cover
// the file exactly.
type Chunk struct {
	Start int64
	End   int64
}

// Size returns the byte length of the chunk.
func (c Chunk) Size() int64 { return c.End - c.Start }

// DefaultWorkers returns the worker count used when the caller passes 0.
func DefaultWorkers() int { return runtime.NumCPU() }

// SplitFile partitions a file into up to n line-aligned chunks. Each raw
// endpoint is moved backward to the previous newline; when that would
// collapse a chunk to zero bytes the endpoint advances forward past the next
// newline instead. n <= 0 means one chunk per available CPU.
func SplitFile(path string, n int) ([]Chunk, error) {
	if n <= 0 {
		n = DefaultWorkers()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	var chunks []Chunk
	var start int64

	for i := 1; i <= n && start < size; i++ {
		// raw endpoint i of n; skipped when an earlier chunk already
		// extended past it
		end := size * int64(i) / int64(n)
		if end <= start {
			continue
		}

		end, err = alignToLine(f, start, end, size)
		if err != nil {
			return nil, fmt.Errorf("aligning chunk at %d: %w", end, err)
		}

		chunks = append(chunks, Chunk{Start: start, End: end})
		start = end
	}

	return chunks, nil
}

// alignToLine moves end backward to just past the nearest preceding newline,
// or forward past the next one when backing up would reach start.
func alignToLine(f *os.File, start, end, size int64) (int64, error) {
	if end >= size {
		return size, nil
	}

	const window = 64 * 1024
	buf := make([]byte, window)

	// scan backward for a newline
	pos := end
	for pos > start {
		lo := pos - window
		if lo < start {
			lo = start
		}
		n, err := f.ReadAt(buf[:pos-lo], lo)
		if err != nil && err != io.EOF {
			return 0, err
		}
		if idx := bytes.LastIndexByte(buf[:n], '\n'); idx >= 0 {
			return lo + int64(idx) + 1, nil
		}
		pos = lo
	}

	// the whole range is one unterminated line: extend forward instead
	pos = end
	for pos < size {
		hi := pos + window
		if hi > size {
			hi = size
		}
		n, err := f.ReadAt(buf[:hi-pos], pos)
		if err != nil && err != io.EOF {
			return 0, err
		}
		if idx := bytes.IndexByte(buf[:n], '\n'); idx >= 0 {
			return pos + int64(idx) + 1, nil
		}
		pos = hi
	}
	return size, nil
}
