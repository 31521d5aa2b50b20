package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	partialDirName = ".partial"
	// rows buffered in memory per shard key before spilling to the
	// worker's partial file
	flushThreshold = 256
)

// ShardFileName maps a shard key to the CSV file it is stored in. Keys may
// contain characters that are not valid in file names; those are replaced so
// every key maps to an openable path. Lookups must go through the same
// mapping that writes did.
func ShardFileName(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")
	return r.Replace(key) + ".csv"
}

// PartialShards collects shard rows for a single worker. Rows are buffered
// per key and spilled to a worker-private partial directory, so concurrent
// workers never touch the same file. MergeShards combines the partial sets
// into the final shard files.
type PartialShards struct {
	dir  string
	bufs map[string][][]string
}

// NewPartialShards creates the partial directory for one worker under root.
func NewPartialShards(root string, worker int) (*PartialShards, error) {
	dir := filepath.Join(root, partialDirName, fmt.Sprintf("w%03d", worker))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &PartialShards{
		dir:  dir,
		bufs: make(map[string][][]string),
	}, nil
}

// Append buffers one row for the given shard key.
func (p *PartialShards) Append(key string, record []string) error {
	p.bufs[key] = append(p.bufs[key], record)
	if len(p.bufs[key]) >= flushThreshold {
		return p.flush(key)
	}
	return nil
}

// Close spills every remaining buffered row.
func (p *PartialShards) Close() error {
	for key := range p.bufs {
		if err := p.flush(key); err != nil {
			return err
		}
	}
	return nil
}

func (p *PartialShards) flush(key string) error {
	rows := p.bufs[key]
	if len(rows) == 0 {
		return nil
	}

	path := filepath.Join(p.dir, ShardFileName(key))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	delete(p.bufs, key)
	return nil
}

// MergeShards sweeps the partial directories under root and concatenates
// each key's partial files into root/<key>.csv, header first. The partial
// tree is removed afterwards. Final row order across workers is unspecified;
// within one worker it follows append order.
func MergeShards(root string, header []string) error {
	partialRoot := filepath.Join(root, partialDirName)
	workerDirs, err := os.ReadDir(partialRoot)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	names := make(map[string][]string) // shard file name -> partial paths
	for _, wd := range workerDirs {
		if !wd.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(partialRoot, wd.Name()))
		if err != nil {
			return err
		}
		for _, fe := range files {
			names[fe.Name()] = append(names[fe.Name()], filepath.Join(partialRoot, wd.Name(), fe.Name()))
		}
	}

	for name, parts := range names {
		sort.Strings(parts)
		if err := mergeOne(filepath.Join(root, name), header, parts); err != nil {
			return err
		}
	}

	return os.RemoveAll(partialRoot)
}

func mergeOne(dst string, header []string, parts []string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	for _, part := range parts {
		in, err := os.Open(part)
		if err != nil {
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
