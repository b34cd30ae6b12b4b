package logtail

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Source is the byte store a Tailer reads from. Size reports an error
// matching os.ErrNotExist when there is nothing to read yet.
type Source interface {
	Size() (int64, error)
	ReadAt(p []byte, off int64) (int, error)
}

// FileSource reads a file by path, reopening it on every call so a
// recreated file is picked up without extra bookkeeping.
type FileSource struct {
	Path string
}

// Size stats the file.
func (f FileSource) Size() (int64, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", f.Path)
	}
	return info.Size(), nil
}

// ReadAt reads len(p) bytes starting at off.
func (f FileSource) ReadAt(p []byte, off int64) (int, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()
	return file.ReadAt(p, off)
}

// MemSource is an in-memory Source. It lets callers drive a Tailer
// through growth, truncation and disappearance without touching disk.
type MemSource struct {
	mu      sync.Mutex
	data    []byte
	missing bool
	err     error
}

// NewMemSource returns a source holding initial.
func NewMemSource(initial string) *MemSource {
	return &MemSource{data: []byte(initial)}
}

// Append adds bytes to the end, as a producer would.
func (m *MemSource) Append(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missing = false
	m.data = append(m.data, s...)
}

// Replace swaps the whole content, simulating rotation.
func (m *MemSource) Replace(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missing = false
	m.data = []byte(s)
}

// Remove makes the source report a missing file.
func (m *MemSource) Remove() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missing = true
	m.data = nil
}

// Fail makes every call return err until cleared with Fail(nil).
func (m *MemSource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Size implements Source.
func (m *MemSource) Size() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.missing {
		return 0, os.ErrNotExist
	}
	return int64(len(m.data)), nil
}

// ReadAt implements Source.
func (m *MemSource) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.missing {
		return 0, os.ErrNotExist
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
