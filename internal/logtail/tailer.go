package logtail

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultMaxReadBytes bounds how much a single Poll reads.
const DefaultMaxReadBytes = 8 * 1024 * 1024

// Stats summarizes tailer activity since construction.
type Stats struct {
	Offset    int64
	Lines     uint64
	Rotations uint64
	Errors    uint64
	Oversized uint64
	LastError error
}

// Tailer yields complete lines appended to a Source since the previous Poll.
type Tailer struct {
	src     Source
	log     *logrus.Entry
	maxRead int64

	mu       sync.Mutex
	offset   int64
	skipping bool
	stats    Stats
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithLogger routes tailer diagnostics to entry.
func WithLogger(entry *logrus.Entry) Option {
	return func(t *Tailer) {
		if entry != nil {
			t.log = entry
		}
	}
}

// WithMaxReadBytes caps the bytes read per Poll.
func WithMaxReadBytes(n int64) Option {
	return func(t *Tailer) {
		if n > 0 {
			t.maxRead = n
		}
	}
}

// New returns a Tailer positioned at the start of src.
func New(src Source, opts ...Option) *Tailer {
	t := &Tailer{
		src:     src,
		log:     logrus.NewEntry(logrus.StandardLogger()),
		maxRead: DefaultMaxReadBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFile tails the file at path.
func NewFile(path string, opts ...Option) *Tailer {
	t := New(FileSource{Path: path}, opts...)
	t.log = t.log.WithField("path", path)
	return t
}

// Offset returns the byte offset of the next unread byte.
func (t *Tailer) Offset() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offset
}

// Stats returns a copy of the activity counters.
func (t *Tailer) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.Offset = t.offset
	return s
}

// Poll returns the complete lines appended since the last call. It never
// returns an error: a missing source yields nothing, I/O failures are
// logged and yield nothing, and a shrunken source resets the cursor.
// A trailing line without its newline is left unread for the next Poll.
func (t *Tailer) Poll() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	size, err := t.src.Size()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.stats.LastError = nil
			return nil
		}
		t.fail("stat trace", err)
		return nil
	}

	if t.offset > size {
		t.log.WithFields(logrus.Fields{"offset": t.offset, "size": size}).
			Info("trace rotation detected, rewinding cursor")
		t.offset = 0
		t.skipping = false
		t.stats.Rotations++
	}
	if t.offset == size {
		t.stats.LastError = nil
		return nil
	}

	want := size - t.offset
	if want > t.maxRead {
		want = t.maxRead
	}
	buf := make([]byte, want)
	n, err := t.src.ReadAt(buf, t.offset)
	if err != nil && !errors.Is(err, io.EOF) {
		t.fail("read trace", err)
		return nil
	}
	buf = buf[:n]
	t.stats.LastError = nil

	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		if int64(n) == t.maxRead {
			// A line longer than the read window would stall the cursor forever.
			t.log.WithField("offset", t.offset).Warn("dropping oversized trace line")
			t.offset += int64(n)
			t.skipping = true
			t.stats.Oversized++
		}
		return nil
	}

	complete := buf[:end+1]
	t.offset += int64(len(complete))

	if t.skipping {
		first := bytes.IndexByte(complete, '\n')
		complete = complete[first+1:]
		t.skipping = false
	}

	lines := splitLines(complete)
	t.stats.Lines += uint64(len(lines))
	return lines
}

func (t *Tailer) fail(action string, err error) {
	t.stats.Errors++
	t.stats.LastError = err
	t.log.WithError(err).Warn(action + " failed")
}

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := make([]string, 0, bytes.Count(data, []byte{'\n'}))
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(data[:idx], []byte{'\r'})
		data = data[idx+1:]
		if len(line) == 0 {
			continue
		}
		lines = append(lines, string(line))
	}
	return lines
}
