package logtail

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestPoll_MissingSourceIsEmpty(t *testing.T) {
	src := NewMemSource("")
	src.Remove()
	tl := New(src)

	if got := tl.Poll(); len(got) != 0 {
		t.Fatalf("Poll() = %v, want empty", got)
	}
	if tl.Stats().LastError != nil {
		t.Fatalf("LastError = %v, want nil for missing file", tl.Stats().LastError)
	}
}

func TestPoll_ReturnsOnlyNewLines(t *testing.T) {
	src := NewMemSource("a\nb\n")
	tl := New(src)

	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("first Poll() = %v, want [a b]", got)
	}
	if got := tl.Poll(); len(got) != 0 {
		t.Fatalf("second Poll() = %v, want empty", got)
	}
	src.Append("c\n")
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("third Poll() = %v, want [c]", got)
	}
	if tl.Offset() != 6 {
		t.Fatalf("Offset = %d, want 6", tl.Offset())
	}
}

func TestPoll_PartialLineIsNotConsumed(t *testing.T) {
	src := NewMemSource("read,10,_,0\nwrite,2")
	tl := New(src)

	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"read,10,_,0"}) {
		t.Fatalf("Poll() = %v, want only the complete line", got)
	}
	if tl.Offset() != int64(len("read,10,_,0\n")) {
		t.Fatalf("Offset = %d, want cursor at start of partial line", tl.Offset())
	}
	if got := tl.Poll(); len(got) != 0 {
		t.Fatalf("Poll() with unfinished line = %v, want empty", got)
	}

	src.Append("0,_,FF\n")
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"write,20,_,FF"}) {
		t.Fatalf("Poll() after completion = %v, want [write,20,_,FF]", got)
	}
	if got := tl.Poll(); len(got) != 0 {
		t.Fatalf("Poll() = %v, want no duplicate", got)
	}
}

func TestPoll_RotationRewindsCursor(t *testing.T) {
	src := NewMemSource("one\ntwo\nthree\n")
	tl := New(src)
	tl.Poll()
	if tl.Offset() != 14 {
		t.Fatalf("Offset = %d, want 14", tl.Offset())
	}

	src.Replace("new\n")
	got := tl.Poll()
	if !reflect.DeepEqual(got, []string{"new"}) {
		t.Fatalf("Poll() after rotation = %v, want [new]", got)
	}
	stats := tl.Stats()
	if stats.Rotations != 1 {
		t.Fatalf("Rotations = %d, want 1", stats.Rotations)
	}
	if stats.Offset != 4 {
		t.Fatalf("Offset = %d, want 4", stats.Offset)
	}
}

func TestPoll_RotationToEmptyFile(t *testing.T) {
	src := NewMemSource("abc\n")
	tl := New(src)
	tl.Poll()

	src.Replace("")
	if got := tl.Poll(); len(got) != 0 {
		t.Fatalf("Poll() = %v, want empty", got)
	}
	if tl.Offset() != 0 {
		t.Fatalf("Offset = %d, want 0", tl.Offset())
	}
	src.Append("x\n")
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("Poll() = %v, want [x]", got)
	}
}

func TestPoll_IOErrorIsSwallowed(t *testing.T) {
	src := NewMemSource("a\n")
	tl := New(src)

	boom := errors.New("locked")
	src.Fail(boom)
	if got := tl.Poll(); len(got) != 0 {
		t.Fatalf("Poll() = %v, want empty on error", got)
	}
	stats := tl.Stats()
	if stats.Errors != 1 || !errors.Is(stats.LastError, boom) {
		t.Fatalf("stats = %+v, want one error recorded", stats)
	}

	src.Fail(nil)
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("Poll() after recovery = %v, want [a]", got)
	}
	if tl.Stats().LastError != nil {
		t.Fatalf("LastError = %v, want cleared", tl.Stats().LastError)
	}
}

func TestPoll_StripsCarriageReturnsAndBlankLines(t *testing.T) {
	src := NewMemSource("a\r\n\n\r\nb\n")
	tl := New(src)
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Poll() = %v, want [a b]", got)
	}
}

func TestPoll_BoundedRead(t *testing.T) {
	src := NewMemSource("aaaa\nbbbb\ncccc\n")
	tl := New(src, WithMaxReadBytes(8))

	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"aaaa"}) {
		t.Fatalf("first Poll() = %v, want [aaaa]", got)
	}
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"bbbb"}) {
		t.Fatalf("second Poll() = %v, want [bbbb]", got)
	}
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"cccc"}) {
		t.Fatalf("third Poll() = %v, want [cccc]", got)
	}
}

func TestPoll_OversizedLineIsSkipped(t *testing.T) {
	src := NewMemSource(strings.Repeat("x", 12) + "\nok\n")
	tl := New(src, WithMaxReadBytes(8))

	if got := tl.Poll(); len(got) != 0 {
		t.Fatalf("Poll() = %v, want empty while skipping", got)
	}
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"ok"}) {
		t.Fatalf("Poll() = %v, want [ok]", got)
	}
	if tl.Stats().Oversized != 1 {
		t.Fatalf("Oversized = %d, want 1", tl.Stats().Oversized)
	}
}

func TestNewFile_TailsRealFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory_access.log")
	tl := NewFile(path)

	if got := tl.Poll(); len(got) != 0 {
		t.Fatalf("Poll() before file exists = %v, want empty", got)
	}
	if err := os.WriteFile(path, []byte("read,1,_,0\nwri"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"read,1,_,0"}) {
		t.Fatalf("Poll() = %v, want [read,1,_,0]", got)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString("te,2,_,0\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	_ = f.Close()
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"write,2,_,0"}) {
		t.Fatalf("Poll() = %v, want [write,2,_,0]", got)
	}

	if err := os.WriteFile(path, []byte("r\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := tl.Poll(); !reflect.DeepEqual(got, []string{"r"}) {
		t.Fatalf("Poll() after truncation = %v, want [r]", got)
	}
}

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "frame_00001.txt")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.txt"), 5)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}
