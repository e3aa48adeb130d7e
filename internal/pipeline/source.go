package pipeline

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// DefaultMaxLineBytes bounds a single log line.
const DefaultMaxLineBytes = 1 << 20

// LineSource yields lines one at a time. *bufio.Scanner satisfies it.
type LineSource interface {
	Scan() bool
	Text() string
	Err() error
}

// FileSource reads a log file lazily. Invalid UTF-8 is replaced with U+FFFD
// rather than failing the run.
type FileSource struct {
	*bufio.Scanner
	path string
	file *os.File
}

// OpenFile opens path for line reading. maxLineBytes <= 0 means
// DefaultMaxLineBytes.
func OpenFile(path string, maxLineBytes int) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInputUnreadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", core.ErrInputUnreadable, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInputUnreadable, err)
	}

	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	initial := 64 * 1024
	if initial > maxLineBytes {
		initial = maxLineBytes
	}
	sc := bufio.NewScanner(transform.NewReader(f, unicode.UTF8.NewDecoder()))
	sc.Buffer(make([]byte, 0, initial), maxLineBytes)

	return &FileSource{Scanner: sc, path: path, file: f}, nil
}

// Path returns the file being read.
func (s *FileSource) Path() string {
	return s.path
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}
