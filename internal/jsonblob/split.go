// Package jsonblob separates JSON objects embedded in text logs from the
// surrounding trace, and deduplicates JSON arrays.
package jsonblob

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// Split reads r line by line. A line containing '{' starts a blob, taken
// from that brace onward; the blob grows by whole lines until the brace
// depth, checked at line ends, is back to zero. Braces inside string
// literals are counted too. Text before the opening brace is dropped.
// Lines outside blobs are copied to trace unchanged. Blobs are written to
// blobs with trailing whitespace removed, separated by one blank line.
// It returns the number of blobs written.
func Split(r io.Reader, trace, blobs io.Writer) (int, error) {
	br := bufio.NewReader(r)
	tw := bufio.NewWriter(trace)
	bw := bufio.NewWriter(blobs)

	var (
		n     int
		depth int
		in    bool
		buf   strings.Builder
	)
	emit := func() error {
		if n > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		n++
		_, err := bw.WriteString(strings.TrimRight(buf.String(), " \t\r\n\v\f") + "\n")
		buf.Reset()
		return err
	}

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if !in {
				start := strings.IndexByte(line, '{')
				if start < 0 {
					if _, werr := tw.WriteString(line); werr != nil {
						return n, werr
					}
				} else {
					in, depth = true, 0
					line = line[start:]
				}
			}
			if in {
				buf.WriteString(line)
				depth += strings.Count(line, "{") - strings.Count(line, "}")
				if depth == 0 {
					in = false
					if werr := emit(); werr != nil {
						return n, werr
					}
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("%w: %w", core.ErrInputUnreadable, err)
		}
	}
	// an unterminated blob runs to the end of the input
	if in {
		if err := emit(); err != nil {
			return n, err
		}
	}

	if err := tw.Flush(); err != nil {
		return n, err
	}
	return n, bw.Flush()
}

// SplitFile runs Split from input into two output files.
func SplitFile(input, traceOut, jsonOut string) (int, error) {
	in, err := os.Open(input)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrInputUnreadable, err)
	}
	defer in.Close()

	tf, err := os.Create(traceOut)
	if err != nil {
		return 0, err
	}
	defer tf.Close()

	jf, err := os.Create(jsonOut)
	if err != nil {
		return 0, err
	}
	defer jf.Close()

	n, err := Split(transform.NewReader(in, unicode.UTF8.NewDecoder()), tf, jf)
	if err != nil {
		return n, err
	}
	if err := tf.Close(); err != nil {
		return n, err
	}
	return n, jf.Close()
}
