package export

import (
	"bufio"
	"io"
	"os"
)

// sink is a buffered file writer. The file is truncated once on open;
// Close flushes and releases the handle and is safe to call more than once,
// so callers can defer it and still check the error of the final Close.
type sink struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

func createSink(path string) (*sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &sink{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (s *sink) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s *sink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *sink) Close() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// writeFile creates path and hands a buffered writer to fn.
func writeFile(path string, fn func(w io.Writer) error) (err error) {
	s, err := createSink(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}
