// Package sink provides the writable byte sink abstraction the writer
// package builds archives over: sequential append, a position query, and a
// seek-and-patch write to a previously written region (spec §4.2).
package sink

import (
	"io"
	"os"
)

// Sink is the writer's output abstraction.
type Sink interface {
	// Write appends p at the current write position and advances it.
	Write(p []byte) (n int, err error)
	// Tell returns the current write position.
	Tell() (int64, error)
	// WriteAt patches bytes at offset without disturbing the current write
	// position used by subsequent Write calls.
	WriteAt(p []byte, offset int64) (n int, err error)
	Close() error
}

// FileSink wraps an *os.File. WriteAt uses the file's native positioned
// write, so patching never disturbs the sequential write cursor.
type FileSink struct {
	file   *os.File
	cursor int64
}

// NewFileSink creates filePath (truncating if it exists) and returns a Sink
// over it.
func NewFileSink(filePath string) (*FileSink, error) {
	f, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	n, err := s.file.Write(p)
	s.cursor += int64(n)
	return n, err
}

func (s *FileSink) Tell() (int64, error) {
	return s.cursor, nil
}

func (s *FileSink) WriteAt(p []byte, offset int64) (int, error) {
	return s.file.WriteAt(p, offset)
}

func (s *FileSink) Close() error {
	return s.file.Close()
}

// BufferedSink wraps any io.WriteSeeker, implementing WriteAt as
// seek-write-seek-back. Used in tests with an in-memory WriteSeeker (e.g.
// github.com/orcaman/writerseeker) that has no native WriteAt.
type BufferedSink struct {
	ws     io.WriteSeeker
	cursor int64
}

func NewBufferedSink(ws io.WriteSeeker) *BufferedSink {
	return &BufferedSink{ws: ws}
}

func (s *BufferedSink) Write(p []byte) (int, error) {
	n, err := s.ws.Write(p)
	s.cursor += int64(n)
	return n, err
}

func (s *BufferedSink) Tell() (int64, error) {
	return s.cursor, nil
}

func (s *BufferedSink) WriteAt(p []byte, offset int64) (int, error) {
	if _, err := s.ws.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := s.ws.Write(p)
	if err != nil {
		return n, err
	}
	if _, err := s.ws.Seek(s.cursor, io.SeekStart); err != nil {
		return n, err
	}
	return n, nil
}

func (s *BufferedSink) Close() error {
	if c, ok := s.ws.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
