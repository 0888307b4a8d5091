package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Materialize reads src to io.EOF and returns its bytes as a Content.
//
// With WithTargetFile the bytes go straight into that file. Otherwise they
// are buffered in memory; once more than the memory limit has been read,
// the buffered bytes are flushed into a new temporary file and the rest of
// the stream is appended there. The switch happens at most once. A stream
// that ends within the limit yields memory-backed content and never touches
// the filesystem; an empty stream yields Empty().
//
// On failure the returned Content is nil and any spill file this call
// created is removed. A target file is left as written.
func Materialize(ctx context.Context, src io.Reader, optFns ...Option) (*Content, error) {
	opts := options{memoryLimit: DefaultMemoryLimit}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	src = &contextReader{ctx: ctx, r: src}

	if opts.discard {
		if _, err := Transfer(io.Discard, src); err != nil {
			return nil, fmt.Errorf("draining body: %w", err)
		}

		return Empty(), nil
	}

	observers := opts.tee
	if opts.progress {
		observers = append(observers, &progressWriter{
			logger:    logger,
			total:     opts.total,
			startTime: time.Now(),
		})
	}
	if len(observers) > 0 {
		src = io.TeeReader(src, io.MultiWriter(observers...))
	}

	sink := &spillSink{
		limit:   opts.memoryLimit,
		tempDir: opts.tempDir,
		logger:  logger,
	}
	defer sink.release()

	if opts.targetFile != "" {
		f, err := os.OpenFile(opts.targetFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, ioError("create", opts.targetFile, err)
		}
		sink.file = f
		sink.state = spilled
	} else {
		sink.buf = bytebufferpool.Get()
	}

	n, err := Transfer(sink, src)
	if cerr := sink.close(); err == nil {
		err = cerr
	}
	if err != nil {
		sink.abort()
		return nil, err
	}

	return sink.content(n), nil
}

type sinkState uint8

const (
	buffering sinkState = iota
	spilled
)

// spillSink accumulates bytes in a pooled buffer while buffering and in a
// file once spilled. It never goes back from spilled to buffering.
type spillSink struct {
	state   sinkState
	buf     *bytebufferpool.ByteBuffer
	limit   int64
	file    *os.File
	tempDir string
	temp    bool
	logger  *slog.Logger
}

func (s *spillSink) Write(p []byte) (int, error) {
	if s.state == spilled {
		n, err := s.file.Write(p)
		if err != nil {
			return n, ioError("write", s.file.Name(), err)
		}
		return n, nil
	}

	n, _ := s.buf.Write(p)
	if int64(s.buf.Len()) > s.limit {
		if err := s.spill(); err != nil {
			return n, err
		}
	}

	return n, nil
}

// spill moves the buffered bytes into a new temporary file and makes that
// file the sink for the rest of the stream.
func (s *spillSink) spill() error {
	f, err := os.CreateTemp(s.tempDir, "overflow-*.tmp")
	if err != nil {
		return ioError("create spill file", s.tempDir, err)
	}
	s.file = f
	s.temp = true
	s.state = spilled

	buffered := s.buf.Len()
	if _, err := f.Write(s.buf.B); err != nil {
		return ioError("write", f.Name(), err)
	}
	s.release()

	s.logger.Debug("response body spilled to disk", "path", f.Name(), "buffered", buffered, "limit", s.limit)

	return nil
}

func (s *spillSink) close() error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return ioError("close", s.file.Name(), err)
	}

	return nil
}

// abort removes a spill file created by this sink.
func (s *spillSink) abort() {
	if s.temp {
		if err := os.Remove(s.file.Name()); err != nil {
			s.logger.Error("failed to remove spill file", "path", s.file.Name(), "error", err)
		}
	}
}

// release scrubs the pooled buffer and returns it to the pool.
func (s *spillSink) release() {
	if s.buf == nil {
		return
	}
	clear(s.buf.B)
	bytebufferpool.Put(s.buf)
	s.buf = nil
}

func (s *spillSink) content(n int64) *Content {
	if s.state == spilled {
		return FromFile(s.file.Name())
	}
	if n == 0 {
		return Empty()
	}

	return FromBytes(bytes.Clone(s.buf.B))
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
