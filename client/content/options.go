package content

import (
	"errors"
	"io"
	"log/slog"
)

// DefaultMemoryLimit is how many bytes Materialize buffers in memory
// before spilling to a temporary file.
const DefaultMemoryLimit = 64 << 10 // 64KB

// Option defines optional settings for Materialize.
//
// WithTargetFile streams the body straight into path; no memory limit applies.
// WithMemoryLimit overrides DefaultMemoryLimit.
// WithTempDir sets the directory spill files are created in.
// WithDiscard drains the stream and returns Empty().
// WithTee copies every byte read to w, e.g. a hash.Hash.
// WithProgress logs transfer progress at most once per second.
// WithLogger sets the logger used for progress and spill messages.
type Option func(*options) error

type options struct {
	targetFile  string
	memoryLimit int64
	tempDir     string
	discard     bool
	tee         []io.Writer
	progress    bool
	total       int64
	logger      *slog.Logger
}

func WithTargetFile(path string) Option {
	return func(opts *options) error {
		if path == "" {
			return errors.New("target file must not be empty")
		}
		opts.targetFile = path
		return nil
	}
}

func WithMemoryLimit(n int64) Option {
	return func(opts *options) error {
		if n <= 0 {
			return errors.New("memory limit must be greater than zero")
		}
		opts.memoryLimit = n
		return nil
	}
}

func WithTempDir(dir string) Option {
	return func(opts *options) error {
		opts.tempDir = dir
		return nil
	}
}

func WithDiscard() Option {
	return func(opts *options) error {
		opts.discard = true
		return nil
	}
}

func WithTee(w io.Writer) Option {
	return func(opts *options) error {
		if w == nil {
			return errors.New("tee writer must not be nil")
		}
		opts.tee = append(opts.tee, w)
		return nil
	}
}

// WithProgress enables progress logging. total is the expected length,
// or -1 when unknown.
func WithProgress(total int64) Option {
	return func(opts *options) error {
		opts.progress = true
		opts.total = total
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) error {
		opts.logger = logger
		return nil
	}
}
