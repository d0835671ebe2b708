package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"jellyzam/internal/config"
	"jellyzam/internal/services"
)

// DefaultMaxBytes bounds a sample when the caller passes a non-positive limit.
const DefaultMaxBytes = 1024 * 1024

const stage = "sampling"

// Sample is the bounded byte payload sent for recognition.
type Sample struct {
	Path string
	Data []byte
}

// Sampler extracts a recognition sample from an audio file.
type Sampler interface {
	Sample(ctx context.Context, path string, maxBytes int) (Sample, error)
}

// New returns the sampler selected by mode.
func New(mode string, window time.Duration) (Sampler, error) {
	switch mode {
	case "", config.SampleModeHead:
		return HeadSampler{}, nil
	case config.SampleModeWAVWindow:
		return WAVWindowSampler{Window: window}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, stage, "select sampler", fmt.Sprintf("unsupported sample mode %q", mode), nil)
	}
}

// FromConfig builds the sampler configured under [sample].
func FromConfig(cfg *config.Config) (Sampler, error) {
	if cfg == nil {
		return HeadSampler{}, nil
	}
	return New(cfg.Sample.Mode, time.Duration(cfg.Sample.WindowSeconds)*time.Second)
}

// HeadSampler reads up to maxBytes from the start of the file.
type HeadSampler struct{}

// Sample implements Sampler.
func (HeadSampler) Sample(ctx context.Context, path string, maxBytes int) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	file, err := openAudio(path)
	if err != nil {
		return Sample{}, err
	}
	defer file.Close()

	// Grows with the file rather than allocating maxBytes up front.
	data, err := io.ReadAll(io.LimitReader(file, int64(maxBytes)))
	if err != nil {
		return Sample{}, services.Wrap(services.ErrSampleRead, stage, "read sample", path, err)
	}
	if len(data) == 0 {
		return Sample{}, services.Wrap(services.ErrSampleRead, stage, "read sample", "file is empty", nil)
	}
	return Sample{Path: path, Data: data}, nil
}

// openAudio opens a regular file, mapping missing paths and directories to
// ErrNotFound and every other failure to ErrSampleRead.
func openAudio(path string) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, stage, "stat audio", path, err)
		}
		return nil, services.Wrap(services.ErrSampleRead, stage, "stat audio", path, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, stage, "stat audio", path+" is a directory", nil)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrSampleRead, stage, "open audio", path, err)
	}
	return file, nil
}
