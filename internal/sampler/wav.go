package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"jellyzam/internal/services"
)

const (
	wavHeaderBytes  = 44
	wavFormatPCM    = 1
	skipChunkFrames = 8192
)

// WAVWindowSampler sends a PCM window taken from the middle of a WAV file,
// re-encoded as a standalone WAV payload. Intros are often silent or generic,
// so the middle of the track identifies better. Non-WAV or non-PCM input is
// sampled by Fallback (HeadSampler when nil).
type WAVWindowSampler struct {
	Window   time.Duration
	Fallback Sampler
}

// Sample implements Sampler.
func (s WAVWindowSampler) Sample(ctx context.Context, path string, maxBytes int) (Sample, error) {
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

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() || decoder.WavAudioFormat != wavFormatPCM || decoder.NumChans == 0 || decoder.BitDepth == 0 {
		return s.fallback().Sample(ctx, path, maxBytes)
	}

	data, err := s.window(ctx, decoder, maxBytes)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Sample{}, err
		}
		return Sample{}, services.Wrap(services.ErrSampleRead, stage, "read wav window", path, err)
	}
	return Sample{Path: path, Data: data}, nil
}

func (s WAVWindowSampler) fallback() Sampler {
	if s.Fallback != nil {
		return s.Fallback
	}
	return HeadSampler{}
}

func (s WAVWindowSampler) window(ctx context.Context, decoder *wav.Decoder, maxBytes int) ([]byte, error) {
	duration, err := decoder.Duration()
	if err != nil {
		return nil, fmt.Errorf("wav duration: %w", err)
	}
	channels := int(decoder.NumChans)
	rate := int(decoder.SampleRate)
	bitDepth := int(decoder.BitDepth)
	bytesPerFrame := channels * ((bitDepth + 7) / 8)

	totalFrames := int(duration.Seconds() * float64(rate))
	if totalFrames <= 0 {
		return nil, errors.New("wav contains no audio frames")
	}

	windowFrames := int(s.Window.Seconds() * float64(rate))
	if windowFrames <= 0 || windowFrames > totalFrames {
		windowFrames = totalFrames
	}
	if limit := (maxBytes - wavHeaderBytes) / bytesPerFrame; windowFrames > limit {
		windowFrames = limit
	}
	if windowFrames <= 0 {
		return nil, fmt.Errorf("sample limit %d bytes is below one wav frame", maxBytes)
	}
	startFrame := totalFrames/2 - windowFrames/2
	if startFrame < 0 {
		startFrame = 0
	}

	format := &audio.Format{NumChannels: channels, SampleRate: rate}
	if err := skipFrames(ctx, decoder, format, bitDepth, startFrame); err != nil {
		return nil, err
	}

	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, windowFrames*channels),
		SourceBitDepth: bitDepth,
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read pcm window: %w", err)
	}
	if n == 0 {
		return nil, errors.New("wav window is empty")
	}
	buf.Data = buf.Data[:n]

	out := &seekBuffer{}
	encoder := wav.NewEncoder(out, rate, bitDepth, channels, wavFormatPCM)
	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav window: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav window: %w", err)
	}
	return out.Bytes(), nil
}

func skipFrames(ctx context.Context, decoder *wav.Decoder, format *audio.Format, bitDepth, frames int) error {
	if frames <= 0 {
		return nil
	}
	chunk := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, skipChunkFrames*format.NumChannels),
		SourceBitDepth: bitDepth,
	}
	remaining := frames * format.NumChannels
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if remaining < len(chunk.Data) {
			chunk.Data = chunk.Data[:remaining]
		}
		n, err := decoder.PCMBuffer(chunk)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("skip to window: %w", err)
		}
		if n == 0 {
			return errors.New("wav ended before window start")
		}
		remaining -= n
	}
	return nil
}
