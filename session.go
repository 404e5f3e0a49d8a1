package avestream

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// session is one opened stream and every native resource acquired for it.
// It's never partially re-initialized: it's either fully built by
// openSession or fully released by close.
type session struct {
	logger      Logger
	path        string
	container   Container
	stream      StreamInfo
	decoder     Decoder
	conv        *converter
	fps         float64
	framePeriod time.Duration

	width, height               int // native
	displayWidth, displayHeight int
}

func openSession(path string, opts *Options, logger Logger) (_ *session, err error) {
	s := &session{logger: logger, path: path}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	container, err := opts.Backend.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	s.container = container

	streams, err := s.container.Streams()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	var found bool
	s.stream, found = firstVideoStream(streams)
	if !found {
		return nil, ErrNoVideoStream
	}

	decoder, err := s.container.NewDecoder(s.stream)
	if err != nil {
		if errors.Is(err, ErrUnsupportedCodec) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrDecoderInit, err)
	}
	s.decoder = decoder

	s.width, s.height = s.stream.Width, s.stream.Height
	s.fps = frameRate(s.stream.FrameRateNum, s.stream.FrameRateDen, opts.FallbackFPS)
	s.framePeriod = time.Duration(float64(time.Second) / s.fps)
	s.displayWidth, s.displayHeight = displaySize(s.width, s.height, opts.MaxDisplayHeight)

	s.conv, err = newConverter(s.width, s.height, s.stream.PixelFormat,
		s.displayWidth, s.displayHeight, PixelFormatRGBA)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Releases everything acquired so far, in reverse order. Safe on partially
// built sessions.
func (s *session) close() {
	s.conv = nil
	if s.decoder != nil {
		if err := s.decoder.Close(); err != nil {
			s.logger.Printf("WARNING: closing decoder for '%s': %v", s.path, err)
		}
		s.decoder = nil
	}
	if s.container != nil {
		if err := s.container.Close(); err != nil {
			s.logger.Printf("WARNING: closing '%s': %v", s.path, err)
		}
		s.container = nil
	}
}

// Returns the nominal frame rate for the given average frame rate rational,
// or fallback if it's unavailable or degenerate.
func frameRate(num, den int, fallback float64) float64 {
	if num <= 0 || den <= 0 {
		return fallback
	}
	return float64(num) / float64(den)
}

// Returns the display size for a native size: streams taller than maxHeight
// are downscaled to it, preserving the aspect ratio.
func displaySize(width, height, maxHeight int) (int, int) {
	if height <= maxHeight {
		return width, height
	}
	displayWidth := int(math.Round(float64(maxHeight) * float64(width) / float64(height)))
	return max(displayWidth, 1), maxHeight
}
