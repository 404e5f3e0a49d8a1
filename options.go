package avestream

import (
	"time"

	"github.com/erparts/go-avestream/internal/framequeue"
)

// Defaults used for zero [Options] fields.
const (
	DefaultQueueCapacity    = framequeue.DefaultCapacity
	DefaultMaxDisplayHeight = 500
	DefaultFallbackFPS      = 30.0
)

// Options configure a [Pipeline]. The zero value is ready to use and
// decodes with [ReisenBackend] into ebiten images.
type Options struct {
	// Backend opens the containers. Defaults to [ReisenBackend].
	Backend Backend

	// NewSink allocates the display image once the display size of a
	// stream is known. Defaults to ebiten.NewImage.
	NewSink func(width, height int) DisplaySink

	// Maximum number of decoded frames buffered ahead of the display.
	QueueCapacity int

	// Streams taller than this are downscaled, preserving their aspect ratio.
	MaxDisplayHeight int

	// Frame rate used when the stream doesn't declare a usable one.
	FallbackFPS float64

	// Now is the clock the frame pacing is measured with. Defaults to time.Now.
	Now func() time.Time

	// Logger overrides the package logger set through [SetLogger].
	Logger Logger
}

func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.Backend == nil {
		opts.Backend = ReisenBackend
	}
	if opts.NewSink == nil {
		opts.NewSink = newEbitenSink
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.MaxDisplayHeight <= 0 {
		opts.MaxDisplayHeight = DefaultMaxDisplayHeight
	}
	if opts.FallbackFPS <= 0 {
		opts.FallbackFPS = DefaultFallbackFPS
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}
