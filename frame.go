package avestream

import (
	"image"
	"time"
)

// PixelFormat identifies the memory layout of a decoded [Frame].
type PixelFormat uint8

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatRGBA
	PixelFormatYUV420P
)

// Returns a string representation of the pixel format
// ("RGBA", "YUV420P", "Unknown").
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA:
		return "RGBA"
	case PixelFormatYUV420P:
		return "YUV420P"
	default:
		return "Unknown"
	}
}

func pixelFormatOf(img image.Image) PixelFormat {
	switch img := img.(type) {
	case *image.RGBA:
		return PixelFormatRGBA
	case *image.YCbCr:
		if img.SubsampleRatio == image.YCbCrSubsampleRatio420 {
			return PixelFormatYUV420P
		}
	}
	return PixelFormatUnknown
}

// A Frame is one decoded image in the decoder's native pixel format and
// dimensions. Frames are owned handles: whoever holds one must call
// [Frame.Release] exactly once when done with it.
type Frame struct {
	img     image.Image
	pts     time.Duration
	release func()
}

// NewFrame wraps a decoded image. The release func, if any, is called once
// when the frame is released, and can be used to recycle the underlying
// buffers.
func NewFrame(img image.Image, pts time.Duration, release func()) *Frame {
	return &Frame{img: img, pts: pts, release: release}
}

// Returns the decoded image. It must not be used after [Frame.Release].
func (f *Frame) Image() image.Image { return f.img }

// Returns the pixel format of the decoded image.
func (f *Frame) Format() PixelFormat { return pixelFormatOf(f.img) }

// Returns the presentation offset of the frame relative to the start of
// the stream.
func (f *Frame) PresentationOffset() time.Duration { return f.pts }

// Release frees the frame. Calling it again is a no-op.
func (f *Frame) Release() {
	release := f.release
	f.release = nil
	f.img = nil
	if release != nil {
		release()
	}
}
