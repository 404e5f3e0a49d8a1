package avestream

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// converter scales and converts frames of a fixed source size and format
// into RGBA buffers of a fixed display size. It's built once per loaded
// stream.
type converter struct {
	srcWidth, srcHeight int
	srcFormat           PixelFormat
	dst                 image.RGBA // header reused for every Convert call
}

func newConverter(srcWidth, srcHeight int, srcFormat PixelFormat, dstWidth, dstHeight int, dstFormat PixelFormat) (*converter, error) {
	if srcWidth <= 0 || srcHeight <= 0 || dstWidth <= 0 || dstHeight <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d -> %dx%d",
			ErrConversion, srcWidth, srcHeight, dstWidth, dstHeight)
	}
	if srcFormat != PixelFormatRGBA && srcFormat != PixelFormatYUV420P {
		return nil, fmt.Errorf("%w: unsupported source format %s", ErrConversion, srcFormat)
	}
	if dstFormat != PixelFormatRGBA {
		return nil, fmt.Errorf("%w: unsupported target format %s", ErrConversion, dstFormat)
	}

	return &converter{
		srcWidth:  srcWidth,
		srcHeight: srcHeight,
		srcFormat: srcFormat,
		dst: image.RGBA{
			Stride: 4 * dstWidth,
			Rect:   image.Rect(0, 0, dstWidth, dstHeight),
		},
	}, nil
}

// Returns the number of bytes a Convert target buffer must have.
func (c *converter) bufferSize() int {
	return c.dst.Stride * c.dst.Rect.Dy()
}

// Convert writes the given frame into dst as tightly packed RGBA pixels at
// the display size. The frame must match the source size and format the
// converter was built for.
func (c *converter) Convert(frame *Frame, dst []byte) error {
	src := frame.Image()
	if src == nil {
		return errors.New("frame already released")
	}
	if format := pixelFormatOf(src); format != c.srcFormat {
		return fmt.Errorf("frame format %s doesn't match conversion source %s", format, c.srcFormat)
	}
	bounds := src.Bounds()
	if bounds.Dx() != c.srcWidth || bounds.Dy() != c.srcHeight {
		return fmt.Errorf("frame size %dx%d doesn't match conversion source %dx%d",
			bounds.Dx(), bounds.Dy(), c.srcWidth, c.srcHeight)
	}
	if len(dst) < c.bufferSize() {
		return fmt.Errorf("target buffer too small (%d < %d)", len(dst), c.bufferSize())
	}

	target := c.dst
	target.Pix = dst[:c.bufferSize()]
	if bounds.Dx() == target.Rect.Dx() && bounds.Dy() == target.Rect.Dy() {
		if rgba, isRGBA := src.(*image.RGBA); isRGBA {
			copyRows(&target, rgba)
			return nil
		}
		draw.Draw(&target, target.Rect, src, bounds.Min, draw.Src)
		return nil
	}
	draw.BiLinear.Scale(&target, target.Rect, src, bounds, draw.Src, nil)
	return nil
}

// same size RGBA to RGBA, only strides may differ
func copyRows(dst, src *image.RGBA) {
	rowLen := 4 * dst.Rect.Dx()
	if src.Stride == dst.Stride && src.Rect.Min == (image.Point{}) {
		copy(dst.Pix, src.Pix[:rowLen*dst.Rect.Dy()])
		return
	}
	for y := 0; y < dst.Rect.Dy(); y++ {
		srcOffset := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], src.Pix[srcOffset:srcOffset+rowLen])
	}
}
