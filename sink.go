package avestream

import "github.com/hajimehoshi/ebiten/v2"

// A DisplaySink is the uploadable image finished frames are written into.
// *ebiten.Image satisfies it, and it's what [Pipeline.Draw] expects.
type DisplaySink interface {
	// Replaces the whole image with tightly packed RGBA pixels.
	WritePixels(pixels []byte)

	// Frees the image. It's not used again afterwards.
	Deallocate()
}

var _ DisplaySink = (*ebiten.Image)(nil)

func newEbitenSink(width, height int) DisplaySink {
	return ebiten.NewImage(width, height)
}
