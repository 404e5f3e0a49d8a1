package avestream

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Draw projects the current frame into the dest rectangle of the screen,
// scaling it with [ebiten.FilterLinear] to take as much space as possible
// while preserving the aspect ratio, and multiplying it by tint.
//
// If there's extra space in the rectangle, the frame will be drawn centered,
// but black bars won't be explicitly drawn, so whatever was on the background
// will remain visible.
//
// Nothing is drawn if no video is loaded or the sink isn't an *ebiten.Image.
//
// Common usage:
//
//	pipeline.Draw(screen, screen.Bounds(), color.White)
func (p *Pipeline) Draw(screen *ebiten.Image, dest image.Rectangle, tint color.Color) {
	if !p.loaded.Load() || dest.Empty() {
		return
	}
	frame, isImage := p.sink.(*ebiten.Image)
	if !isImage {
		return
	}

	var opts ebiten.DrawImageOptions
	opts.GeoM = CalcProjection(dest, p.sess.displayWidth, p.sess.displayHeight)
	opts.Filter = ebiten.FilterLinear
	if tint != nil {
		opts.ColorScale.ScaleWithColor(tint)
	}
	screen.DrawImage(frame, &opts)
}

// CalcProjection returns the GeoM that projects a frame of the given size
// into dest, fitting it inside and centering it. If you don't need the
// specific parameters, see [Pipeline.Draw] instead.
func CalcProjection(dest image.Rectangle, frameWidth, frameHeight int) ebiten.GeoM {
	x, y, scale := fitRect(dest, frameWidth, frameHeight)
	var geom ebiten.GeoM
	if scale != 1.0 {
		geom.Scale(scale, scale)
	}
	geom.Translate(x, y)
	return geom
}

// fitRect returns the top-left position and scale factor that fit a frame
// inside dest. When dest is relatively wider than the frame, the frame is
// fitted to the height and centered horizontally; otherwise it's fitted to
// the width and centered vertically.
func fitRect(dest image.Rectangle, frameWidth, frameHeight int) (x, y, scale float64) {
	destWidth, destHeight := float64(dest.Dx()), float64(dest.Dy())
	frWidth, frHeight := float64(frameWidth), float64(frameHeight)
	if destWidth <= 0 || destHeight <= 0 || frWidth <= 0 || frHeight <= 0 {
		return float64(dest.Min.X), float64(dest.Min.Y), 0
	}

	if destWidth/destHeight > frWidth/frHeight {
		scale = destHeight / frHeight
		x = (destWidth - frWidth*scale) / 2
	} else {
		scale = destWidth / frWidth
		y = (destHeight - frHeight*scale) / 2
	}
	return float64(dest.Min.X) + x, float64(dest.Min.Y) + y, scale
}
