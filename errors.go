package avestream

import "errors"

// Errors returned by [Pipeline.Load]. Backend failures are wrapped, so both
// the category and the underlying cause can be matched with errors.Is.
var (
	ErrNotFound         = errors.New("video file not found")
	ErrOpen             = errors.New("couldn't open video container")
	ErrProbe            = errors.New("couldn't probe stream information")
	ErrNoVideoStream    = errors.New("container doesn't include any video stream")
	ErrUnsupportedCodec = errors.New("unsupported video codec")
	ErrDecoderInit      = errors.New("couldn't initialize video decoder")
	ErrConversion       = errors.New("couldn't initialize pixel conversion")
)

// ErrNeedMoreInput is returned by [Decoder.ReceiveFrame] when the decoder
// has no frame ready and must be sent another packet first.
var ErrNeedMoreInput = errors.New("decoder needs more input")
