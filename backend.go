package avestream

import "time"

// StreamKind classifies the substreams of a container.
type StreamKind uint8

const (
	StreamOther StreamKind = iota
	StreamVideo
	StreamAudio
)

// StreamInfo describes one substream of an opened container.
type StreamInfo struct {
	Index  int
	Kind   StreamKind
	Width  int // video only
	Height int // video only

	// PixelFormat is the format of the frames the backend's decoder
	// produces for this stream, which may differ from the coded format
	// if the backend converts internally.
	PixelFormat PixelFormat

	// Average frame rate as a rational. Either part may be zero when the
	// container doesn't declare it.
	FrameRateNum int
	FrameRateDen int

	Duration time.Duration // zero if unknown
}

// A Backend opens media containers. It's the demux/decode primitive the
// pipeline is built on; [ReisenBackend] is the default one.
type Backend interface {
	Open(path string) (Container, error)
}

// BackendFunc adapts a plain function to the [Backend] interface.
type BackendFunc func(path string) (Container, error)

func (fn BackendFunc) Open(path string) (Container, error) { return fn(path) }

// A Container is an opened media file.
//
// After [Pipeline.Load] returns, containers and their decoders are only ever
// used from a single goroutine, so implementations don't need to be safe for
// concurrent use.
type Container interface {
	// Returns the container substreams.
	Streams() ([]StreamInfo, error)

	// Configures and opens a decoder for the given substream. Backends should
	// wrap [ErrUnsupportedCodec] when no decoder matches the stream.
	NewDecoder(stream StreamInfo) (Decoder, error)

	// Reads the next packet. Returns io.EOF at the end of the stream.
	ReadPacket() (Packet, error)

	// Moves the read position back to the start of the stream.
	SeekToStart() error

	Close() error
}

// A Packet is a chunk of compressed data belonging to one substream.
type Packet interface {
	StreamIndex() int

	// Frees the packet buffer. The packet can't be used afterwards.
	Release()
}

// A Decoder turns packets of one substream into frames, following the
// usual send/receive model: after each [Decoder.SendPacket], frames are
// received until [ErrNeedMoreInput] or io.EOF is returned.
type Decoder interface {
	SendPacket(Packet) error
	ReceiveFrame() (*Frame, error)

	// Discards any internally buffered data, typically after a seek.
	Flush()

	Close() error
}
