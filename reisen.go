package avestream

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"time"

	"github.com/erparts/reisen"
)

// ReisenBackend is the default [Backend], decoding through FFmpeg with
// [erparts/reisen].
//
// reisen converts frames to RGBA at the native resolution while decoding,
// so the video streams it reports always use [PixelFormatRGBA].
//
// [erparts/reisen]: https://github.com/erparts/reisen
var ReisenBackend Backend = BackendFunc(openReisen)

var _ Container = (*reisenContainer)(nil)
var _ Decoder = (*reisenDecoder)(nil)

type reisenContainer struct {
	path   string
	media  *reisen.Media
	active *reisen.VideoStream // the stream with an open decoder, if any
}

func openReisen(path string) (Container, error) {
	media, err := reisen.NewMedia(path)
	if err != nil {
		return nil, err
	}
	return &reisenContainer{path: path, media: media}, nil
}

func (c *reisenContainer) Streams() ([]StreamInfo, error) {
	videoStreams := c.media.VideoStreams()
	if len(videoStreams) > 1 {
		pkgLogger.Printf("WARNING: '%s' has multiple video streams; defaulting to the first", filepath.Base(c.path))
	}

	infos := make([]StreamInfo, 0, len(videoStreams))
	for _, stream := range videoStreams {
		frNum, frDenom := stream.FrameRate()
		duration := knownDuration(stream.Duration())
		infos = append(infos, StreamInfo{
			Index:        stream.Index(),
			Kind:         StreamVideo,
			Width:        stream.Width(),
			Height:       stream.Height(),
			PixelFormat:  PixelFormatRGBA,
			FrameRateNum: frNum,
			FrameRateDen: frDenom,
			Duration:     duration,
		})
	}
	for _, stream := range c.media.AudioStreams() {
		infos = append(infos, StreamInfo{Index: stream.Index(), Kind: StreamAudio})
	}
	return infos, nil
}

func (c *reisenContainer) NewDecoder(info StreamInfo) (Decoder, error) {
	if c.active != nil {
		return nil, errors.New("a decoder is already open for this container")
	}

	var stream *reisen.VideoStream
	for _, candidate := range c.media.VideoStreams() {
		if candidate.Index() == info.Index {
			stream = candidate
			break
		}
	}
	if stream == nil {
		return nil, fmt.Errorf("no video stream with index %d", info.Index)
	}

	// reisen looks up the codec while opening the stream, so an unknown
	// codec surfaces here as a generic open error
	if err := c.media.OpenDecode(); err != nil {
		return nil, err
	}
	if err := stream.Open(); err != nil {
		_ = c.media.CloseDecode()
		return nil, err
	}
	c.active = stream
	return &reisenDecoder{container: c, stream: stream}, nil
}

func (c *reisenContainer) ReadPacket() (Packet, error) {
	packet, packetFound, err := c.media.ReadPacket()
	if err != nil {
		return nil, err
	}
	if !packetFound {
		return nil, io.EOF
	}
	return reisenPacket{index: packet.StreamIndex(), video: packet.Type() == reisen.StreamVideo}, nil
}

func (c *reisenContainer) SeekToStart() error {
	if c.active == nil {
		return nil
	}
	return c.active.Rewind(0)
}

func (c *reisenContainer) Close() error {
	c.media.Close()
	return nil
}

// reisen keeps the last read packet inside the media, so there's no buffer
// to hand around or free here
type reisenPacket struct {
	index int
	video bool
}

func (p reisenPacket) StreamIndex() int {
	if !p.video {
		return -1
	}
	return p.index
}

func (reisenPacket) Release() {}

type reisenDecoder struct {
	container *reisenContainer
	stream    *reisen.VideoStream
	pending   bool
}

func (d *reisenDecoder) SendPacket(Packet) error {
	d.pending = true
	return nil
}

func (d *reisenDecoder) ReceiveFrame() (*Frame, error) {
	if !d.pending {
		return nil, ErrNeedMoreInput
	}
	d.pending = false

	frame, frameFound, err := d.stream.ReadVideoFrame()
	if err != nil {
		return nil, err
	}
	_ = frameFound // frameFound can be true while frame is nil: that's a frame skip
	if frame == nil {
		return nil, ErrNeedMoreInput
	}

	presOffset, err := frame.PresentationOffset()
	if err != nil {
		presOffset = 0
	}
	width, height := d.stream.Width(), d.stream.Height()
	img := &image.RGBA{
		Pix:    frame.Data(),
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
	return NewFrame(img, presOffset, nil), nil
}

// Flush is a no-op: reisen doesn't expose the codec buffers, seeking
// through Rewind is all it offers.
func (d *reisenDecoder) Flush() {}

func (d *reisenDecoder) Close() error {
	d.container.active = nil
	err := d.stream.Close()
	if closeErr := d.container.media.CloseDecode(); err == nil {
		err = closeErr
	}
	return err
}

// ProbeVideo opens the given file and returns information about its first
// video stream, without loading it for playback. If the file has no video,
// [ErrNoVideoStream] will be returned.
func ProbeVideo(videoFilename string) (StreamInfo, error) {
	container, err := ReisenBackend.Open(videoFilename)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer container.Close()

	streams, err := container.Streams()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	info, ok := firstVideoStream(streams)
	if !ok {
		return StreamInfo{}, ErrNoVideoStream
	}
	return info, nil
}

// Durations are only informative, so a stream without one still plays and
// reports zero.
func knownDuration(duration time.Duration, err error) time.Duration {
	if err != nil {
		pkgLogger.Printf("WARNING: unknown stream duration: %v", err)
		return 0
	}
	return duration
}

func firstVideoStream(streams []StreamInfo) (StreamInfo, bool) {
	for _, stream := range streams {
		if stream.Kind == StreamVideo {
			return stream, true
		}
	}
	return StreamInfo{}, false
}
