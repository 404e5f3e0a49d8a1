package avestream

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeMedia is an in-memory backend. Each video frame is stored as a video
// packet followed by an audio packet, and every decoded frame is filled
// with its sequence number so the display side can tell frames apart.
type fakeMedia struct {
	width, height int
	frames        int
	frNum, frDen  int
	format        PixelFormat
	audioOnly     bool

	openErr    error
	probeErr   error
	decoderErr error
	readErr    error        // returned by every ReadPacket
	failSeqs   map[int]bool // video packets that fail to decode
	onSeek     func()       // runs inside SeekToStart, on the decoding goroutine

	opened          atomic.Int32
	closed          atomic.Int32
	decodersClosed  atomic.Int32
	seeks           atomic.Int32
	framesAllocated atomic.Int64
	framesReleased  atomic.Int64
}

func newFakeMedia(width, height, frames int) *fakeMedia {
	return &fakeMedia{
		width:  width,
		height: height,
		frames: frames,
		frNum:  30,
		frDen:  1,
		format: PixelFormatRGBA,
	}
}

func (m *fakeMedia) Open(string) (Container, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	m.opened.Add(1)
	return &fakeContainer{media: m}, nil
}

func (m *fakeMedia) liveFrames() int64 {
	return m.framesAllocated.Load() - m.framesReleased.Load()
}

type fakeContainer struct {
	media *fakeMedia
	pos   int
}

func (c *fakeContainer) Streams() ([]StreamInfo, error) {
	if c.media.probeErr != nil {
		return nil, c.media.probeErr
	}
	audio := StreamInfo{Index: 1, Kind: StreamAudio}
	if c.media.audioOnly {
		return []StreamInfo{audio}, nil
	}
	return []StreamInfo{audio, {
		Index:        0,
		Kind:         StreamVideo,
		Width:        c.media.width,
		Height:       c.media.height,
		PixelFormat:  c.media.format,
		FrameRateNum: c.media.frNum,
		FrameRateDen: c.media.frDen,
		Duration:     time.Duration(c.media.frames) * time.Second / 30,
	}}, nil
}

func (c *fakeContainer) NewDecoder(info StreamInfo) (Decoder, error) {
	if c.media.decoderErr != nil {
		return nil, c.media.decoderErr
	}
	if info.Index != 0 {
		return nil, fmt.Errorf("unexpected stream %d", info.Index)
	}
	return &fakeDecoder{media: c.media}, nil
}

func (c *fakeContainer) ReadPacket() (Packet, error) {
	if c.media.readErr != nil {
		return nil, c.media.readErr
	}
	if c.pos >= 2*c.media.frames {
		return nil, io.EOF
	}
	packet := &fakePacket{index: c.pos % 2, seq: c.pos / 2}
	c.pos++
	return packet, nil
}

func (c *fakeContainer) SeekToStart() error {
	c.media.seeks.Add(1)
	if c.media.onSeek != nil {
		c.media.onSeek()
	}
	c.pos = 0
	return nil
}

func (c *fakeContainer) Close() error {
	c.media.closed.Add(1)
	return nil
}

type fakePacket struct {
	index    int
	seq      int
	released bool
}

func (p *fakePacket) StreamIndex() int { return p.index }
func (p *fakePacket) Release()         { p.released = true }

type fakeDecoder struct {
	media   *fakeMedia
	pending *fakePacket
}

func (d *fakeDecoder) SendPacket(packet Packet) error {
	fp := packet.(*fakePacket)
	if fp.released {
		return errors.New("packet used after release")
	}
	if d.media.failSeqs[fp.seq] {
		return fmt.Errorf("corrupt packet %d", fp.seq)
	}
	d.pending = fp
	return nil
}

func (d *fakeDecoder) ReceiveFrame() (*Frame, error) {
	if d.pending == nil {
		return nil, ErrNeedMoreInput
	}
	seq := d.pending.seq
	d.pending = nil

	m := d.media
	m.framesAllocated.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	fillSeq(img.Pix, seq)
	return NewFrame(img, time.Duration(seq)*time.Second/30, func() {
		m.framesReleased.Add(1)
	}), nil
}

func (d *fakeDecoder) Flush() { d.pending = nil }

func (d *fakeDecoder) Close() error {
	d.media.decodersClosed.Add(1)
	return nil
}

// every pixel is (seq%256, seq/256, 0xAB, 0xFF)
func fillSeq(pix []byte, seq int) {
	if len(pix) < 4 {
		return
	}
	copy(pix, []byte{byte(seq % 256), byte(seq / 256), 0xAB, 0xFF})
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
}

func seqOf(pix []byte) int {
	return int(pix[0]) + int(pix[1])*256
}

// fakeSink records the frames written to it.
type fakeSink struct {
	width, height int

	mu          sync.Mutex
	writes      int
	seqs        []int // only for frame writes, the initial blank one is skipped
	lastLen     int
	deallocated int
}

func (s *fakeSink) WritePixels(pixels []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLen = len(pixels)
	if s.writes > 0 {
		s.seqs = append(s.seqs, seqOf(pixels))
	}
	s.writes++
}

func (s *fakeSink) Deallocate() {
	s.mu.Lock()
	s.deallocated++
	s.mu.Unlock()
}

func (s *fakeSink) frames() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.seqs...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testLogger forwards to the test log and keeps every line.
type testLogger struct {
	t *testing.T

	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Printf(format string, v ...any) {
	line := fmt.Sprintf(format, v...)
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
	l.t.Log(line)
}

func (l *testLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

type harness struct {
	pipeline *Pipeline
	media    *fakeMedia
	clock    *fakeClock
	logs     *testLogger
	sinks    []*fakeSink
	path     string
}

func (h *harness) sink() *fakeSink { return h.sinks[len(h.sinks)-1] }

func newHarness(t *testing.T, media *fakeMedia, queueCapacity int) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := &harness{media: media, clock: newFakeClock(), logs: &testLogger{t: t}, path: path}
	h.pipeline = NewPipeline(&Options{
		Backend: media,
		NewSink: func(width, height int) DisplaySink {
			sink := &fakeSink{width: width, height: height}
			h.sinks = append(h.sinks, sink)
			return sink
		},
		QueueCapacity: queueCapacity,
		Now:           h.clock.Now,
		Logger:        h.logs,
	})
	t.Cleanup(h.pipeline.Unload)
	return h
}
