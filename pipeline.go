package avestream

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erparts/go-avestream/internal/framequeue"
)

// A [Pipeline] plays one video stream at a time into a [DisplaySink].
//
// Decoding happens on a background goroutine started by [Pipeline.Load],
// which keeps up to [Options.QueueCapacity] frames buffered ahead. The render
// loop calls [Pipeline.Update] once per tick to display the next frame when
// it's due, and [Pipeline.Draw] to present it.
//
// Usage:
//   - Create a [NewPipeline]() and [Pipeline.Load]() a video.
//   - Call [Pipeline.Play]() to start the video.
//   - Call [Pipeline.Update]() on every tick and [Pipeline.Draw]() on every frame.
//   - Use [Pipeline.Pause]() and [Pipeline.Stop]() to control the video.
//   - [Pipeline.Unload]() when done.
//
// All methods except [Pipeline.IsLoaded], [Pipeline.State] and
// [Pipeline.Stats] must be called from the same goroutine, typically the
// one running the game loop. When the stream ends, playback loops back to
// the start.
type Pipeline struct {
	opts Options

	// owned by the render goroutine
	sess     *session
	sink     DisplaySink
	scratch  []byte
	accum    time.Duration // elapsed time not yet consumed by displayed frames
	lastTick time.Time
	wg       sync.WaitGroup

	// the queue is swapped on load, the pointer is atomic only so Stats
	// can be read from other goroutines
	queue  atomic.Pointer[framequeue.Queue[*Frame]]
	loaded atomic.Bool

	// shared with the decoding goroutine, guarded by stateMu. The atomics
	// are only written with stateMu held, but Update reads them without
	// locking so the render loop never waits on the decoder
	stateMu       sync.Mutex
	stateCond     *sync.Cond
	playing       atomic.Bool
	flushPending  atomic.Bool // the pending seek also discards queued frames
	seekRequested bool
	stopDecoder   bool
	atStart       bool
	stalled       bool // the stream yields no packets, even after rewinding

	stats pipelineStats
}

// Creates a new, unloaded [Pipeline]. A nil opts is the same as the zero
// [Options].
func NewPipeline(opts *Options) *Pipeline {
	p := &Pipeline{opts: opts.withDefaults()}
	p.stateCond = sync.NewCond(&p.stateMu)
	return p
}

func (p *Pipeline) logger() Logger {
	if p.opts.Logger != nil {
		return p.opts.Logger
	}
	return pkgLogger
}

// --- lifecycle ---

// Load opens the given video and starts decoding it in the background,
// paused at the start. If a video is already loaded, Load does nothing and
// returns nil.
//
// If the file doesn't exist, [ErrNotFound] is returned. Other failures
// return one of the other package errors, wrapping the underlying cause.
// Whatever the failure, the pipeline is left unloaded with every resource
// released.
func (p *Pipeline) Load(videoFilename string) error {
	if p.loaded.Load() {
		p.logger().Printf("WARNING: a video is already loaded; call Unload() first")
		return nil
	}

	if _, err := os.Stat(videoFilename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger().Printf("no video file found at '%s'", videoFilename)
			return fmt.Errorf("%w: %s", ErrNotFound, videoFilename)
		}
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}

	sess, err := openSession(videoFilename, &p.opts, p.logger())
	if err != nil {
		p.logger().Printf("ERROR: loading '%s': %v", filepath.Base(videoFilename), err)
		return err
	}

	// blank initial contents, reusing the buffer later for conversions
	p.scratch = make([]byte, sess.conv.bufferSize())
	p.sink = p.opts.NewSink(sess.displayWidth, sess.displayHeight)
	p.sink.WritePixels(p.scratch)

	queue := framequeue.New[*Frame](p.opts.QueueCapacity)
	p.sess = sess
	p.queue.Store(queue)
	p.accum = 0
	p.lastTick = time.Time{}

	p.stateMu.Lock()
	p.playing.Store(false)
	p.flushPending.Store(false)
	p.seekRequested = false
	p.stopDecoder = false
	p.atStart = true
	p.stalled = false
	p.stateMu.Unlock()

	p.loaded.Store(true)
	p.wg.Add(1)
	go p.decodeLoop(sess, queue)

	p.logger().Printf("stream '%s' loaded (%dx%d @ %.2f fps), displayed at %dx%d",
		filepath.Base(videoFilename), sess.width, sess.height, sess.fps,
		sess.displayWidth, sess.displayHeight)
	return nil
}

// Unload stops the decoding goroutine, waits for it to exit and releases
// every resource associated with the current video. It does nothing if
// nothing is loaded, so it's safe to call multiple times.
func (p *Pipeline) Unload() {
	if !p.loaded.Load() {
		return
	}

	queue := p.queue.Load()
	p.stateMu.Lock()
	p.playing.Store(false)
	p.stopDecoder = true
	p.stateCond.Broadcast()
	p.stateMu.Unlock()
	queue.Close()
	p.wg.Wait()

	// the decoding goroutine is gone, native handles are ours again
	p.sess.close()
	queue.Drain()
	p.sink.Deallocate()

	p.sess = nil
	p.sink = nil
	p.scratch = nil
	p.accum = 0
	p.lastTick = time.Time{}
	p.queue.Store(nil)

	p.stateMu.Lock()
	p.flushPending.Store(false)
	p.seekRequested = false
	p.stopDecoder = false
	p.atStart = false
	p.stalled = false
	p.stateMu.Unlock()
	p.loaded.Store(false)
}

// Close is the same as [Pipeline.Unload]. The pipeline can still be used
// to load other videos afterwards.
func (p *Pipeline) Close() error {
	p.Unload()
	return nil
}

// Returns whether a video is currently loaded.
func (p *Pipeline) IsLoaded() bool { return p.loaded.Load() }

// --- playback controls ---

// Play starts or resumes the video. If the video is already playing, it
// just keeps playing and nothing new happens, except that a decoder stalled
// on an unreadable stream retries. A rewind requested through
// [Pipeline.Stop] is still honored before new frames are decoded.
func (p *Pipeline) Play() {
	if !p.loaded.Load() {
		return
	}
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.stalled {
		p.stalled = false
		p.stateCond.Broadcast()
	}
	if p.playing.Load() {
		return
	}
	p.lastTick = p.opts.Now()
	p.atStart = false
	p.playing.Store(true)
	p.stateCond.Broadcast()
}

// Resume is an alias of [Pipeline.Play].
func (p *Pipeline) Resume() { p.Play() }

// Pause freezes the video on the current frame. Decoding also pauses, so
// the frame buffer neither grows nor shrinks while paused.
func (p *Pipeline) Pause() {
	if !p.loaded.Load() {
		return
	}
	p.stateMu.Lock()
	p.playing.Store(false)
	p.stateMu.Unlock()
}

// Stop pauses the video and requests a rewind to the start. The rewind
// itself is performed by the decoding goroutine, which also discards every
// buffered frame. No frame is displayed until that happens, even if
// [Pipeline.Play] is called right away; the current one stays on display.
func (p *Pipeline) Stop() {
	if !p.loaded.Load() {
		return
	}
	p.stateMu.Lock()
	p.playing.Store(false)
	p.seekRequested = true
	p.flushPending.Store(true)
	p.stalled = false
	p.stateCond.Broadcast()
	p.stateMu.Unlock()

	// the decoder might be blocked on a full queue that nobody pops while
	// paused, so it needs a nudge to get to the seek
	p.queue.Load().Interrupt()
	p.accum = 0
}

// Returns the current playback state.
func (p *Pipeline) State() PlaybackState {
	if !p.loaded.Load() {
		return Unloaded
	}
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	switch {
	case p.stopDecoder:
		return Stopping
	case p.seekRequested:
		return Seeking
	case p.playing.Load():
		return Playing
	case p.atStart:
		return Idle
	default:
		return Paused
	}
}

// --- frames and resolution ---

// Update advances the frame pacing by the time elapsed since the previous
// call and, once a frame period has accumulated, displays the next decoded
// frame. At most one frame is displayed per call, and nothing happens if
// the decoder hasn't produced it yet. Call it once per tick.
func (p *Pipeline) Update() {
	if !p.loaded.Load() || !p.playing.Load() {
		return
	}

	now := p.opts.Now()
	elapsed := now.Sub(p.lastTick)
	if elapsed < 0 {
		p.logger().Printf("WARNING: time inconsistency, previous tick after current time")
		elapsed = 0
	}
	p.lastTick = now
	if p.flushPending.Load() {
		// whatever is queued is about to be discarded
		return
	}
	p.accum += elapsed
	if p.accum < p.sess.framePeriod {
		return
	}
	// keep the remainder so pacing doesn't drift
	p.accum -= p.sess.framePeriod

	frame, ok := p.queue.Load().TryPop()
	if !ok {
		return
	}
	defer frame.Release()

	if err := p.sess.conv.Convert(frame, p.scratch); err != nil {
		p.logger().Printf("ERROR: converting frame: %v", err)
		return
	}
	p.sink.WritePixels(p.scratch)
	p.stats.framesPresented.Add(1)
}

// Returns the display width and height of the loaded video, which may be
// smaller than its native resolution. Returns zeros if nothing is loaded.
func (p *Pipeline) Resolution() (int, int) {
	if p.sess == nil {
		return 0, 0
	}
	return p.sess.displayWidth, p.sess.displayHeight
}

// Returns the width and height the loaded video was encoded at.
func (p *Pipeline) NativeResolution() (int, int) {
	if p.sess == nil {
		return 0, 0
	}
	return p.sess.width, p.sess.height
}

// Returns the nominal frame rate the loaded video is paced at.
func (p *Pipeline) FPS() float64 {
	if p.sess == nil {
		return 0
	}
	return p.sess.fps
}

// Returns the display image the pipeline writes frames into, or nil if
// nothing is loaded. The image is reused for every frame.
func (p *Pipeline) Sink() DisplaySink { return p.sink }
