package avestream

import (
	"errors"
	"io"

	"github.com/erparts/go-avestream/internal/framequeue"
)

// decodeLoop runs on its own goroutine for as long as a video is loaded.
// It's the only code touching the container and the decoder between Load
// and Unload.
//
// Each iteration performs any pending rewind, waits while paused, waits for
// room in the queue and then decodes one packet, pushing every frame it
// yields. Running out of packets requests a rewind, so playback loops. If a
// whole pass after a rewind decodes nothing, the loop parks until the next
// Play or Stop instead of rewinding over and over.
func (p *Pipeline) decodeLoop(s *session, queue *framequeue.Queue[*Frame]) {
	defer p.wg.Done()
	// failed reads since the last one that followed a decoded frame. A pass
	// over the stream decoding nothing isn't progress, it would just spin.
	failedReads := 0
	lastDecoded := p.stats.framesDecoded.Load()
	for {
		if !p.awaitPlaying(s, queue) {
			return
		}

		// backpressure point: nothing is read while the queue is full
		if err := queue.WaitNotFull(); err != nil {
			if errors.Is(err, framequeue.ErrClosed) {
				return
			}
			continue // interrupted, go handle the seek
		}

		packet, err := s.container.ReadPacket()
		if err != nil {
			if decoded := p.stats.framesDecoded.Load(); decoded != lastDecoded {
				lastDecoded = decoded
				failedReads = 0
			}
			failedReads++
			if failedReads == 1 && !errors.Is(err, io.EOF) {
				p.logger().Printf("ERROR: reading packet from '%s': %v; rewinding", s.path, err)
			}
			p.requestLoop()
			if failedReads == 2 {
				// rewinding didn't help, there's nothing to loop over
				p.logger().Printf("WARNING: nothing decoded from '%s' since rewinding; decoding stalled until Play() or Stop()", s.path)
			}
			if failedReads >= 2 {
				p.stall()
			}
			continue
		}

		err = p.decodePacket(s, queue, packet)
		packet.Release()
		if errors.Is(err, framequeue.ErrClosed) {
			return
		}
	}
}

// awaitPlaying handles any pending seek and blocks until the pipeline is
// playing. It returns false if the loop must exit instead.
func (p *Pipeline) awaitPlaying(s *session, queue *framequeue.Queue[*Frame]) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	for {
		if p.stopDecoder {
			return false
		}
		if p.seekRequested {
			p.rewindLocked(s, queue)
			continue // the lock was released, recheck everything
		}
		if p.playing.Load() && !p.stalled {
			return true
		}
		p.stateCond.Wait()
	}
}

// must be called with stateMu held. The lock is released during the native
// seek so State and Stats don't wait on it, and re-taken before the drain.
// The drain completes before the flush flag is cleared, so frames from
// before a Stop are never popped after it. End-of-stream rewinds keep the
// queue: it only holds the tail of the video, which still has to be
// displayed before looping.
func (p *Pipeline) rewindLocked(s *session, queue *framequeue.Queue[*Frame]) {
	p.stateMu.Unlock()
	if err := s.container.SeekToStart(); err != nil {
		p.logger().Printf("ERROR: rewinding '%s': %v", s.path, err)
	}
	s.decoder.Flush()
	p.stateMu.Lock()

	// nothing is pushed while seeking, so a Stop arriving meanwhile is
	// served by this same rewind
	if p.flushPending.Load() {
		queue.Drain()
		p.flushPending.Store(false)
	}
	p.seekRequested = false
	if !p.playing.Load() {
		p.atStart = true
	}
	p.stats.seeks.Add(1)
	p.stateCond.Broadcast()
}

func (p *Pipeline) requestLoop() {
	p.stateMu.Lock()
	p.seekRequested = true
	p.stateMu.Unlock()
	p.stats.loops.Add(1)
}

// parks the decoder until the next Play or Stop
func (p *Pipeline) stall() {
	p.stateMu.Lock()
	p.stalled = true
	p.stateMu.Unlock()
}

func (p *Pipeline) seekPending() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.seekRequested || p.stopDecoder
}

// decodePacket sends a packet of the selected stream to the decoder and
// pushes every frame it has ready. Decoding errors only affect the packet
// at hand: they are logged and nil is returned. A non-nil error means the
// frames couldn't be queued.
func (p *Pipeline) decodePacket(s *session, queue *framequeue.Queue[*Frame], packet Packet) error {
	if packet.StreamIndex() != s.stream.Index {
		return nil
	}

	if err := s.decoder.SendPacket(packet); err != nil {
		p.stats.decodeErrors.Add(1)
		p.logger().Printf("ERROR: decoding packet: %v", err)
		return nil
	}

	for {
		frame, err := s.decoder.ReceiveFrame()
		if errors.Is(err, ErrNeedMoreInput) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			p.stats.decodeErrors.Add(1)
			p.logger().Printf("ERROR: decoding frame: %v", err)
			return nil
		}
		p.stats.framesDecoded.Add(1)

		if err := p.pushFrame(queue, frame); err != nil {
			frame.Release()
			return err
		}
	}
}

// pushes the frame, retrying if an interrupt turns out to be stale
func (p *Pipeline) pushFrame(queue *framequeue.Queue[*Frame], frame *Frame) error {
	for {
		err := queue.Push(frame)
		if !errors.Is(err, framequeue.ErrInterrupted) || p.seekPending() {
			return err
		}
	}
}
