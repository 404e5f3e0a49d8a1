package avestream

import "sync/atomic"

// Stats is a snapshot of a [Pipeline]'s counters. Counters accumulate over
// the lifetime of the pipeline, across loads.
type Stats struct {
	FramesDecoded   uint64 // frames pushed by the decoder
	FramesPresented uint64 // frames written to the display sink
	DecodeErrors    uint64 // packets or frames that failed to decode
	Seeks           uint64 // rewinds performed, including loops
	Loops           uint64 // times the end of the stream was reached

	QueueLength   int
	QueueCapacity int
	State         PlaybackState
}

type pipelineStats struct {
	framesDecoded   atomic.Uint64
	framesPresented atomic.Uint64
	decodeErrors    atomic.Uint64
	seeks           atomic.Uint64
	loops           atomic.Uint64
}

// Returns a snapshot of the pipeline counters. Unlike most methods, it's
// safe to call from any goroutine.
func (p *Pipeline) Stats() Stats {
	stats := Stats{
		FramesDecoded:   p.stats.framesDecoded.Load(),
		FramesPresented: p.stats.framesPresented.Load(),
		DecodeErrors:    p.stats.decodeErrors.Load(),
		Seeks:           p.stats.seeks.Load(),
		Loops:           p.stats.loops.Load(),
		QueueCapacity:   p.opts.QueueCapacity,
		State:           p.State(),
	}
	if queue := p.queue.Load(); queue != nil {
		stats.QueueLength = queue.Len()
	}
	return stats
}
