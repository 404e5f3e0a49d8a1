package avestream

// Pipeline playback state, see [Pipeline.State].
type PlaybackState uint8

// Returns a string representation of the playback state
// ("Unloaded", "Idle", "Playing", "Paused", "Seeking", "Stopping", "Unknown").
func (s PlaybackState) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Idle:
		return "Idle"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Seeking:
		return "Seeking"
	case Stopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

const (
	Unloaded PlaybackState = iota
	Idle                   // loaded and at the start, not playing
	Playing
	Paused
	Seeking  // a rewind is pending on the decoding goroutine
	Stopping // the decoding goroutine is being shut down
)
