// Package sink adapts internal/core's pull-based Engine to a concrete
// output: live audio playback via oto, or a WAV file for offline
// rendering. Neither core nor this package ever branches on the other;
// Source is the only thing they share.
package sink

// Source is the pull interface a sink reads from: FillStereo16 fills dst
// with interleaved stereo frames and reports whether the sequence has
// ended. internal/core.Engine implements this directly.
type Source interface {
	FillStereo16(dst []int16) (done bool)
}
