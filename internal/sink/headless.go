//go:build headless

// headless.go - a no-device stand-in for OtoPlayer, used in CI and other
// environments without an audio backend. It still drives the Source so
// timing-sensitive state (the looper, mix-modulation) advances normally.

package sink

type OtoPlayer struct {
	src     Source
	buf     []int16
	started bool
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{buf: make([]int16, 4096)}, nil
}

func (op *OtoPlayer) SetupPlayer(src Source) { op.src = src }

func (op *OtoPlayer) Start() {
	op.started = true
	if op.src != nil {
		op.src.FillStereo16(op.buf)
	}
}

func (op *OtoPlayer) Stop()  { op.started = false }
func (op *OtoPlayer) Close() { op.started = false }
