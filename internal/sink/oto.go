//go:build !headless

// oto.go - live playback via ebitengine/oto, adapted from the teacher's
// atomic-pointer OtoPlayer: the hot Read() path loads the current Source
// lock-free, while Start/Stop/Close take the mutex for setup/teardown.

package sink

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer streams a Source's 16-bit stereo PCM out through the system's
// default audio device.
type OtoPlayer struct {
	ctx    *oto.Context
	player *oto.Player
	src    atomic.Pointer[Source]

	pcmBuf []int16

	started bool
	mutex   sync.Mutex
}

// NewOtoPlayer opens a stereo 16-bit-equivalent oto context at sampleRate.
// oto itself only speaks float32, so Read converts on the fly.
func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoPlayer{ctx: ctx}, nil
}

// SetupPlayer attaches the Source to pull samples from and creates the
// underlying oto.Player.
func (op *OtoPlayer) SetupPlayer(src Source) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.src.Store(&src)
	op.player = op.ctx.NewPlayer(op)
}

// Read implements io.Reader for oto.Player: it pulls 16-bit stereo frames
// from the current Source and converts them to float32LE in p.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	srcPtr := op.src.Load()
	if srcPtr == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	src := *srcPtr

	numFrames := len(p) / 8 // 2 channels * 4 bytes/float32
	if numFrames == 0 {
		return 0, nil
	}
	if cap(op.pcmBuf) < numFrames*2 {
		op.pcmBuf = make([]int16, numFrames*2)
	}
	pcm := op.pcmBuf[:numFrames*2]
	src.FillStereo16(pcm)

	for i, s := range pcm {
		f := float32(s) / 32768
		off := i * 4
		putFloat32LE(p[off:off+4], f)
	}
	return numFrames * 8, nil
}

func putFloat32LE(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}

// Start begins playback; a no-op if already started or not yet set up.
func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

// Stop pauses playback without releasing the underlying player.
func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
}

// Close stops playback and releases the player.
func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
}
