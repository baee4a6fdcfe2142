// wav.go - RIFF/WAVE export for offline rendering, per spec §6's "16-bit
// LE stereo PCM, optional WAV wrapper" output description.

package sink

import (
	"encoding/binary"
	"io"
)

// WavWriter wraps an io.WriteSeeker with a RIFF/WAVE header that is
// patched with the final data size on Close. Used only by cmd/sbagenx;
// internal/core never writes files directly.
type WavWriter struct {
	w             io.WriteSeeker
	sampleRate    int
	bitsPerSample int
	channels      int
	dataBytes     int64
}

// NewWavWriter writes a placeholder 44-byte header and returns a writer
// ready to accept PCM frames via Write.
func NewWavWriter(w io.WriteSeeker, sampleRate, bitsPerSample, channels int) (*WavWriter, error) {
	ww := &WavWriter{w: w, sampleRate: sampleRate, bitsPerSample: bitsPerSample, channels: channels}
	if err := ww.writeHeader(0); err != nil {
		return nil, err
	}
	return ww, nil
}

func (ww *WavWriter) writeHeader(dataBytes int64) error {
	if _, err := ww.w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	blockAlign := ww.channels * ww.bitsPerSample / 8
	byteRate := ww.sampleRate * blockAlign

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataBytes))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(ww.channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(ww.sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(ww.bitsPerSample))
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataBytes))

	_, err := ww.w.Write(hdr[:])
	return err
}

// WriteFrames appends interleaved 16-bit stereo PCM.
func (ww *WavWriter) WriteFrames(pcm []int16) error {
	buf := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(s))
	}
	if _, err := ww.w.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	n, err := ww.w.Write(buf)
	ww.dataBytes += int64(n)
	return err
}

// Close patches the header with the final data size. It does not close
// the underlying writer.
func (ww *WavWriter) Close() error {
	return ww.writeHeader(ww.dataBytes)
}
