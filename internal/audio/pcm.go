package audio

import (
	"encoding/binary"
	"time"
)

// Resample converts mono 16-bit little-endian PCM from one sample rate to
// another by linear interpolation. Matching rates return pcm unchanged.
func Resample(pcm []byte, from, to int) []byte {
	if from <= 0 || to <= 0 || from == to {
		return pcm
	}

	in := len(pcm) / 2
	if in == 0 {
		return nil
	}
	out := int(int64(in) * int64(to) / int64(from))
	if out == 0 {
		return nil
	}

	sample := func(i int) float64 {
		return float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	res := make([]byte, out*2)
	step := float64(from) / float64(to)
	for i := 0; i < out; i++ {
		pos := float64(i) * step
		j := int(pos)
		frac := pos - float64(j)

		v := sample(j)
		if j+1 < in {
			v += (sample(j+1) - v) * frac
		}
		binary.LittleEndian.PutUint16(res[i*2:], uint16(int16(v)))
	}
	return res
}

// Duration returns how long mono 16-bit PCM lasts at sampleRate.
func Duration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
