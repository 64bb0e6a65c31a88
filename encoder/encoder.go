// Package encoder compresses captured PCM before it is shipped to the
// speech recognition backend. FLAC is lossless, so recognition accuracy
// is unaffected, and it roughly halves upload size versus raw PCM.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// PCMToSamples converts little-endian 16-bit PCM bytes to samples.
// A trailing odd byte is dropped.
func PCMToSamples(pcm []byte) []int16 {
	n := len(pcm) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
	}
	return out
}
