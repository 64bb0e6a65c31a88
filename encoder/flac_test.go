package encoder

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func genTonePCM(freq float64, durationMs int) []byte {
	n := SampleRate * durationMs / 1000
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		sample := int16(12000 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	return buf
}

func TestPCMToSamples(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80, 0x99}
	got := PCMToSamples(pcm)
	want := []int16{1, -1, -32768}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEncodePCMProducesFlacStream(t *testing.T) {
	pcm := genTonePCM(440, 500)
	out, err := EncodePCM(pcm)
	if err != nil {
		t.Fatalf("EncodePCM: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("fLaC")) {
		t.Errorf("output missing fLaC magic, got % x", out[:8])
	}
	if len(out) >= len(pcm) {
		t.Errorf("flac (%d bytes) not smaller than pcm (%d bytes)", len(out), len(pcm))
	}
}

func TestEncodePCMEmpty(t *testing.T) {
	out, err := EncodePCM(nil)
	if err != nil {
		t.Fatalf("EncodePCM(nil): %v", err)
	}
	if !bytes.HasPrefix(out, []byte("fLaC")) {
		t.Errorf("empty stream still needs a header, got % x", out)
	}
}

func TestEncoderTracksFrames(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatal(err)
	}
	block := make([]int16, BlockSize)
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeBlock(block[:100]); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if got := enc.TotalFrames(); got != BlockSize+100 {
		t.Errorf("TotalFrames = %d, want %d", got, BlockSize+100)
	}
}
