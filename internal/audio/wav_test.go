package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float32
		sampleRate int
	}{
		{"single sample", []float32{0.5}, 22050},
		{"odd count", []float32{0.1, -0.2, 0.3}, 24000},
		{"silence", make([]float32, 480), 48000},
		{"full scale", []float32{1.0, -1.0, 0.0}, 16000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeWAV(&buf, tt.samples, tt.sampleRate))

			decoded, rate, err := DecodeWAV(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.sampleRate, rate)
			assert.Equal(t, tt.samples, decoded)
		})
	}
}

func TestEncodeWAVRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer

	err := EncodeWAV(&buf, nil, 22050)
	assert.ErrorIs(t, err, ErrNoSamples)

	err = EncodeWAV(&buf, []float32{0.1}, 0)
	assert.ErrorIs(t, err, ErrBadSampleRate)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, err := DecodeWAV(bytes.NewReader([]byte("definitely not audio")))
	assert.ErrorIs(t, err, ErrNotWAV)

	_, _, err = DecodeWAV(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestDecodeWAVInt16PCM(t *testing.T) {
	// Engines that emit classic 16-bit PCM must still decode.
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeUint32(&buf, 36+4)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 1) // PCM
	writeUint16(&buf, 1) // mono
	writeUint32(&buf, 8000)
	writeUint32(&buf, 16000)
	writeUint16(&buf, 2)
	writeUint16(&buf, 16)
	buf.WriteString("data")
	writeUint32(&buf, 4)

	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(16384)) // 0.5
	buf.Write(b[:])
	binary.LittleEndian.PutUint16(b[:], uint16(0xC000)) // -16384 = -0.5
	buf.Write(b[:])

	samples, rate, err := DecodeWAV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.5, samples[0], 0.001)
	assert.InDelta(t, -0.5, samples[1], 0.001)
}

func TestDecodeWAVStereoTakesFirstChannel(t *testing.T) {
	// Build a two-channel float stream by hand: L=0.25, R=0.75 per frame.
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeUint32(&buf, 36+16)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 3) // IEEE float
	writeUint16(&buf, 2) // stereo
	writeUint32(&buf, 44100)
	writeUint32(&buf, 44100*8)
	writeUint16(&buf, 8)
	writeUint16(&buf, 32)
	buf.WriteString("data")
	writeUint32(&buf, 16)
	for range 2 {
		writeFloat32(&buf, 0.25)
		writeFloat32(&buf, 0.75)
	}

	samples, rate, err := DecodeWAV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	assert.Equal(t, []float32{0.25, 0.25}, samples)
}

func writeFloat32(buf *bytes.Buffer, v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	buf.Write(b[:])
}
