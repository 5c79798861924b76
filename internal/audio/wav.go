// Package audio handles the WAV container used for generated speech and
// local playback of the result.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	riffHeaderSize = 44
	fmtChunkSize   = 16

	formatPCM       = 1
	formatIEEEFloat = 3

	bytesPerFloat32 = 4
	bytesPerInt16   = 2
)

var (
	ErrNoSamples      = errors.New("no samples to encode")
	ErrBadSampleRate  = errors.New("sample rate must be positive")
	ErrNotWAV         = errors.New("not a RIFF/WAVE stream")
	ErrNoDataChunk    = errors.New("missing data chunk")
	ErrUnsupportedFmt = errors.New("unsupported WAV sample format")
)

// EncodeWAV writes samples as a mono IEEE-float WAV stream at the given rate.
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}
	if sampleRate <= 0 {
		return ErrBadSampleRate
	}

	dataSize := len(samples) * bytesPerFloat32
	byteRate := sampleRate * bytesPerFloat32

	var buf bytes.Buffer
	buf.Grow(riffHeaderSize + dataSize)

	buf.WriteString("RIFF")
	writeUint32(&buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(&buf, fmtChunkSize)
	writeUint16(&buf, formatIEEEFloat)
	writeUint16(&buf, 1) // mono
	writeUint32(&buf, uint32(sampleRate))
	writeUint32(&buf, uint32(byteRate))
	writeUint16(&buf, bytesPerFloat32) // block align
	writeUint16(&buf, 32)              // bits per sample

	buf.WriteString("data")
	writeUint32(&buf, uint32(dataSize))

	for _, sample := range samples {
		writeUint32(&buf, math.Float32bits(sample))
	}

	_, err := w.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}

	return nil
}

// DecodeWAV parses a mono or multi-channel WAV stream and returns its
// samples as float32 along with the sample rate. Multi-channel input is
// mixed down by taking the first channel. Both IEEE-float and 16-bit PCM
// payloads are accepted since local engines differ in what they emit.
func DecodeWAV(r io.Reader) ([]float32, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV stream: %w", err)
	}

	if len(data) < riffHeaderSize ||
		string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	var (
		format     uint16
		channels   uint16
		sampleRate int
		bits       uint16
		payload    []byte
	)

	// Walk the chunk list; fmt must precede data in a well-formed file.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if body+chunkLen > len(data) {
			return nil, 0, fmt.Errorf("truncated %q chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < fmtChunkSize {
				return nil, 0, ErrNotWAV
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			payload = data[body : body+chunkLen]
		}

		// Chunks are word-aligned.
		offset = body + chunkLen + chunkLen%2
	}

	if payload == nil {
		return nil, 0, ErrNoDataChunk
	}
	if channels == 0 || sampleRate <= 0 {
		return nil, 0, ErrNotWAV
	}

	samples, err := decodeSamples(payload, format, bits, int(channels))
	if err != nil {
		return nil, 0, err
	}

	return samples, sampleRate, nil
}

func decodeSamples(payload []byte, format, bits uint16, channels int) ([]float32, error) {
	switch {
	case format == formatIEEEFloat && bits == 32:
		frame := bytesPerFloat32 * channels
		samples := make([]float32, 0, len(payload)/frame)
		for i := 0; i+frame <= len(payload); i += frame {
			raw := binary.LittleEndian.Uint32(payload[i : i+bytesPerFloat32])
			samples = append(samples, math.Float32frombits(raw))
		}
		return samples, nil

	case format == formatPCM && bits == 16:
		frame := bytesPerInt16 * channels
		samples := make([]float32, 0, len(payload)/frame)
		for i := 0; i+frame <= len(payload); i += frame {
			raw := int16(binary.LittleEndian.Uint16(payload[i : i+bytesPerInt16]))
			samples = append(samples, float32(raw)/32768.0)
		}
		return samples, nil

	default:
		return nil, fmt.Errorf("%w: format=%d bits=%d", ErrUnsupportedFmt, format, bits)
	}
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
