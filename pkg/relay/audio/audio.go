// Package audio converts between the sample formats exchanged with browsers
// (normalized float32) and the upstream voice service (16-bit signed PCM).
// All conversions are stateless, deterministic, and length-preserving.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Encoding names accepted on inbound audio frames.
const (
	EncodingPCM16   = "pcm_s16le"
	EncodingFloat32 = "float32"
)

// FloatToPCM16 converts normalized float32 samples to 16-bit signed PCM.
// Each sample is clamped to [-1.0, 1.0], scaled by 32768, and saturated to
// the int16 range, so +1.0 maps to +32767 and -1.0 maps to -32768.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		v := int32(s * 32768)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[i] = int16(v)
	}
	return out
}

// PCM16ToBytes serializes samples as little-endian 16-bit signed PCM.
func PCM16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToPCM16 parses little-endian 16-bit signed PCM.
func BytesToPCM16(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("pcm16 payload length %d is not sample-aligned", len(data))
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out, nil
}

// BytesToFloat32 parses little-endian IEEE-754 float32 samples.
func BytesToFloat32(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("float32 payload length %d is not sample-aligned", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// EncodeBase64 encodes raw bytes using standard base64.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes a standard base64 payload.
func DecodeBase64(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

// TranscodeFloat32Base64 converts a base64-encoded float32 frame into a
// base64-encoded PCM16 frame. The sample count is preserved.
func TranscodeFloat32Base64(encoded string) (string, error) {
	raw, err := DecodeBase64(encoded)
	if err != nil {
		return "", fmt.Errorf("decode float32 frame: %w", err)
	}
	samples, err := BytesToFloat32(raw)
	if err != nil {
		return "", err
	}
	return EncodeBase64(PCM16ToBytes(FloatToPCM16(samples))), nil
}
