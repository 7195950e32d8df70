package assets

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// Stream is a seekable decoded audio stream with a known PCM length in
// bytes. Both of ebiten's decoders satisfy it.
type Stream interface {
	io.ReadSeeker
	Length() int64
}

// DecodeStream decodes encoded audio bytes into a PCM stream at the
// given sample rate. The container is sniffed from the leading magic
// bytes: "OggS" for vorbis, "RIFF" for wav.
func DecodeStream(sampleRate int, data []byte) (Stream, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("audio data too short to identify (%d bytes)", len(data))
	}

	switch {
	case bytes.HasPrefix(data, []byte("OggS")):
		stream, err := vorbis.DecodeWithSampleRate(sampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode ogg: %w", err)
		}
		return stream, nil

	case bytes.HasPrefix(data, []byte("RIFF")):
		stream, err := wav.DecodeWithSampleRate(sampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode wav: %w", err)
		}
		return stream, nil

	default:
		return nil, fmt.Errorf("unsupported audio format (magic %q)", data[:4])
	}
}

// DecodePCM fully decodes encoded audio bytes into 16-bit stereo PCM.
// This is the slow path the mixer backend needs before playback; call
// it off the tick goroutine.
func DecodePCM(sampleRate int, data []byte) ([]byte, error) {
	stream, err := DecodeStream(sampleRate, data)
	if err != nil {
		return nil, err
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read decoded audio: %w", err)
	}
	return pcm, nil
}

// PCMDuration returns the duration in seconds of decoded 16-bit stereo
// PCM at the given sample rate.
func PCMDuration(sampleRate int, pcm []byte) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(pcm)) / float64(sampleRate*4)
}
