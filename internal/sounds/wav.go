package sounds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// wavFormat holds the fields of the fmt chunk used to compute duration
type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// WAVDuration returns the playing time of a PCM WAV file in seconds
func WAVDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return readWAVDuration(f)
}

func readWAVDuration(r io.Reader) (float64, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, ErrNotWAV
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, ErrNotWAV
	}

	var (
		format  *wavFormat
		dataLen uint32
		found   bool
	)
	for !found {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return 0, fmt.Errorf("wav: no data chunk: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return 0, fmt.Errorf("wav: fmt chunk too short (%d bytes)", size)
			}
			format = &wavFormat{}
			if err := binary.Read(r, binary.LittleEndian, format); err != nil {
				return 0, fmt.Errorf("wav: reading fmt chunk: %w", err)
			}
			if err := skip(r, int64(size)-16+int64(size%2)); err != nil {
				return 0, err
			}
		case "data":
			dataLen = size
			found = true
		default:
			if err := skip(r, int64(size)+int64(size%2)); err != nil {
				return 0, err
			}
		}
	}

	if format == nil {
		return 0, errors.New("wav: data chunk before fmt chunk")
	}
	if format.SampleRate == 0 || format.BlockAlign == 0 {
		return 0, fmt.Errorf("wav: invalid format (rate %d, block align %d)", format.SampleRate, format.BlockAlign)
	}
	frames := dataLen / uint32(format.BlockAlign)
	return float64(frames) / float64(format.SampleRate), nil
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("wav: truncated chunk: %w", err)
	}
	return nil
}
