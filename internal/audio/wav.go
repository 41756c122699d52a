package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info describes a decoded WAV upload.
type Info struct {
	Duration   float64
	SampleRate int
	Channels   int
	BitDepth   int
}

// Probe reads the WAV header and returns stream parameters and duration in
// seconds.
func Probe(data []byte) (Info, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("not a valid wav file")
	}
	dur, err := dec.Duration()
	if err != nil {
		return Info{}, fmt.Errorf("read duration: %w", err)
	}
	return Info{
		Duration:   dur.Seconds(),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// Split cuts a WAV file into chunks of at most chunkSeconds each, so long
// recordings can be transcribed piecewise. Audio that already fits in one
// chunk is returned as is.
func Split(data []byte, chunkSeconds int) ([][]byte, error) {
	info, err := Probe(data)
	if err != nil {
		return nil, err
	}
	if chunkSeconds <= 0 || info.Duration <= float64(chunkSeconds) {
		return [][]byte{data}, nil
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode pcm: %w", err)
	}

	samplesPerChunk := chunkSeconds * info.SampleRate * info.Channels
	var res [][]byte
	for from := 0; from < len(buf.Data); from += samplesPerChunk {
		to := from + samplesPerChunk
		if to > len(buf.Data) {
			to = len(buf.Data)
		}
		chunk, err := encodeWav(buf.Data[from:to], info)
		if err != nil {
			return nil, err
		}
		res = append(res, chunk)
	}
	return res, nil
}

func encodeWav(samples []int, info Info) ([]byte, error) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: info.Channels,
			SampleRate:  info.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: info.BitDepth,
	}
	out := &memBuffer{}
	enc := wav.NewEncoder(out, info.SampleRate, info.BitDepth, info.Channels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav: %w", err)
	}
	return out.Bytes(), nil
}

// memBuffer is an in-memory io.WriteSeeker for the wav encoder, which
// rewrites the header after writing samples.
type memBuffer struct {
	buf []byte
	pos int64
}

func (m *memBuffer) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		newBuf := make([]byte, end)
		copy(newBuf, m.buf)
		m.buf = newBuf
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = m.pos + offset
	case io.SeekEnd:
		newPos = int64(len(m.buf)) + offset
	}
	if newPos < 0 {
		return 0, fmt.Errorf("negative position")
	}
	m.pos = newPos
	return newPos, nil
}

func (m *memBuffer) Bytes() []byte {
	return m.buf
}
