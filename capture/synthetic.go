package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// Synthetic tone parameters.
const (
	syntheticSampleRate = 16000
	syntheticFrequency  = 440.0
	syntheticAmplitude  = 0.2
)

// SyntheticDevice emits a playable WAV sine tone. It stands in for a
// microphone in tests, CI and headless demos.
type SyntheticDevice struct {
	// Interval is the emission period; each fragment holds Interval of audio.
	Interval time.Duration
	// OpenErr, when set, is returned by Open.
	OpenErr error
}

// Open starts emitting: a streaming WAV header first, then PCM fragments.
func (d *SyntheticDevice) Open(ctx context.Context) (Stream, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	interval := d.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	s := &syntheticStream{
		chunks:   make(chan []byte, 16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		interval: interval,
	}
	s.chunks <- wavHeader(syntheticSampleRate)
	go s.run()
	return s, nil
}

type syntheticStream struct {
	chunks   chan []byte
	quit     chan struct{}
	done     chan struct{}
	interval time.Duration

	mu     sync.Mutex
	paused bool
	phase  int
	once   sync.Once
}

func (s *syntheticStream) run() {
	defer close(s.done)
	defer close(s.chunks)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			s.mu.Lock()
			paused := s.paused
			s.mu.Unlock()
			if paused {
				continue
			}
			select {
			case s.chunks <- s.fragment():
			case <-s.quit:
				return
			}
		}
	}
}

// fragment renders one interval of 16-bit mono PCM.
func (s *syntheticStream) fragment() []byte {
	n := int(int64(syntheticSampleRate) * int64(s.interval) / int64(time.Second))
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		t := float64(s.phase+i) / syntheticSampleRate
		v := int16(syntheticAmplitude * math.MaxInt16 * math.Sin(2*math.Pi*syntheticFrequency*t))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	s.phase = (s.phase + n) % syntheticSampleRate
	return buf
}

func (s *syntheticStream) Chunks() <-chan []byte { return s.chunks }
func (s *syntheticStream) MediaType() string     { return "audio/wav" }

func (s *syntheticStream) Pause() error {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	return nil
}

func (s *syntheticStream) Resume() error {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	return nil
}

func (s *syntheticStream) Close() error {
	s.once.Do(func() { close(s.quit) })
	<-s.done
	return nil
}

// wavHeader writes a PCM WAV header with unknown (maximum) sizes, which
// players accept for streamed audio of unknown length.
func wavHeader(sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
		unknownSize   = 0xFFFFFFFF
	)
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(unknownSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(unknownSize))
	return buf.Bytes()
}
