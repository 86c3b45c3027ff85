package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// Defaults for voice note capture.
const (
	// DefaultSampleRate is 16kHz mono, plenty for speech.
	DefaultSampleRate = 16000
	// DefaultChannels is mono (1 channel).
	DefaultChannels = 1
)

// RecorderConfig configures a voice note recorder.
type RecorderConfig struct {
	SampleRate  int           // Sample rate in Hz (e.g. 16000)
	Channels    int           // Number of channels (1 for mono)
	MaxDuration time.Duration // Hard cap; recording is force-stopped here

	// OnLimit is invoked exactly once, from the recorder goroutine, when
	// the cap is reached. Callers use it to stop the capture device.
	OnLimit func()
}

// Note is a finished voice note: the encoded file on disk, the rounded
// duration, and the raw PCM kept in memory for same-session playback.
type Note struct {
	Path            string
	DurationSeconds int
	PCM             []byte
}

// NoteRecorder drains raw PCM from a capture channel into memory,
// enforcing the duration cap by sample count. Notes are short (seconds)
// so buffering them in memory is cheap and keeps playback free of any
// decode step.
type NoteRecorder struct {
	conf     RecorderConfig
	input    <-chan []byte
	maxBytes int

	pcm  []byte
	ring *SampleRingBuffer

	mu        sync.RWMutex
	wg        sync.WaitGroup
	limitOnce sync.Once
}

// NewNoteRecorder creates a recorder reading from input.
func NewNoteRecorder(conf RecorderConfig, input <-chan []byte) (*NoteRecorder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	if conf.SampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	if conf.Channels != 1 {
		return nil, errors.New("only mono (1 channel) is supported")
	}

	if conf.MaxDuration <= 0 {
		return nil, errors.New("max duration must be positive")
	}

	maxSamples := int(float64(conf.SampleRate) * conf.MaxDuration.Seconds())

	return &NoteRecorder{ //nolint:exhaustruct // sync fields initialized on Start()
		conf:     conf,
		input:    input,
		maxBytes: maxSamples * 2, // S16LE, 2 bytes per sample
		ring:     NewSampleRingBuffer(conf.SampleRate), // one second of level samples
	}, nil
}

// Start begins draining PCM data from the input channel. Must be called
// before any data is sent. The goroutine keeps draining past the cap so
// the device callback never blocks, but discards the excess.
func (r *NoteRecorder) Start(ctx context.Context) error {
	r.wg.Go(func() {
		for {
			select {
			case data, ok := <-r.input:
				if !ok {
					// Channel closed, recording finished
					return
				}

				r.append(data)

			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func (r *NoteRecorder) append(data []byte) {
	r.mu.Lock()

	remaining := r.maxBytes - len(r.pcm)
	if remaining <= 0 {
		r.mu.Unlock()
		return
	}

	if len(data) > remaining {
		data = data[:remaining]
	}

	r.pcm = append(r.pcm, data...)
	capped := len(r.pcm) >= r.maxBytes
	r.mu.Unlock()

	r.ring.Write(BytesToInt16(data))

	if capped {
		r.limitOnce.Do(func() {
			if r.conf.OnLimit != nil {
				r.conf.OnLimit()
			}
		})
	}
}

// Wait blocks until the recorder goroutine finishes (input closed or
// context cancelled).
func (r *NoteRecorder) Wait() {
	r.wg.Wait()
}

// Elapsed returns how much audio has been captured so far.
func (r *NoteRecorder) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	samples := len(r.pcm) / 2

	return time.Duration(float64(samples) / float64(r.conf.SampleRate) * float64(time.Second))
}

// ReadSamples returns up to n recent samples for the level display.
func (r *NoteRecorder) ReadSamples(n int) []int16 {
	return r.ring.ReadSamples(n)
}

// Finalize encodes the captured PCM as MP3 at path and returns the
// finished note. Call after Wait(). The duration is the sample count
// rounded to the nearest whole second.
func (r *NoteRecorder) Finalize(path string) (Note, error) {
	r.mu.RLock()
	pcm := r.pcm
	r.mu.RUnlock()

	if len(pcm) == 0 {
		return Note{}, errors.New("nothing recorded")
	}

	out, err := os.Create(path)
	if err != nil {
		return Note{}, fmt.Errorf("failed to create note file %s: %w", path, err)
	}
	defer out.Close()

	if err := encodeMP3(out, r.conf.SampleRate, pcm); err != nil {
		return Note{}, fmt.Errorf("failed to encode note: %w", err)
	}

	samples := len(pcm) / 2
	seconds := int(math.Round(float64(samples) / float64(r.conf.SampleRate)))

	return Note{Path: path, DurationSeconds: seconds, PCM: pcm}, nil
}

// encodeMP3 writes S16LE mono PCM to w as MP3.
func encodeMP3(w io.Writer, sampleRate int, pcm []byte) error {
	numSamples := len(pcm) / 2
	monoSamples := make([]int16, numSamples)

	reader := bytes.NewReader(pcm)
	if err := binary.Read(reader, binary.LittleEndian, monoSamples); err != nil {
		return fmt.Errorf("failed to read PCM samples: %w", err)
	}

	// WORKAROUND: shine-mp3 Write() has a bug for mono (always increments
	// by samples_per_pass * 2), so encode as stereo with L=R.
	stereoSamples := make([]int16, numSamples*2)
	for i, sample := range monoSamples {
		stereoSamples[i*2] = sample
		stereoSamples[i*2+1] = sample
	}

	encoder := mp3encoder.NewEncoder(sampleRate, 2)
	if err := encoder.Write(w, stereoSamples); err != nil {
		return fmt.Errorf("failed to encode audio to MP3: %w", err)
	}

	return nil
}
