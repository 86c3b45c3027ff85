package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quickwish/quickwish/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorder(t *testing.T, maxDuration time.Duration, onLimit func()) (*audio.NoteRecorder, chan []byte) {
	t.Helper()

	dataC := make(chan []byte, 64)
	rec, err := audio.NewNoteRecorder(audio.RecorderConfig{
		SampleRate:  audio.DefaultSampleRate,
		Channels:    audio.DefaultChannels,
		MaxDuration: maxDuration,
		OnLimit:     onLimit,
	}, dataC)
	require.NoError(t, err)

	return rec, dataC
}

// pcmSecond is one second of silence at 16kHz S16LE mono.
func pcmSecond() []byte {
	return make([]byte, audio.DefaultSampleRate*2)
}

func TestNoteRecorderConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := audio.NewNoteRecorder(audio.RecorderConfig{SampleRate: 16000, Channels: 1, MaxDuration: time.Second}, nil)
	require.Error(t, err)

	dataC := make(chan []byte)
	_, err = audio.NewNoteRecorder(audio.RecorderConfig{SampleRate: 0, Channels: 1, MaxDuration: time.Second}, dataC)
	require.Error(t, err)

	_, err = audio.NewNoteRecorder(audio.RecorderConfig{SampleRate: 16000, Channels: 2, MaxDuration: time.Second}, dataC)
	require.Error(t, err)

	_, err = audio.NewNoteRecorder(audio.RecorderConfig{SampleRate: 16000, Channels: 1}, dataC)
	require.Error(t, err)
}

func TestNoteRecorderDurationCap(t *testing.T) {
	t.Parallel()

	var limitCalls atomic.Int32
	rec, dataC := newRecorder(t, 2*time.Second, func() { limitCalls.Add(1) })
	require.NoError(t, rec.Start(context.Background()))

	// Feed three seconds of audio against a two second cap.
	for range 3 {
		dataC <- pcmSecond()
	}
	close(dataC)
	rec.Wait()

	assert.Equal(t, int32(1), limitCalls.Load(), "limit callback fires exactly once")
	assert.Equal(t, 2*time.Second, rec.Elapsed(), "capture truncates at the cap")

	note, err := rec.Finalize(filepath.Join(t.TempDir(), "note.mp3"))
	require.NoError(t, err)
	assert.Equal(t, 2, note.DurationSeconds)
}

func TestNoteRecorderFinalize(t *testing.T) {
	t.Parallel()

	rec, dataC := newRecorder(t, 10*time.Second, nil)
	require.NoError(t, rec.Start(context.Background()))

	dataC <- pcmSecond()
	close(dataC)
	rec.Wait()

	path := filepath.Join(t.TempDir(), "note.mp3")
	note, err := rec.Finalize(path)
	require.NoError(t, err)

	assert.Equal(t, path, note.Path)
	assert.Equal(t, 1, note.DurationSeconds)
	assert.Len(t, note.PCM, audio.DefaultSampleRate*2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size(), "MP3 file should not be empty")
}

func TestNoteRecorderDurationRounding(t *testing.T) {
	t.Parallel()

	rec, dataC := newRecorder(t, 10*time.Second, nil)
	require.NoError(t, rec.Start(context.Background()))

	// 2.6 seconds of audio rounds to 3.
	dataC <- make([]byte, int(2.6*float64(audio.DefaultSampleRate))*2)
	close(dataC)
	rec.Wait()

	note, err := rec.Finalize(filepath.Join(t.TempDir(), "note.mp3"))
	require.NoError(t, err)
	assert.Equal(t, 3, note.DurationSeconds)
}

func TestNoteRecorderEmpty(t *testing.T) {
	t.Parallel()

	rec, dataC := newRecorder(t, time.Second, nil)
	require.NoError(t, rec.Start(context.Background()))

	close(dataC)
	rec.Wait()

	_, err := rec.Finalize(filepath.Join(t.TempDir(), "note.mp3"))
	require.Error(t, err)
}

func TestNoteRecorderLevelSamples(t *testing.T) {
	t.Parallel()

	rec, dataC := newRecorder(t, time.Second, nil)
	require.NoError(t, rec.Start(context.Background()))

	dataC <- []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}
	close(dataC)
	rec.Wait()

	assert.Equal(t, []int16{1, 2, 3}, rec.ReadSamples(3))
}
