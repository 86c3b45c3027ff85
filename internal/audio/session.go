package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// RecordSession couples a capture device with a note recorder for a
// single voice note. Each session owns its device and data channel, so
// stopping the session releases everything it acquired, on every exit
// path: explicit stop, the duration cap, and abort on teardown.
type RecordSession struct {
	dev      Device
	dataC    chan DataPacket
	rec      *NoteRecorder
	stopOnce sync.Once
}

// StartRecordSession acquires a capture device and begins recording
// immediately. conf.OnLimit still fires when the cap forces a stop; the
// session additionally halts the device at that point so the hardware
// is never left running past the cap.
func StartRecordSession(ctx context.Context, conf RecorderConfig) (*RecordSession, error) {
	dataC := make(chan DataPacket, 64)

	session := &RecordSession{dataC: dataC} //nolint:exhaustruct // dev, rec set below

	userOnLimit := conf.OnLimit
	conf.OnLimit = func() {
		session.halt(ctx)

		if userOnLimit != nil {
			userOnLimit()
		}
	}

	rec, err := NewNoteRecorder(conf, dataC)
	if err != nil {
		return nil, fmt.Errorf("failed to create note recorder: %w", err)
	}

	dev := NewDevice(&DeviceConfig{
		Format:          malgo.FormatS16,
		SampleRate:      conf.SampleRate,
		CaptureChannels: conf.Channels,
	})

	if err := dev.CaptureInto(ctx, dataC); err != nil {
		return nil, fmt.Errorf("failed to open capture device: %w", err)
	}

	session.dev = dev
	session.rec = rec

	if err := rec.Start(ctx); err != nil {
		dev.Dealloc(ctx)

		return nil, fmt.Errorf("failed to start recorder: %w", err)
	}

	if err := dev.Start(ctx); err != nil {
		session.halt(ctx)

		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	return session, nil
}

// Elapsed returns how much audio has been captured so far.
func (s *RecordSession) Elapsed() time.Duration {
	return s.rec.Elapsed()
}

// ReadSamples returns recent samples for the level display.
func (s *RecordSession) ReadSamples(n int) []int16 {
	return s.rec.ReadSamples(n)
}

// halt stops and releases the device and closes the data channel.
// Device.Stop blocks until the capture callback has quiesced, so the
// close cannot race a send.
func (s *RecordSession) halt(ctx context.Context) {
	s.stopOnce.Do(func() {
		if err := s.dev.Stop(ctx); err != nil {
			slog.Error("failed to stop capture device", "error", err)
		}

		s.dev.Dealloc(ctx)
		close(s.dataC)
	})
}

// Finish stops the session, waits for the recorder to drain, and
// encodes the note at path.
func (s *RecordSession) Finish(ctx context.Context, path string) (Note, error) {
	s.halt(ctx)
	s.rec.Wait()

	return s.rec.Finalize(path)
}

// Abort stops the session and discards whatever was captured. Used on
// screen teardown.
func (s *RecordSession) Abort(ctx context.Context) {
	s.halt(ctx)
	s.rec.Wait()
}
