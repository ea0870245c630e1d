// Package capture drives one blink-PIN capture: it pulls frames from a
// landmark source, feeds the blink pipeline and reacts to user controls.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"blink-pin/internal/blink"
	"blink-pin/internal/landmark"
	"blink-pin/internal/model"
	"blink-pin/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Control int

const (
	ControlReset Control = iota
	ControlQuit
)

func (c Control) String() string {
	switch c {
	case ControlReset:
		return "reset"
	case ControlQuit:
		return "quit"
	default:
		return fmt.Sprintf("control(%d)", int(c))
	}
}

// Progress is reported after every accepted blink.
type Progress struct {
	Symbol   blink.Symbol
	Duration time.Duration
	Digits   string
	Target   int
}

type Options struct {
	// Target is the number of blinks to capture; zero means MaxBlinks.
	Target int
	// DebugEvery logs the current EAR every n frames; zero disables it.
	DebugEvery int
	Controls   <-chan Control
	OnProgress func(Progress)
	OnReset    func()
}

type Session struct {
	id       string
	source   landmark.Source
	pipeline *blink.Pipeline
	opts     Options
	frames   int
	logger   *zap.Logger
}

func NewSession(source landmark.Source, th blink.Thresholds, opts Options) *Session {
	id := uuid.NewString()
	return &Session{
		id:       id,
		source:   source,
		pipeline: blink.NewPipeline(th, opts.Target),
		opts:     opts,
		logger:   util.Get().With(zap.String("session_id", id)),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Target is the number of blinks this session waits for.
func (s *Session) Target() int {
	return s.pipeline.Target()
}

// Run captures until the sequence completes and returns its digits. Quitting,
// cancellation or the end of the stream return ErrIncompleteSequence; a
// failing source returns ErrDeviceUnavailable.
func (s *Session) Run(ctx context.Context) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan landmark.Frame)

	g.Go(func() error {
		defer close(frames)
		for {
			f, err := s.source.Next(gctx)
			if err != nil {
				if errors.Is(err, io.EOF) || gctx.Err() != nil {
					return nil
				}
				return err
			}
			select {
			case frames <- f:
			case <-gctx.Done():
				return nil
			}
		}
	})

	s.logger.Info("Capture started", zap.Int("target", s.pipeline.Target()))
	digits, runErr := s.loop(gctx, frames)
	cancel()

	if err := g.Wait(); err != nil {
		s.logger.Error("Landmark source failed", zap.Error(err))
		if errors.Is(err, model.ErrDeviceUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}
	return digits, runErr
}

func (s *Session) loop(ctx context.Context, frames <-chan landmark.Frame) (string, error) {
	controls := s.opts.Controls

	for {
		select {
		case <-ctx.Done():
			return "", s.incomplete("cancelled")

		case c, ok := <-controls:
			if !ok {
				controls = nil
				continue
			}
			switch c {
			case ControlReset:
				s.pipeline.Reset()
				s.logger.Info("Sequence reset")
				if s.opts.OnReset != nil {
					s.opts.OnReset()
				}
			case ControlQuit:
				return "", s.incomplete("quit")
			}

		case f, ok := <-frames:
			if !ok {
				return "", s.incomplete("end of stream")
			}
			s.process(f)
			if s.pipeline.Complete() {
				digits := s.pipeline.Digits()
				s.logger.Info("Capture complete",
					zap.Int("blinks", s.pipeline.Len()),
					zap.Int("frames", s.frames))
				return digits, nil
			}
		}
	}
}

func (s *Session) process(f landmark.Frame) {
	s.frames++
	obs := s.pipeline.Observe(f.Timestamp, f.Eyes())

	if !obs.FaceDetected {
		s.logger.Debug("No face in frame", zap.Int("frame", s.frames))
		return
	}
	if s.opts.DebugEvery > 0 && s.frames%s.opts.DebugEvery == 0 {
		s.logger.Debug("EAR",
			zap.Int("frame", s.frames),
			zap.Float64("raw", obs.Raw),
			zap.Float64("smoothed", obs.Smoothed),
			zap.Stringer("phase", obs.State.Phase))
	}
	if obs.ClosureConfirmed {
		s.logger.Debug("Blink started", zap.Float64("ear", obs.Smoothed))
	}
	if obs.Blink == nil {
		return
	}

	b := obs.Blink
	s.logger.Info("Blink detected",
		zap.Stringer("type", b.Symbol),
		zap.Duration("duration", b.Event.Duration()),
		zap.String("digit", b.Symbol.Digit()),
		zap.Bool("accepted", b.Accepted))

	if b.Accepted && s.opts.OnProgress != nil {
		s.opts.OnProgress(Progress{
			Symbol:   b.Symbol,
			Duration: b.Event.Duration(),
			Digits:   s.pipeline.Digits(),
			Target:   s.pipeline.Target(),
		})
	}
}

func (s *Session) incomplete(reason string) error {
	s.logger.Info("Capture ended before completion",
		zap.String("reason", reason),
		zap.Int("blinks", s.pipeline.Len()),
		zap.Int("target", s.pipeline.Target()))
	return fmt.Errorf("%w: %s after %d of %d blinks", model.ErrIncompleteSequence, reason, s.pipeline.Len(), s.pipeline.Target())
}
