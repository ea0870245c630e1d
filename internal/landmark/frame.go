// Package landmark adapts external face-landmark providers into frames the
// blink pipeline can consume.
package landmark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"blink-pin/internal/ear"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Face Mesh indices in outer, top, top, inner, bottom, bottom order.
var (
	LeftEye  = [6]int{33, 160, 158, 133, 153, 144}
	RightEye = [6]int{362, 385, 387, 263, 373, 380}
)

var ErrMalformedFrame = errors.New("malformed landmark frame")

// Landmark is a normalized position in [0,1] relative to the frame size.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is one provider result. An empty Landmarks slice means no face
// was detected in this frame.
type Frame struct {
	Timestamp time.Time
	Width     int
	Height    int
	Landmarks []Landmark
}

// Source yields frames in capture order. Next returns io.EOF at end of stream.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

type wireFrame struct {
	TS        float64    `json:"ts"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Landmarks []Landmark `json:"landmarks"`
}

// DecodeFrame parses the JSON frame encoding shared by file and stream sources.
// A missing timestamp is replaced by the receive time.
func DecodeFrame(data []byte) (Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if w.Width < 0 || w.Height < 0 {
		return Frame{}, fmt.Errorf("%w: negative frame size %dx%d", ErrMalformedFrame, w.Width, w.Height)
	}

	ts := time.Now()
	if w.TS > 0 {
		sec, frac := math.Modf(w.TS)
		ts = time.Unix(int64(sec), int64(math.Round(frac*1e9)))
	}

	return Frame{
		Timestamp: ts,
		Width:     w.Width,
		Height:    w.Height,
		Landmarks: w.Landmarks,
	}, nil
}

// EncodeFrame is the inverse of DecodeFrame.
func EncodeFrame(f Frame) ([]byte, error) {
	return json.Marshal(wireFrame{
		TS:        float64(f.Timestamp.Unix()) + float64(f.Timestamp.Nanosecond())/1e9,
		Width:     f.Width,
		Height:    f.Height,
		Landmarks: f.Landmarks,
	})
}

// HasFace reports whether the frame carries enough landmarks for both eyes.
func (f Frame) HasFace() bool {
	return len(f.Landmarks) > maxIndex()
}

// Eyes selects both eyes and converts them to whole-pixel coordinates.
// It returns nil when no face is present.
func (f Frame) Eyes() *ear.Pair {
	if !f.HasFace() {
		return nil
	}
	return &ear.Pair{
		Left:  f.eyePoints(LeftEye),
		Right: f.eyePoints(RightEye),
	}
}

func (f Frame) eyePoints(indices [6]int) ear.EyePoints {
	var pts ear.EyePoints
	for i, idx := range indices {
		lm := f.Landmarks[idx]
		pts[i] = ear.Point{
			X: math.Trunc(lm.X * float64(f.Width)),
			Y: math.Trunc(lm.Y * float64(f.Height)),
		}
	}
	return pts
}

func maxIndex() int {
	m := 0
	for _, set := range [][6]int{LeftEye, RightEye} {
		for _, idx := range set {
			if idx > m {
				m = idx
			}
		}
	}
	return m
}
