// Package ear computes the Eye Aspect Ratio signal from eye landmarks.
package ear

import "math"

// Point is a 2D landmark position in pixel space.
type Point struct {
	X float64
	Y float64
}

// EyePoints holds the six landmarks of one eye in fixed order:
// outer corner, top-1, top-2, inner corner, bottom-1, bottom-2.
// The ratio formula depends on the positions, so the order must not change.
type EyePoints [6]Point

// Pair is both eyes of one face.
type Pair struct {
	Left  EyePoints
	Right EyePoints
}

// Ratio returns the averaged ratio of both eyes.
func (p Pair) Ratio() float64 {
	return FrameRatio(p.Left, p.Right)
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Ratio returns (|p1-p5| + |p2-p4|) / (2 * |p0-p3|) for one eye.
// Degenerate landmarks with no horizontal extent yield 0.
func Ratio(eye EyePoints) float64 {
	vertical1 := distance(eye[1], eye[5])
	vertical2 := distance(eye[2], eye[4])
	horizontal := distance(eye[0], eye[3])

	if horizontal == 0 {
		return 0.0
	}
	return (vertical1 + vertical2) / (2.0 * horizontal)
}

// FrameRatio averages both eyes into the raw sample for a frame.
func FrameRatio(left, right EyePoints) float64 {
	return (Ratio(left) + Ratio(right)) / 2.0
}
