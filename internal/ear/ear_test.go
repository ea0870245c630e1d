package ear_test

import (
	"testing"

	"blink-pin/internal/ear"

	"github.com/stretchr/testify/assert"
)

func openEye(offsetX float64) ear.EyePoints {
	return ear.EyePoints{
		{X: offsetX + 0, Y: 50},  // outer corner
		{X: offsetX + 10, Y: 42}, // top-1
		{X: offsetX + 20, Y: 42}, // top-2
		{X: offsetX + 30, Y: 50}, // inner corner
		{X: offsetX + 20, Y: 58}, // bottom-1
		{X: offsetX + 10, Y: 58}, // bottom-2
	}
}

func TestRatio(t *testing.T) {
	t.Run("open eye is above the default threshold", func(t *testing.T) {
		r := ear.Ratio(openEye(0))
		// vertical distances are 16 each, horizontal is 30
		assert.InDelta(t, 32.0/60.0, r, 1e-9)
		assert.Greater(t, r, 0.25)
	})

	t.Run("ratio is translation invariant", func(t *testing.T) {
		assert.InDelta(t, ear.Ratio(openEye(0)), ear.Ratio(openEye(300)), 1e-9)
	})

	t.Run("zero horizontal distance returns exactly zero", func(t *testing.T) {
		eye := ear.EyePoints{
			{X: 5, Y: 5}, {X: 5, Y: 1}, {X: 6, Y: 1},
			{X: 5, Y: 5}, {X: 6, Y: 9}, {X: 5, Y: 9},
		}
		assert.Equal(t, 0.0, ear.Ratio(eye))
	})

	t.Run("all points collapsed returns zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ear.Ratio(ear.EyePoints{}))
	})

	t.Run("closed eye is below the default threshold", func(t *testing.T) {
		eye := openEye(0)
		eye[1].Y, eye[2].Y = 49, 49
		eye[4].Y, eye[5].Y = 51, 51
		assert.Less(t, ear.Ratio(eye), 0.25)
	})
}

func TestFrameRatio(t *testing.T) {
	closed := openEye(100)
	closed[1].Y, closed[2].Y = 50, 50
	closed[4].Y, closed[5].Y = 50, 50

	got := ear.FrameRatio(openEye(0), closed)
	assert.InDelta(t, (32.0/60.0)/2, got, 1e-9)
}

func TestSmoother(t *testing.T) {
	t.Run("first sample passes through", func(t *testing.T) {
		s := ear.NewSmoother(5)
		assert.Equal(t, 0.3, s.Add(0.3))
	})

	t.Run("constant stream yields the constant", func(t *testing.T) {
		for _, v := range []float64{0.25, 0.5, 0.125} {
			s := ear.NewSmoother(ear.DefaultWindow)
			var out float64
			for i := 0; i < ear.DefaultWindow+3; i++ {
				out = s.Add(v)
			}
			assert.Equal(t, v, out)
			assert.Equal(t, ear.DefaultWindow, s.Len())
		}
	})

	t.Run("window evicts oldest sample", func(t *testing.T) {
		s := ear.NewSmoother(3)
		s.Add(1)
		s.Add(2)
		assert.InDelta(t, 2.0, s.Add(3), 1e-12)
		// 1 is evicted, mean of 2,3,4
		assert.InDelta(t, 3.0, s.Add(4), 1e-12)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("non-positive window falls back to default", func(t *testing.T) {
		s := ear.NewSmoother(0)
		for i := 0; i < 10; i++ {
			s.Add(1)
		}
		assert.Equal(t, ear.DefaultWindow, s.Len())
	})

	t.Run("reset clears samples", func(t *testing.T) {
		s := ear.NewSmoother(5)
		s.Add(0.1)
		s.Add(0.2)
		s.Reset()
		assert.Equal(t, 0, s.Len())
		assert.Equal(t, 0.4, s.Add(0.4))
	})
}
